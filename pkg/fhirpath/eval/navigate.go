package eval

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/schema"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

// navigateProperty implements `base.name`: for each Resource element of
// base, looks up name directly, then — if name addresses a FHIR choice
// element (value[x], effective[x], ...) — tries each suffix in
// schema.ChoiceSuffixOrder (or the schema-declared candidate list, when
// a Provider is wired) until one is present on the instance. Non-Resource
// elements of base (bare primitives) contribute nothing: FHIRPath
// property access only ever navigates into complex values.
func navigateProperty(ctx *Context, base types.Collection, name string) (types.Collection, error) {
	var result types.Collection
	for _, elem := range base {
		res, ok := elem.(*types.Resource)
		if !ok {
			continue
		}
		vals, err := resolveOnResource(ctx, res, name)
		if err != nil {
			return nil, err
		}
		result = append(result, vals...)
	}
	return result, nil
}

func resolveOnResource(ctx *Context, res *types.Resource, name string) (types.Collection, error) {
	if v := res.GetCollection(name); len(v) > 0 {
		return v, nil
	}
	if _, present := res.Get(name); present {
		// present but produced an empty Collection (e.g. a JSON null),
		// which is the correct FHIRPath result.
		return types.Collection{}, nil
	}

	candidates := choiceCandidates(ctx, res, name)
	for _, suffix := range candidates {
		field := name + suffix
		if v := res.GetCollection(field); len(v) > 0 {
			return v, nil
		}
	}
	return types.Collection{}, nil
}

// choiceCandidates returns the capitalized type-name suffixes to try
// for a choice element named name on res, preferring the schema's
// declared candidate list when a Provider is wired and it recognizes
// the type, falling back to the full fixed order otherwise (matching
// an unknown or schema-less resource's best-effort navigation).
func choiceCandidates(ctx *Context, res *types.Resource, name string) []string {
	if ctx.Schema != nil {
		typeName := res.Type()
		if choices := ctx.Schema.GetChoiceTypes(typeName, name); len(choices) > 0 {
			return choices
		}
	}
	return schema.ChoiceSuffixOrder
}
