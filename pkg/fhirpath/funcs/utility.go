package funcs

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/trace"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "trace", MinArgs: 1, MaxArgs: 2, Fn: fnTrace})
	eval.RegisterFunction(eval.FuncDef{Name: "defineVariable", MinArgs: 1, MaxArgs: 2, Fn: fnDefineVariable})
	eval.RegisterFunction(eval.FuncDef{Name: "resolve", MinArgs: 0, MaxArgs: 0, Fn: fnResolve})
	eval.RegisterFunction(eval.FuncDef{Name: "conformsTo", MinArgs: 1, MaxArgs: 1, Fn: fnConformsTo})
	eval.RegisterFunction(eval.FuncDef{Name: "memberOf", MinArgs: 1, MaxArgs: 1, Fn: fnMemberOf})
	eval.RegisterFunction(eval.FuncDef{Name: "subsumes", MinArgs: 1, MaxArgs: 1, Fn: fnSubsumes})
	eval.RegisterFunction(eval.FuncDef{Name: "subsumedBy", MinArgs: 1, MaxArgs: 1, Fn: fnSubsumedBy})
	eval.RegisterFunction(eval.FuncDef{Name: "translate", MinArgs: 1, MaxArgs: 1, Fn: fnTranslate})
}

func fnTrace(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	name, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	var projection types.Collection
	if len(args) == 2 {
		projection, err = eval.Eval(ctx, args[1])
		if err != nil {
			return nil, err
		}
	}
	if ctx.Trace != nil {
		ctx.Trace.Trace(trace.Event{Name: name, Values: target, Project: projection})
	}
	return target, nil
}

// fnDefineVariable evaluates value (or defaults to target, the focus
// it's chained off) and binds it in place on ctx — see Context.DefineVariable
// for why mutating in place is what makes the binding visible to
// subsequent chained calls.
func fnDefineVariable(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	name, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	value := target
	if len(args) == 2 {
		value, err = eval.Eval(ctx, args[1])
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.DefineVariable(name, value); err != nil {
		return nil, err
	}
	return target, nil
}

func fnResolve(ctx *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	var result types.Collection
	for _, elem := range target {
		res, ok := elem.(*types.Resource)
		if !ok {
			continue
		}
		refStr, ok := referenceString(res)
		if !ok {
			continue
		}
		resolved, ok := resolveReference(ctx, refStr)
		if ok {
			result = append(result, resolved)
		}
	}
	return result, nil
}

func referenceString(res *types.Resource) (string, bool) {
	v, ok := res.Get("reference")
	if !ok {
		return "", false
	}
	s, ok := v.(types.String)
	if !ok {
		return "", false
	}
	return s.Value(), true
}

func resolveReference(ctx *eval.Context, ref string) (*types.Resource, bool) {
	var contained, rootContained, bundleEntries []*types.Resource
	if cur := currentResource(ctx); cur != nil {
		contained = asResourceSlice(cur.GetCollection("contained"))
	}
	root := rootResource(ctx)
	if root != nil {
		rootContained = asResourceSlice(root.GetCollection("contained"))
		if root.Type() == "Bundle" {
			bundleEntries = asResourceSlice(root.GetCollection("entry"))
		}
	}
	if ctx.Reference != nil {
		if res, ok := ctx.Reference.Resolve(ctx.Go(), ref, contained, rootContained, bundleEntries); ok {
			return res, true
		}
	}
	return nil, false
}

func currentResource(ctx *eval.Context) *types.Resource {
	for _, v := range ctx.Resource() {
		if res, ok := v.(*types.Resource); ok {
			return res
		}
	}
	return nil
}

func rootResource(ctx *eval.Context) *types.Resource {
	for _, v := range ctx.RootResource() {
		if res, ok := v.(*types.Resource); ok {
			return res
		}
	}
	return nil
}

func asResourceSlice(c types.Collection) []*types.Resource {
	var out []*types.Resource
	for _, v := range c {
		if res, ok := v.(*types.Resource); ok {
			out = append(out, res)
		}
	}
	return out
}

// fnConformsTo checks structural/choice-type conformance only (the
// engine carries no profile/StructureDefinition validator): a resource
// conforms to profile when its declared resourceType matches the
// profile's final path segment.
func fnConformsTo(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	profile, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if len(target) != 1 {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	res, ok := target[0].(*types.Resource)
	if !ok {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	name := lastSegment(profile)
	return types.Collection{types.NewBoolean(matchesTypeName(ctx, res, name))}, nil
}

func lastSegment(url string) string {
	last := url
	for i := len(url) - 1; i >= 0; i-- {
		if url[i] == '/' {
			last = url[i+1:]
			break
		}
	}
	return last
}

func fnMemberOf(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	valueSet, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if len(target) != 1 {
		return types.Collection{}, nil
	}
	system, code, ok := codeableFields(target[0])
	if !ok || ctx.Terminology == nil {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	member, err := ctx.Terminology.MemberOf(ctx.Go(), system, code, valueSet)
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewBoolean(member)}, nil
}

func fnSubsumes(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	return subsumption(ctx, target, args, false)
}

func fnSubsumedBy(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	return subsumption(ctx, target, args, true)
}

func subsumption(ctx *eval.Context, target types.Collection, args []ast.Expr, reversed bool) (types.Collection, error) {
	other, err := eval.Eval(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if len(target) != 1 || len(other) != 1 {
		return types.Collection{}, nil
	}
	systemA, codeA, ok := codeableFields(target[0])
	if !ok {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	_, codeB, ok := codeableFields(other[0])
	if !ok {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	if reversed {
		codeA, codeB = codeB, codeA
	}
	if ctx.Terminology == nil {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	result, err := ctx.Terminology.Subsumes(ctx.Go(), systemA, codeA, codeB)
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewBoolean(result)}, nil
}

func codeableFields(v types.Value) (system, code string, ok bool) {
	res, isRes := v.(*types.Resource)
	if !isRes {
		if s, isStr := v.(types.String); isStr {
			return "", s.Value(), true
		}
		return "", "", false
	}
	if c, present := res.Get("code"); present {
		if s, isStr := c.(types.String); isStr {
			code = s.Value()
		}
	}
	if s, present := res.Get("system"); present {
		if str, isStr := s.(types.String); isStr {
			system = str.Value()
		}
	}
	return system, code, code != ""
}

// fnTranslate is a FHIR-specific terminology function with no bool
// shorthand in the TerminologyProvider interface (§6 only exposes
// MemberOf/Subsumes); lacking a wired ConceptMap translation service,
// it conservatively returns empty rather than fabricating a result.
func fnTranslate(_ *eval.Context, _ types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{}, nil
}
