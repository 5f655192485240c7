package eval

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

// evalInvocation dispatches a function/method call. Base is nil for a
// root-level call (`exists()` evaluated with $this as the receiver);
// otherwise Base is evaluated first and becomes the receiver.
func evalInvocation(ctx *Context, n *ast.Invocation) (types.Collection, error) {
	target := ctx.This()
	if n.Base != nil {
		base, err := Eval(ctx, n.Base)
		if err != nil {
			return nil, err
		}
		target = base
	}

	if n.Name == "extension" && n.Base != nil {
		// extension(url) has schema-shape semantics (it inspects the
		// receiver's own `extension` array) distinct from ordinary
		// function dispatch, so it's special-cased here rather than
		// registered like other functions — it needs the Resource
		// values themselves, not a flattened Collection.
		if handled, result, err := tryExtensionCall(ctx, target, n.Args); handled {
			return result, err
		}
	}

	def, ok := LookupFunction(n.Name)
	if !ok {
		return nil, FunctionNotFoundError(n.Name)
	}
	if len(n.Args) < def.MinArgs || (def.MaxArgs >= 0 && len(n.Args) > def.MaxArgs) {
		return nil, InvalidArgumentsError(n.Name, def.MinArgs, len(n.Args))
	}
	return def.Fn(ctx, target, n.Args)
}

// tryExtensionCall implements extension(url) directly against Resource
// receivers: it filters each receiver's `extension` array to entries
// whose `url` equals the argument. Non-Resource (primitive) receivers
// are not handled here — FHIR attaches extensions to primitives via the
// sibling "_name" element, which a direct function call has no access
// to once the primitive has been flattened out of its parent; callers
// needing that form should navigate `_field.extension(url)` explicitly
// if their schema surfaces the sibling as a property, a documented
// limitation (see DESIGN.md).
func tryExtensionCall(ctx *Context, target types.Collection, args []ast.Expr) (bool, types.Collection, error) {
	if len(args) != 1 {
		return false, nil, nil
	}
	urlColl, err := Eval(ctx, args[0])
	if err != nil {
		return true, nil, err
	}
	if len(urlColl) != 1 {
		return true, nil, SingletonError(len(urlColl))
	}
	urlStr, ok := urlColl[0].(types.String)
	if !ok {
		return true, nil, TypeError("String", urlColl[0].Type(), "extension")
	}

	var result types.Collection
	for _, elem := range target {
		res, ok := elem.(*types.Resource)
		if !ok {
			continue
		}
		for _, ext := range res.ExtensionValues() {
			extRes, ok := ext.(*types.Resource)
			if !ok {
				continue
			}
			if urlVal, ok := extRes.Get("url"); ok {
				if s, ok := urlVal.(types.String); ok && s.Value() == urlStr.Value() {
					result = append(result, extRes)
				}
			}
		}
	}
	return true, result, nil
}
