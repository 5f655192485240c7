package funcs

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "where", MinArgs: 1, MaxArgs: 1, Strategy: eval.PerElement, Fn: fnWhere})
	eval.RegisterFunction(eval.FuncDef{Name: "select", MinArgs: 1, MaxArgs: 1, Strategy: eval.PerElement, Fn: fnSelect})
	eval.RegisterFunction(eval.FuncDef{Name: "repeat", MinArgs: 1, MaxArgs: 1, Strategy: eval.PerElement, Fn: fnRepeat})
	eval.RegisterFunction(eval.FuncDef{Name: "ofType", MinArgs: 1, MaxArgs: 1, Fn: fnOfType})
	eval.RegisterFunction(eval.FuncDef{Name: "children", MinArgs: 0, MaxArgs: 0, Fn: fnChildren})
	eval.RegisterFunction(eval.FuncDef{Name: "descendants", MinArgs: 0, MaxArgs: 0, Fn: fnDescendants})
}

func fnWhere(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	var result types.Collection
	for i, elem := range target {
		elemCtx := ctx.WithElement(elem, i, target)
		res, err := eval.Eval(elemCtx, args[0])
		if err != nil {
			return nil, err
		}
		if len(res) == 1 && isTrue(res[0]) {
			result = append(result, elem)
		}
	}
	return result, nil
}

func fnSelect(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	var result types.Collection
	for i, elem := range target {
		elemCtx := ctx.WithElement(elem, i, target)
		res, err := eval.Eval(elemCtx, args[0])
		if err != nil {
			return nil, err
		}
		result = append(result, res...)
	}
	return result, nil
}

// fnRepeat applies projection repeatedly until no new elements appear,
// accumulating the union of every generation (not including the
// starting collection itself), guarding against cycles via the
// distinctness of the frontier.
func fnRepeat(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	var result types.Collection
	frontier := target
	seen := types.Collection{}
	for len(frontier) > 0 {
		var next types.Collection
		for i, elem := range frontier {
			elemCtx := ctx.WithElement(elem, i, frontier)
			res, err := eval.Eval(elemCtx, args[0])
			if err != nil {
				return nil, err
			}
			next = append(next, res...)
		}
		var fresh types.Collection
		for _, v := range next {
			if !seen.Contains(v) {
				seen = append(seen, v)
				fresh = append(fresh, v)
			}
		}
		if len(fresh) == 0 {
			break
		}
		result = append(result, fresh...)
		frontier = fresh
	}
	return result, nil
}

func fnOfType(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	typeName, err := typeSpecifierName(args[0])
	if err != nil {
		return nil, err
	}
	var result types.Collection
	for _, elem := range target {
		if matchesTypeName(ctx, elem, typeName) {
			result = append(result, elem)
		}
	}
	return result, nil
}

// typeSpecifierName extracts the bare type name from a type-specifier
// argument, which the parser represents as an Identifier or a qualified
// PropertyAccess chain (e.g. FHIR.Patient), ignoring the namespace.
func typeSpecifierName(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Name, nil
	case *ast.PropertyAccess:
		return n.Property.Name, nil
	default:
		return "", eval.NewEvalError(eval.ErrInvalidArguments, "expected a type specifier")
	}
}

func matchesTypeName(ctx *eval.Context, v types.Value, typeName string) bool {
	actual := v.Type()
	if res, ok := v.(*types.Resource); ok {
		actual = res.Type()
	}
	if actual == typeName {
		return true
	}
	if ctx.Schema == nil {
		return false
	}
	for t, ok := actual, true; ok; t, ok = ctx.Schema.GetBaseType(t) {
		if t == typeName {
			return true
		}
	}
	return false
}

func fnChildren(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	var result types.Collection
	for _, elem := range target {
		if res, ok := elem.(*types.Resource); ok {
			result = append(result, res.Children()...)
		}
	}
	return result, nil
}

func fnDescendants(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	var result types.Collection
	var walk func(types.Collection)
	walk = func(c types.Collection) {
		for _, elem := range c {
			res, ok := elem.(*types.Resource)
			if !ok {
				continue
			}
			kids := res.Children()
			result = append(result, kids...)
			walk(kids)
		}
	}
	walk(target)
	return result, nil
}
