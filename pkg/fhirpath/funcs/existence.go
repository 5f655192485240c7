// Package funcs registers the FHIRPath built-in function library into
// pkg/fhirpath/eval's global registry. Each file's init() calls
// eval.RegisterFunction so the eval package itself never imports funcs,
// avoiding an import cycle (funcs needs eval.Eval to run lambda bodies).
package funcs

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "empty", MinArgs: 0, MaxArgs: 0, Fn: fnEmpty})
	eval.RegisterFunction(eval.FuncDef{Name: "exists", MinArgs: 0, MaxArgs: 1, Strategy: eval.PerElement, Fn: fnExists})
	eval.RegisterFunction(eval.FuncDef{Name: "all", MinArgs: 1, MaxArgs: 1, Strategy: eval.PerElement, Fn: fnAll})
	eval.RegisterFunction(eval.FuncDef{Name: "allTrue", MinArgs: 0, MaxArgs: 0, Fn: fnAllTrue})
	eval.RegisterFunction(eval.FuncDef{Name: "anyTrue", MinArgs: 0, MaxArgs: 0, Fn: fnAnyTrue})
	eval.RegisterFunction(eval.FuncDef{Name: "allFalse", MinArgs: 0, MaxArgs: 0, Fn: fnAllFalse})
	eval.RegisterFunction(eval.FuncDef{Name: "anyFalse", MinArgs: 0, MaxArgs: 0, Fn: fnAnyFalse})
	eval.RegisterFunction(eval.FuncDef{Name: "count", MinArgs: 0, MaxArgs: 0, Fn: fnCount})
	eval.RegisterFunction(eval.FuncDef{Name: "distinct", MinArgs: 0, MaxArgs: 0, Fn: fnDistinct})
	eval.RegisterFunction(eval.FuncDef{Name: "isDistinct", MinArgs: 0, MaxArgs: 0, Fn: fnIsDistinct})
	eval.RegisterFunction(eval.FuncDef{Name: "not", MinArgs: 0, MaxArgs: 0, Fn: fnNot})
}

func fnEmpty(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{types.NewBoolean(target.Empty())}, nil
}

// fnExists implements exists() and exists(criteria). Without an
// argument it's equivalent to `not empty()`; with one, it's equivalent
// to `where(criteria).exists()`.
func fnExists(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	if len(args) == 0 {
		return types.Collection{types.NewBoolean(!target.Empty())}, nil
	}
	filtered, err := evalPerElement(ctx, target, args[0])
	if err != nil {
		return nil, err
	}
	for _, kept := range filtered {
		if kept {
			return types.Collection{types.NewBoolean(true)}, nil
		}
	}
	return types.Collection{types.NewBoolean(false)}, nil
}

func fnAll(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	kept, err := evalPerElement(ctx, target, args[0])
	if err != nil {
		return nil, err
	}
	for _, k := range kept {
		if !k {
			return types.Collection{types.NewBoolean(false)}, nil
		}
	}
	return types.Collection{types.NewBoolean(true)}, nil
}

func fnAllTrue(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{types.NewBoolean(target.AllTrue())}, nil
}

func fnAnyTrue(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{types.NewBoolean(target.AnyTrue())}, nil
}

func fnAllFalse(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{types.NewBoolean(target.AllFalse())}, nil
}

func fnAnyFalse(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{types.NewBoolean(target.AnyFalse())}, nil
}

func fnCount(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{types.NewInteger(int64(target.Count()))}, nil
}

func fnDistinct(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return target.Distinct(), nil
}

func fnIsDistinct(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{types.NewBoolean(target.IsDistinct())}, nil
}

func fnNot(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	if len(target) == 0 {
		return types.Collection{}, nil
	}
	b, ok := target[0].(types.Boolean)
	if !ok || len(target) != 1 {
		return nil, eval.TypeError("Boolean", target[0].Type(), "not")
	}
	return types.Collection{b.Not()}, nil
}

// evalPerElement evaluates criteria once per element of target, with
// $this/$index/$total bound to that element, and returns the resulting
// per-element truthiness (an empty or non-Boolean result is treated as
// false, matching where()/exists()/all()'s tolerant semantics).
func evalPerElement(ctx *eval.Context, target types.Collection, criteria ast.Expr) ([]bool, error) {
	result := make([]bool, len(target))
	for i, elem := range target {
		elemCtx := ctx.WithElement(elem, i, target)
		res, err := eval.Eval(elemCtx, criteria)
		if err != nil {
			return nil, err
		}
		result[i] = len(res) == 1 && isTrue(res[0])
	}
	return result, nil
}

func isTrue(v types.Value) bool {
	b, ok := v.(types.Boolean)
	return ok && b.Bool()
}
