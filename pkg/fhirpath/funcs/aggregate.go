package funcs

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "aggregate", MinArgs: 1, MaxArgs: 2, Strategy: eval.PerElement, Fn: fnAggregate})
	eval.RegisterFunction(eval.FuncDef{Name: "sum", MinArgs: 0, MaxArgs: 0, Fn: fnSum})
	eval.RegisterFunction(eval.FuncDef{Name: "avg", MinArgs: 0, MaxArgs: 0, Fn: fnAvg})
	eval.RegisterFunction(eval.FuncDef{Name: "min", MinArgs: 0, MaxArgs: 0, Fn: fnMin})
	eval.RegisterFunction(eval.FuncDef{Name: "max", MinArgs: 0, MaxArgs: 0, Fn: fnMax})
}

// fnAggregate iterates target with $this/$index bound per element and
// $total threaded through from one iteration to the next, starting at
// init (or empty when omitted), and returns the final $total.
func fnAggregate(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	var total types.Collection
	if len(args) == 2 {
		init, err := eval.Eval(ctx, args[1])
		if err != nil {
			return nil, err
		}
		total = init
	}
	for i, elem := range target {
		elemCtx := ctx.WithElement(elem, i, total)
		res, err := eval.Eval(elemCtx, args[0])
		if err != nil {
			return nil, err
		}
		total = res
	}
	return total, nil
}

func fnSum(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	if len(target) == 0 {
		return types.Collection{}, nil
	}
	allInt := true
	total := types.NewDecimalFromInt(0)
	for _, v := range target {
		d, ok, err := singletonDecimal(types.Collection{v}, "sum")
		if err != nil || !ok {
			return types.Collection{}, err
		}
		if _, isInt := v.(types.Integer); !isInt {
			allInt = false
		}
		total = total.Add(d)
	}
	if allInt {
		return types.Collection{types.NewInteger(total.Truncate().Value())}, nil
	}
	return types.Collection{total}, nil
}

func fnAvg(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	if len(target) == 0 {
		return types.Collection{}, nil
	}
	total := types.NewDecimalFromInt(0)
	for _, v := range target {
		d, ok, err := singletonDecimal(types.Collection{v}, "avg")
		if err != nil || !ok {
			return types.Collection{}, err
		}
		total = total.Add(d)
	}
	avg, err := total.Divide(types.NewDecimalFromInt(int64(len(target))))
	if err != nil {
		return types.Collection{}, nil
	}
	return types.Collection{avg}, nil
}

func fnMin(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return minMax(target, "min", false)
}

func fnMax(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return minMax(target, "max", true)
}

func minMax(target types.Collection, op string, wantMax bool) (types.Collection, error) {
	if len(target) == 0 {
		return types.Collection{}, nil
	}
	best := target[0]
	for _, v := range target[1:] {
		cmp, ok := best.(types.Comparable)
		if !ok {
			return nil, eval.TypeError("comparable", best.Type(), op)
		}
		c, err := cmp.Compare(v)
		if err != nil {
			return nil, err
		}
		if (wantMax && c < 0) || (!wantMax && c > 0) {
			best = v
		}
	}
	return types.Collection{best}, nil
}
