package funcs

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "single", MinArgs: 0, MaxArgs: 0, Fn: fnSingle})
	eval.RegisterFunction(eval.FuncDef{Name: "first", MinArgs: 0, MaxArgs: 0, Fn: fnFirst})
	eval.RegisterFunction(eval.FuncDef{Name: "last", MinArgs: 0, MaxArgs: 0, Fn: fnLast})
	eval.RegisterFunction(eval.FuncDef{Name: "tail", MinArgs: 0, MaxArgs: 0, Fn: fnTail})
	eval.RegisterFunction(eval.FuncDef{Name: "skip", MinArgs: 1, MaxArgs: 1, Fn: fnSkip})
	eval.RegisterFunction(eval.FuncDef{Name: "take", MinArgs: 1, MaxArgs: 1, Fn: fnTake})
	eval.RegisterFunction(eval.FuncDef{Name: "intersect", MinArgs: 1, MaxArgs: 1, Fn: fnIntersect})
	eval.RegisterFunction(eval.FuncDef{Name: "exclude", MinArgs: 1, MaxArgs: 1, Fn: fnExclude})
	eval.RegisterFunction(eval.FuncDef{Name: "combine", MinArgs: 1, MaxArgs: 1, Fn: fnCombine})
	eval.RegisterFunction(eval.FuncDef{Name: "union", MinArgs: 1, MaxArgs: 1, Fn: fnUnionFunc})
	eval.RegisterFunction(eval.FuncDef{Name: "subsetOf", MinArgs: 1, MaxArgs: 1, Fn: fnSubsetOf})
	eval.RegisterFunction(eval.FuncDef{Name: "supersetOf", MinArgs: 1, MaxArgs: 1, Fn: fnSupersetOf})
	eval.RegisterFunction(eval.FuncDef{Name: "sort", MinArgs: 0, MaxArgs: -1, Strategy: eval.PerElement, Fn: fnSort})
}

func fnSingle(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	switch len(target) {
	case 0:
		return types.Collection{}, nil
	case 1:
		return target, nil
	default:
		return nil, eval.SingletonError(len(target))
	}
}

func fnFirst(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	if v, ok := target.First(); ok {
		return types.Collection{v}, nil
	}
	return types.Collection{}, nil
}

func fnLast(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	if v, ok := target.Last(); ok {
		return types.Collection{v}, nil
	}
	return types.Collection{}, nil
}

func fnTail(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	return target.Tail(), nil
}

func fnSkip(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	n, err := evalSingletonInt(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return target.Skip(n), nil
}

func fnTake(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	n, err := evalSingletonInt(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return target.Take(n), nil
}

func fnIntersect(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	other, err := eval.Eval(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return target.Intersect(other), nil
}

func fnExclude(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	other, err := eval.Eval(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return target.Exclude(other), nil
}

func fnCombine(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	other, err := eval.Eval(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return target.Combine(other), nil
}

func fnUnionFunc(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	other, err := eval.Eval(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return target.Union(other), nil
}

func fnSubsetOf(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	other, err := eval.Eval(ctx, args[0])
	if err != nil {
		return nil, err
	}
	for _, v := range target {
		if !other.Contains(v) {
			return types.Collection{types.NewBoolean(false)}, nil
		}
	}
	return types.Collection{types.NewBoolean(true)}, nil
}

func fnSupersetOf(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	other, err := eval.Eval(ctx, args[0])
	if err != nil {
		return nil, err
	}
	for _, v := range other {
		if !target.Contains(v) {
			return types.Collection{types.NewBoolean(false)}, nil
		}
	}
	return types.Collection{types.NewBoolean(true)}, nil
}

// sortEntry pairs a collection element with its evaluated sort keys.
type sortEntry struct {
	val  types.Value
	keys []types.Collection
}

// fnSort implements sort([key1, key2, ...]): each key expression is
// evaluated per element (bound to $this) to produce a sort key; a key
// expression prefixed by unary `-` sorts that key descending. Empty keys
// collate last ascending / first descending. The sort is stable so ties
// preserve input order.
func fnSort(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	descending := make([]bool, len(args))
	exprs := make([]ast.Expr, len(args))
	for i, a := range args {
		if u, ok := a.(*ast.UnaryOp); ok && u.Op == "-" {
			descending[i] = true
			exprs[i] = u.Operand
		} else {
			exprs[i] = a
		}
	}

	entries := make([]sortEntry, len(target))
	for i, elem := range target {
		elemCtx := ctx.WithElement(elem, i, target)
		keys := make([]types.Collection, len(exprs))
		for j, e := range exprs {
			k, err := eval.Eval(elemCtx, e)
			if err != nil {
				return nil, err
			}
			keys[j] = k
		}
		entries[i] = sortEntry{val: elem, keys: keys}
	}

	if len(args) == 0 {
		return target, nil
	}

	result := make(types.Collection, len(target))
	for i, e := range entries {
		result[i] = e.val
	}
	sortEntriesStable(entries, descending)
	for i, e := range entries {
		result[i] = e.val
	}
	return result, nil
}

func sortEntriesStable(entries []sortEntry, descending []bool) {
	// insertion sort: stable, and entry count per sort() call is small
	// enough that quadratic behavior is not a practical concern.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && sortLess(entries[j], entries[j-1], descending); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

func sortLess(a, b sortEntry, descending []bool) bool {
	for i := range a.keys {
		aEmpty, bEmpty := len(a.keys[i]) == 0, len(b.keys[i]) == 0
		if aEmpty && bEmpty {
			continue
		}
		desc := i < len(descending) && descending[i]
		if aEmpty {
			return desc
		}
		if bEmpty {
			return !desc
		}
		cmp, ok := a.keys[i][0].(types.Comparable)
		if !ok {
			continue
		}
		c, err := cmp.Compare(b.keys[i][0])
		if err != nil || c == 0 {
			continue
		}
		if desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func evalSingletonInt(ctx *eval.Context, e ast.Expr) (int, error) {
	res, err := eval.Eval(ctx, e)
	if err != nil {
		return 0, err
	}
	if len(res) != 1 {
		return 0, eval.SingletonError(len(res))
	}
	i, ok := res[0].(types.Integer)
	if !ok {
		return 0, eval.TypeError("Integer", res[0].Type(), "argument")
	}
	return int(i.Value()), nil
}
