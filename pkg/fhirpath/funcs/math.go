package funcs

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "abs", MinArgs: 0, MaxArgs: 0, Fn: fnAbs})
	eval.RegisterFunction(eval.FuncDef{Name: "ceiling", MinArgs: 0, MaxArgs: 0, Fn: fnCeiling})
	eval.RegisterFunction(eval.FuncDef{Name: "floor", MinArgs: 0, MaxArgs: 0, Fn: fnFloor})
	eval.RegisterFunction(eval.FuncDef{Name: "round", MinArgs: 0, MaxArgs: 1, Fn: fnRound})
	eval.RegisterFunction(eval.FuncDef{Name: "sqrt", MinArgs: 0, MaxArgs: 0, Fn: fnSqrt})
	eval.RegisterFunction(eval.FuncDef{Name: "truncate", MinArgs: 0, MaxArgs: 0, Fn: fnTruncate})
	eval.RegisterFunction(eval.FuncDef{Name: "exp", MinArgs: 0, MaxArgs: 0, Fn: fnExp})
	eval.RegisterFunction(eval.FuncDef{Name: "ln", MinArgs: 0, MaxArgs: 0, Fn: fnLn})
	eval.RegisterFunction(eval.FuncDef{Name: "log", MinArgs: 1, MaxArgs: 1, Fn: fnLog})
	eval.RegisterFunction(eval.FuncDef{Name: "power", MinArgs: 1, MaxArgs: 1, Fn: fnPower})
}

// singletonDecimal extracts target as a Decimal, promoting a singleton
// Integer, matching FHIRPath's numeric-function convention of accepting
// either numeric type.
func singletonDecimal(target types.Collection, op string) (types.Decimal, bool, error) {
	if len(target) == 0 {
		return types.Decimal{}, false, nil
	}
	if len(target) != 1 {
		return types.Decimal{}, false, eval.SingletonError(len(target))
	}
	switch v := target[0].(type) {
	case types.Decimal:
		return v, true, nil
	case types.Integer:
		return types.NewDecimalFromInt(v.Value()), true, nil
	default:
		return types.Decimal{}, false, eval.TypeError("Integer|Decimal", v.Type(), op)
	}
}

func singletonDecimalArg(ctx *eval.Context, e ast.Expr) (types.Decimal, error) {
	res, err := eval.Eval(ctx, e)
	if err != nil {
		return types.Decimal{}, err
	}
	d, ok, err := singletonDecimal(res, "argument")
	if err != nil {
		return types.Decimal{}, err
	}
	if !ok {
		return types.Decimal{}, eval.NewEvalError(eval.ErrInvalidArguments, "expected a numeric argument")
	}
	return d, nil
}

func fnAbs(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	if len(target) == 1 {
		if q, ok := target[0].(types.Quantity); ok {
			return types.Collection{types.NewQuantityFromDecimal(q.Value().Abs(), q.Unit())}, nil
		}
	}
	d, ok, err := singletonDecimal(target, "abs")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	if _, isInt := target[0].(types.Integer); isInt {
		return types.Collection{types.NewInteger(d.Abs().Truncate().Value())}, nil
	}
	return types.Collection{d.Abs()}, nil
}

func fnCeiling(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	d, ok, err := singletonDecimal(target, "ceiling")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	return types.Collection{d.Ceiling()}, nil
}

func fnFloor(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	d, ok, err := singletonDecimal(target, "floor")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	return types.Collection{d.Floor()}, nil
}

func fnRound(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	d, ok, err := singletonDecimal(target, "round")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	precision := 0
	if len(args) == 1 {
		p, err := evalSingletonInt(ctx, args[0])
		if err != nil {
			return nil, err
		}
		precision = p
	}
	return types.Collection{d.Round(int32(precision))}, nil
}

func fnSqrt(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	d, ok, err := singletonDecimal(target, "sqrt")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	result, err := d.Sqrt()
	if err != nil {
		return types.Collection{}, nil
	}
	return types.Collection{result}, nil
}

func fnTruncate(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	d, ok, err := singletonDecimal(target, "truncate")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	return types.Collection{d.Truncate()}, nil
}

func fnExp(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	d, ok, err := singletonDecimal(target, "exp")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	return types.Collection{d.Exp()}, nil
}

func fnLn(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	d, ok, err := singletonDecimal(target, "ln")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	result, err := d.Ln()
	if err != nil {
		return types.Collection{}, nil
	}
	return types.Collection{result}, nil
}

func fnLog(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	d, ok, err := singletonDecimal(target, "log")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	base, err := singletonDecimalArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	result, err := d.Log(base)
	if err != nil {
		return types.Collection{}, nil
	}
	return types.Collection{result}, nil
}

func fnPower(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	d, ok, err := singletonDecimal(target, "power")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	exponent, err := singletonDecimalArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	result := d.Power(exponent)
	if _, isInt := target[0].(types.Integer); isInt && exponent.IsInteger() {
		return types.Collection{types.NewInteger(result.Truncate().Value())}, nil
	}
	return types.Collection{result}, nil
}
