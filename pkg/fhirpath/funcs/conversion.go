package funcs

import (
	"strconv"
	"strings"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "iif", MinArgs: 2, MaxArgs: 3, Strategy: eval.PerElement, Fn: fnIif})

	eval.RegisterFunction(eval.FuncDef{Name: "toBoolean", MinArgs: 0, MaxArgs: 0, Fn: fnToBoolean})
	eval.RegisterFunction(eval.FuncDef{Name: "convertsToBoolean", MinArgs: 0, MaxArgs: 0, Fn: convertsTo(fnToBoolean)})
	eval.RegisterFunction(eval.FuncDef{Name: "toInteger", MinArgs: 0, MaxArgs: 0, Fn: fnToInteger})
	eval.RegisterFunction(eval.FuncDef{Name: "convertsToInteger", MinArgs: 0, MaxArgs: 0, Fn: convertsTo(fnToInteger)})
	eval.RegisterFunction(eval.FuncDef{Name: "toDecimal", MinArgs: 0, MaxArgs: 0, Fn: fnToDecimal})
	eval.RegisterFunction(eval.FuncDef{Name: "convertsToDecimal", MinArgs: 0, MaxArgs: 0, Fn: convertsTo(fnToDecimal)})
	eval.RegisterFunction(eval.FuncDef{Name: "toString", MinArgs: 0, MaxArgs: 0, Fn: fnToString})
	eval.RegisterFunction(eval.FuncDef{Name: "convertsToString", MinArgs: 0, MaxArgs: 0, Fn: convertsTo(fnToString)})
	eval.RegisterFunction(eval.FuncDef{Name: "toDate", MinArgs: 0, MaxArgs: 0, Fn: fnToDate})
	eval.RegisterFunction(eval.FuncDef{Name: "convertsToDate", MinArgs: 0, MaxArgs: 0, Fn: convertsTo(fnToDate)})
	eval.RegisterFunction(eval.FuncDef{Name: "toDateTime", MinArgs: 0, MaxArgs: 0, Fn: fnToDateTime})
	eval.RegisterFunction(eval.FuncDef{Name: "convertsToDateTime", MinArgs: 0, MaxArgs: 0, Fn: convertsTo(fnToDateTime)})
	eval.RegisterFunction(eval.FuncDef{Name: "toTime", MinArgs: 0, MaxArgs: 0, Fn: fnToTime})
	eval.RegisterFunction(eval.FuncDef{Name: "convertsToTime", MinArgs: 0, MaxArgs: 0, Fn: convertsTo(fnToTime)})
	eval.RegisterFunction(eval.FuncDef{Name: "toQuantity", MinArgs: 0, MaxArgs: 1, Fn: fnToQuantity})
	eval.RegisterFunction(eval.FuncDef{Name: "convertsToQuantity", MinArgs: 0, MaxArgs: 1, Fn: convertsTo(fnToQuantity)})
}

func fnIif(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	cond, err := eval.Eval(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if len(cond) == 1 && isTrue(cond[0]) {
		return eval.Eval(ctx, args[1])
	}
	if len(args) == 3 {
		return eval.Eval(ctx, args[2])
	}
	return types.Collection{}, nil
}

// convertsTo wraps a toX conversion into its convertsToX counterpart:
// true/false singleton instead of the converted value or an error.
func convertsTo(to eval.FuncImpl) eval.FuncImpl {
	return func(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
		res, err := to(ctx, target, args)
		if err != nil {
			return types.Collection{types.NewBoolean(false)}, nil
		}
		return types.Collection{types.NewBoolean(len(res) > 0)}, nil
	}
}

func singletonValue(target types.Collection) (types.Value, bool, error) {
	if len(target) == 0 {
		return nil, false, nil
	}
	if len(target) != 1 {
		return nil, false, eval.SingletonError(len(target))
	}
	return target[0], true, nil
}

func fnToBoolean(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	v, ok, err := singletonValue(target)
	if err != nil || !ok {
		return types.Collection{}, err
	}
	switch val := v.(type) {
	case types.Boolean:
		return types.Collection{val}, nil
	case types.Integer:
		switch val.Value() {
		case 0:
			return types.Collection{types.NewBoolean(false)}, nil
		case 1:
			return types.Collection{types.NewBoolean(true)}, nil
		}
	case types.String:
		switch strings.ToLower(strings.TrimSpace(val.Value())) {
		case "true", "t", "yes", "y", "1", "1.0":
			return types.Collection{types.NewBoolean(true)}, nil
		case "false", "f", "no", "n", "0", "0.0":
			return types.Collection{types.NewBoolean(false)}, nil
		}
	}
	return types.Collection{}, eval.TypeError("convertible to Boolean", v.Type(), "toBoolean")
}

func fnToInteger(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	v, ok, err := singletonValue(target)
	if err != nil || !ok {
		return types.Collection{}, err
	}
	switch val := v.(type) {
	case types.Integer:
		return types.Collection{val}, nil
	case types.Boolean:
		if val.Bool() {
			return types.Collection{types.NewInteger(1)}, nil
		}
		return types.Collection{types.NewInteger(0)}, nil
	case types.String:
		i, err := strconv.ParseInt(strings.TrimSpace(val.Value()), 10, 64)
		if err != nil {
			return types.Collection{}, eval.TypeError("convertible to Integer", "String", "toInteger")
		}
		return types.Collection{types.NewInteger(i)}, nil
	}
	return types.Collection{}, eval.TypeError("convertible to Integer", v.Type(), "toInteger")
}

func fnToDecimal(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	v, ok, err := singletonValue(target)
	if err != nil || !ok {
		return types.Collection{}, err
	}
	switch val := v.(type) {
	case types.Decimal:
		return types.Collection{val}, nil
	case types.Integer:
		return types.Collection{types.NewDecimalFromInt(val.Value())}, nil
	case types.Boolean:
		if val.Bool() {
			return types.Collection{types.NewDecimalFromInt(1)}, nil
		}
		return types.Collection{types.NewDecimalFromInt(0)}, nil
	case types.String:
		d, err := types.NewDecimal(strings.TrimSpace(val.Value()))
		if err != nil {
			return types.Collection{}, eval.TypeError("convertible to Decimal", "String", "toDecimal")
		}
		return types.Collection{d}, nil
	}
	return types.Collection{}, eval.TypeError("convertible to Decimal", v.Type(), "toDecimal")
}

func fnToString(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	v, ok, err := singletonValue(target)
	if err != nil || !ok {
		return types.Collection{}, err
	}
	return types.Collection{types.NewString(v.String())}, nil
}

func fnToDate(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	v, ok, err := singletonValue(target)
	if err != nil || !ok {
		return types.Collection{}, err
	}
	switch val := v.(type) {
	case types.Date:
		return types.Collection{val}, nil
	case types.DateTime:
		d, err := types.NewDate(val.String()[:min(len(val.String()), 10)])
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{d}, nil
	case types.String:
		d, err := types.NewDate(strings.TrimSpace(val.Value()))
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{d}, nil
	}
	return types.Collection{}, eval.TypeError("convertible to Date", v.Type(), "toDate")
}

func fnToDateTime(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	v, ok, err := singletonValue(target)
	if err != nil || !ok {
		return types.Collection{}, err
	}
	switch val := v.(type) {
	case types.DateTime:
		return types.Collection{val}, nil
	case types.Date:
		dt, err := types.NewDateTime(val.String())
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{dt}, nil
	case types.String:
		dt, err := types.NewDateTime(strings.TrimSpace(val.Value()))
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{dt}, nil
	}
	return types.Collection{}, eval.TypeError("convertible to DateTime", v.Type(), "toDateTime")
}

func fnToTime(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	v, ok, err := singletonValue(target)
	if err != nil || !ok {
		return types.Collection{}, err
	}
	switch val := v.(type) {
	case types.Time:
		return types.Collection{val}, nil
	case types.String:
		t, err := types.NewTime(strings.TrimSpace(val.Value()))
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{t}, nil
	}
	return types.Collection{}, eval.TypeError("convertible to Time", v.Type(), "toTime")
}

func fnToQuantity(_ *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	v, ok, err := singletonValue(target)
	if err != nil || !ok {
		return types.Collection{}, err
	}
	switch val := v.(type) {
	case types.Quantity:
		return types.Collection{val}, nil
	case types.Integer:
		return types.Collection{types.NewQuantityFromDecimal(types.NewDecimalFromInt(val.Value()).Value(), "1")}, nil
	case types.Decimal:
		return types.Collection{types.NewQuantityFromDecimal(val.Value(), "1")}, nil
	case types.String:
		q, err := types.NewQuantity(strings.TrimSpace(val.Value()))
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{q}, nil
	}
	return types.Collection{}, eval.TypeError("convertible to Quantity", v.Type(), "toQuantity")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
