package funcs

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "now", MinArgs: 0, MaxArgs: 0, Fn: fnNow})
	eval.RegisterFunction(eval.FuncDef{Name: "today", MinArgs: 0, MaxArgs: 0, Fn: fnToday})
	eval.RegisterFunction(eval.FuncDef{Name: "timeOfDay", MinArgs: 0, MaxArgs: 0, Fn: fnTimeOfDay})
}

// now(), today(), and timeOfDay() must be stable within a single
// evaluation (two calls in the same expression must agree), so they
// read the instant fixed by the Context at construction rather than
// calling time.Now() directly.
func fnNow(ctx *eval.Context, _ types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{types.NewDateTimeFromTime(ctx.EvaluationInstant())}, nil
}

func fnToday(ctx *eval.Context, _ types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{types.NewDateFromTime(ctx.EvaluationInstant())}, nil
}

func fnTimeOfDay(ctx *eval.Context, _ types.Collection, _ []ast.Expr) (types.Collection, error) {
	return types.Collection{types.NewTimeFromGoTime(ctx.EvaluationInstant())}, nil
}
