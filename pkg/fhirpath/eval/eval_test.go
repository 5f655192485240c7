package eval_test

import (
	"context"
	"testing"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	_ "github.com/octofhir/fhirpath-go/pkg/fhirpath/funcs" // self-registers built-in functions
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/parser"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func parse(t *testing.T, src string) ast.Expr {
	t.Helper()
	expr, _, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse(%q): %v", src, err)
	}
	return expr
}

func evalExpr(t *testing.T, ctx *eval.Context, src string) types.Collection {
	t.Helper()
	result, err := eval.Eval(ctx, parse(t, src))
	if err != nil {
		t.Fatalf("eval(%q): %v", src, err)
	}
	return result
}

func newTestContext(t *testing.T, resourceJSON string) *eval.Context {
	t.Helper()
	input, err := types.JSONToCollection([]byte(resourceJSON))
	if err != nil {
		t.Fatalf("JSONToCollection: %v", err)
	}
	return eval.NewContext(context.Background(), input)
}

func TestEvalLiterals(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient"}`)
	cases := map[string]string{
		"true":     "true",
		"1":        "1",
		"1.5":      "1.5",
		"'hello'":  "hello",
		"@2020-01-01": "2020-01-01",
	}
	for src, want := range cases {
		result := evalExpr(t, ctx, src)
		if len(result) != 1 {
			t.Fatalf("%q: got %d results, want 1", src, len(result))
		}
		if got := result[0].String(); got != want {
			t.Errorf("%q: got %q, want %q", src, got, want)
		}
	}
}

func TestEvalPropertyNavigation(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient","name":[{"family":"Doe","given":["John","James"]}]}`)
	result := evalExpr(t, ctx, "name.family")
	if len(result) != 1 || result[0].String() != "Doe" {
		t.Fatalf("got %v", result)
	}
	result = evalExpr(t, ctx, "name.given")
	if len(result) != 2 {
		t.Fatalf("got %d results, want 2: %v", len(result), result)
	}
}

func TestEvalIndexer(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient","name":[{"family":"Doe"},{"family":"Smith"}]}`)
	result := evalExpr(t, ctx, "name[1].family")
	if len(result) != 1 || result[0].String() != "Smith" {
		t.Fatalf("got %v", result)
	}
	// out-of-range index yields empty, not an error
	result = evalExpr(t, ctx, "name[5].family")
	if len(result) != 0 {
		t.Fatalf("got %v, want empty", result)
	}
}

func TestEvalIndexerNegativeIndexFromEnd(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient","name":[{"family":"Doe"},{"family":"Smith"}]}`)
	result := evalExpr(t, ctx, "name[-1].family")
	if len(result) != 1 || result[0].String() != "Smith" {
		t.Fatalf("got %v, want last element Smith", result)
	}
	result = evalExpr(t, ctx, "name[-2].family")
	if len(result) != 1 || result[0].String() != "Doe" {
		t.Fatalf("got %v, want first element Doe", result)
	}
	// still out-of-range past the start
	result = evalExpr(t, ctx, "name[-3].family")
	if len(result) != 0 {
		t.Fatalf("got %v, want empty", result)
	}
}

func TestEvalArithmeticAndComparison(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient"}`)
	for src, want := range map[string]bool{
		"1 + 2 = 3":   true,
		"10 - 3 = 7":  true,
		"2 * 3 = 6":   true,
		"10 / 4 = 2.5": true,
		"17 mod 5 = 2": true,
		"17 div 5 = 3": true,
		"1 < 2":       true,
		"2 <= 2":      true,
		"3 > 2":       true,
	} {
		result := evalExpr(t, ctx, src)
		if len(result) != 1 {
			t.Fatalf("%q: got %d results", src, len(result))
		}
		b, ok := result[0].(types.Boolean)
		if !ok || b.Bool() != want {
			t.Errorf("%q: got %v, want %v", src, result[0], want)
		}
	}
}

func TestEvalBooleanThreeValuedLogic(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient"}`)
	// `false and {}` is false regardless of the empty operand (NoPropagation).
	result := evalExpr(t, ctx, "false and missingField")
	if len(result) != 1 {
		t.Fatalf("got %v", result)
	}
	if b, ok := result[0].(types.Boolean); !ok || b.Bool() != false {
		t.Fatalf("got %v, want false", result[0])
	}
}

func TestEvalImpliesThreeValuedLogic(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient"}`)
	for src, want := range map[string]bool{
		"false implies false":            true,
		"false implies true":             true,
		"false implies missing.exists()": true,
		"true implies true":              true,
	} {
		result := evalExpr(t, ctx, src)
		if len(result) != 1 {
			t.Fatalf("%q: got %d results", src, len(result))
		}
		b, ok := result[0].(types.Boolean)
		if !ok || b.Bool() != want {
			t.Errorf("%q: got %v, want %v", src, result[0], want)
		}
	}
	// `true implies {}` is empty, not true or false.
	if result := evalExpr(t, ctx, "true implies missing"); len(result) != 0 {
		t.Errorf("true implies {}: got %v, want empty", result)
	}
}

func TestEvalVariableBindingAndScope(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient","name":[{"family":"Doe"}]}`)
	if err := ctx.DefineVariable("greeting", types.Collection{types.NewString("hi")}); err != nil {
		t.Fatalf("DefineVariable: %v", err)
	}
	result := evalExpr(t, ctx, "%greeting")
	if len(result) != 1 || result[0].String() != "hi" {
		t.Fatalf("got %v", result)
	}

	// WithVariable on a derived context must not leak into the parent.
	derived := ctx.WithVariable("local", types.Collection{types.NewString("only-here")})
	if _, ok := ctx.LookupVariable("local"); ok {
		t.Fatal("parent context should not see child-only variable")
	}
	if _, ok := derived.LookupVariable("local"); !ok {
		t.Fatal("derived context should see its own variable")
	}
}

func TestDefineVariableRejectsProtectedNames(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient"}`)
	for _, name := range []string{"context", "resource", "rootResource", "this", "index", "total"} {
		if err := ctx.DefineVariable(name, types.Collection{}); err == nil {
			t.Errorf("DefineVariable(%q) should have failed", name)
		}
	}
}

func TestWithElementSetsIndexAndTotal(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient"}`)
	total := types.Collection{types.NewString("a"), types.NewString("b")}
	child := ctx.WithElement(total[1], 1, total)
	if child.Index() != 1 {
		t.Fatalf("got index %d, want 1", child.Index())
	}
	if len(child.Total()) != 2 {
		t.Fatalf("got total %v", child.Total())
	}
	if len(child.This()) != 1 || child.This()[0].String() != "b" {
		t.Fatalf("got this %v", child.This())
	}
}

func TestEnterDepthGuardsRecursion(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient"}`)
	ctx.SetMaxDepth(2)
	leave1, err := ctx.EnterDepth()
	if err != nil {
		t.Fatalf("first EnterDepth: %v", err)
	}
	defer leave1()
	leave2, err := ctx.EnterDepth()
	if err != nil {
		t.Fatalf("second EnterDepth: %v", err)
	}
	defer leave2()
	if _, err := ctx.EnterDepth(); err == nil {
		t.Fatal("expected recursion-depth error on third EnterDepth")
	}
}

func TestLookupVariableAmbientForms(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient","id":"abc"}`)
	for _, name := range []string{"context", "resource", "rootResource", "sct", "loinc", "ucum"} {
		if _, ok := ctx.LookupVariable(name); !ok {
			t.Errorf("expected ambient variable %q to resolve", name)
		}
	}
}

func TestEvalFunctionCallThroughRegistry(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient","name":[{"family":"Doe"},{"family":"Smith"}]}`)
	result := evalExpr(t, ctx, "name.where(family = 'Smith').family")
	if len(result) != 1 || result[0].String() != "Smith" {
		t.Fatalf("got %v", result)
	}
}

func TestEvalUnknownFunctionErrors(t *testing.T) {
	ctx := newTestContext(t, `{"resourceType":"Patient"}`)
	_, err := eval.Eval(ctx, parse(t, "name.thisFunctionDoesNotExist()"))
	if err == nil {
		t.Fatal("expected error for unknown function")
	}
}
