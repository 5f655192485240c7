package funcs

import (
	"context"
	"testing"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/parser"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func evalSrc(t *testing.T, resourceJSON, src string) types.Collection {
	t.Helper()
	input, err := types.JSONToCollection([]byte(resourceJSON))
	if err != nil {
		t.Fatalf("JSONToCollection: %v", err)
	}
	ctx := eval.NewContext(context.Background(), input)
	tree, _, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	result, err := eval.Eval(ctx, tree)
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	return result
}

func evalSrcErr(t *testing.T, resourceJSON, src string) error {
	t.Helper()
	input, err := types.JSONToCollection([]byte(resourceJSON))
	if err != nil {
		t.Fatalf("JSONToCollection: %v", err)
	}
	ctx := eval.NewContext(context.Background(), input)
	tree, _, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	_, err = eval.Eval(ctx, tree)
	return err
}

const patientJSON = `{
	"resourceType": "Patient",
	"active": true,
	"name": [
		{"use": "official", "family": "Doe", "given": ["John", "James"]},
		{"use": "nickname", "given": ["Johnny"]}
	],
	"telecom": [
		{"system": "phone", "value": "555-1234"},
		{"system": "email", "value": "john@example.com"}
	]
}`

func wantSingle(t *testing.T, result types.Collection, want string) {
	t.Helper()
	if len(result) != 1 {
		t.Fatalf("got %d results, want 1: %v", len(result), result)
	}
	if got := result[0].String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func wantEmpty(t *testing.T, result types.Collection) {
	t.Helper()
	if len(result) != 0 {
		t.Fatalf("got %v, want empty", result)
	}
}

func wantCount(t *testing.T, result types.Collection, n int) {
	t.Helper()
	if len(result) != n {
		t.Fatalf("got %d results, want %d: %v", len(result), n, result)
	}
}

func TestExistenceFunctions(t *testing.T) {
	wantSingle(t, evalSrc(t, patientJSON, "name.empty()"), "false")
	wantSingle(t, evalSrc(t, patientJSON, "missing.empty()"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "name.exists()"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "name.exists(use = 'nickname')"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "name.all(given.exists())"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "name.count()"), "2")
	wantSingle(t, evalSrc(t, patientJSON, "(1 | 1 | 2).distinct().count()"), "2")
	wantSingle(t, evalSrc(t, patientJSON, "(1 | 2).isDistinct()"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "active.not()"), "false")
}

func TestFilteringFunctions(t *testing.T) {
	wantSingle(t, evalSrc(t, patientJSON, "name.where(use = 'nickname').given.first()"), "Johnny")
	wantCount(t, evalSrc(t, patientJSON, "name.select(given)"), 3)
	wantCount(t, evalSrc(t, patientJSON, "telecom.ofType(FHIR.BackboneElement)"), 0)
}

func TestSubsettingFunctions(t *testing.T) {
	wantSingle(t, evalSrc(t, patientJSON, "name.first().use"), "official")
	wantSingle(t, evalSrc(t, patientJSON, "name.last().use"), "nickname")
	wantCount(t, evalSrc(t, patientJSON, "name.tail()"), 1)
	wantCount(t, evalSrc(t, patientJSON, "name.skip(1)"), 1)
	wantCount(t, evalSrc(t, patientJSON, "name.take(1)"), 1)
	wantCount(t, evalSrc(t, patientJSON, "(1 | 2 | 3).intersect(2 | 3 | 4)"), 2)
	wantCount(t, evalSrc(t, patientJSON, "(1 | 2).exclude(2)"), 1)
	wantSingle(t, evalSrc(t, patientJSON, "(2 | 3).subsetOf(1 | 2 | 3)"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "(1 | 2 | 3).supersetOf(2 | 3)"), "true")
}

func TestAggregateFunctions(t *testing.T) {
	wantSingle(t, evalSrc(t, patientJSON, "(1 | 2 | 3).sum()"), "6")
	wantSingle(t, evalSrc(t, patientJSON, "(1 | 2 | 3).min()"), "1")
	wantSingle(t, evalSrc(t, patientJSON, "(1 | 2 | 3).max()"), "3")
	wantSingle(t, evalSrc(t, patientJSON, "(2 | 4).avg()"), "3")
}

func TestMathFunctions(t *testing.T) {
	wantSingle(t, evalSrc(t, patientJSON, "(-5).abs()"), "5")
	wantSingle(t, evalSrc(t, patientJSON, "1.5.ceiling()"), "2")
	wantSingle(t, evalSrc(t, patientJSON, "1.5.floor()"), "1")
	wantSingle(t, evalSrc(t, patientJSON, "4.sqrt()"), "2")
	wantSingle(t, evalSrc(t, patientJSON, "2.power(3)"), "8")
}

func TestStringFunctions(t *testing.T) {
	wantSingle(t, evalSrc(t, patientJSON, "'hello'.length()"), "5")
	wantSingle(t, evalSrc(t, patientJSON, "'hello'.upper()"), "HELLO")
	wantSingle(t, evalSrc(t, patientJSON, "'HELLO'.lower()"), "hello")
	wantSingle(t, evalSrc(t, patientJSON, "'hello'.startsWith('he')"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "'hello'.endsWith('lo')"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "'hello'.contains('ell')"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "'hello world'.replace('world', 'there')"), "hello there")
	wantSingle(t, evalSrc(t, patientJSON, "'  hi  '.trim()"), "hi")
	wantSingle(t, evalSrc(t, patientJSON, "'a,b,c'.split(',').count()"), "3")
}

func TestRegexFunctions(t *testing.T) {
	wantSingle(t, evalSrc(t, patientJSON, "'hello123'.matches('[a-z]+[0-9]+')"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "'hello'.replaceMatches('l+', 'L')"), "heLo")
}

func TestTypecheckingFunctions(t *testing.T) {
	wantSingle(t, evalSrc(t, patientJSON, "active.is(Boolean)"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "active.hasValue()"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "(1).type()"), "System.Integer")
}

func TestConversionFunctions(t *testing.T) {
	wantSingle(t, evalSrc(t, patientJSON, "iif(active, 'yes', 'no')"), "yes")
	wantSingle(t, evalSrc(t, patientJSON, "'true'.toBoolean()"), "true")
	wantSingle(t, evalSrc(t, patientJSON, "'42'.toInteger()"), "42")
	wantSingle(t, evalSrc(t, patientJSON, "'3.14'.toDecimal()"), "3.14")
	wantSingle(t, evalSrc(t, patientJSON, "42.toString()"), "42")
	wantSingle(t, evalSrc(t, patientJSON, "'abc'.convertsToInteger()"), "false")
}

func TestUtilityFunctions(t *testing.T) {
	wantSingle(t, evalSrc(t, patientJSON, "defineVariable('n', 'hello').select(%n)"), "hello")
	wantEmpty(t, evalSrc(t, patientJSON, "missing.resolve()"))
}

func TestSortFunction(t *testing.T) {
	result := evalSrc(t, patientJSON, "(3 | 1 | 2).sort($this)")
	wantCount(t, result, 3)
	if result[0].String() != "1" || result[1].String() != "2" || result[2].String() != "3" {
		t.Fatalf("got %v, want ascending 1,2,3", result)
	}
	desc := evalSrc(t, patientJSON, "(3 | 1 | 2).sort(-$this)")
	wantCount(t, desc, 3)
	if desc[0].String() != "3" || desc[1].String() != "2" || desc[2].String() != "1" {
		t.Fatalf("got %v, want descending 3,2,1", desc)
	}
}

func TestArityErrorsSurfaceFromEval(t *testing.T) {
	if err := evalSrcErr(t, patientJSON, "name.where()"); err == nil {
		t.Fatal("expected arity error for where() with no args")
	}
}
