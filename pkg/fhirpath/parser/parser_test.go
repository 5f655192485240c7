package parser

import (
	"testing"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
)

func mustParse(t *testing.T, src string) ast.Expr {
	t.Helper()
	expr, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", src, err)
	}
	return expr
}

func TestParsePrecedence(t *testing.T) {
	// `1 + 2 * 3` should bind as `1 + (2 * 3)`, not `(1 + 2) * 3`.
	expr := mustParse(t, "1 + 2 * 3")
	bin, ok := expr.(*ast.BinaryOp)
	if !ok || bin.Op != "+" {
		t.Fatalf("got %#v, want top-level '+'", expr)
	}
	right, ok := bin.Right.(*ast.BinaryOp)
	if !ok || right.Op != "*" {
		t.Fatalf("got right=%#v, want '*'", bin.Right)
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	// `10 - 3 - 2` should bind as `(10 - 3) - 2`.
	expr := mustParse(t, "10 - 3 - 2")
	bin, ok := expr.(*ast.BinaryOp)
	if !ok || bin.Op != "-" {
		t.Fatalf("got %#v", expr)
	}
	left, ok := bin.Left.(*ast.BinaryOp)
	if !ok || left.Op != "-" {
		t.Fatalf("got left=%#v, want nested '-'", bin.Left)
	}
}

func TestParsePropertyChain(t *testing.T) {
	expr := mustParse(t, "Patient.name.family")
	pa, ok := expr.(*ast.PropertyAccess)
	if !ok || pa.Property.Name != "family" {
		t.Fatalf("got %#v", expr)
	}
	inner, ok := pa.Base.(*ast.PropertyAccess)
	if !ok || inner.Property.Name != "name" {
		t.Fatalf("got base %#v", pa.Base)
	}
}

func TestParseIndexer(t *testing.T) {
	expr := mustParse(t, "name[0].family")
	pa, ok := expr.(*ast.PropertyAccess)
	if !ok {
		t.Fatalf("got %#v", expr)
	}
	idx, ok := pa.Base.(*ast.Indexer)
	if !ok {
		t.Fatalf("got base %#v, want *ast.Indexer", pa.Base)
	}
	lit, ok := idx.Index.(*ast.Literal)
	if !ok || lit.Value != "0" {
		t.Fatalf("got index %#v", idx.Index)
	}
}

func TestParseFunctionCall(t *testing.T) {
	expr := mustParse(t, "name.where(use = 'official')")
	inv, ok := expr.(*ast.Invocation)
	if !ok || inv.Name != "where" || len(inv.Args) != 1 {
		t.Fatalf("got %#v", expr)
	}
	if _, ok := inv.Args[0].(*ast.BinaryOp); !ok {
		t.Fatalf("got arg %#v, want *ast.BinaryOp", inv.Args[0])
	}
}

func TestParseKeywordAsMethodName(t *testing.T) {
	for _, src := range []string{"active.is(Boolean)", "active.as(Boolean)", "value.not()"} {
		expr := mustParse(t, src)
		inv, ok := expr.(*ast.Invocation)
		if !ok {
			t.Fatalf("%q: got %#v, want *ast.Invocation", src, expr)
		}
		if inv.Name == "" {
			t.Fatalf("%q: empty invocation name", src)
		}
	}
}

func TestParseKeywordAsBarePropertyName(t *testing.T) {
	// FHIR resources can legally have elements named like reserved words,
	// e.g. Narrative's `div`; reserved-word-as-bare-identifier must still parse.
	expr := mustParse(t, "Patient.text.div")
	pa, ok := expr.(*ast.PropertyAccess)
	if !ok || pa.Property.Name != "div" {
		t.Fatalf("got %#v", expr)
	}
}

func TestParseTypeOperators(t *testing.T) {
	expr := mustParse(t, "value is Quantity")
	te, ok := expr.(*ast.TypeExpr)
	if !ok || te.Op != "is" || te.Type.Name != "Quantity" {
		t.Fatalf("got %#v", expr)
	}

	expr = mustParse(t, "value as FHIR.Quantity")
	te, ok = expr.(*ast.TypeExpr)
	if !ok || te.Op != "as" || te.Type.Namespace != "FHIR" || te.Type.Name != "Quantity" {
		t.Fatalf("got %#v", expr)
	}
}

func TestParseUnaryMinus(t *testing.T) {
	expr := mustParse(t, "-5.abs()")
	unary, ok := expr.(*ast.UnaryOp)
	if !ok || unary.Op != "-" {
		t.Fatalf("got %#v", expr)
	}
}

func TestParseQuantityLiteral(t *testing.T) {
	expr := mustParse(t, "4 'mg'")
	lit, ok := expr.(*ast.Literal)
	if !ok || lit.Kind != ast.LiteralQuantity || lit.Unit != "mg" {
		t.Fatalf("got %#v", expr)
	}

	expr = mustParse(t, "2 years")
	lit, ok = expr.(*ast.Literal)
	if !ok || lit.Kind != ast.LiteralQuantity || lit.Unit != "years" {
		t.Fatalf("got %#v", expr)
	}
}

func TestParseThisIndexTotal(t *testing.T) {
	if _, ok := mustParse(t, "$this").(*ast.This); !ok {
		t.Fatal("want *ast.This")
	}
	if _, ok := mustParse(t, "$index").(*ast.Index); !ok {
		t.Fatal("want *ast.Index")
	}
	if _, ok := mustParse(t, "$total").(*ast.Total); !ok {
		t.Fatal("want *ast.Total")
	}
}

func TestParseVariableVsExternalConstant(t *testing.T) {
	v, ok := mustParse(t, "%myVar").(*ast.Variable)
	if !ok || v.Name != "myVar" {
		t.Fatalf("got %#v, want *ast.Variable", mustParse(t, "%myVar"))
	}
	ec, ok := mustParse(t, "%resource").(*ast.ExternalConstant)
	if !ok || ec.Name != "resource" {
		t.Fatalf("got %#v, want *ast.ExternalConstant", mustParse(t, "%resource"))
	}
}

func TestParseParenAndUnion(t *testing.T) {
	expr := mustParse(t, "(a | b).count()")
	inv, ok := expr.(*ast.Invocation)
	if !ok || inv.Name != "count" {
		t.Fatalf("got %#v", expr)
	}
	paren, ok := inv.Base.(*ast.Paren)
	if !ok {
		t.Fatalf("got base %#v, want *ast.Paren", inv.Base)
	}
	if _, ok := paren.Inner.(*ast.BinaryOp); !ok {
		t.Fatalf("got paren inner %#v, want union BinaryOp", paren.Inner)
	}
}

func TestParseErrorUnexpectedToken(t *testing.T) {
	_, _, err := Parse("1 +")
	if err == nil {
		t.Fatal("expected parse error for incomplete expression")
	}
	var perr *ParseError
	if pe, ok := err.(*ParseError); ok {
		perr = pe
	} else {
		t.Fatalf("got %T, want *ParseError", err)
	}
	if perr.Message == "" {
		t.Fatal("expected non-empty error message")
	}
}

func TestParseErrorTrailingGarbage(t *testing.T) {
	_, _, err := Parse("1 2")
	if err == nil {
		t.Fatal("expected parse error for trailing tokens")
	}
}

func TestParseEmptyBraceTuple(t *testing.T) {
	if _, ok := mustParse(t, "{}").(*ast.Tuple); !ok {
		t.Fatalf("got %#v, want *ast.Tuple", mustParse(t, "{}"))
	}
}
