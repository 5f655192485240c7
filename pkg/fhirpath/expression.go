package fhirpath

import (
	"github.com/octofhir/fhirpath-go/pkg/common"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/analyzer"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/diag"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
)

// Expression is a parsed FHIRPath expression, ready to evaluate
// repeatedly against different resources without re-parsing.
type Expression struct {
	source     string
	tree       ast.Expr
	parseDiags []diag.Diagnostic
}

// String returns the original expression text.
func (e *Expression) String() string {
	return e.source
}

// Diagnostics returns non-fatal findings the parser recorded while
// compiling. Semantic and optimization diagnostics require Analyze,
// which needs a SchemaProvider to resolve property types against.
func (e *Expression) Diagnostics() []diag.Diagnostic {
	return e.parseDiags
}

// Evaluate parses resource as JSON and evaluates the expression against
// it using default options (a 5-second timeout, no schema/terminology).
func (e *Expression) Evaluate(resource []byte) (Collection, error) {
	return e.EvaluateWithOptions(resource)
}

// EvaluateWithContext runs the expression against a caller-constructed
// eval.Context, for callers that need to share one Context (and its
// variable bindings, schema, terminology) across several expressions.
func (e *Expression) EvaluateWithContext(ctx *eval.Context) (Collection, error) {
	result, err := eval.Eval(ctx, e.tree)
	if err != nil {
		return nil, common.WrapPathf(e.source, "%w: %v", common.ErrEvaluationFailed, err)
	}
	return result, nil
}

// Analyze runs the semantic analyzer (C5) and the optimization hinter
// (C10) against the expression, given the type of the root resource it
// will be evaluated against. A nil schema degrades to hints-only,
// shape-based diagnostics (deep chains, repeated subexpressions, ...).
func (e *Expression) Analyze(schema SchemaProvider, rootType string) []diag.Diagnostic {
	return analyzer.New(schema).Analyze(e.tree, rootType)
}

// AST exposes the parsed syntax tree for callers building their own
// tooling (formatters, linters) on top of the parse result.
func (e *Expression) AST() ast.Expr {
	return e.tree
}
