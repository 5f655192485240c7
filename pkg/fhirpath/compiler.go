package fhirpath

import (
	"fmt"

	"github.com/octofhir/fhirpath-go/pkg/common"
	_ "github.com/octofhir/fhirpath-go/pkg/fhirpath/funcs" // self-registers built-in functions with eval
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/parser"
)

// compile parses a FHIRPath expression into a reusable Expression.
func compile(expr string) (*Expression, error) {
	if expr == "" {
		return nil, fmt.Errorf("fhirpath: %w: empty expression", common.ErrInvalidExpression)
	}

	tree, diags, err := parser.Parse(expr)
	if err != nil {
		return nil, common.WrapPathf(expr, "%w: %v", common.ErrInvalidExpression, err)
	}

	return &Expression{source: expr, tree: tree, parseDiags: diags}, nil
}
