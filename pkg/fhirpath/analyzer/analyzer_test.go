package analyzer

import (
	"testing"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/diag"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/parser"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/schema"
)

func analyze(t *testing.T, src, rootType string) []diag.Diagnostic {
	t.Helper()
	tree, _, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	a := New(schema.NewStaticProvider())
	return a.Analyze(tree, rootType)
}

func hasCode(diags []diag.Diagnostic, code diag.Code) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestAnalyzeValidPropertyChainHasNoFindings(t *testing.T) {
	diags := analyze(t, "name.family", "Patient")
	if hasCode(diags, diag.CodePropertyNotFound) {
		t.Fatalf("unexpected property-not-found diagnostic: %v", diags)
	}
}

func TestAnalyzeUnknownPropertySuggestsClosestName(t *testing.T) {
	diags := analyze(t, "nam", "Patient")
	var found *diag.Diagnostic
	for i := range diags {
		if diags[i].Code == diag.CodePropertyNotFound {
			found = &diags[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected a property-not-found diagnostic, got %v", diags)
	}
	if len(found.Suggestions) == 0 {
		t.Fatal("expected at least one typo suggestion")
	}
	ok := false
	for _, s := range found.Suggestions {
		if s == "name" {
			ok = true
		}
	}
	if !ok {
		t.Fatalf("expected suggestion %q among %v", "name", found.Suggestions)
	}
}

func TestAnalyzeAmbiguousChoiceElement(t *testing.T) {
	diags := analyze(t, "value", "Observation")
	if !hasCode(diags, diag.CodeAmbiguousChoice) {
		t.Fatalf("expected ambiguous-choice diagnostic, got %v", diags)
	}
}

func TestAnalyzeNoSchemaDegradesGracefully(t *testing.T) {
	tree, _, err := parser.Parse("totallyBogusProperty")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a := New(nil)
	diags := a.Analyze(tree, "Patient")
	if hasCode(diags, diag.CodePropertyNotFound) {
		t.Fatalf("nil schema should never produce property-not-found: %v", diags)
	}
}

func TestAnalyzeMergesOptimizationHints(t *testing.T) {
	diags := analyze(t, "name.where(use = 'official').first()", "Patient")
	if !hasCode(diags, diag.CodeInefficientFilter) {
		t.Fatalf("expected hints.Find's inefficient-filter hint to be merged in, got %v", diags)
	}
}

func TestAnalyzeEmptyRootTypeSuppressesPropertyChecks(t *testing.T) {
	diags := analyze(t, "whatever.nonsense", "")
	if hasCode(diags, diag.CodePropertyNotFound) {
		t.Fatalf("an unknown root type should not produce false-positive findings: %v", diags)
	}
}
