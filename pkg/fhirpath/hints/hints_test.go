package hints

import (
	"testing"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/diag"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/parser"
)

func findHints(t *testing.T, src string) []diag.Diagnostic {
	t.Helper()
	tree, _, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return Find(tree)
}

func hasCode(diags []diag.Diagnostic, code diag.Code) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestDeepNestingHint(t *testing.T) {
	shallow := findHints(t, "a.b.c")
	if hasCode(shallow, diag.CodeDeepNesting) {
		t.Fatalf("a 3-level chain should not trigger deep-nesting: %v", shallow)
	}

	deep := findHints(t, "a.b.c.d.e.f.g.h.i")
	if !hasCode(deep, diag.CodeDeepNesting) {
		t.Fatalf("a 9-level chain should trigger deep-nesting: %v", deep)
	}
}

func TestRepeatedSubexpressionHint(t *testing.T) {
	diags := findHints(t, "where(active = true) and where(active = true)")
	if !hasCode(diags, diag.CodeRepeatedSubexpr) {
		t.Fatalf("expected repeated-subexpression hint, got %v", diags)
	}
}

func TestExpensiveOperationHint(t *testing.T) {
	diags := findHints(t, "descendants().where(active = true)")
	if !hasCode(diags, diag.CodeExpensiveOperation) {
		t.Fatalf("expected expensive-operation hint for descendants(), got %v", diags)
	}
}

func TestRedundantConditionHint(t *testing.T) {
	sameOperand := findHints(t, "active and active")
	if !hasCode(sameOperand, diag.CodeRedundantCondition) {
		t.Fatalf("expected redundant-condition hint for identical operands, got %v", sameOperand)
	}

	constOperand := findHints(t, "active = true")
	if !hasCode(constOperand, diag.CodeRedundantCondition) {
		t.Fatalf("expected redundant-condition hint for constant boolean operand, got %v", constOperand)
	}
}

func TestInefficientFilterHint(t *testing.T) {
	diags := findHints(t, "name.where(use = 'official').first()")
	if !hasCode(diags, diag.CodeInefficientFilter) {
		t.Fatalf("expected inefficient-filter hint, got %v", diags)
	}
}

func TestUnnecessaryLoopHint(t *testing.T) {
	diags := findHints(t, "name.select(given).where($this = 'John')")
	if !hasCode(diags, diag.CodeUnnecessaryLoop) {
		t.Fatalf("expected unnecessary-loop hint for select().where(), got %v", diags)
	}
}

func TestNoFalsePositivesOnSimpleExpression(t *testing.T) {
	diags := findHints(t, "name.family")
	if len(diags) != 0 {
		t.Fatalf("expected no hints for a trivial expression, got %v", diags)
	}
}

func analyze(t *testing.T, src string) Result {
	t.Helper()
	tree, _, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return Analyze(tree)
}

func TestScoreDecreasesWithHints(t *testing.T) {
	clean := analyze(t, "name.family")
	if clean.Score != 1 {
		t.Fatalf("got %v, want 1 for no hints", clean.Score)
	}
	withHints := analyze(t, "name.where(use = 'official').first()")
	if withHints.Score >= 1 || withHints.Score < 0 {
		t.Fatalf("expected a score in [0,1) with hints present, got %v", withHints.Score)
	}
}

func TestResultSuggestionsCarryPatternAndWeight(t *testing.T) {
	result := analyze(t, "descendants().where(active = true)")
	if len(result.Suggestions) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	var found bool
	for _, s := range result.Suggestions {
		if s.Pattern == PatternExpensiveOperation {
			found = true
			if s.Weight != 0.25 {
				t.Errorf("expensive-operation weight = %v, want 0.25", s.Weight)
			}
			if s.Original == "" || s.Replacement == "" {
				t.Errorf("expected non-empty Original/Replacement, got %+v", s)
			}
		}
	}
	if !found {
		t.Fatal("expected an expensive-operation suggestion")
	}
}

func TestResultFunctionStatsCountsCalls(t *testing.T) {
	result := analyze(t, "name.where(use = 'official').where(use = 'usual')")
	var whereCount int
	for _, fs := range result.FunctionStats {
		if fs.Name == "where" {
			whereCount = fs.Count
		}
	}
	if whereCount != 2 {
		t.Fatalf("expected where() counted twice, got stats %+v", result.FunctionStats)
	}
}

func TestResultExpensiveCallsCounted(t *testing.T) {
	result := analyze(t, "descendants().resolve()")
	if result.ExpensiveCalls != 2 {
		t.Fatalf("got ExpensiveCalls=%d, want 2", result.ExpensiveCalls)
	}
}

func TestResultDepthStatsReflectsDeepestChain(t *testing.T) {
	result := analyze(t, "a.b.c.d.e.f.g.h.i")
	if result.Depth.Max < 8 {
		t.Fatalf("got Depth.Max=%d, want at least 8", result.Depth.Max)
	}
}
