// Package hints implements the FHIRPath optimization hinter: a
// read-only AST walk producing an advisory result document (not bare
// diagnostics) about expression shapes known to perform or read
// poorly — never about correctness (that's pkg/fhirpath/analyzer's
// job). Nothing here blocks compilation or evaluation.
package hints

import (
	"fmt"
	"sort"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/diag"
	"github.com/samber/lo"
)

// deepChainWarnDepth is the property-chain depth at which a deep-nesting
// hint escalates from Informational to Warning, per spec.md.
const (
	deepChainInfoDepth = 5
	deepChainWarnDepth = 8
)

// topNFunctions bounds how many entries Result.FunctionStats carries,
// per spec.md §4.7's "top-N functions by frequency".
const topNFunctions = 5

// Pattern names a category of optimization finding.
type Pattern string

const (
	PatternExpensiveOperation    Pattern = "expensive-operation"
	PatternDeepNesting           Pattern = "deep-nesting"
	PatternRepeatedSubexpression Pattern = "repeated-subexpression"
	PatternRedundantCondition    Pattern = "redundant-condition"
	PatternInefficientFilter     Pattern = "inefficient-filter"
	PatternUnnecessaryLoop       Pattern = "unnecessary-loop"
)

// patternWeight fixes, per spec.md §4.7, how much each pattern type
// costs the overall performance score.
var patternWeight = map[Pattern]float64{
	PatternExpensiveOperation:    0.25,
	PatternDeepNesting:           0.15,
	PatternRepeatedSubexpression: 0.20,
	PatternRedundantCondition:    0.10,
	PatternInefficientFilter:     0.20,
	PatternUnnecessaryLoop:       0.10,
}

// patternCode maps a Pattern to the diag.Code Diagnostics() renders it as.
var patternCode = map[Pattern]diag.Code{
	PatternExpensiveOperation:    diag.CodeExpensiveOperation,
	PatternDeepNesting:           diag.CodeDeepNesting,
	PatternRepeatedSubexpression: diag.CodeRepeatedSubexpr,
	PatternRedundantCondition:    diag.CodeRedundantCondition,
	PatternInefficientFilter:     diag.CodeInefficientFilter,
	PatternUnnecessaryLoop:       diag.CodeUnnecessaryLoop,
}

// expensiveFunctions names calls whose cost is easy to trigger
// accidentally in a large document (a full subtree walk) and that
// usually have a cheaper, more targeted alternative.
var expensiveFunctions = map[string]string{
	"resolve":     "cache the resolved value or filter before resolving if called inside a loop",
	"descendants": "prefer a targeted path or repeat() with a narrower projection",
}

// Suggestion is one optimization finding: the pattern detected, the
// original subexpression it was found on, a human-readable suggested
// replacement (advisory, not a guaranteed-equivalent rewrite), and the
// pattern's fixed weight against the overall Score.
type Suggestion struct {
	Pattern     Pattern
	Original    string
	Replacement string
	Weight      float64
	Severity    diag.Severity
}

// FunctionStat reports how often a function name was invoked in the
// expression, and whether it's flagged as relatively expensive.
type FunctionStat struct {
	Name      string
	Count     int
	Expensive bool
}

// DepthStats summarizes navigation-chain depth across the expression:
// the deepest single chain, and the mean depth across every chain found
// (a chain is a maximal run of PropertyAccess/Invocation links).
type DepthStats struct {
	Max int
	Avg float64
}

// Result is the optimization hinter's full result document per
// spec.md §4.7: every individual suggestion, an aggregate performance
// score in [0,1], function-call frequency/cost statistics, and chain
// depth statistics. Advisory only — never consumed by the evaluator.
type Result struct {
	Suggestions    []Suggestion
	Score          float64
	FunctionStats  []FunctionStat
	ExpensiveCalls int
	CacheableCalls int
	Depth          DepthStats
}

// Diagnostics renders every suggestion as a diag.Diagnostic, for
// callers (the analyzer) that fold hints into one flat diagnostic list
// alongside type-checking findings.
func (r Result) Diagnostics() []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(r.Suggestions))
	for _, s := range r.Suggestions {
		msg := fmt.Sprintf("%s: %s", s.Original, s.Replacement)
		d := diag.New(patternCode[s.Pattern], s.Severity, msg, diag.Location{}).WithSuggestions(s.Replacement)
		out = append(out, d)
	}
	return out
}

// walker accumulates findings over one AST traversal.
type walker struct {
	suggestions []Suggestion
	seenExprs   map[string]struct{}
	callNames   []string
	depths      []int
}

// Analyze walks expr once and returns the full optimization result
// document: suggestions, score, function-call statistics, and chain
// depth statistics.
func Analyze(expr ast.Expr) Result {
	w := &walker{seenExprs: map[string]struct{}{}}
	w.walk(expr)

	counts := lo.CountValuesBy(w.callNames, func(name string) string { return name })
	stats := make([]FunctionStat, 0, len(counts))
	for name, count := range counts {
		_, expensive := expensiveFunctions[name]
		stats = append(stats, FunctionStat{Name: name, Count: count, Expensive: expensive})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	if len(stats) > topNFunctions {
		stats = stats[:topNFunctions]
	}

	expensiveCalls := 0
	for _, name := range w.callNames {
		if _, ok := expensiveFunctions[name]; ok {
			expensiveCalls++
		}
	}
	cacheableCalls := 0
	for _, s := range w.suggestions {
		if s.Pattern == PatternRepeatedSubexpression {
			cacheableCalls++
		}
	}

	depth := DepthStats{}
	if len(w.depths) > 0 {
		sum := 0
		for _, d := range w.depths {
			if d > depth.Max {
				depth.Max = d
			}
			sum += d
		}
		depth.Avg = float64(sum) / float64(len(w.depths))
	}

	return Result{
		Suggestions:    w.suggestions,
		Score:          score(w.suggestions),
		FunctionStats:  stats,
		ExpensiveCalls: expensiveCalls,
		CacheableCalls: cacheableCalls,
		Depth:          depth,
	}
}

// score combines each suggestion's fixed pattern weight into a single
// [0,1] figure: 1.0 minus every triggered weight, floored at 0.
func score(suggestions []Suggestion) float64 {
	total := 1.0
	for _, s := range suggestions {
		total -= s.Weight
	}
	if total < 0 {
		total = 0
	}
	if total > 1 {
		total = 1
	}
	return total
}

// Find walks expr and returns every optimization hint it can detect,
// rendered as diagnostics. Equivalent to Analyze(expr).Diagnostics().
func Find(expr ast.Expr) []diag.Diagnostic {
	return Analyze(expr).Diagnostics()
}

func (w *walker) walk(node ast.Expr) {
	if node == nil {
		return
	}
	w.checkDeepChain(node)
	w.checkRepeatedSubexpr(node)
	w.checkExpensiveOperation(node)
	w.checkRedundantCondition(node)
	w.checkInefficientFilter(node)
	w.checkUnnecessaryLoop(node)

	if inv, ok := node.(*ast.Invocation); ok {
		w.callNames = append(w.callNames, inv.Name)
	}

	for _, child := range children(node) {
		w.walk(child)
	}
}

func children(node ast.Expr) []ast.Expr {
	switch n := node.(type) {
	case *ast.PropertyAccess:
		return []ast.Expr{n.Base}
	case *ast.Indexer:
		return []ast.Expr{n.Base, n.Index}
	case *ast.Invocation:
		var out []ast.Expr
		if n.Base != nil {
			out = append(out, n.Base)
		}
		out = append(out, n.Args...)
		return out
	case *ast.BinaryOp:
		return []ast.Expr{n.Left, n.Right}
	case *ast.UnaryOp:
		return []ast.Expr{n.Operand}
	case *ast.TypeExpr:
		return []ast.Expr{n.Left}
	case *ast.Paren:
		return []ast.Expr{n.Inner}
	default:
		return nil
	}
}

// checkDeepChain counts consecutive PropertyAccess/Invocation links in
// a single navigation chain, records the depth for DepthStats, and
// flags it past the configured depths.
func (w *walker) checkDeepChain(node ast.Expr) {
	depth, ok := chainDepth(node)
	if !ok {
		return
	}
	w.depths = append(w.depths, depth)
	if depth <= deepChainInfoDepth {
		return
	}
	sev := diag.Info
	if depth > deepChainWarnDepth {
		sev = diag.Warning
	}
	w.suggestions = append(w.suggestions, Suggestion{
		Pattern:     PatternDeepNesting,
		Original:    node.String(),
		Replacement: fmt.Sprintf("chain is %d levels deep; split into intermediate defineVariable() bindings", depth),
		Weight:      patternWeight[PatternDeepNesting],
		Severity:    sev,
	})
}

// chainDepth reports the navigation depth of node if node is the
// outermost link of a chain (its parent isn't itself part of the same
// chain kind) to avoid reporting the same chain once per link.
func chainDepth(node ast.Expr) (int, bool) {
	switch node.(type) {
	case *ast.PropertyAccess, *ast.Invocation:
	default:
		return 0, false
	}
	depth := 0
	cur := node
	for {
		switch n := cur.(type) {
		case *ast.PropertyAccess:
			depth++
			cur = n.Base
		case *ast.Invocation:
			if n.Base == nil {
				return depth, true
			}
			depth++
			cur = n.Base
		default:
			return depth, true
		}
	}
}

func (w *walker) checkRepeatedSubexpr(node ast.Expr) {
	// Only subexpressions complex enough to be worth re-binding are
	// tracked — bare identifiers/literals repeat constantly and
	// harmlessly (`Patient.name.given`, `1 + 1`).
	inv, ok := node.(*ast.Invocation)
	if !ok || len(inv.Args) == 0 {
		return
	}
	key := node.String()
	if _, dup := w.seenExprs[key]; dup {
		w.suggestions = append(w.suggestions, Suggestion{
			Pattern:     PatternRepeatedSubexpression,
			Original:    key,
			Replacement: "appears more than once; bind it once via defineVariable()",
			Weight:      patternWeight[PatternRepeatedSubexpression],
			Severity:    diag.Info,
		})
		return
	}
	w.seenExprs[key] = struct{}{}
}

func (w *walker) checkExpensiveOperation(node ast.Expr) {
	inv, ok := node.(*ast.Invocation)
	if !ok {
		return
	}
	if suggestion, expensive := expensiveFunctions[inv.Name]; expensive {
		w.suggestions = append(w.suggestions, Suggestion{
			Pattern:     PatternExpensiveOperation,
			Original:    node.String(),
			Replacement: suggestion,
			Weight:      patternWeight[PatternExpensiveOperation],
			Severity:    diag.Info,
		})
	}
}

// checkRedundantCondition flags `a and a`-shaped conditions (syntactically
// identical operands) and constant boolean literals used as an operand,
// both of which are always foldable by the author.
func (w *walker) checkRedundantCondition(node ast.Expr) {
	bin, ok := node.(*ast.BinaryOp)
	if !ok {
		return
	}
	switch bin.Op {
	case "and", "or", "=", "!=":
	default:
		return
	}
	if bin.Left.String() == bin.Right.String() {
		w.suggestions = append(w.suggestions, Suggestion{
			Pattern:     PatternRedundantCondition,
			Original:    node.String(),
			Replacement: fmt.Sprintf("both sides of '%s' are syntactically identical; simplify", bin.Op),
			Weight:      patternWeight[PatternRedundantCondition],
			Severity:    diag.Info,
		})
		return
	}
	if isBooleanLiteral(bin.Left) || isBooleanLiteral(bin.Right) {
		w.suggestions = append(w.suggestions, Suggestion{
			Pattern:     PatternRedundantCondition,
			Original:    node.String(),
			Replacement: "has a constant boolean operand and can be simplified",
			Weight:      patternWeight[PatternRedundantCondition],
			Severity:    diag.Info,
		})
	}
}

func isBooleanLiteral(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	return ok && lit.Kind == ast.LiteralBoolean
}

// checkInefficientFilter flags where(...).first()/where(...).single()
// chains, which scan the whole collection before narrowing — exists(...)
// or direct indexing after a where() narrows earlier functions usually
// express the same intent more cheaply when only one match is expected.
func (w *walker) checkInefficientFilter(node ast.Expr) {
	inv, ok := node.(*ast.Invocation)
	if !ok || inv.Base == nil {
		return
	}
	if inv.Name != "first" && inv.Name != "single" && inv.Name != "last" {
		return
	}
	baseInv, ok := inv.Base.(*ast.Invocation)
	if !ok || baseInv.Name != "where" {
		return
	}
	w.suggestions = append(w.suggestions, Suggestion{
		Pattern:     PatternInefficientFilter,
		Original:    node.String(),
		Replacement: fmt.Sprintf("where(...).%s() scans the full collection; narrow the filter criteria earlier", inv.Name),
		Weight:      patternWeight[PatternInefficientFilter],
		Severity:    diag.Info,
	})
}

// checkUnnecessaryLoop flags select(...).where(...) — projecting before
// filtering forces every element's projection to run even when most get
// discarded; where(...).select(...) filters first.
func (w *walker) checkUnnecessaryLoop(node ast.Expr) {
	inv, ok := node.(*ast.Invocation)
	if !ok || inv.Name != "where" || inv.Base == nil {
		return
	}
	baseInv, ok := inv.Base.(*ast.Invocation)
	if !ok || baseInv.Name != "select" {
		return
	}
	w.suggestions = append(w.suggestions, Suggestion{
		Pattern:     PatternUnnecessaryLoop,
		Original:    node.String(),
		Replacement: "select(...).where(...) projects every element before filtering; where(...).select(...) filters first",
		Weight:      patternWeight[PatternUnnecessaryLoop],
		Severity:    diag.Info,
	})
}
