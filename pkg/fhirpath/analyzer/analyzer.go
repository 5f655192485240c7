// Package analyzer implements FHIRPath's semantic analysis pass (C5):
// property resolution over the AST against a schema.Provider, emitting
// property-not-found (with typo suggestions) and ambiguous-choice
// diagnostics. It does not check operator operand types, function names
// or arity, or variable names. Nothing here blocks evaluation — every Diagnostic here is advisory,
// matching pkg/fhirpath/diag's contract. Optimization hints are a
// separate concern (pkg/fhirpath/hints); Analyze merges them in because
// both travel to the caller as one diagnostic set per compile.
package analyzer

import (
	"fmt"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/diag"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/hints"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/schema"
)

// maxTypoSuggestions caps how many candidate property names a
// property-not-found diagnostic carries, per spec.md.
const maxTypoSuggestions = 3

// typoMaxDistance and typoMinScore bound how loose a typo match may be
// before it's not worth suggesting.
const (
	typoMaxDistance = 2
	typoMinScore    = 0.6
)

// Analyzer performs static analysis of a parsed expression against a
// schema.Provider. A nil Schema degrades gracefully: every property
// access is assumed valid (there's nothing to check it against), and
// only shape-based hints (not type-based diagnostics) are produced.
type Analyzer struct {
	Schema schema.Provider
}

// New creates an Analyzer consulting provider for type information.
func New(provider schema.Provider) *Analyzer {
	return &Analyzer{Schema: provider}
}

// typeState tracks the inferred type of an expression: Name is empty
// when the type couldn't be determined (e.g. past an unresolved
// property, or a schema-less root), which suppresses further
// property-not-found diagnostics along that branch to avoid cascading
// noise from one real error.
type typeState struct {
	name  string
	known bool
}

// Analyze walks expr, inferring types from rootType ($this's static
// type at the root) using a.Schema, and returns every diagnostic found:
// unresolved properties, ambiguous choice accesses, and (merged in)
// pkg/fhirpath/hints' optimization advisories.
func (a *Analyzer) Analyze(expr ast.Expr, rootType string) []diag.Diagnostic {
	var bag diag.Bag
	a.infer(expr, typeState{name: rootType, known: rootType != ""}, &bag)
	result := append([]diag.Diagnostic{}, bag.Items()...)
	result = append(result, hints.Find(expr)...)
	return result
}

// infer returns expr's inferred type given the type of $this (base) at
// the point expr is evaluated, recording diagnostics for anything it
// can positively disprove.
func (a *Analyzer) infer(expr ast.Expr, base typeState, bag *diag.Bag) typeState {
	switch n := expr.(type) {
	case *ast.Identifier:
		return a.inferProperty(n.Name, base, bag)
	case *ast.This:
		return base
	case *ast.PropertyAccess:
		baseType := a.infer(n.Base, base, bag)
		return a.inferProperty(n.Property.Name, baseType, bag)
	case *ast.Indexer:
		baseType := a.infer(n.Base, base, bag)
		a.infer(n.Index, base, bag)
		return baseType
	case *ast.Invocation:
		var recv typeState
		if n.Base != nil {
			recv = a.infer(n.Base, base, bag)
		} else {
			recv = base
		}
		for _, arg := range n.Args {
			a.infer(arg, typeState{}, bag)
		}
		return a.inferFunctionResult(n.Name, recv)
	case *ast.BinaryOp:
		a.infer(n.Left, base, bag)
		a.infer(n.Right, base, bag)
		return typeState{}
	case *ast.UnaryOp:
		return a.infer(n.Operand, base, bag)
	case *ast.TypeExpr:
		a.infer(n.Left, base, bag)
		if n.Op == "as" {
			return typeState{name: n.Type.Name, known: true}
		}
		return typeState{name: "Boolean", known: true}
	case *ast.Paren:
		return a.infer(n.Inner, base, bag)
	case *ast.Literal:
		return typeState{name: literalTypeName(n), known: true}
	default:
		return typeState{}
	}
}

func literalTypeName(n *ast.Literal) string {
	switch n.Kind {
	case ast.LiteralBoolean:
		return "Boolean"
	case ast.LiteralInteger:
		return "Integer"
	case ast.LiteralDecimal:
		return "Decimal"
	case ast.LiteralString:
		return "String"
	case ast.LiteralDate:
		return "Date"
	case ast.LiteralDateTime:
		return "DateTime"
	case ast.LiteralTime:
		return "Time"
	case ast.LiteralQuantity:
		return "Quantity"
	default:
		return ""
	}
}

// inferFunctionResult approximates a function's return type for chain
// continuation purposes. Functions whose result type doesn't depend on
// the receiver (toString, count, ...) aren't modeled individually here;
// the analyzer only needs enough precision to keep validating property
// chains after collection-shaped functions like where/select/ofType.
func (a *Analyzer) inferFunctionResult(name string, recv typeState) typeState {
	switch name {
	case "where", "distinct", "tail", "skip", "take", "intersect", "exclude",
		"combine", "union", "sort", "repeat", "children", "descendants":
		return recv
	case "first", "last", "single":
		return recv
	case "ofType":
		// Result type is the argument's type specifier, not the receiver's;
		// the analyzer doesn't thread the specifier through here since
		// inferFunctionResult only sees the call name — acceptable
		// precision loss, chains after ofType(T) still validate against T
		// once a caller re-roots analysis there.
		return typeState{}
	default:
		return typeState{}
	}
}

// inferProperty resolves property on base's type via the schema,
// handling the choice-element (value[x]) case by reporting an ambiguous
// choice diagnostic if more than one candidate type is declared and the
// caller didn't disambiguate with the type suffix. An unknown base type
// (schema-less, or already-broken upstream) silently returns unknown
// rather than compounding the error.
func (a *Analyzer) inferProperty(property string, base typeState, bag *diag.Bag) typeState {
	if !base.known || base.name == "" || a.Schema == nil {
		return typeState{}
	}
	if choices := a.Schema.GetChoiceTypes(base.name, property); len(choices) > 0 {
		if len(choices) > 1 {
			bag.Add(diag.New(diag.CodeAmbiguousChoice, diag.Info,
				fmt.Sprintf("%s.%s is a choice element with %d candidate types (%v); consider narrowing with %sX or ofType()",
					base.name, property, len(choices), choices, property),
				diag.Location{}))
		}
		return typeState{name: choices[0], known: true}
	}
	elemType, ok := a.Schema.GetElementType(base.name, property)
	if ok {
		return typeState{name: elemType, known: true}
	}

	names := a.Schema.GetElementNames(base.name)
	if len(names) == 0 {
		// Schema doesn't recognize base.name at all (or has no declared
		// elements) — don't report a not-found error we can't back up
		// with any useful suggestion.
		return typeState{}
	}
	suggestions := suggestNames(property, names, typoMaxDistance, typoMinScore, maxTypoSuggestions)
	d := diag.New(diag.CodePropertyNotFound, diag.Error,
		fmt.Sprintf("%s has no element %q", base.name, property), diag.Location{})
	if len(suggestions) > 0 {
		d = d.WithSuggestions(suggestions...)
	}
	bag.Add(d)
	return typeState{}
}
