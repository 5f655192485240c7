// Package operators holds the FHIRPath binary-operator registry: each
// operator's precedence/associativity (mirrored from pkg/fhirpath/parser,
// restated here so the analyzer and evaluator don't import the parser),
// signature, and empty-propagation policy.
package operators

// Associativity of a binary operator.
type Associativity int

const (
	LeftAssoc Associativity = iota
	RightAssoc
)

// EmptyPolicy controls how an operator treats Empty operands.
type EmptyPolicy int

const (
	// Propagate: any Empty operand makes the whole expression Empty.
	// This is the default for arithmetic and most operators.
	Propagate EmptyPolicy = iota
	// NoPropagation: the operator has defined behavior even when one
	// side is Empty (e.g. `and`/`or`'s three-valued-logic short circuits).
	NoPropagation
	// Custom: the operator's Evaluate implementation decides per-call;
	// used by `|` (union tolerates Empty on either side trivially) and
	// `is`/`as` (operate on the type system, not collection values).
	Custom
)

// Category groups operators for diagnostics and the optimization hinter.
type Category int

const (
	CategoryArithmetic Category = iota
	CategoryComparison
	CategoryEquality
	CategoryBoolean
	CategoryMembership
	CategoryType
	CategoryUnion
	CategoryString
)

// Metadata describes one binary operator.
type Metadata struct {
	Symbol        string
	Precedence    int // higher binds tighter; matches parser.prec* bands
	Associativity Associativity
	Category      Category
	EmptyPolicy   EmptyPolicy
	Deterministic bool // false only for operators whose result can vary run-to-run; none currently do
	Overloads     []Signature
}

// Signature is one accepted operand-type pairing for an operator. The
// analyzer does not consult these; it makes no operator type checks.
type Signature struct {
	Left   string // FHIRPath type name, or "" for any
	Right  string
	Result string
}

// Registry is the complete table of FHIRPath binary operators, indexed
// by the token text the parser produces (ast.BinaryOp.Op / ast.TypeExpr.Op).
var Registry = map[string]Metadata{
	"+": {Symbol: "+", Precedence: 9, Category: CategoryArithmetic, EmptyPolicy: Propagate, Deterministic: true,
		Overloads: []Signature{{"Integer", "Integer", "Integer"}, {"Decimal", "Decimal", "Decimal"},
			{"Quantity", "Quantity", "Quantity"}, {"String", "String", "String"}}},
	"-": {Symbol: "-", Precedence: 9, Category: CategoryArithmetic, EmptyPolicy: Propagate, Deterministic: true,
		Overloads: []Signature{{"Integer", "Integer", "Integer"}, {"Decimal", "Decimal", "Decimal"},
			{"Quantity", "Quantity", "Quantity"}}},
	"*": {Symbol: "*", Precedence: 10, Category: CategoryArithmetic, EmptyPolicy: Propagate, Deterministic: true,
		Overloads: []Signature{{"Integer", "Integer", "Integer"}, {"Decimal", "Decimal", "Decimal"},
			{"Quantity", "Quantity", "Quantity"}}},
	"/": {Symbol: "/", Precedence: 10, Category: CategoryArithmetic, EmptyPolicy: Propagate, Deterministic: true,
		Overloads: []Signature{{"Integer", "Integer", "Decimal"}, {"Decimal", "Decimal", "Decimal"},
			{"Quantity", "Quantity", "Decimal"}, {"Quantity", "Decimal", "Quantity"}}},
	"div": {Symbol: "div", Precedence: 10, Category: CategoryArithmetic, EmptyPolicy: Propagate, Deterministic: true,
		Overloads: []Signature{{"Integer", "Integer", "Integer"}, {"Decimal", "Decimal", "Integer"}}},
	"mod": {Symbol: "mod", Precedence: 10, Category: CategoryArithmetic, EmptyPolicy: Propagate, Deterministic: true,
		Overloads: []Signature{{"Integer", "Integer", "Integer"}, {"Decimal", "Decimal", "Decimal"}}},
	"&": {Symbol: "&", Precedence: 9, Category: CategoryString, EmptyPolicy: NoPropagation, Deterministic: true,
		Overloads: []Signature{{"String", "String", "String"}}},

	"=":  {Symbol: "=", Precedence: 5, Category: CategoryEquality, EmptyPolicy: Propagate, Deterministic: true},
	"!=": {Symbol: "!=", Precedence: 5, Category: CategoryEquality, EmptyPolicy: Propagate, Deterministic: true},
	"~":  {Symbol: "~", Precedence: 5, Category: CategoryEquality, EmptyPolicy: NoPropagation, Deterministic: true},
	"!~": {Symbol: "!~", Precedence: 5, Category: CategoryEquality, EmptyPolicy: NoPropagation, Deterministic: true},

	"<":  {Symbol: "<", Precedence: 6, Category: CategoryComparison, EmptyPolicy: Propagate, Deterministic: true},
	"<=": {Symbol: "<=", Precedence: 6, Category: CategoryComparison, EmptyPolicy: Propagate, Deterministic: true},
	">":  {Symbol: ">", Precedence: 6, Category: CategoryComparison, EmptyPolicy: Propagate, Deterministic: true},
	">=": {Symbol: ">=", Precedence: 6, Category: CategoryComparison, EmptyPolicy: Propagate, Deterministic: true},

	"and":     {Symbol: "and", Precedence: 3, Category: CategoryBoolean, EmptyPolicy: NoPropagation, Deterministic: true},
	"or":      {Symbol: "or", Precedence: 2, Category: CategoryBoolean, EmptyPolicy: NoPropagation, Deterministic: true},
	"xor":     {Symbol: "xor", Precedence: 2, Category: CategoryBoolean, EmptyPolicy: Propagate, Deterministic: true},
	"implies": {Symbol: "implies", Precedence: 1, Category: CategoryBoolean, EmptyPolicy: NoPropagation, Deterministic: true},

	"in":       {Symbol: "in", Precedence: 4, Category: CategoryMembership, EmptyPolicy: Custom, Deterministic: true},
	"contains": {Symbol: "contains", Precedence: 4, Category: CategoryMembership, EmptyPolicy: Custom, Deterministic: true},

	"|": {Symbol: "|", Precedence: 7, Associativity: LeftAssoc, Category: CategoryUnion, EmptyPolicy: Custom, Deterministic: true},

	"is": {Symbol: "is", Precedence: 8, Category: CategoryType, EmptyPolicy: Custom, Deterministic: true},
	"as": {Symbol: "as", Precedence: 8, Category: CategoryType, EmptyPolicy: Custom, Deterministic: true},
}

// Lookup returns the Metadata for op, or false if op isn't registered.
func Lookup(op string) (Metadata, bool) {
	m, ok := Registry[op]
	return m, ok
}
