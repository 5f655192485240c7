// Package ast defines the FHIRPath abstract syntax tree produced by
// pkg/fhirpath/parser and walked by pkg/fhirpath/analyzer and
// pkg/fhirpath/eval.
package ast

import "github.com/octofhir/fhirpath-go/pkg/fhirpath/diag"

// Node is implemented by every AST node.
type Node interface {
	// Pos returns the node's source location.
	Pos() diag.Location
	// String renders the node back to FHIRPath syntax, for diagnostics
	// and the optimization hinter's "repeated subexpression" detector.
	String() string
	node()
}

// Expr is the marker interface for expression nodes (every Node in this
// package is an expression; FHIRPath has no separate statement grammar).
type Expr interface {
	Node
	expr()
}

type base struct {
	loc diag.Location
}

func (b base) Pos() diag.Location { return b.loc }
func (base) node()                {}
func (base) expr()                {}

// Literal is a constant value: integer, decimal, string, boolean, date,
// time, datetime, or quantity literal.
type Literal struct {
	base
	Kind  LiteralKind
	Raw   string // the literal exactly as it appeared in source
	Value any    // parsed Go value: int64, string, bool, etc.
	Unit  string // populated only for Kind == LiteralQuantity
}

// LiteralKind distinguishes the literal's FHIRPath type.
type LiteralKind int

const (
	LiteralEmpty LiteralKind = iota
	LiteralBoolean
	LiteralInteger
	LiteralDecimal
	LiteralString
	LiteralDate
	LiteralDateTime
	LiteralTime
	LiteralQuantity
)

func (l *Literal) String() string { return l.Raw }

// Identifier is a bare name: a property, a resource type name, or a
// FHIR-qualified type name segment.
type Identifier struct {
	base
	Name    string
	Escaped bool // true if written with backticks, e.g. `class`
}

func (i *Identifier) String() string {
	if i.Escaped {
		return "`" + i.Name + "`"
	}
	return i.Name
}

// Variable is an environment reference: $this, $index, $total, or a
// user/external variable written %name or %`name`.
type Variable struct {
	base
	Name string // without the leading $ or %
	Sigil byte  // '$' or '%'
}

func (v *Variable) String() string { return string(v.Sigil) + v.Name }

// This, Index, and Total are the special $this/$index/$total forms,
// kept distinct from Variable so the evaluator need not string-match.
type This struct{ base }
type Index struct{ base }
type Total struct{ base }

func (*This) String() string  { return "$this" }
func (*Index) String() string { return "$index" }
func (*Total) String() string { return "$total" }

// PropertyAccess is `base.name`.
type PropertyAccess struct {
	base
	Base     Expr
	Property *Identifier
}

func (p *PropertyAccess) String() string { return p.Base.String() + "." + p.Property.String() }

// Invocation is `base.name(args...)`: a function or method call chained
// off a base expression. When Base is nil, it is a bare top-level call.
type Invocation struct {
	base
	Base Expr // nil for a root-level function call
	Name string
	Args []Expr
}

func (i *Invocation) String() string {
	s := i.Name + "("
	for idx, a := range i.Args {
		if idx > 0 {
			s += ", "
		}
		s += a.String()
	}
	s += ")"
	if i.Base != nil {
		return i.Base.String() + "." + s
	}
	return s
}

// Indexer is `base[expr]`.
type Indexer struct {
	base
	Base  Expr
	Index Expr
}

func (ix *Indexer) String() string { return ix.Base.String() + "[" + ix.Index.String() + "]" }

// BinaryOp is any infix operator application (arithmetic, comparison,
// equality, boolean, union `|`, string concatenation `&`, membership
// `in`/`contains`, type test `is`, type cast `as`).
type BinaryOp struct {
	base
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinaryOp) String() string {
	return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")"
}

// UnaryOp is prefix `+` or `-`, or the `not`-adjacent keyword forms.
type UnaryOp struct {
	base
	Op      string
	Operand Expr
}

func (u *UnaryOp) String() string { return u.Op + u.Operand.String() }

// TypeSpecifier names a type used on the right of `is`/`as`, or inside
// type()/ofType(): an optional namespace (System/FHIR) plus a name.
type TypeSpecifier struct {
	base
	Namespace string // "" if unqualified
	Name      string
}

func (t *TypeSpecifier) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// TypeExpr is `expr is Type` or `expr as Type` in their infix-keyword form.
type TypeExpr struct {
	base
	Op   string // "is" or "as"
	Left Expr
	Type *TypeSpecifier
}

func (t *TypeExpr) String() string { return t.Left.String() + " " + t.Op + " " + t.Type.String() }

// Paren preserves an explicit `(expr)` grouping for round-tripping and
// for the hinter's redundant-parenthesization checks.
type Paren struct {
	base
	Inner Expr
}

func (p *Paren) String() string { return "(" + p.Inner.String() + ")" }

// Tuple is a `{}` empty-tuple literal — FHIRPath's empty-collection
// literal syntax, distinct from the zero-argument `{}` object form some
// grammars reserve; spec.md's grammar only needs the empty form.
type Tuple struct {
	base
}

func (*Tuple) String() string { return "{}" }

// ExternalConstant is `%context`, `%resource`, `%rootResource`,
// `%sct`, `%loinc`, `%ucum`, or similar reserved % forms the lexer
// recognizes by name but that aren't ordinary variables.
type ExternalConstant struct {
	base
	Name string
}

func (e *ExternalConstant) String() string { return "%" + e.Name }
