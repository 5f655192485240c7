// Package parser implements a hand-written Pratt (precedence-climbing)
// parser for FHIRPath expressions, producing the pkg/fhirpath/ast tree.
// spec.md §4.1 mandates this technique over a generated grammar.
package parser

import (
	"fmt"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/diag"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/lexer"
)

// precedence levels, lowest to highest. FHIRPath's grammar has ten
// binary-operator precedence bands; unary operators and the postfix
// invocation/indexer chain bind tighter than all of them.
const (
	precLowest = iota
	precImplies
	precOrXor
	precAnd
	precMembership // in, contains
	precEquality   // = != ~ !~
	precRelational // < <= > >=
	precUnion      // |
	precTypeOp     // is, as
	precAdditive   // + - &
	precMultiplic  // * / div mod
	precUnary
	precInvocation // ., (), []
)

var binaryPrec = map[lexer.Kind]int{
	lexer.KwImplies:  precImplies,
	lexer.KwOr:       precOrXor,
	lexer.KwXor:      precOrXor,
	lexer.KwAnd:      precAnd,
	lexer.KwIn:       precMembership,
	lexer.KwContains: precMembership,
	lexer.Eq:         precEquality,
	lexer.Neq:        precEquality,
	lexer.Equiv:      precEquality,
	lexer.NotEquiv:   precEquality,
	lexer.Lt:         precRelational,
	lexer.Lte:        precRelational,
	lexer.Gt:         precRelational,
	lexer.Gte:        precRelational,
	lexer.Pipe:       precUnion,
	lexer.KwIs:       precTypeOp,
	lexer.KwAs:       precTypeOp,
	lexer.Plus:       precAdditive,
	lexer.Minus:      precAdditive,
	lexer.Amp:        precAdditive,
	lexer.Star:       precMultiplic,
	lexer.Slash:      precMultiplic,
	lexer.KwDiv:      precMultiplic,
	lexer.KwMod:      precMultiplic,
}

var binaryOpText = map[lexer.Kind]string{
	lexer.KwImplies: "implies", lexer.KwOr: "or", lexer.KwXor: "xor", lexer.KwAnd: "and",
	lexer.KwIn: "in", lexer.KwContains: "contains",
	lexer.Eq: "=", lexer.Neq: "!=", lexer.Equiv: "~", lexer.NotEquiv: "!~",
	lexer.Lt: "<", lexer.Lte: "<=", lexer.Gt: ">", lexer.Gte: ">=",
	lexer.Plus: "+", lexer.Minus: "-", lexer.Amp: "&",
	lexer.Star: "*", lexer.Slash: "/", lexer.KwDiv: "div", lexer.KwMod: "mod",
}

// rightAssociative holds the operators that associate right-to-left.
// FHIRPath's binary operators are all left-associative except none in
// practice; kept as an explicit (empty) set so a future operator can be
// added here without touching the climbing loop.
var rightAssociative = map[lexer.Kind]bool{}

// ParseError is returned when parsing fails irrecoverably. Non-fatal
// findings are reported as diag.Diagnostic and don't stop the parse.
type ParseError struct {
	Message  string
	Location diag.Location
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Location.Line, e.Location.Column, e.Message)
}

// Parser consumes a token stream from lexer.Lexer and builds an ast.Expr.
type Parser struct {
	lex  *lexer.Lexer
	diag diag.Bag
}

// Parse parses src as a complete FHIRPath expression.
func Parse(src string) (ast.Expr, []diag.Diagnostic, error) {
	p := &Parser{lex: lexer.New(src)}
	expr, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, p.diag.Items(), err
	}
	if tok := p.lex.Peek(); tok.Kind != lexer.EOF {
		return nil, p.diag.Items(), p.unexpected(tok, "end of expression")
	}
	return expr, p.diag.Items(), nil
}

func loc(tok lexer.Token) diag.Location {
	return diag.Location{Offset: tok.Offset, Length: len(tok.Text), Line: tok.Line, Column: tok.Column}
}

func (p *Parser) unexpected(tok lexer.Token, expected string) error {
	msg := fmt.Sprintf("unexpected token %q, expected %s", tok.Text, expected)
	if tok.Kind == lexer.EOF {
		msg = fmt.Sprintf("unexpected end of expression, expected %s", expected)
	}
	if tok.Kind == lexer.Error {
		msg = tok.Text
	}
	return &ParseError{Message: msg, Location: loc(tok)}
}

// parseExpr implements precedence climbing: parse a unary/primary term,
// then repeatedly absorb binary operators whose precedence exceeds min.
func (p *Parser) parseExpr(min int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.lex.Peek()

		if tok.Kind == lexer.KwIs || tok.Kind == lexer.KwAs {
			if precTypeOp < min {
				break
			}
			p.lex.Next()
			ts, err := p.parseTypeSpecifier()
			if err != nil {
				return nil, err
			}
			op := "is"
			if tok.Kind == lexer.KwAs {
				op = "as"
			}
			left = &ast.TypeExpr{Op: op, Left: left, Type: ts}
			continue
		}

		prec, ok := binaryPrec[tok.Kind]
		if !ok || prec < min {
			break
		}
		p.lex.Next()
		nextMin := prec + 1
		if rightAssociative[tok.Kind] {
			nextMin = prec
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: binaryOpText[tok.Kind], Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	tok := p.lex.Peek()
	if tok.Kind == lexer.Plus || tok.Kind == lexer.Minus {
		p.lex.Next()
		operand, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		opText := "+"
		if tok.Kind == lexer.Minus {
			opText = "-"
		}
		return &ast.UnaryOp{Op: opText, Operand: operand}, nil
	}
	if tok.Kind == lexer.KwNot {
		// `not` in FHIRPath is ordinarily a no-argument method,
		// `expr.not()`; a bare leading `not` falls through to
		// parsePrimary, which accepts it as an identifier or function
		// name like the other keywords.
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary term followed by any chain of
// `.invocation`, `[index]` suffixes.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.lex.Peek()
		switch tok.Kind {
		case lexer.Dot:
			p.lex.Next()
			left, err = p.parseInvocationSuffix(left)
			if err != nil {
				return nil, err
			}
		case lexer.LBracket:
			p.lex.Next()
			idx, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBracket); err != nil {
				return nil, err
			}
			left = &ast.Indexer{Base: left, Index: idx}
		default:
			return left, nil
		}
	}
}

// parseInvocationSuffix parses the part after a `.`: a bare identifier
// (property access) or name(args) (method call).
func (p *Parser) parseInvocationSuffix(base ast.Expr) (ast.Expr, error) {
	tok := p.lex.Next()
	switch tok.Kind {
	case lexer.Identifier:
		name := tok.Text
		if p.lex.Peek().Kind == lexer.LParen {
			return p.parseCallArgs(base, name)
		}
		return &ast.PropertyAccess{Base: base, Property: &ast.Identifier{Name: name}}, nil
	case lexer.KwAs, lexer.KwIs, lexer.KwDiv, lexer.KwMod, lexer.KwAnd, lexer.KwOr, lexer.KwXor,
		lexer.KwImplies, lexer.KwIn, lexer.KwContains, lexer.KwTrue, lexer.KwFalse, lexer.KwNot:
		// Keywords are valid identifiers in member-access position
		// (e.g. `Patient.as`, or Narrative's `div` element: reserved
		// words used as FHIR element names do occur and must still
		// parse as properties).
		name := tok.Text
		if p.lex.Peek().Kind == lexer.LParen {
			return p.parseCallArgs(base, name)
		}
		return &ast.PropertyAccess{Base: base, Property: &ast.Identifier{Name: name}}, nil
	default:
		return nil, p.unexpected(tok, "identifier or function name")
	}
}

func (p *Parser) parseCallArgs(base ast.Expr, name string) (ast.Expr, error) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if p.lex.Peek().Kind != lexer.RParen {
		for {
			arg, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.lex.Peek().Kind != lexer.Comma {
				break
			}
			p.lex.Next()
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return &ast.Invocation{Base: base, Name: name, Args: args}, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.lex.Next()
	switch tok.Kind {
	case lexer.Number:
		return p.finishNumberOrQuantity(tok)
	case lexer.String:
		return &ast.Literal{Kind: ast.LiteralString, Raw: tok.Text, Value: tok.Text}, nil
	case lexer.KwTrue:
		return &ast.Literal{Kind: ast.LiteralBoolean, Raw: "true", Value: true}, nil
	case lexer.KwFalse:
		return &ast.Literal{Kind: ast.LiteralBoolean, Raw: "false", Value: false}, nil
	case lexer.DateTime:
		return &ast.Literal{Kind: ast.LiteralDateTime, Raw: tok.Text, Value: tok.Text}, nil
	case lexer.Time:
		return &ast.Literal{Kind: ast.LiteralTime, Raw: tok.Text, Value: tok.Text}, nil
	case lexer.ThisVar:
		return &ast.This{}, nil
	case lexer.IndexVar:
		return &ast.Index{}, nil
	case lexer.TotalVar:
		return &ast.Total{}, nil
	case lexer.Variable:
		if isReservedExternal(tok.Text) {
			return &ast.ExternalConstant{Name: tok.Text}, nil
		}
		return &ast.Variable{Name: tok.Text, Sigil: '%'}, nil
	case lexer.LParen:
		inner, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return &ast.Paren{Inner: inner}, nil
	case lexer.LBrace:
		if _, err := p.expect(lexer.RBrace); err != nil {
			return nil, err
		}
		return &ast.Tuple{}, nil
	case lexer.Identifier:
		name := tok.Text
		if p.lex.Peek().Kind == lexer.LParen {
			return p.parseCallArgs(nil, name)
		}
		return &ast.Identifier{Name: name}, nil
	case lexer.KwDiv, lexer.KwMod, lexer.KwAnd, lexer.KwOr, lexer.KwXor, lexer.KwImplies,
		lexer.KwIn, lexer.KwContains, lexer.KwIs, lexer.KwAs, lexer.KwNot:
		// A keyword may still be used as a bare identifier at the
		// start of an invocation chain when it names a FHIR element,
		// e.g. a top-level `div`.
		name := tok.Text
		if p.lex.Peek().Kind == lexer.LParen {
			return p.parseCallArgs(nil, name)
		}
		return &ast.Identifier{Name: name}, nil
	default:
		return nil, p.unexpected(tok, "an expression")
	}
}

// finishNumberOrQuantity parses a numeric literal, then checks for a
// trailing unit (quoted string or calendar-duration keyword) that turns
// it into a Quantity literal.
func (p *Parser) finishNumberOrQuantity(tok lexer.Token) (ast.Expr, error) {
	kind := ast.LiteralInteger
	for _, c := range tok.Text {
		if c == '.' {
			kind = ast.LiteralDecimal
			break
		}
	}
	lit := &ast.Literal{Kind: kind, Raw: tok.Text, Value: tok.Text}

	next := p.lex.Peek()
	if next.Kind == lexer.String {
		p.lex.Next()
		return &ast.Literal{Kind: ast.LiteralQuantity, Raw: tok.Text + " '" + next.Text + "'", Value: tok.Text, Unit: next.Text}, nil
	}
	if next.Kind == lexer.Identifier && isCalendarUnit(next.Text) {
		p.lex.Next()
		return &ast.Literal{Kind: ast.LiteralQuantity, Raw: tok.Text + " " + next.Text, Value: tok.Text, Unit: next.Text}, nil
	}
	return lit, nil
}

func isCalendarUnit(s string) bool {
	switch s {
	case "year", "years", "month", "months", "week", "weeks", "day", "days",
		"hour", "hours", "minute", "minutes", "second", "seconds",
		"millisecond", "milliseconds":
		return true
	}
	return false
}

func isReservedExternal(name string) bool {
	switch name {
	case "context", "resource", "rootResource", "sct", "loinc", "ucum", "us-zip", "vs-":
		return true
	}
	return false
}

// parseTypeSpecifier parses the right side of `is`/`as`: an optional
// `Namespace.` prefix followed by a type name.
func (p *Parser) parseTypeSpecifier() (*ast.TypeSpecifier, error) {
	first, err := p.expect(lexer.Identifier)
	if err != nil {
		return nil, err
	}
	if p.lex.Peek().Kind == lexer.Dot {
		p.lex.Next()
		second, err := p.expect(lexer.Identifier)
		if err != nil {
			return nil, err
		}
		return &ast.TypeSpecifier{Namespace: first.Text, Name: second.Text}, nil
	}
	return &ast.TypeSpecifier{Name: first.Text}, nil
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	tok := p.lex.Next()
	if tok.Kind != kind {
		return tok, p.unexpected(tok, tokenKindName(kind))
	}
	return tok, nil
}

func tokenKindName(k lexer.Kind) string {
	switch k {
	case lexer.RParen:
		return "')'"
	case lexer.RBracket:
		return "']'"
	case lexer.RBrace:
		return "'}'"
	case lexer.LParen:
		return "'('"
	case lexer.Identifier:
		return "an identifier"
	default:
		return "a token"
	}
}
