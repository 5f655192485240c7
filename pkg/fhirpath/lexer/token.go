package lexer

// Kind identifies a token's lexical category.
type Kind int

const (
	EOF Kind = iota
	Error

	Identifier // bare or `backtick-escaped` name
	Number     // integer or decimal literal; a '.' in Text marks a decimal
	String     // 'single-quoted' string literal, already unescaped
	DateTime   // @2014-01-25T14:30:14.559 and partial forms
	Time       // @T14:30:14.559 and partial forms

	ThisVar  // $this
	IndexVar // $index
	TotalVar // $total
	Variable // %name or %`name` or %'string'

	// Keywords that double as operators; kept distinct from Identifier
	// so the parser can switch on Kind without re-comparing strings.
	KwAnd
	KwOr
	KwXor
	KwImplies
	KwNot
	KwIn
	KwContains
	KwIs
	KwAs
	KwDiv
	KwMod
	KwTrue
	KwFalse

	// Punctuation and operator symbols.
	Dot
	Comma
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Plus
	Minus
	Star
	Slash
	Amp
	Pipe
	Eq
	Neq
	Equiv
	NotEquiv
	Lt
	Lte
	Gt
	Gte
)

// Token is one lexical unit with its source span.
type Token struct {
	Kind   Kind
	Text   string // raw source text, or the unescaped value for String
	Offset int
	Line   int
	Column int
}

var keywords = map[string]Kind{
	"and":      KwAnd,
	"or":       KwOr,
	"xor":      KwXor,
	"implies":  KwImplies,
	"not":      KwNot,
	"in":       KwIn,
	"contains": KwContains,
	"is":       KwIs,
	"as":       KwAs,
	"div":      KwDiv,
	"mod":      KwMod,
	"true":     KwTrue,
	"false":    KwFalse,
}
