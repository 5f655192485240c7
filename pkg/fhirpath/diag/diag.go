// Package diag defines non-fatal findings produced by the lexer, parser,
// and semantic analyzer: a Diagnostic is never an error. Parse/evaluation
// failures that halt processing use the error channel in eval/errors.go
// instead; diagnostics are advisory observations attached to an otherwise
// successful compile.
package diag

import "github.com/google/uuid"

// Severity classifies how serious a Diagnostic is.
type Severity int

const (
	// Error marks a finding the caller should treat as a hard problem,
	// e.g. an unresolved property name. Expressions can still evaluate;
	// the analyzer never blocks compilation on its own diagnostics.
	Error Severity = iota
	Warning
	Info
	Hint
)

// String renders the severity for log lines and test output.
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// Code identifies a diagnostic's kind independent of its message text.
type Code string

const (
	CodePropertyNotFound   Code = "FP1001"
	CodeAmbiguousChoice    Code = "FP1002"
	CodeTypeMismatch       Code = "FP1003"
	CodeUnknownFunction    Code = "FP1004"
	CodeArityMismatch      Code = "FP1005"
	CodeUnknownVariable    Code = "FP1006"
	CodeDeepNesting        Code = "FP2001"
	CodeRepeatedSubexpr    Code = "FP2002"
	CodeExpensiveOperation Code = "FP2003"
	CodeRedundantCondition Code = "FP2004"
	CodeInefficientFilter  Code = "FP2005"
	CodeUnnecessaryLoop    Code = "FP2006"
)

// Location identifies a span in the source expression text.
type Location struct {
	Offset int // byte offset of the span start
	Length int // byte length of the span
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Diagnostic is one non-fatal finding. ID is a fresh UUID per finding so
// callers can correlate diagnostics with trace events sharing a run.
type Diagnostic struct {
	ID          string
	Code        Code
	Severity    Severity
	Message     string
	Location    Location
	Suggestions []string
	Notes       []string
}

// New creates a Diagnostic, stamping a correlation ID.
func New(code Code, severity Severity, message string, loc Location) Diagnostic {
	return Diagnostic{
		ID:       uuid.NewString(),
		Code:     code,
		Severity: severity,
		Message:  message,
		Location: loc,
	}
}

// WithSuggestions returns a copy of d with the given suggestions attached.
func (d Diagnostic) WithSuggestions(suggestions ...string) Diagnostic {
	d.Suggestions = suggestions
	return d
}

// WithNotes returns a copy of d with the given notes attached.
func (d Diagnostic) WithNotes(notes ...string) Diagnostic {
	d.Notes = notes
	return d
}

// Bag collects diagnostics produced over the course of a single
// parse/analyze pass.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Items returns all collected diagnostics in emission order.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// HasErrors reports whether any diagnostic in the bag is Error severity.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
