// Package terminology defines the TerminologyProvider interface
// consumed by the memberOf()/subsumes()/subsumedBy() functions, plus a
// NullProvider default that reports every code as not a member and
// every subsumption test as false rather than erroring.
package terminology

import "context"

// Provider answers terminology questions for FHIRPath's terminology
// functions. Implementations are consulted, never mutated.
type Provider interface {
	// MemberOf reports whether code is a member of the value set
	// identified by valueSetURL.
	MemberOf(ctx context.Context, system, code, valueSetURL string) (bool, error)

	// Subsumes reports whether codeA subsumes codeB within system
	// ("equivalent", "subsumes", "subsumed-by", "not-subsumed", per the
	// $subsumes operation's result codes) as a plain subsumes/not bool,
	// matching FHIRPath's boolean subsumes()/subsumedBy() functions.
	Subsumes(ctx context.Context, system, codeA, codeB string) (bool, error)
}

// NullProvider answers every query negatively without error: the
// engine has no terminology service wired, so memberOf()/subsumes()
// always report false rather than panicking or blocking.
type NullProvider struct{}

func (NullProvider) MemberOf(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (NullProvider) Subsumes(context.Context, string, string, string) (bool, error) {
	return false, nil
}

var _ Provider = NullProvider{}
