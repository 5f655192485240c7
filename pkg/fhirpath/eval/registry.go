package eval

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

// ArgStrategy controls whether a function's arguments are evaluated
// once against the function's input collection (Current) or once per
// element of the input with $this/$index/$total bound to that element
// (PerElement) — FHIRPath's lambda-expression functions (where, select,
// all, repeat, ...) all use PerElement so their argument expression can
// reference $this.
type ArgStrategy int

const (
	// Current evaluates each argument expression once, against the
	// same context the function itself was invoked in. Most functions
	// use this: substring(start), replace(pattern, sub), skip(n).
	Current ArgStrategy = iota
	// PerElement evaluates the (single) argument expression once per
	// element of the function's input collection, with that element
	// bound as $this. Used by where/select/all/exists(criteria)/repeat/
	// aggregate/sort.
	PerElement
)

// FuncImpl implements one registered function. target is the function's
// input collection ($this at the call site); args are the unevaluated
// argument expressions — PerElement functions evaluate them themselves,
// once per element, via Eval(ctx.WithElement(...), args[i]).
type FuncImpl func(ctx *Context, target types.Collection, args []ast.Expr) (types.Collection, error)

// FuncDef is one entry in the function registry.
type FuncDef struct {
	Name     string
	MinArgs  int
	MaxArgs  int // -1 means unbounded
	Strategy ArgStrategy
	Fn       FuncImpl
}

var registry = make(map[string]FuncDef)

// RegisterFunction adds def to the global function registry. Called
// from each funcs/*.go file's init(), so the eval package never imports
// pkg/fhirpath/funcs directly — funcs imports eval instead, and
// registers itself into it, avoiding an import cycle.
func RegisterFunction(def FuncDef) {
	registry[def.Name] = def
}

// LookupFunction returns the registered definition for name.
func LookupFunction(name string) (FuncDef, bool) {
	def, ok := registry[name]
	return def, ok
}
