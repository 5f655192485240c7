package fhirpath

import (
	"context"
	"fmt"
	"time"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/reference"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/schema"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/terminology"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/trace"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

// SchemaProvider supplies FHIR type/element metadata (§6): element
// types, choice-type candidates, base-type chains. Wire a real one
// (e.g. one generated from a FHIR StructureDefinition package) to get
// schema-aware navigation and Expression.Analyze diagnostics; a nil
// SchemaProvider degrades gracefully rather than failing evaluation.
type SchemaProvider = schema.Provider

// TerminologyProvider backs memberOf(), subsumes(), and subsumedBy().
type TerminologyProvider = terminology.Provider

// ReferenceResolver backs resolve(), dereferencing a Reference against
// contained resources, the root resource's contained list, and (for a
// Bundle root) sibling entries.
type ReferenceResolver = reference.Resolver

// TraceSink receives trace() events for diagnostic logging during
// evaluation.
type TraceSink = trace.Sink

// NewStaticSchema returns a SchemaProvider seeded with the common FHIR
// base/resource types bundled with this module, sufficient for
// Expression.Analyze and choice-type resolution without a generated
// StructureDefinition package.
func NewStaticSchema() SchemaProvider {
	return schema.NewStaticProvider()
}

// NewBundleReferenceResolver returns a ReferenceResolver that resolves
// a reference against contained resources and, for a Bundle root,
// sibling entries — the same resolver DefaultOptions wires in.
func NewBundleReferenceResolver() ReferenceResolver {
	return reference.NewBundleResolver()
}

// EvalOptions configures a single evaluation run. Build one with
// DefaultOptions or via the With* functional options passed to
// Expression.EvaluateWithOptions.
type EvalOptions struct {
	// Ctx carries cancellation/deadline for the evaluation.
	Ctx context.Context

	// Timeout bounds total evaluation time; 0 disables the timeout.
	Timeout time.Duration

	// MaxDepth limits how deeply the evaluator's Eval calls may nest.
	// repeat() and descendants() iterate without consuming it.
	MaxDepth int

	// Variables are external variables reachable via %name.
	Variables map[string]types.Collection

	// Schema resolves FHIR type metadata; nil disables schema-aware
	// navigation and analysis.
	Schema SchemaProvider

	// Terminology backs the terminology functions; defaults to a
	// provider that reports no membership/subsumption relationship.
	Terminology TerminologyProvider

	// Reference backs resolve(); defaults to a BundleResolver that
	// handles contained resources and same-Bundle entries.
	Reference ReferenceResolver

	// Trace receives trace() events; defaults to a no-op sink.
	Trace TraceSink
}

// DefaultOptions returns options suitable for most evaluations: a
// 5-second timeout, a 1000-frame recursion guard, a terminology
// provider that answers every query false, a BundleResolver for
// resolve(), and a no-op trace sink, so those functions behave
// predictably (rather than panicking) until a caller wires real ones.
func DefaultOptions() *EvalOptions {
	return &EvalOptions{
		Ctx:         context.Background(),
		Timeout:     5 * time.Second,
		MaxDepth:    1000,
		Variables:   make(map[string]types.Collection),
		Terminology: terminology.NullProvider{},
		Reference:   reference.NewBundleResolver(),
		Trace:       trace.NullSink{},
	}
}

// EvalOption is a functional option for EvaluateWithOptions.
type EvalOption func(*EvalOptions)

// WithContext sets the context used for cancellation and deadlines.
func WithContext(ctx context.Context) EvalOption {
	return func(o *EvalOptions) { o.Ctx = ctx }
}

// WithTimeout overrides the evaluation timeout; 0 disables it.
func WithTimeout(d time.Duration) EvalOption {
	return func(o *EvalOptions) { o.Timeout = d }
}

// WithMaxDepth overrides the recursion guard.
func WithMaxDepth(depth int) EvalOption {
	return func(o *EvalOptions) { o.MaxDepth = depth }
}

// WithVariable binds name to value as an external variable reachable
// via %name for the duration of this evaluation.
func WithVariable(name string, value types.Collection) EvalOption {
	return func(o *EvalOptions) {
		if o.Variables == nil {
			o.Variables = make(map[string]types.Collection)
		}
		o.Variables[name] = value
	}
}

// WithSchema wires a SchemaProvider for choice-type resolution and
// schema-aware is/as/ofType checks.
func WithSchema(p SchemaProvider) EvalOption {
	return func(o *EvalOptions) { o.Schema = p }
}

// WithTerminology wires a TerminologyProvider for memberOf/subsumes/subsumedBy.
func WithTerminology(p TerminologyProvider) EvalOption {
	return func(o *EvalOptions) { o.Terminology = p }
}

// WithReference wires a ReferenceResolver for resolve().
func WithReference(r ReferenceResolver) EvalOption {
	return func(o *EvalOptions) { o.Reference = r }
}

// WithTrace wires a TraceSink for trace().
func WithTrace(s TraceSink) EvalOption {
	return func(o *EvalOptions) { o.Trace = s }
}

// EvaluateWithOptions parses resource as JSON and evaluates the
// expression against it with the given options applied over
// DefaultOptions.
func (e *Expression) EvaluateWithOptions(resource []byte, opts ...EvalOption) (Collection, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	goCtx := options.Ctx
	if goCtx == nil {
		goCtx = context.Background()
	}
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		goCtx, cancel = context.WithTimeout(goCtx, options.Timeout)
		defer cancel()
	}

	input, err := types.JSONToCollection(resource)
	if err != nil {
		return nil, fmt.Errorf("fhirpath: invalid resource JSON: %w", err)
	}

	evalCtx := eval.NewContext(goCtx, input)
	if options.MaxDepth > 0 {
		evalCtx.SetMaxDepth(options.MaxDepth)
	}
	evalCtx.Schema = options.Schema
	evalCtx.Terminology = options.Terminology
	evalCtx.Reference = options.Reference
	evalCtx.Trace = options.Trace
	for name, value := range options.Variables {
		if err := evalCtx.DefineVariable(name, value); err != nil {
			return nil, fmt.Errorf("fhirpath: %w", err)
		}
	}

	return e.EvaluateWithContext(evalCtx)
}
