// Package trace defines the TraceSink interface consumed by the
// trace() function, plus WriterSink and NullSink default
// implementations.
package trace

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

// Event is one trace() call: a named checkpoint plus the collection
// that was passing through the expression at that point.
type Event struct {
	ID      string
	Name    string
	Values  types.Collection
	Project types.Collection // the (optional) projection expression's result, if trace() was called with a selector argument
}

// Sink receives trace() events. Implementations are consulted, never
// mutated, and must be safe for concurrent use since future evaluator
// extensions may parallelize sibling union branches.
type Sink interface {
	Trace(e Event)
}

// NullSink discards every event. It is the default when no sink is
// configured, matching trace()'s contract that it never changes the
// value flowing through the expression regardless of whether anything
// is listening.
type NullSink struct{}

func (NullSink) Trace(Event) {}

var _ Sink = NullSink{}

// WriterSink appends a human-readable line per event to an io.Writer,
// e.g. os.Stderr, guarded by a mutex since Sink implementations must be
// concurrency-safe.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w as a Sink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Trace(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	fmt.Fprintf(s.w, "[trace %s] %s: %s\n", id, e.Name, e.Values.String())
}

var _ Sink = (*WriterSink)(nil)
