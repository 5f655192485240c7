package eval

import (
	"context"
	"time"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/reference"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/schema"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/terminology"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/trace"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

// varFrame is one cons-list node of the variable environment. Frames are
// immutable once built: defineVariable() and union's sibling-scope copies
// both work by prepending a new frame rather than mutating a map, so a
// child scope can never leak writes back into its parent.
type varFrame struct {
	name   string
	value  types.Collection
	parent *varFrame
}

func (f *varFrame) lookup(name string) (types.Collection, bool) {
	for n := f; n != nil; n = n.parent {
		if n.name == name {
			return n.value, true
		}
	}
	return nil, false
}

// Context carries everything an expression needs across the whole
// evaluation: the $this/$index/$total focus stack, the variable
// environment, the original input and root resource, and the external
// collaborators (§6). Context is threaded by value; each navigation
// step that changes focus produces a derived copy rather than mutating
// the caller's Context, so sibling branches of `|` and function
// arguments never see each other's bindings.
type Context struct {
	ctx context.Context

	this  types.Collection
	index int
	total types.Collection

	vars *varFrame

	resource     types.Collection // %resource: the resource the expression is evaluated against
	rootResource types.Collection // %rootResource: the root of a contained-resource chain

	primitiveExt *types.Resource // sibling "_name" node for the current $this, set only via WithThisAndExtension; extension() does not read it

	Schema      schema.Provider
	Terminology terminology.Provider
	Reference   reference.Resolver
	Trace       trace.Sink

	maxDepth int
	depth    int

	now time.Time // fixed evaluation instant for now()/today()/timeOfDay()
}

// NewContext builds the root Context for evaluating an expression
// against input, which becomes both $this and %resource/%rootResource.
func NewContext(ctx context.Context, input types.Collection) *Context {
	return &Context{
		ctx:          ctx,
		this:         input,
		resource:     input,
		rootResource: input,
		maxDepth:     1000,
		Schema:       nil,
		Terminology:  nil,
		Reference:    nil,
		Trace:        nil,
		now:          time.Now(),
	}
}

// SetMaxDepth overrides the recursion guard used by EnterDepth, which
// bounds how deeply Eval calls nest.
func (c *Context) SetMaxDepth(n int) {
	c.maxDepth = n
}

// EvaluationInstant returns the instant fixed when this Context's root
// was created, ensuring now()/today()/timeOfDay() are stable across
// multiple calls within the same evaluation.
func (c *Context) EvaluationInstant() time.Time {
	return c.now
}

// Go returns the standard context.Context for cancellation/deadlines.
func (c *Context) Go() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// This returns the current focus collection.
func (c *Context) This() types.Collection { return c.this }

// Index returns $index: the position of This() within the collection
// being iterated by the nearest enclosing per-element function call, or
// 0 outside of one.
func (c *Context) Index() int { return c.index }

// Total returns $total: the running-aggregate accumulator used by
// aggregate(), or empty outside of one.
func (c *Context) Total() types.Collection { return c.total }

// Resource returns %resource.
func (c *Context) Resource() types.Collection { return c.resource }

// RootResource returns %rootResource.
func (c *Context) RootResource() types.Collection { return c.rootResource }

// PrimitiveExtensionSibling returns the "_name" sibling attached to the
// primitive $this, if the current Context was derived through
// WithThisAndExtension.
func (c *Context) PrimitiveExtensionSibling() (*types.Resource, bool) {
	return c.primitiveExt, c.primitiveExt != nil
}

// WithThis returns a derived Context focused on this, clearing index/total
// and any primitive-extension sibling (the new focus wasn't reached
// through a tracked property navigation unless the caller sets one).
func (c *Context) WithThis(this types.Collection) *Context {
	cp := *c
	cp.this = this
	cp.index = 0
	cp.total = nil
	cp.primitiveExt = nil
	return &cp
}

// WithThisAndExtension is WithThis plus recording the primitive's
// extension sibling. Property navigation does not call it, so the
// sibling is present only when a caller sets it this way.
func (c *Context) WithThisAndExtension(this types.Collection, ext *types.Resource) *Context {
	cp := c.WithThis(this)
	cp.primitiveExt = ext
	return cp
}

// WithElement returns a derived Context for evaluating a lambda body
// against one element of an iteration, with $index and $total set.
func (c *Context) WithElement(element types.Value, index int, total types.Collection) *Context {
	cp := *c
	cp.this = types.Collection{element}
	cp.index = index
	cp.total = total
	cp.primitiveExt = nil
	return &cp
}

// WithVariable returns a derived Context with name bound to value. Per
// spec.md, redefining an existing name in the same or a nested scope is
// legal and shadows the outer binding. No name check is made here;
// the protected-name check lives in DefineVariable, which binds in place
// and does not call this.
func (c *Context) WithVariable(name string, value types.Collection) *Context {
	cp := *c
	cp.vars = &varFrame{name: name, value: value, parent: c.vars}
	return &cp
}

var protectedVarNames = map[string]bool{
	"context": true, "resource": true, "rootResource": true,
	"this": true, "index": true, "total": true, "ucum": true,
}

// DefineVariable binds name to value in place, mutating this Context
// rather than returning a derived copy. This is deliberate: defineVariable()
// must be visible to sibling calls chained after it on the same focus
// (Patient.name.defineVariable('n', ...).family), which share this exact
// *Context pointer — only WithThis/WithElement/union's branch copies fork
// a new pointer, which is what ends a defineVariable scope per spec.md.
func (c *Context) DefineVariable(name string, value types.Collection) error {
	if protectedVarNames[name] {
		return NewEvalError(ErrInvalidArguments, "cannot redefine protected variable %q", name)
	}
	c.vars = &varFrame{name: name, value: value, parent: c.vars}
	return nil
}

// LookupVariable resolves a %name reference, including the ambient
// %context/%resource/%rootResource/%sct/%loinc/%ucum forms.
func (c *Context) LookupVariable(name string) (types.Collection, bool) {
	switch name {
	case "context":
		return c.this, true
	case "resource":
		return c.resource, true
	case "rootResource":
		return c.rootResource, true
	case "sct":
		return types.Collection{types.NewString("http://snomed.info/sct")}, true
	case "loinc":
		return types.Collection{types.NewString("http://loinc.org")}, true
	case "ucum":
		return types.Collection{types.NewString("http://unitsofmeasure.org")}, true
	}
	return c.vars.lookup(name)
}

// EnterDepth increments the recursion guard, returning an error if
// maxDepth would be exceeded; the caller must call the returned leave
// func on return (typically via defer) to restore the prior depth.
func (c *Context) EnterDepth() (leave func(), err error) {
	if c.depth >= c.maxDepth {
		return func() {}, NewEvalError(ErrInvalidExpression, "maximum recursion depth %d exceeded", c.maxDepth)
	}
	c.depth++
	return func() { c.depth-- }, nil
}

// Deadline returns ctx.Go()'s deadline, and whether one is set.
func (c *Context) Deadline() (time.Time, bool) {
	return c.Go().Deadline()
}

// Cancelled reports whether the underlying context.Context has been
// cancelled or its deadline exceeded.
func (c *Context) Cancelled() error {
	select {
	case <-c.Go().Done():
		return c.Go().Err()
	default:
		return nil
	}
}
