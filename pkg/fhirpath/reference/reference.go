// Package reference defines the ReferenceResolver interface consumed by
// resolve(), plus a BundleResolver default that looks inside contained
// resources and Bundle entries before giving up.
package reference

import (
	"context"
	"strings"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

// Resolver resolves a FHIR Reference.reference string to the resource
// it points at. Implementations are consulted, never mutated.
type Resolver interface {
	Resolve(ctx context.Context, reference string, contained, rootContained []*types.Resource, bundle []*types.Resource) (*types.Resource, bool)
}

// BundleResolver resolves references using only the data already
// present in the expression's input: contained resources (checked on
// the resource being navigated, then the root resource), then entries
// of a Bundle if the root resource is one. It never performs network
// I/O; an external resolver implementing Resolver is required to reach
// off-document references.
type BundleResolver struct {
	// AllowSuffixMatch enables matching a Bundle entry whose fullUrl
	// merely ends with "/{ref}" rather than matching exactly — the
	// teacher's original unconditional behavior, now name-visible and
	// toggleable per the Open Question pinned in DESIGN.md. Defaults to
	// true when zero-valued only via NewBundleResolver.
	AllowSuffixMatch bool
}

// NewBundleResolver creates a BundleResolver with AllowSuffixMatch enabled.
func NewBundleResolver() *BundleResolver {
	return &BundleResolver{AllowSuffixMatch: true}
}

func (r *BundleResolver) Resolve(_ context.Context, ref string, contained, rootContained []*types.Resource, bundle []*types.Resource) (*types.Resource, bool) {
	if strings.HasPrefix(ref, "#") {
		id := strings.TrimPrefix(ref, "#")
		if res, ok := findByID(contained, id); ok {
			return res, true
		}
		if res, ok := findByID(rootContained, id); ok {
			return res, true
		}
		return nil, false
	}

	for _, entry := range bundle {
		fullURL, _ := entry.Get("fullUrl")
		if s, ok := fullURL.(types.String); ok {
			if s.Value() == ref {
				return resourceField(entry), true
			}
			if r.AllowSuffixMatch && strings.HasSuffix(s.Value(), "/"+ref) {
				return resourceField(entry), true
			}
		}
	}
	return nil, false
}

func resourceField(entry *types.Resource) *types.Resource {
	if v, ok := entry.Get("resource"); ok {
		if res, ok := v.(*types.Resource); ok {
			return res
		}
	}
	return entry
}

func findByID(resources []*types.Resource, id string) (*types.Resource, bool) {
	for _, res := range resources {
		if v, ok := res.Get("id"); ok {
			if s, ok := v.(types.String); ok && s.Value() == id {
				return res, true
			}
		}
	}
	return nil, false
}

var _ Resolver = (*BundleResolver)(nil)
