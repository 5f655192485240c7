package types

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Collection is an ordered sequence of FHIRPath values and the universal
// result type of every expression. Collections never nest: a child
// Collection flattens into its parent at construction, and an empty result
// is a zero-length Collection rather than a Collection holding an Empty
// element (there is no distinct Empty variant in this representation).
type Collection []Value

// Empty returns true if the collection has no elements.
func (c Collection) Empty() bool {
	return len(c) == 0
}

// Count returns the number of elements in the collection.
func (c Collection) Count() int {
	return len(c)
}

// First returns the first element and true, or nil and false if empty.
func (c Collection) First() (Value, bool) {
	if len(c) == 0 {
		return nil, false
	}
	return c[0], true
}

// Last returns the last element and true, or nil and false if empty.
func (c Collection) Last() (Value, bool) {
	if len(c) == 0 {
		return nil, false
	}
	return c[len(c)-1], true
}

// Single returns the single element if the collection has exactly one element.
// Returns an error if empty or has more than one element.
func (c Collection) Single() (Value, error) {
	switch len(c) {
	case 0:
		return nil, fmt.Errorf("expected single value, got empty collection")
	case 1:
		return c[0], nil
	default:
		return nil, fmt.Errorf("expected single value, got %d elements", len(c))
	}
}

// Tail returns all elements except the first.
func (c Collection) Tail() Collection {
	if len(c) <= 1 {
		return Collection{}
	}
	return c[1:]
}

// Skip returns a collection with the first n elements removed.
func (c Collection) Skip(n int) Collection {
	if n >= len(c) {
		return Collection{}
	}
	if n <= 0 {
		return c
	}
	return c[n:]
}

// Take returns a collection with only the first n elements.
func (c Collection) Take(n int) Collection {
	if n <= 0 {
		return Collection{}
	}
	if n >= len(c) {
		return c
	}
	return c[:n]
}

// Contains returns true if the collection contains a value equal to v.
func (c Collection) Contains(v Value) bool {
	return lo.ContainsBy(c, func(item Value) bool { return item.Equal(v) })
}

// Distinct returns a new collection with duplicate values removed,
// preserving order of first occurrence.
func (c Collection) Distinct() Collection {
	if len(c) <= 1 {
		return c
	}
	result := make(Collection, 0, len(c))
	for _, item := range c {
		if !result.Contains(item) {
			result = append(result, item)
		}
	}
	return result
}

// IsDistinct returns true if all elements in the collection are unique.
func (c Collection) IsDistinct() bool {
	return len(c) == len(c.Distinct())
}

// Union returns the union of c and other with duplicates removed,
// preserving the order of first occurrence (c's elements first).
func (c Collection) Union(other Collection) Collection {
	return c.Combine(other).Distinct()
}

// Combine concatenates c and other, preserving duplicates.
func (c Collection) Combine(other Collection) Collection {
	result := make(Collection, 0, len(c)+len(other))
	result = append(result, c...)
	result = append(result, other...)
	return result
}

// Intersect returns elements present in both collections, deduplicated,
// in the order they appear in c.
func (c Collection) Intersect(other Collection) Collection {
	return lo.Filter(c.Distinct(), func(item Value, _ int) bool {
		return other.Contains(item)
	})
}

// Exclude returns elements of c that are not present in other.
func (c Collection) Exclude(other Collection) Collection {
	return lo.Filter(c, func(item Value, _ int) bool {
		return !other.Contains(item)
	})
}

// String returns a string representation of the collection.
func (c Collection) String() string {
	if len(c) == 0 {
		return "[]"
	}
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ToBoolean converts a singleton boolean collection to a bool.
// Returns an error if not a singleton Boolean.
func (c Collection) ToBoolean() (bool, error) {
	if len(c) == 0 {
		return false, fmt.Errorf("cannot convert empty collection to boolean")
	}
	if len(c) > 1 {
		return false, fmt.Errorf("cannot convert collection with %d elements to boolean", len(c))
	}
	if b, ok := c[0].(Boolean); ok {
		return b.Bool(), nil
	}
	return false, fmt.Errorf("cannot convert %s to boolean", c[0].Type())
}

// AllTrue returns true if every item is the boolean true.
func (c Collection) AllTrue() bool {
	return lo.EveryBy(c, func(item Value) bool {
		b, ok := item.(Boolean)
		return ok && b.Bool()
	})
}

// AnyTrue returns true if any item is the boolean true.
func (c Collection) AnyTrue() bool {
	return lo.SomeBy(c, func(item Value) bool {
		b, ok := item.(Boolean)
		return ok && b.Bool()
	})
}

// AllFalse returns true if every item is the boolean false.
func (c Collection) AllFalse() bool {
	return lo.EveryBy(c, func(item Value) bool {
		b, ok := item.(Boolean)
		return ok && !b.Bool()
	})
}

// AnyFalse returns true if any item is the boolean false.
func (c Collection) AnyFalse() bool {
	return lo.SomeBy(c, func(item Value) bool {
		b, ok := item.(Boolean)
		return ok && !b.Bool()
	})
}
