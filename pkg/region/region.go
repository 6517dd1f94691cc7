// Package region defines the symbolic-set contract consumed by the
// atomic-predicate trie. Concrete engines live in subpackages.
package region

import (
	"errors"
)

// ErrEngineMismatch is the panic value raised by engines when an operation
// combines regions created by different engine instances.
var ErrEngineMismatch = errors.New("regions belong to different engines")

// Region is an immutable set of elements of a fixed finite domain.
// Implementations must be canonical: two regions denoting the same set are
// Equal and have the same Key. Every operation returns a new Region and
// leaves its receiver and arguments untouched, so a Region may be shared
// freely between goroutines.
type Region interface {
	// IsEmpty reports whether the region contains no element.
	IsEmpty() bool
	// IsUniversal reports whether the region contains every element of
	// the domain.
	IsUniversal() bool
	// Intersect returns the elements present in both regions.
	Intersect(other Region) Region
	// Union returns the elements present in either region.
	Union(other Region) Region
	// Complement returns the elements of the domain not in the region.
	Complement() Region
	// IsSubsetOf reports whether every element of the region is in other.
	IsSubsetOf(other Region) bool
	// Equal reports whether both regions denote the same set.
	Equal(other Region) bool
	// Key returns a canonical, comparable identity for the region. The key
	// is only guaranteed unique while the region is reachable: engines may
	// hand a dropped region's key to a different set.
	Key() string
	// String returns a human-readable representation.
	String() string
}

// Engine provides the distinguished regions of a shared domain.
type Engine interface {
	// Universe returns the region containing the whole domain.
	Universe() Region
	// Empty returns the region containing nothing.
	Empty() Region
}

// UnionAll returns the union of rs, or the engine's empty region when rs is
// empty.
func UnionAll(e Engine, rs ...Region) Region {
	acc := e.Empty()
	for _, r := range rs {
		acc = acc.Union(r)
	}
	return acc
}

// Disjoint reports whether a and b share no element.
func Disjoint(a, b Region) bool {
	return a.Intersect(b).IsEmpty()
}

// Difference returns the elements of a that are not in b.
func Difference(a, b Region) Region {
	return a.Intersect(b.Complement())
}
