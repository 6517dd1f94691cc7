// Package bitset implements region.Engine over an explicit finite domain
// of points [0, size). Each region is a bitset with one bit per point,
// which makes every operation exact and canonical at the cost of memory
// linear in the domain size. It suits small domains and tests; use the
// bdd engine for header spaces.
package bitset

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/netverify/aptrie/pkg/region"
)

// Engine owns a domain of Size() points.
type Engine struct {
	size     uint
	universe *Region
	empty    *Region
}

var _ region.Engine = &Engine{}

// New returns an engine for the domain [0, size).
func New(size uint) *Engine {
	e := &Engine{size: size}
	e.empty = e.wrap(bitset.New(size))
	e.universe = e.wrap(bitset.New(size).Complement())
	return e
}

// Size returns the number of points in the domain.
func (e *Engine) Size() uint {
	return e.size
}

func (e *Engine) Universe() region.Region {
	return e.universe
}

func (e *Engine) Empty() region.Region {
	return e.empty
}

// Of returns the region holding exactly the given points. Points outside
// the domain are ignored.
func (e *Engine) Of(points ...uint) *Region {
	b := bitset.New(e.size)
	for _, p := range points {
		if p < e.size {
			b.Set(p)
		}
	}
	return e.wrap(b)
}

// Range returns the region holding the points in [lo, hi].
func (e *Engine) Range(lo, hi uint) *Region {
	b := bitset.New(e.size)
	for p := lo; p <= hi && p < e.size; p++ {
		b.Set(p)
	}
	return e.wrap(b)
}

func (e *Engine) wrap(b *bitset.BitSet) *Region {
	data, err := b.MarshalBinary()
	if err != nil {
		// MarshalBinary writes to an in-memory buffer and cannot fail.
		panic(err)
	}
	return &Region{engine: e, bits: b, key: string(data)}
}

// Region is an immutable set of points.
type Region struct {
	engine *Engine
	bits   *bitset.BitSet
	key    string
}

var _ region.Region = &Region{}

func (r *Region) other(o region.Region) *Region {
	or, ok := o.(*Region)
	if !ok || or.engine != r.engine {
		panic(region.ErrEngineMismatch)
	}
	return or
}

func (r *Region) IsEmpty() bool {
	return r.bits.None()
}

func (r *Region) IsUniversal() bool {
	return r.bits.Count() == r.engine.size
}

func (r *Region) Intersect(o region.Region) region.Region {
	return r.engine.wrap(r.bits.Intersection(r.other(o).bits))
}

func (r *Region) Union(o region.Region) region.Region {
	return r.engine.wrap(r.bits.Union(r.other(o).bits))
}

func (r *Region) Complement() region.Region {
	return r.engine.wrap(r.bits.Complement())
}

func (r *Region) IsSubsetOf(o region.Region) bool {
	return r.other(o).bits.IsSuperSet(r.bits)
}

func (r *Region) Equal(o region.Region) bool {
	return r.bits.Equal(r.other(o).bits)
}

func (r *Region) Key() string {
	return r.key
}

// Count returns the number of points in the region.
func (r *Region) Count() uint {
	return r.bits.Count()
}

// Points returns the points of the region in ascending order.
func (r *Region) Points() []uint {
	points := make([]uint, 0, r.bits.Count())
	for p, ok := r.bits.NextSet(0); ok; p, ok = r.bits.NextSet(p + 1) {
		points = append(points, p)
	}
	return points
}

func (r *Region) String() string {
	return fmt.Sprintf("%v", r.Points())
}
