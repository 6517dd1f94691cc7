package headerspace

import (
	"fmt"

	"github.com/netverify/aptrie/pkg/region/bdd"
)

// Compiler turns rules and predicates of a layout into BDD regions.
type Compiler struct {
	layout *Layout
	engine *bdd.Engine
}

// NewCompiler binds l to e. The engine must have a variable for every bit
// of the layout.
func NewCompiler(l *Layout, e *bdd.Engine) (*Compiler, error) {
	if e.Vars() < l.Bits() {
		return nil, fmt.Errorf("layout %s needs %d variables, engine has %d", l, l.Bits(), e.Vars())
	}
	return &Compiler{layout: l, engine: e}, nil
}

// Layout returns the compiler's layout.
func (c *Compiler) Layout() *Layout {
	return c.layout
}

// Engine returns the compiler's engine.
func (c *Compiler) Engine() *bdd.Engine {
	return c.engine
}

func (c *Compiler) prefix(m FieldMatch, p Prefix) *bdd.Region {
	vars := make([]int, p.Len)
	values := make([]bool, p.Len)
	for i := 0; i < p.Len; i++ {
		vars[i] = m.Offset + i
		values[i] = p.Value>>uint(m.Field.Width-1-i)&1 == 1
	}
	return c.engine.Cube(vars, values)
}

// FieldMatch returns the headers whose field satisfies m.
func (c *Compiler) FieldMatch(m FieldMatch) *bdd.Region {
	cubes := make([]*bdd.Region, len(m.Prefixes))
	for i, p := range m.Prefixes {
		cubes[i] = c.prefix(m, p)
	}
	return c.engine.Or(cubes...)
}

// Rule returns the headers matching every field match of r.
func (c *Compiler) Rule(r Rule) *bdd.Region {
	fields := make([]*bdd.Region, len(r.Matches))
	for i, m := range r.Matches {
		fields[i] = c.FieldMatch(m)
	}
	return c.engine.And(fields...)
}

// Rules returns the headers matching at least one of rs.
func (c *Compiler) Rules(rs []Rule) *bdd.Region {
	out := make([]*bdd.Region, len(rs))
	for i, r := range rs {
		out[i] = c.Rule(r)
	}
	return c.engine.Or(out...)
}

// Predicate returns the header space of p.
func (c *Compiler) Predicate(p Predicate) *bdd.Region {
	in := c.Rules(p.Rules)
	if len(p.Except) == 0 {
		return in
	}
	out := c.Rules(p.Except).Complement().(*bdd.Region)
	return c.engine.And(in, out)
}

// Witness returns one header of r, or false if r is empty. Bits left
// unconstrained by r are zero.
func (c *Compiler) Witness(r *bdd.Region) (Header, bool) {
	assignment, ok := r.Witness()
	if !ok {
		return Header{}, false
	}
	return c.layout.header(func(v int) bool { return assignment[v] }), true
}
