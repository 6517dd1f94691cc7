package headerspace

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

const satisfiable = 1

// circuit encodes predicates of a layout as a combinational circuit with
// one input per header bit.
type circuit struct {
	layout *Layout
	c      *logic.C
	bits   []z.Lit
}

func newCircuit(l *Layout) *circuit {
	c := logic.NewCCap(l.Bits() * 4)
	bits := make([]z.Lit, l.Bits())
	for i := range bits {
		bits[i] = c.Lit()
	}
	return &circuit{layout: l, c: c, bits: bits}
}

func (e *circuit) prefix(m FieldMatch, p Prefix) z.Lit {
	ms := make([]z.Lit, p.Len)
	for i := 0; i < p.Len; i++ {
		b := e.bits[m.Offset+i]
		if p.Value>>uint(m.Field.Width-1-i)&1 == 0 {
			b = b.Not()
		}
		ms[i] = b
	}
	return e.c.Ands(ms...)
}

func (e *circuit) rule(r Rule) z.Lit {
	fields := make([]z.Lit, len(r.Matches))
	for i, m := range r.Matches {
		cubes := make([]z.Lit, len(m.Prefixes))
		for j, p := range m.Prefixes {
			cubes[j] = e.prefix(m, p)
		}
		fields[i] = e.c.Ors(cubes...)
	}
	return e.c.Ands(fields...)
}

func (e *circuit) predicate(p Predicate) z.Lit {
	in := make([]z.Lit, len(p.Rules))
	for i, r := range p.Rules {
		in[i] = e.rule(r)
	}
	out := make([]z.Lit, len(p.Except))
	for i, r := range p.Except {
		out[i] = e.rule(r)
	}
	return e.c.And(e.c.Ors(in...), e.c.Ors(out...).Not())
}

// solve returns a header satisfying every root, if one exists.
func (e *circuit) solve(roots ...z.Lit) (Header, bool) {
	// An unconstrained input above every header bit makes the solver
	// allocate values for all of them, including bits no clause mentions.
	top := e.c.Lit()
	g := gini.New()
	e.c.ToCnf(g)
	g.Assume(roots...)
	g.Assume(top)
	if g.Solve() != satisfiable {
		return Header{}, false
	}
	return e.layout.header(func(v int) bool { return g.Value(e.bits[v]) }), true
}

// Overlap decides with a SAT solver, independently of any region engine,
// whether predicates a and b share a header. When they do, it returns one.
func Overlap(l *Layout, a, b Predicate) (Header, bool) {
	e := newCircuit(l)
	return e.solve(e.predicate(a), e.predicate(b))
}

// RulesOverlap is Overlap for two single rules.
func RulesOverlap(l *Layout, a, b Rule) (Header, bool) {
	e := newCircuit(l)
	return e.solve(e.rule(a), e.rule(b))
}

// Satisfiable returns a header of p, or false if p is empty.
func Satisfiable(l *Layout, p Predicate) (Header, bool) {
	e := newCircuit(l)
	return e.solve(e.predicate(p))
}
