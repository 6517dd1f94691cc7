// Package bdd implements region.Engine with binary decision diagrams over a
// fixed number of boolean variables. A region is the set of variable
// assignments that satisfy a BDD. Nodes are hash-consed by the underlying
// rudd table, so equal sets share a node and the node address is a
// canonical key.
package bdd

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/dalzilio/rudd"

	"github.com/netverify/aptrie/pkg/region"
)

const (
	defaultNodeSize  = 10000
	defaultCacheSize = 3000
)

// Config sizes the node table and operation cache of an Engine.
type Config struct {
	Vars      int
	NodeSize  int
	CacheSize int
}

// Engine is a BDD table shared by all regions it creates.
//
// rudd tables are not safe for concurrent mutation, and every set
// operation may allocate nodes, so the engine serializes operations with a
// mutex. This keeps regions safe to share between goroutines as the region
// contract requires.
type Engine struct {
	mu   sync.Mutex
	b    *rudd.BDD
	vars int

	universe *Region
	empty    *Region
}

var _ region.Engine = &Engine{}

// New returns an engine over vars boolean variables.
func New(vars int) (*Engine, error) {
	return NewWithConfig(Config{Vars: vars})
}

// NewWithConfig returns an engine sized according to cfg. Zero sizes fall
// back to defaults.
func NewWithConfig(cfg Config) (*Engine, error) {
	if cfg.Vars <= 0 {
		return nil, fmt.Errorf("bdd engine needs at least one variable, got %d", cfg.Vars)
	}
	if cfg.NodeSize <= 0 {
		cfg.NodeSize = defaultNodeSize
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	b, err := rudd.New(cfg.Vars, rudd.Nodesize(cfg.NodeSize), rudd.Cachesize(cfg.CacheSize))
	if err != nil {
		return nil, err
	}
	e := &Engine{b: b, vars: cfg.Vars}
	e.universe = e.wrap(b.True())
	e.empty = e.wrap(b.False())
	return e, nil
}

// Vars returns the number of variables of the engine.
func (e *Engine) Vars() int {
	return e.vars
}

// Err returns the first error recorded by the BDD table, such as node
// table exhaustion. Regions produced after an error are meaningless.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.b.Errored() {
		return errors.New(e.b.Error())
	}
	return nil
}

func (e *Engine) Universe() region.Region {
	return e.universe
}

func (e *Engine) Empty() region.Region {
	return e.empty
}

// Var returns the region where variable i is true.
func (e *Engine) Var(i int) *Region {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrap(e.b.Ithvar(i))
}

// NVar returns the region where variable i is false.
func (e *Engine) NVar(i int) *Region {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrap(e.b.NIthvar(i))
}

// Cube returns the conjunction of literals: variable vars[i] is true when
// values[i] is true and false otherwise.
func (e *Engine) Cube(vars []int, values []bool) *Region {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.b.True()
	for i, v := range vars {
		if values[i] {
			n = e.b.And(n, e.b.Ithvar(v))
		} else {
			n = e.b.And(n, e.b.NIthvar(v))
		}
	}
	return e.wrap(n)
}

// And returns the intersection of rs, or the universe when rs is empty.
func (e *Engine) And(rs ...*Region) *Region {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.b.True()
	for _, r := range rs {
		n = e.b.And(n, e.own(r).n)
	}
	return e.wrap(n)
}

// Or returns the union of rs, or the empty region when rs is empty.
func (e *Engine) Or(rs ...*Region) *Region {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.b.False()
	for _, r := range rs {
		n = e.b.Or(n, e.own(r).n)
	}
	return e.wrap(n)
}

func (e *Engine) wrap(n rudd.Node) *Region {
	if n == nil {
		// rudd returns nil nodes once the table has errored.
		panic(fmt.Sprintf("bdd operation failed: %s", e.b.Error()))
	}
	return &Region{engine: e, n: n}
}

func (e *Engine) own(o region.Region) *Region {
	r, ok := o.(*Region)
	if !ok || r.engine != e {
		panic(region.ErrEngineMismatch)
	}
	return r
}

// Region is an immutable BDD-backed set of variable assignments.
type Region struct {
	engine *Engine
	n      rudd.Node
}

var _ region.Region = &Region{}

func (r *Region) IsEmpty() bool {
	return *r.n == *r.engine.empty.n
}

func (r *Region) IsUniversal() bool {
	return *r.n == *r.engine.universe.n
}

func (r *Region) Intersect(o region.Region) region.Region {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrap(e.b.And(r.n, e.own(o).n))
}

func (r *Region) Union(o region.Region) region.Region {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrap(e.b.Or(r.n, e.own(o).n))
}

func (r *Region) Complement() region.Region {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wrap(e.b.Not(r.n))
}

// IsSubsetOf holds when r implies o everywhere.
func (r *Region) IsSubsetOf(o region.Region) bool {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	imp := e.wrap(e.b.Imp(r.n, e.own(o).n))
	return *imp.n == *e.universe.n
}

func (r *Region) Equal(o region.Region) bool {
	return *r.n == *r.engine.own(o).n
}

func (r *Region) Key() string {
	return strconv.Itoa(*r.n)
}

// Satcount returns the number of variable assignments in the region.
func (r *Region) Satcount() *big.Int {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.b.Satcount(r.n)
}

var errStop = errors.New("stop")

// Witness returns one assignment in the region, with don't-care variables
// set to false. It returns false for the empty region.
func (r *Region) Witness() ([]bool, bool) {
	if r.IsEmpty() {
		return nil, false
	}
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []bool
	err := e.b.Allsat(func(cube []int) error {
		out = make([]bool, len(cube))
		for i, v := range cube {
			out[i] = v == 1
		}
		return errStop
	}, r.n)
	if err != nil && err != errStop {
		return nil, false
	}
	return out, out != nil
}

func (r *Region) String() string {
	switch {
	case r.IsEmpty():
		return "false"
	case r.IsUniversal():
		return "true"
	}
	return fmt.Sprintf("bdd#%d(%s sat)", *r.n, r.Satcount())
}
