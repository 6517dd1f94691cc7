// Package trie partitions a collection of possibly overlapping regions into
// atomic predicates: pairwise disjoint, non-empty regions such that every
// input region is exactly a union of some of them.
//
// The partition is kept as a tree. Each node holds a region, and its
// children hold pairwise disjoint strict subsets of that region. The
// exclusive region of a node, its region minus its children's, is an atomic
// predicate when non-empty, and the node id names it.
//
// A Trie has a single writer. New and Insert must not run concurrently with
// anything else; once writes stop, queries may run concurrently.
package trie

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netverify/aptrie/pkg/region"
)

// ErrPrecondition is the panic value raised, when assertions are enabled,
// for an insertion of an empty region or of a region outside its target
// node.
var ErrPrecondition = errors.New("inserted region must be a non-empty subset of the node region")

// RootID is the id of the root node, whose region is the universe.
const RootID = 0

// memoEntry pins the inserted region so that its key cannot be handed to
// another set while the entry exists.
type memoEntry struct {
	region region.Region
	ids    []int
}

// Trie is an atomic-predicate trie.
type Trie struct {
	engine region.Engine
	nodes  []*node
	// memo maps the key of each inserted region to the nodes its insertion
	// resolved into.
	memo map[string]memoEntry

	logger     logrus.FieldLogger
	recorder   Recorder
	assertions bool
}

// New builds a trie from regions, inserted in order. Empty regions are
// skipped.
func New(engine region.Engine, regions []region.Region, options ...Option) (*Trie, error) {
	if engine == nil {
		return nil, errors.New("trie requires a region engine")
	}
	t := Trie{
		engine: engine,
		memo:   make(map[string]memoEntry, len(regions)),
	}
	for _, option := range append(options, defaults...) {
		if err := option(&t); err != nil {
			return nil, err
		}
	}
	t.newNode(engine.Universe(), nil)

	start := time.Now()
	for i, r := range regions {
		if r.IsEmpty() {
			t.logger.WithField("index", i).Debug("skipping empty region")
			continue
		}
		t.Insert(r)
	}
	t.logger.WithFields(logrus.Fields{
		"regions":  len(regions),
		"nodes":    len(t.nodes),
		"duration": time.Since(start),
	}).Debug("built atomic predicate trie")
	return &t, nil
}

// Insert adds r to the trie and returns the ids of the nodes it resolved
// into. Their subtrees cover exactly r. Inserting an empty region is a
// no-op returning nil. Inserting a region twice leaves the tree unchanged.
func (t *Trie) Insert(r region.Region) []int {
	if r.IsEmpty() {
		return nil
	}
	start := time.Now()
	before := len(t.nodes)
	ids := t.insert(RootID, r)
	t.memo[r.Key()] = memoEntry{region: r, ids: ids}

	created := len(t.nodes) - before
	t.recorder.ObserveInsert(created, time.Since(start))
	t.logger.WithFields(logrus.Fields{
		"region":  r,
		"nodes":   ids,
		"created": created,
	}).Debug("inserted region")
	return ids
}

// AtomicPredicateIDs returns the ids of the atomic predicates that overlap
// r. For regions previously inserted the answer comes from the insertion
// memo; other regions are resolved by descending from the root. Ids of
// nodes whose children cover them are never returned.
func (t *Trie) AtomicPredicateIDs(r region.Region) []int {
	if entry, ok := t.memo[r.Key()]; ok && entry.region.Equal(r) {
		t.recorder.ObserveQuery(true)
		var ids []int
		for _, id := range entry.ids {
			ids = t.subtree(ids, id)
		}
		return ids
	}
	t.recorder.ObserveQuery(false)
	if r.IsEmpty() {
		return nil
	}
	return t.atomicPredicateIDsFor(nil, RootID, r)
}

// AtomicPredicates returns every atomic predicate. The order is not
// significant.
func (t *Trie) AtomicPredicates() []region.Region {
	return t.atomicPredicates(nil, RootID)
}

// AtomicPredicateMap returns the atomic predicates keyed by node id.
func (t *Trie) AtomicPredicateMap() map[int]region.Region {
	out := make(map[int]region.Region)
	for _, n := range t.nodes {
		if r := t.exclusiveRegion(n.id); !r.IsEmpty() {
			out[n.id] = r
		}
	}
	return out
}

// ExclusiveRegion returns the region of node id minus its children's. The
// result may be empty when the children cover the node.
func (t *Trie) ExclusiveRegion(id int) (region.Region, bool) {
	if id < 0 || id >= len(t.nodes) {
		return nil, false
	}
	return t.exclusiveRegion(id), true
}

// Region returns the full region of node id.
func (t *Trie) Region(id int) (region.Region, bool) {
	if id < 0 || id >= len(t.nodes) {
		return nil, false
	}
	return t.nodes[id].region, true
}

// Children returns the ids of the children of node id, in order.
func (t *Trie) Children(id int) []int {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return append([]int(nil), t.nodes[id].children...)
}

// Len returns the number of nodes, including the root.
func (t *Trie) Len() int {
	return len(t.nodes)
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func (t *Trie) Depth() int {
	return t.depth(RootID)
}
