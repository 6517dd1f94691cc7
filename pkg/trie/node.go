package trie

import (
	"sync"

	"github.com/netverify/aptrie/pkg/region"
)

// node is a vertex of the trie. Its children are ids of nodes whose regions
// are pairwise disjoint strict subsets of region.
type node struct {
	id       int
	region   region.Region
	children []int
	// covered is set once the children cover region entirely, leaving an
	// empty exclusive region. It never resets: insertions only shrink
	// exclusive regions.
	covered bool

	notOnce sync.Once
	not     region.Region
}

// complement returns the memoized complement of the node's region.
func (n *node) complement() region.Region {
	n.notOnce.Do(func() {
		n.not = n.region.Complement()
	})
	return n.not
}

// newNode allocates the next id and registers the node in the arena.
func (t *Trie) newNode(r region.Region, children []int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, &node{id: id, region: r, children: children})
	return id
}

// insert adds r to the subtree rooted at id and returns the nodes whose
// subtrees, together, cover exactly r.
func (t *Trie) insert(id int, r region.Region) []int {
	n := t.nodes[id]
	if t.assertions && (r.IsEmpty() || !r.IsSubsetOf(n.region)) {
		panic(ErrPrecondition)
	}

	if n.region.Equal(r) {
		return []int{id}
	}

	var (
		out      []int
		subsumed []int
	)
	for _, c := range n.children {
		child := t.nodes[c]
		if r.Equal(child.region) {
			return append(out, c)
		}
		intersection := r.Intersect(child.region)
		switch {
		case intersection.IsEmpty():
			continue
		case intersection.Equal(child.region):
			// child is a strict subset of r. r may still overlap later
			// siblings, so the new parent is created after the scan.
			subsumed = append(subsumed, c)
		case intersection.Equal(r):
			// r is a strict subset of child; siblings are disjoint from it.
			return append(out, t.insert(c, r)...)
		default:
			out = append(out, t.insert(c, intersection)...)
			// The rest of r can only meet children not yet scanned.
			r = r.Intersect(child.complement())
		}
	}

	switch {
	case len(subsumed) == 1 && t.nodes[subsumed[0]].region.Equal(r):
		// Partial overlaps shrank r down to the one child it subsumed.
		out = append(out, subsumed[0])
	case len(subsumed) > 0:
		n.children = without(n.children, subsumed)
		nid := t.newNode(r, subsumed)
		t.nodes[nid].covered = t.exclusiveRegion(nid).IsEmpty()
		n.children = append(n.children, nid)
		t.refreshCovered(n)
		out = append(out, nid)
	default:
		nid := t.newNode(r, nil)
		n.children = append(n.children, nid)
		t.refreshCovered(n)
		out = append(out, nid)
	}
	return out
}

func (t *Trie) refreshCovered(n *node) {
	if !n.covered {
		n.covered = t.exclusiveRegion(n.id).IsEmpty()
	}
}

// without returns ids minus drop, preserving order. drop is a subsequence
// of ids.
func without(ids, drop []int) []int {
	kept := make([]int, 0, len(ids)-len(drop))
	i := 0
	for _, id := range ids {
		if i < len(drop) && drop[i] == id {
			i++
			continue
		}
		kept = append(kept, id)
	}
	return kept
}

// subtree appends the ids of id and all of its descendants in pre-order,
// skipping nodes with an empty exclusive region.
func (t *Trie) subtree(dst []int, id int) []int {
	if !t.nodes[id].covered {
		dst = append(dst, id)
	}
	for _, c := range t.nodes[id].children {
		dst = t.subtree(dst, c)
	}
	return dst
}

// atomicPredicateIDsFor returns the ids of the nodes under id whose
// exclusive regions overlap r. r must be a subset of the node's region.
func (t *Trie) atomicPredicateIDsFor(dst []int, id int, r region.Region) []int {
	n := t.nodes[id]
	if n.region.Equal(r) {
		return t.subtree(dst, id)
	}

	for _, c := range n.children {
		child := t.nodes[c]
		intersection := child.region.Intersect(r)
		if intersection.IsEmpty() {
			continue
		}
		dst = t.atomicPredicateIDsFor(dst, c, intersection)
		if intersection.Equal(r) {
			return dst
		}
		r = r.Intersect(child.complement())
	}

	if !r.IsEmpty() {
		dst = append(dst, id)
	}
	return dst
}

// exclusiveRegion returns the node's region minus its children's regions.
func (t *Trie) exclusiveRegion(id int) region.Region {
	n := t.nodes[id]
	r := n.region
	for _, c := range n.children {
		r = r.Intersect(t.nodes[c].complement())
	}
	return r
}

// atomicPredicates appends the non-empty exclusive regions of the subtree
// rooted at id, parent before descendants.
func (t *Trie) atomicPredicates(dst []region.Region, id int) []region.Region {
	if r := t.exclusiveRegion(id); !r.IsEmpty() {
		dst = append(dst, r)
	}
	for _, c := range t.nodes[id].children {
		dst = t.atomicPredicates(dst, c)
	}
	return dst
}

func (t *Trie) depth(id int) int {
	d := 0
	for _, c := range t.nodes[id].children {
		if cd := t.depth(c); cd > d {
			d = cd
		}
	}
	return d + 1
}
