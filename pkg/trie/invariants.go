package trie

import (
	"fmt"

	"github.com/netverify/aptrie/pkg/region"
)

// ViolationKind classifies a structural inconsistency of a trie.
type ViolationKind int

const (
	// ChildNotSubset: a child region has elements outside its parent.
	ChildNotSubset ViolationKind = iota
	// ChildEqualsParent: a child region equals its parent region. Such an
	// insertion should have resolved to the parent itself.
	ChildEqualsParent
	// ChildOverlapsSibling: a child region intersects an earlier sibling.
	ChildOverlapsSibling
	// ChildEmpty: a child region is empty.
	ChildEmpty
)

func (k ViolationKind) String() string {
	switch k {
	case ChildNotSubset:
		return "child region is not a subset of parent region"
	case ChildEqualsParent:
		return "child region is equal to parent region"
	case ChildOverlapsSibling:
		return "child region intersects with a sibling's region"
	case ChildEmpty:
		return "child region is empty"
	}
	return fmt.Sprintf("ViolationKind(%d)", int(k))
}

// InvariantViolation locates a structural inconsistency. Path lists the
// child indexes taken from the root to reach the parent, and ChildIndex is
// the index of the offending child within that parent.
type InvariantViolation struct {
	Kind       ViolationKind
	Message    string
	Path       []int
	ChildIndex int
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("%s: path %v, child %d", v.Message, v.Path, v.ChildIndex)
}

// CheckInvariants verifies that every child is a non-empty strict subset of
// its parent and that siblings are disjoint. It returns the first
// violation found in depth-first order as an *InvariantViolation, or nil.
func (t *Trie) CheckInvariants() error {
	var found *InvariantViolation
	t.walkInvariants(RootID, nil, func(v InvariantViolation) bool {
		found = &v
		return false
	})
	if found == nil {
		return nil
	}
	return found
}

// Violations returns every violation in depth-first order.
func (t *Trie) Violations() []InvariantViolation {
	var all []InvariantViolation
	t.walkInvariants(RootID, nil, func(v InvariantViolation) bool {
		all = append(all, v)
		return true
	})
	return all
}

// walkInvariants checks node id and its descendants, passing each
// violation to report. It stops, returning false, once report does.
func (t *Trie) walkInvariants(id int, path []int, report func(InvariantViolation) bool) bool {
	n := t.nodes[id]
	var seen region.Region = t.engine.Empty()
	for i, c := range n.children {
		child := t.nodes[c].region
		if kind, ok := checkChild(n.region, child, seen); !ok {
			v := InvariantViolation{
				Kind:       kind,
				Message:    kind.String(),
				Path:       append([]int{}, path...),
				ChildIndex: i,
			}
			if !report(v) {
				return false
			}
		}
		seen = seen.Union(child)
	}
	for i, c := range n.children {
		if !t.walkInvariants(c, append(path, i), report) {
			return false
		}
	}
	return true
}

func checkChild(parent, child, siblings region.Region) (ViolationKind, bool) {
	switch {
	case child.IsEmpty():
		return ChildEmpty, false
	case !child.IsSubsetOf(parent):
		return ChildNotSubset, false
	case parent.IsSubsetOf(child):
		return ChildEqualsParent, false
	case !region.Disjoint(child, siblings):
		return ChildOverlapsSibling, false
	}
	return 0, true
}
