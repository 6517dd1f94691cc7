package trie

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netverify/aptrie/pkg/region"
	"github.com/netverify/aptrie/pkg/region/bitset"
)

func regions(rs ...*bitset.Region) []region.Region {
	out := make([]region.Region, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

func points(rs []region.Region) [][]uint {
	out := make([][]uint, len(rs))
	for i, r := range rs {
		out[i] = r.(*bitset.Region).Points()
	}
	return out
}

func TestTwoBitScenario(t *testing.T) {
	e := bitset.New(4)
	r1 := e.Of(0b00, 0b01)
	r2 := e.Of(0b01, 0b11)

	tr, err := New(e, regions(r1, r2))
	require.NoError(t, err)
	require.NoError(t, tr.CheckInvariants())

	assert.Equal(t, 4, tr.Len())
	assert.Equal(t, []int{1, 3}, tr.Children(RootID))
	assert.Equal(t, []int{2}, tr.Children(1))

	exclusive := map[int][]uint{}
	for id, r := range tr.AtomicPredicateMap() {
		exclusive[id] = r.(*bitset.Region).Points()
	}
	assert.Equal(t, map[int][]uint{
		0: {0b10},
		1: {0b00},
		2: {0b01},
		3: {0b11},
	}, exclusive)

	assert.ElementsMatch(t, [][]uint{{0b10}, {0b00}, {0b01}, {0b11}}, points(tr.AtomicPredicates()))
	assert.ElementsMatch(t, []int{1, 2}, tr.AtomicPredicateIDs(r1))
	assert.ElementsMatch(t, []int{2, 3}, tr.AtomicPredicateIDs(r2))
	assert.ElementsMatch(t, []int{0, 1}, tr.AtomicPredicateIDs(e.Of(0b00, 0b10)))
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, tr.AtomicPredicateIDs(e.Universe()))
	assert.Empty(t, tr.AtomicPredicateIDs(e.Empty()))
}

func TestInsert(t *testing.T) {
	type tc struct {
		Name     string
		Inputs   [][]uint
		Insert   []uint
		Result   []int
		Children map[int][]int
		Len      int
	}

	for _, tt := range []tc{
		{
			Name:     "first region becomes a leaf under the root",
			Insert:   []uint{1, 2},
			Result:   []int{1},
			Children: map[int][]int{0: {1}},
			Len:      2,
		},
		{
			Name:     "universe resolves to the root",
			Insert:   []uint{0, 1, 2, 3, 4, 5, 6, 7},
			Result:   []int{0},
			Children: map[int][]int{0: nil},
			Len:      1,
		},
		{
			Name:     "exact match resolves to the existing child",
			Inputs:   [][]uint{{1, 2}, {5}},
			Insert:   []uint{1, 2},
			Result:   []int{1},
			Children: map[int][]int{0: {1, 2}},
			Len:      3,
		},
		{
			Name:     "subset descends into the containing child",
			Inputs:   [][]uint{{1, 2, 3}},
			Insert:   []uint{2},
			Result:   []int{2},
			Children: map[int][]int{0: {1}, 1: {2}},
			Len:      3,
		},
		{
			Name:     "superset adopts subsumed children",
			Inputs:   [][]uint{{1}, {6}, {3}},
			Insert:   []uint{1, 2, 3},
			Result:   []int{4},
			Children: map[int][]int{0: {2, 4}, 4: {1, 3}},
			Len:      5,
		},
		{
			Name:     "superset of every child adopts all of them",
			Inputs:   [][]uint{{1}, {3}},
			Insert:   []uint{1, 3},
			Result:   []int{3},
			Children: map[int][]int{0: {3}, 3: {1, 2}},
			Len:      4,
		},
		{
			Name:     "partial overlap splits into the child and a new sibling",
			Inputs:   [][]uint{{1, 2}},
			Insert:   []uint{2, 3},
			Result:   []int{2, 3},
			Children: map[int][]int{0: {1, 3}, 1: {2}},
			Len:      4,
		},
		{
			Name:     "partial overlaps with several children",
			Inputs:   [][]uint{{0, 1}, {4, 5}},
			Insert:   []uint{1, 2, 4},
			Result:   []int{3, 4, 5},
			Children: map[int][]int{0: {1, 2, 5}, 1: {3}, 2: {4}},
			Len:      6,
		},
		{
			Name:     "region covered by partial overlaps and an exact child",
			Inputs:   [][]uint{{0, 1}, {2}},
			Insert:   []uint{1, 2},
			Result:   []int{3, 2},
			Children: map[int][]int{0: {1, 2}, 1: {3}},
			Len:      4,
		},
		{
			Name:     "partial overlap shrinking the region to a subsumed child",
			Inputs:   [][]uint{{0}, {1, 2}},
			Insert:   []uint{0, 1},
			Result:   []int{3, 1},
			Children: map[int][]int{0: {1, 2}, 2: {3}},
			Len:      4,
		},
		{
			Name:     "subsumed child survives a later partial overlap",
			Inputs:   [][]uint{{0}, {2, 3}},
			Insert:   []uint{0, 1, 2},
			Result:   []int{3, 4},
			Children: map[int][]int{0: {2, 4}, 2: {3}, 4: {1}},
			Len:      5,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			e := bitset.New(8)
			var inputs []region.Region
			for _, ps := range tt.Inputs {
				inputs = append(inputs, e.Of(ps...))
			}
			tr, err := New(e, inputs, WithAssertions(true))
			require.NoError(t, err)

			assert.Equal(t, tt.Result, tr.Insert(e.Of(tt.Insert...)))
			assert.Equal(t, tt.Len, tr.Len())
			for id, children := range tt.Children {
				if children == nil {
					assert.Empty(t, tr.Children(id), "children of %d", id)
					continue
				}
				assert.Equal(t, children, tr.Children(id), "children of %d", id)
			}
			require.NoError(t, tr.CheckInvariants())
		})
	}
}

func TestInsertTwiceIsIdempotent(t *testing.T) {
	e := bitset.New(8)
	inputs := regions(e.Of(0, 1), e.Of(1, 2), e.Of(2, 3, 4), e.Of(6))
	tr, err := New(e, inputs)
	require.NoError(t, err)

	before := make([][]int, tr.Len())
	for id := range before {
		before[id] = tr.Children(id)
	}
	first := tr.AtomicPredicateIDs(inputs[1])

	for _, r := range inputs {
		tr.Insert(r)
	}
	require.Equal(t, len(before), tr.Len())
	for id := range before {
		assert.Equal(t, before[id], tr.Children(id))
	}
	assert.ElementsMatch(t, first, tr.AtomicPredicateIDs(inputs[1]))
}

func TestDisjointInputsFlatten(t *testing.T) {
	e := bitset.New(16)
	inputs := regions(e.Of(0, 1), e.Of(4), e.Range(8, 11), e.Of(15))
	tr, err := New(e, inputs)
	require.NoError(t, err)

	require.Equal(t, []int{1, 2, 3, 4}, tr.Children(RootID))
	for i, id := range tr.Children(RootID) {
		assert.Empty(t, tr.Children(id))
		exclusive, ok := tr.ExclusiveRegion(id)
		require.True(t, ok)
		assert.True(t, exclusive.Equal(inputs[i]))
		assert.Equal(t, []int{id}, tr.AtomicPredicateIDs(inputs[i]))
	}
	require.NoError(t, tr.CheckInvariants())
}

func TestEmptyRegionsAreSkipped(t *testing.T) {
	e := bitset.New(4)
	tr, err := New(e, regions(e.Of(), e.Of(1), e.Of()))
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Len())
	assert.Nil(t, tr.Insert(e.Empty()))
	assert.Equal(t, 2, tr.Len())
}

func TestNilEngine(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestAtomicPredicateIDsMemoTracksLaterInsertions(t *testing.T) {
	e := bitset.New(8)
	big := e.Of(0, 1, 2, 3)
	tr, err := New(e, regions(big))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, tr.AtomicPredicateIDs(big))

	tr.Insert(e.Of(2))
	ids := tr.AtomicPredicateIDs(big)
	assert.ElementsMatch(t, []int{1, 2}, ids)

	union := e.Empty()
	for _, id := range ids {
		r, ok := tr.ExclusiveRegion(id)
		require.True(t, ok)
		union = union.Union(r)
	}
	assert.True(t, union.Equal(big))
}

func TestCoveredNodesAreNotAtomicPredicates(t *testing.T) {
	e := bitset.New(8)
	pair := e.Of(0, 1)
	tr, err := New(e, regions(pair, e.Of(0), e.Of(1)))
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, tr.Children(1))

	ex, ok := tr.ExclusiveRegion(1)
	require.True(t, ok)
	assert.True(t, ex.IsEmpty())
	assert.Equal(t, []int{2, 3}, tr.AtomicPredicateIDs(pair))
	assert.Equal(t, []int{2, 3}, tr.AtomicPredicateIDs(e.Of(0, 1)))
	assert.NotContains(t, tr.AtomicPredicateMap(), 1)
	assert.Len(t, tr.AtomicPredicates(), 3)

	// a region adopting the covered node as a subsumed child
	tr.Insert(e.Of(0, 1, 2))
	assert.Equal(t, []int{2, 3}, tr.AtomicPredicateIDs(pair))
	assert.ElementsMatch(t, []int{2, 3, 4}, tr.AtomicPredicateIDs(e.Of(0, 1, 2)))
}

func TestAccessorsRejectUnknownIDs(t *testing.T) {
	e := bitset.New(4)
	tr, err := New(e, nil)
	require.NoError(t, err)

	_, ok := tr.ExclusiveRegion(1)
	assert.False(t, ok)
	_, ok = tr.Region(-1)
	assert.False(t, ok)
	assert.Nil(t, tr.Children(7))

	root, ok := tr.Region(RootID)
	require.True(t, ok)
	assert.True(t, root.IsUniversal())
	assert.Equal(t, 1, tr.Depth())
}

func TestDepth(t *testing.T) {
	e := bitset.New(8)
	tr, err := New(e, regions(e.Range(0, 5), e.Range(0, 3), e.Of(0), e.Of(7)))
	require.NoError(t, err)
	assert.Equal(t, 4, tr.Depth())
}

func TestAssertionsPanicOnPreconditionViolation(t *testing.T) {
	e := bitset.New(8)
	tr, err := New(e, regions(e.Of(0, 1)), WithAssertions(true))
	require.NoError(t, err)

	assert.PanicsWithValue(t, ErrPrecondition, func() {
		tr.insert(1, e.Of(1, 2))
	})
	assert.PanicsWithValue(t, ErrPrecondition, func() {
		tr.insert(1, e.Empty())
	})
}

func TestEngineMismatchPanics(t *testing.T) {
	a, b := bitset.New(4), bitset.New(4)
	tr, err := New(a, regions(a.Of(1)))
	require.NoError(t, err)
	assert.PanicsWithValue(t, region.ErrEngineMismatch, func() {
		tr.Insert(b.Of(2))
	})
}

func TestLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	e := bitset.New(4)
	_, err := New(e, regions(e.Of(1), e.Of(), e.Of(1, 2)), WithLogger(logger))
	require.NoError(t, err)

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
	}
	assert.Equal(t, []string{
		"inserted region",
		"skipping empty region",
		"inserted region",
		"built atomic predicate trie",
	}, messages)
	assert.Equal(t, 3, hook.LastEntry().Data["nodes"])
}

type countingRecorder struct {
	mu       sync.Mutex
	inserts  int
	created  int
	memoHits int
	misses   int
}

func (r *countingRecorder) ObserveInsert(created int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	r.created += created
}

func (r *countingRecorder) ObserveQuery(memo bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if memo {
		r.memoHits++
	} else {
		r.misses++
	}
}

func TestRecorder(t *testing.T) {
	rec := &countingRecorder{}
	e := bitset.New(4)
	r1, r2 := e.Of(0, 1), e.Of(1, 3)
	tr, err := New(e, regions(r1, r2, r1), WithRecorder(rec))
	require.NoError(t, err)

	tr.AtomicPredicateIDs(r1)
	tr.AtomicPredicateIDs(r2)
	tr.AtomicPredicateIDs(e.Of(2))

	assert.Equal(t, 3, rec.inserts)
	assert.Equal(t, 3, rec.created)
	assert.Equal(t, 2, rec.memoHits)
	assert.Equal(t, 1, rec.misses)
}

func TestOptionError(t *testing.T) {
	failing := func(*Trie) error { return assert.AnError }
	_, err := New(bitset.New(2), nil, failing)
	assert.Equal(t, assert.AnError, err)
}
