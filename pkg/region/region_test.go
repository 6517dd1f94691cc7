package region_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netverify/aptrie/pkg/region"
	"github.com/netverify/aptrie/pkg/region/bitset"
)

func TestHelpers(t *testing.T) {
	e := bitset.New(10)
	a := e.Range(0, 4)
	b := e.Range(3, 7)
	c := e.Of(9)

	assert.True(t, region.UnionAll(e).IsEmpty())
	assert.True(t, region.UnionAll(e, a, b, c).Equal(e.Of(0, 1, 2, 3, 4, 5, 6, 7, 9)))
	assert.False(t, region.Disjoint(a, b))
	assert.True(t, region.Disjoint(a, c))
	assert.True(t, region.Difference(a, b).Equal(e.Of(0, 1, 2)))
	assert.True(t, region.Difference(a, e.Universe()).IsEmpty())
}
