package spawn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlwaysItemsWin(t *testing.T) {
	tbl := NewTable(0, []Item{{Ref: "rock", Weight: 5}, {Ref: "tree", Weight: 100}, {Ref: "bush", Weight: 250}})
	rng := rand.New(rand.NewSource(1))
	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		it, ok := tbl.Pick(rng)
		require.True(t, ok)
		seen[it.Ref]++
	}
	assert.Zero(t, seen["rock"])
	assert.Positive(t, seen["tree"])
	assert.Positive(t, seen["bush"], "weights above the max clamp to always")
}

func TestZeroChanceNeverPicks(t *testing.T) {
	tbl := NewTable(0, []Item{{Ref: "rock", Weight: 5}})
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		_, ok := tbl.Pick(rng)
		assert.False(t, ok)
	}
}

func TestFullChanceAlwaysPicks(t *testing.T) {
	tbl := NewTable(100, []Item{{Ref: "a", Weight: 1}, {Ref: "b", Weight: 30}, {Ref: "c", Weight: 30}})
	assert.Equal(t, 31.0, tbl.TotalWeight(), "equal weights share a bucket")

	rng := rand.New(rand.NewSource(3))
	counts := map[string]int{}
	for i := 0; i < 3000; i++ {
		it, ok := tbl.Pick(rng)
		require.True(t, ok)
		counts[it.Ref]++
	}
	// The 30 bucket holds ~30/31 of the mass, split between b and c.
	assert.Greater(t, counts["b"], counts["a"])
	assert.Greater(t, counts["c"], counts["a"])
	assert.InDelta(t, 3000*30.0/31.0, float64(counts["b"]+counts["c"]), 150)
}

func TestEmptyTable(t *testing.T) {
	_, ok := NewTable(100, nil).Pick(rand.New(rand.NewSource(4)))
	assert.False(t, ok)
}

func TestRegistryLookup(t *testing.T) {
	tbl := NewTable(50, nil)
	r := Registry{"forest": tbl}
	assert.Same(t, tbl, r.Lookup("forest"))
	assert.Nil(t, r.Lookup(""))
	assert.Nil(t, r.Lookup("desert"))
	var empty Registry
	assert.Nil(t, empty.Lookup("forest"))
}
