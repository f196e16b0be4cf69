// Package spawn implements weighted selection tables used to scatter
// vegetation and props over classified terrain.
package spawn

import (
	"math/rand"
	"sort"
)

const (
	// MinWeight is the smallest weight an item may carry.
	MinWeight = 0.1
	// AlwaysWeight marks an item that is picked whenever the table is rolled.
	AlwaysWeight = 100.0
)

// Item is a selectable entry. Ref is an opaque handle for the host (prefab name, asset path).
type Item struct {
	Ref    string  `yaml:"ref" toml:"ref"`
	Weight float64 `yaml:"weight" toml:"weight"`
}

// Table picks at most one item per roll.
type Table struct {
	chance      float64
	buckets     map[float64][]Item
	weights     []float64 // distinct non-always weights, descending
	always      []Item
	totalWeight float64
}

// NewTable builds a table with the given selection chance in [0,100].
// Item weights are clamped to [MinWeight, AlwaysWeight].
func NewTable(chance float64, items []Item) *Table {
	t := &Table{
		chance:  max(0, min(100, chance)),
		buckets: make(map[float64][]Item),
	}
	for _, it := range items {
		it.Weight = max(MinWeight, min(AlwaysWeight, it.Weight))
		if it.Weight == AlwaysWeight {
			t.always = append(t.always, it)
			continue
		}
		if _, ok := t.buckets[it.Weight]; !ok {
			t.weights = append(t.weights, it.Weight)
			t.totalWeight += it.Weight
		}
		t.buckets[it.Weight] = append(t.buckets[it.Weight], it)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(t.weights)))
	return t
}

// TotalWeight is the sum of the distinct non-always weights.
func (t *Table) TotalWeight() float64 { return t.totalWeight }

// Chance returns the selection chance in percent.
func (t *Table) Chance() float64 { return t.chance }

// Pick rolls the table. Always-items win outright; otherwise a roll in
// [0,100) at or below the chance draws a weight in [0,totalWeight) and walks
// the buckets from the heaviest down.
func (t *Table) Pick(rng *rand.Rand) (Item, bool) {
	if len(t.always) > 0 {
		return t.always[rng.Intn(len(t.always))], true
	}
	if len(t.weights) == 0 {
		return Item{}, false
	}
	if rng.Float64()*100 > t.chance {
		return Item{}, false
	}
	w := rng.Float64() * t.totalWeight
	for _, bucket := range t.weights {
		if w <= bucket {
			items := t.buckets[bucket]
			return items[rng.Intn(len(items))], true
		}
		w -= bucket
	}
	return Item{}, false
}

// Registry resolves spawn tables by name.
type Registry map[string]*Table

// Lookup returns the named table; an empty name or unknown table yields nil.
func (r Registry) Lookup(name string) *Table {
	if name == "" || r == nil {
		return nil
	}
	return r[name]
}
