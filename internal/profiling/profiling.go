package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Lightweight per-pass stage timer for generation runs.

var (
	mu         sync.Mutex
	passTotals = make(map[string]time.Duration)
	passCounts = make(map[string]int)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("noise.Generate")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		passTotals[name] += d
		passCounts[name]++
		mu.Unlock()
	}
}

// ResetPass clears accumulated totals. Call before each generation pass.
func ResetPass() {
	mu.Lock()
	clear(passTotals)
	clear(passCounts)
	mu.Unlock()
}

// Count returns how many times name was tracked during the current pass.
func Count(name string) int {
	mu.Lock()
	defer mu.Unlock()
	return passCounts[name]
}

// SumWithPrefix sums the totals whose names start with prefix.
func SumWithPrefix(prefix string) time.Duration {
	mu.Lock()
	defer mu.Unlock()
	var sum time.Duration
	for k, v := range passTotals {
		if strings.HasPrefix(k, prefix) {
			sum += v
		}
	}
	return sum
}

// TopN formats the n most expensive stages of the current pass.
// Example: "meshing.TessellateRing:41.2ms x8, noise.Generate:30.1ms x8"
func TopN(n int) string {
	mu.Lock()
	type pair struct {
		name  string
		dur   time.Duration
		count int
	}
	list := make([]pair, 0, len(passTotals))
	for k, v := range passTotals {
		list = append(list, pair{name: k, dur: v, count: passCounts[k]})
	}
	mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].dur > list[j].dur })
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, p := range list[:n] {
		ms := float64(p.dur.Microseconds()) / 1000.0
		parts = append(parts, p.name+":"+strconv.FormatFloat(ms, 'f', 1, 64)+"ms x"+strconv.Itoa(p.count))
	}
	return strings.Join(parts, ", ")
}
