package styleprofile

import (
	"math"
	"sort"
)

// counter is a frequency table that remembers first-insertion order, so most-common lists break
// ties by first encounter.
type counter[K comparable] struct {
	order  []K
	counts map[K]int
}

type entry[K comparable] struct {
	key   K
	count int
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: make(map[K]int)}
}

func (c *counter[K]) add(k K) {
	if _, ok := c.counts[k]; !ok {
		c.order = append(c.order, k)
	}
	c.counts[k]++
}

func (c *counter[K]) get(k K) int { return c.counts[k] }

func (c *counter[K]) distinct() int { return len(c.order) }

// mostCommon returns up to n entries by descending count; n <= 0 returns all.
func (c *counter[K]) mostCommon(n int) []entry[K] {
	out := make([]entry[K], len(c.order))
	for i, k := range c.order {
		out[i] = entry[K]{key: k, count: c.counts[k]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
