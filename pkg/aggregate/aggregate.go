package aggregate

import (
	"encoding/json"
	"math"

	"github.com/rollups-terminal/rollupsx/pkg/metric"
	"github.com/rollups-terminal/rollupsx/pkg/rollup"
)

// MetricFunc picks the summed metric from a row.
type MetricFunc = func(rollup.EnrichedRow) metric.Value

// Entry is one group of a Sums.
type Entry[K comparable] struct {
	Key   K       `json:"key"`
	Value float64 `json:"value"`
}

// Sums maps group keys to summed values, remembering the order keys were first seen.
type Sums[K comparable] struct {
	keys []K
	sums map[K]float64
}

func newSums[K comparable]() *Sums[K] {
	return &Sums[K]{sums: map[K]float64{}}
}

func (s *Sums[K]) add(k K, v float64) {
	if _, ok := s.sums[k]; !ok {
		s.keys = append(s.keys, k)
	}
	s.sums[k] += v
}

// Len returns the number of groups.
func (s *Sums[K]) Len() int { return len(s.keys) }

// Keys returns the group keys in first-occurrence order.
func (s *Sums[K]) Keys() []K {
	return append([]K(nil), s.keys...)
}

// Get returns the sum for k.
func (s *Sums[K]) Get(k K) (float64, bool) {
	v, ok := s.sums[k]
	return v, ok
}

// Entries returns the groups in first-occurrence order.
func (s *Sums[K]) Entries() []Entry[K] {
	out := make([]Entry[K], 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, Entry[K]{Key: k, Value: s.sums[k]})
	}
	return out
}

// Total returns the sum over all groups.
func (s *Sums[K]) Total() float64 {
	var t float64
	for _, k := range s.keys {
		t += s.sums[k]
	}
	return t
}

// WithinRange keeps the groups whose sum lies in [min, max], preserving order.
func (s *Sums[K]) WithinRange(min, max float64) *Sums[K] {
	out := newSums[K]()
	for _, k := range s.keys {
		if v := s.sums[k]; v >= min && v <= max {
			out.add(k, v)
		}
	}
	return out
}

// MarshalJSON encodes the sums as an ordered array of {key, value}.
func (s *Sums[K]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Entries())
}

// AggregateBy sums metricFn per keyFn over rows. Rows whose metric is missing are skipped
// entirely: they neither contribute zero nor create a group.
func AggregateBy[K comparable](rows []rollup.EnrichedRow, keyFn func(rollup.EnrichedRow) K, metricFn MetricFunc) *Sums[K] {
	out := newSums[K]()
	for _, r := range rows {
		v, ok := metricFn(r).Get()
		if !ok {
			continue
		}
		out.add(keyFn(r), v)
	}
	return out
}

// Nested groups by an outer key and then an inner key.
type Nested[K1, K2 comparable] struct {
	outer []K1
	inner map[K1]*Sums[K2]
}

// Outer returns the outer keys in first-occurrence order.
func (n *Nested[K1, K2]) Outer() []K1 {
	return append([]K1(nil), n.outer...)
}

// Group returns the inner sums for an outer key.
func (n *Nested[K1, K2]) Group(k K1) (*Sums[K2], bool) {
	s, ok := n.inner[k]
	return s, ok
}

type nestedEntry[K1, K2 comparable] struct {
	Key    K1          `json:"key"`
	Groups []Entry[K2] `json:"groups"`
}

// MarshalJSON encodes the groups as an ordered array.
func (n *Nested[K1, K2]) MarshalJSON() ([]byte, error) {
	out := make([]nestedEntry[K1, K2], 0, len(n.outer))
	for _, k := range n.outer {
		out = append(out, nestedEntry[K1, K2]{Key: k, Groups: n.inner[k].Entries()})
	}
	return json.Marshal(out)
}

// AggregateNested is AggregateBy with a two-level key, e.g. provider then chain.
func AggregateNested[K1, K2 comparable](rows []rollup.EnrichedRow, outerFn func(rollup.EnrichedRow) K1, innerFn func(rollup.EnrichedRow) K2, metricFn MetricFunc) *Nested[K1, K2] {
	out := &Nested[K1, K2]{inner: map[K1]*Sums[K2]{}}
	for _, r := range rows {
		v, ok := metricFn(r).Get()
		if !ok {
			continue
		}
		k := outerFn(r)
		s, seen := out.inner[k]
		if !seen {
			s = newSums[K2]()
			out.inner[k] = s
			out.outer = append(out.outer, k)
		}
		s.add(innerFn(r), v)
	}
	return out
}

// Unbounded is the open upper end of a value range.
var Unbounded = math.Inf(1)
