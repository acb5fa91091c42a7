package aggregate

import (
	"sort"

	"github.com/rollups-terminal/rollupsx/pkg/rollup"
	"github.com/rollups-terminal/rollupsx/pkg/utils"
)

// Options are the distinct values offered by each filter dropdown.
type Options struct {
	Names            []string `json:"names"`
	Providers        []string `json:"providers"`
	Frameworks       []string `json:"frameworks"`
	DataAvailability []string `json:"dataAvailability"`
	Verticals        []string `json:"verticals"`
	Layers           []string `json:"layers"`
	DateRanges       []string `json:"dateRanges"`
}

// OptionsFrom collects first-occurrence distinct values per dimension, skipping blanks.
func OptionsFrom(rows []rollup.EnrichedRow) Options {
	pick := func(field func(rollup.EnrichedRow) string) []string {
		vals := make([]string, len(rows))
		for i, r := range rows {
			vals[i] = field(r)
		}
		return utils.Dedup(vals)
	}
	ranges := make([]string, len(DateRanges))
	for i, r := range DateRanges {
		ranges[i] = string(r)
	}
	return Options{
		Names:            pick(func(r rollup.EnrichedRow) string { return r.Name }),
		Providers:        pick(func(r rollup.EnrichedRow) string { return r.Provider }),
		Frameworks:       pick(func(r rollup.EnrichedRow) string { return r.Framework }),
		DataAvailability: pick(func(r rollup.EnrichedRow) string { return r.DataAvailability }),
		Verticals:        pick(func(r rollup.EnrichedRow) string { return r.Vertical }),
		Layers:           pick(func(r rollup.EnrichedRow) string { return string(r.Layer) }),
		DateRanges:       ranges,
	}
}

// HasL3 reports whether any row is an L3, which is when the settlement column is shown.
func HasL3(rows []rollup.EnrichedRow) bool {
	for _, r := range rows {
		if r.Layer == rollup.LayerL3 {
			return true
		}
	}
	return false
}

// SortRows returns a copy of rows ordered by metricFn. Missing values sort last in either
// direction and ties keep input order.
func SortRows(rows []rollup.EnrichedRow, metricFn MetricFunc, desc bool) []rollup.EnrichedRow {
	out := append([]rollup.EnrichedRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := metricFn(out[i]).Get()
		b, bok := metricFn(out[j]).Get()
		switch {
		case !aok || !bok:
			return aok && !bok
		case desc:
			return a > b
		default:
			return a < b
		}
	})
	return out
}
