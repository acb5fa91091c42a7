package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollups-terminal/rollupsx/pkg/metric"
	"github.com/rollups-terminal/rollupsx/pkg/rollup"
)

func names(rows []rollup.EnrichedRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestParseDateRange(t *testing.T) {
	for in, want := range map[string]DateRange{"": RangeAll, "All": RangeAll, "all": RangeAll, "1w": RangeWeek, "1M": RangeMonth, "3m": Range3M, "1Y": RangeYear} {
		got, err := ParseDateRange(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDateRange("6M")
	assert.Error(t, err)
}

func TestDateRangeWindows(t *testing.T) {
	_, ok := RangeAll.Window()
	assert.False(t, ok)
	for r, days := range map[DateRange]int{RangeWeek: 7, RangeMonth: 30, Range3M: 90, RangeYear: 365} {
		w, ok := r.Window()
		require.True(t, ok)
		assert.Equal(t, time.Duration(days)*24*time.Hour, w)
	}
}

func TestFilter_DateRange(t *testing.T) {
	rows := build(rowDef{name: "forty", launched: daysAgo(40)})

	assert.Empty(t, Filter{Range: RangeMonth}.Apply(rows, now))
	assert.Equal(t, []string{"forty"}, names(Filter{Range: Range3M}.Apply(rows, now)))
	assert.Equal(t, []string{"forty"}, names(Filter{Range: RangeAll}.Apply(rows, now)))
	assert.Equal(t, []string{"forty"}, names(Filter{}.Apply(rows, now)))
}

func TestFilter_DateRangeBoundaryAndUndated(t *testing.T) {
	rows := build(
		rowDef{name: "exactly-30", launched: daysAgo(30)},
		rowDef{name: "undated"},
		rowDef{name: "future", launched: now.Add(48 * time.Hour)},
		ancient(),
	)

	assert.Equal(t, []string{"exactly-30", "future"}, names(Filter{Range: RangeMonth}.Apply(rows, now)))
	assert.Equal(t, []string{"exactly-30", "undated", "future", "ancient"}, names(Filter{Range: RangeAll}.Apply(rows, now)))
}

func ancient() rowDef {
	return rowDef{name: "ancient", launched: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestFilter_CategoricalAreConjunctive(t *testing.T) {
	rows := build(
		rowDef{name: "a", provider: "Conduit", framework: "OP Stack", da: "Ethereum", vertical: "DeFi", layer: rollup.LayerL2, launched: daysAgo(3)},
		rowDef{name: "b", provider: "Conduit", framework: "Orbit", da: "AnyTrust", vertical: "Gaming", layer: rollup.LayerL3, launched: daysAgo(3)},
		rowDef{name: "c", provider: "Gelato", framework: "OP Stack", da: "Celestia", vertical: "DeFi", layer: rollup.LayerL2, launched: daysAgo(100)},
		rowDef{name: "d", provider: "Conduit", framework: "OP Stack", da: "Ethereum", vertical: "DeFi", layer: rollup.LayerL2, launched: daysAgo(100)},
	)

	assert.Equal(t, []string{"a", "b", "d"}, names(Filter{Provider: "Conduit"}.Apply(rows, now)))
	assert.Equal(t, []string{"a", "d"}, names(Filter{Provider: "Conduit", Framework: "OP Stack"}.Apply(rows, now)))
	assert.Equal(t, []string{"a"}, names(Filter{Provider: "Conduit", Framework: "OP Stack", Range: RangeWeek}.Apply(rows, now)))
	assert.Equal(t, []string{"b"}, names(Filter{Layer: rollup.LayerL3}.Apply(rows, now)))
	assert.Equal(t, []string{"c"}, names(Filter{DataAvailability: "Celestia"}.Apply(rows, now)))
	assert.Equal(t, []string{"b"}, names(Filter{Vertical: "Gaming"}.Apply(rows, now)))
	assert.Equal(t, []string{"c"}, names(Filter{Name: "c"}.Apply(rows, now)))
	assert.Empty(t, Filter{Provider: "Gelato", Vertical: "Gaming"}.Apply(rows, now))
}

func TestFilterRows_NilPredicateAndInRange(t *testing.T) {
	rows := build(
		rowDef{name: "a", tx: metric.Of(5)},
		rowDef{name: "b", tx: metric.Missing},
		rowDef{name: "c", tx: metric.Of(50)},
	)
	assert.Equal(t, []string{"a", "b", "c"}, names(FilterRows(rows, nil)))
	assert.Equal(t, []string{"c"}, names(FilterRows(rows, InRange(rollup.TotalTransactions, 10, Unbounded))))
	assert.Equal(t, []string{"a", "c"}, names(FilterRows(rows, InRange(rollup.TotalTransactions, 0, Unbounded))))
}

func TestOptionsFromAndHasL3(t *testing.T) {
	rows := build(
		rowDef{name: "a", provider: "Conduit", framework: "OP Stack", layer: rollup.LayerL2},
		rowDef{name: "b", provider: "Gelato", framework: "", layer: rollup.LayerL3},
		rowDef{name: "c", provider: "Conduit", framework: "Orbit", layer: rollup.LayerL2},
	)
	opts := OptionsFrom(rows)

	assert.Equal(t, []string{"a", "b", "c"}, opts.Names)
	assert.Equal(t, []string{"Conduit", "Gelato"}, opts.Providers)
	assert.Equal(t, []string{"OP Stack", "Orbit"}, opts.Frameworks)
	assert.Equal(t, []string{"L2", "L3"}, opts.Layers)
	assert.Equal(t, []string{"All", "1W", "1M", "3M", "1Y"}, opts.DateRanges)

	assert.True(t, HasL3(rows))
	assert.False(t, HasL3(rows[:1]))
}

func TestSortRows(t *testing.T) {
	rows := build(
		rowDef{name: "a", tx: metric.Of(5)},
		rowDef{name: "b", tx: metric.Missing},
		rowDef{name: "c", tx: metric.Of(50)},
		rowDef{name: "d", tx: metric.Of(5)},
	)

	assert.Equal(t, []string{"c", "a", "d", "b"}, names(SortRows(rows, rollup.TotalTransactions, true)))
	assert.Equal(t, []string{"a", "d", "c", "b"}, names(SortRows(rows, rollup.TotalTransactions, false)))
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(rows))
}
