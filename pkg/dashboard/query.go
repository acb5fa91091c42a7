package dashboard

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rollups-terminal/rollupsx/pkg/aggregate"
	"github.com/rollups-terminal/rollupsx/pkg/rollup"
)

// Query is what a dashboard request asks for.
type Query struct {
	Filter aggregate.Filter
	// Min and Max bound the per-chain transaction chart. Max is aggregate.Unbounded by default.
	Min float64
	Max float64
	// SortBy is a key of rollup.MetricSelectors; empty keeps sheet order.
	SortBy string
	Desc   bool
}

// DefaultQuery matches every row and every chart value. Sorting, once asked for, is descending.
func DefaultQuery() Query {
	return Query{Filter: aggregate.Filter{Range: aggregate.RangeAll}, Max: aggregate.Unbounded, Desc: true}
}

// ParseQuery reads a Query from URL parameters:
// name, provider, framework, da, vertical, layer, range, min, max, sort, order.
func ParseQuery(v url.Values) (Query, error) {
	q := DefaultQuery()
	get := func(k string) string { return strings.TrimSpace(v.Get(k)) }

	q.Filter.Name = get("name")
	q.Filter.Provider = get("provider")
	q.Filter.Framework = get("framework")
	q.Filter.DataAvailability = get("da")
	q.Filter.Vertical = get("vertical")
	if l := get("layer"); l != "" {
		q.Filter.Layer = rollup.ParseLayerKind(l)
	}

	r, err := aggregate.ParseDateRange(get("range"))
	if err != nil {
		return Query{}, err
	}
	q.Filter.Range = r

	if s := get("min"); s != "" {
		if q.Min, err = parseBound("min", s); err != nil {
			return Query{}, err
		}
	}
	if s := get("max"); s != "" {
		if q.Max, err = parseBound("max", s); err != nil {
			return Query{}, err
		}
	}
	if q.Min > q.Max {
		return Query{}, fmt.Errorf("min %v is greater than max %v", q.Min, q.Max)
	}

	if s := get("sort"); s != "" {
		if _, ok := rollup.MetricSelectors[s]; !ok {
			return Query{}, fmt.Errorf("unknown sort field %q", s)
		}
		q.SortBy = s
	}
	switch strings.ToLower(get("order")) {
	case "", "desc":
		q.Desc = true
	case "asc":
		q.Desc = false
	default:
		return Query{}, fmt.Errorf("unknown order %q", get("order"))
	}
	return q, nil
}

func parseBound(name, s string) (float64, error) {
	if strings.EqualFold(s, "inf") || strings.EqualFold(s, "infinity") {
		return aggregate.Unbounded, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return f, nil
}

// Rows applies the filter and sort to a snapshot's rows.
func (q Query) Rows(rows []rollup.EnrichedRow, now time.Time) []rollup.EnrichedRow {
	out := q.Filter.Apply(rows, now)
	if fn, ok := rollup.MetricSelectors[q.SortBy]; ok {
		out = aggregate.SortRows(out, fn, q.Desc)
	}
	return out
}
