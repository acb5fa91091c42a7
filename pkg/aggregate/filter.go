package aggregate

import (
	"fmt"
	"strings"
	"time"

	"github.com/rollups-terminal/rollupsx/pkg/rollup"
)

// DateRange is a launch-date lookback window.
type DateRange string

const (
	RangeAll   DateRange = "All"
	RangeWeek  DateRange = "1W"
	RangeMonth DateRange = "1M"
	Range3M    DateRange = "3M"
	RangeYear  DateRange = "1Y"
)

// DateRanges lists the recognized ranges in display order.
var DateRanges = []DateRange{RangeAll, RangeWeek, RangeMonth, Range3M, RangeYear}

// Windows are fixed day counts, not calendar months or years, so results do not shift around
// month ends or leap days.
var rangeDays = map[DateRange]int{
	RangeWeek:  7,
	RangeMonth: 30,
	Range3M:    90,
	RangeYear:  365,
}

// ParseDateRange accepts the range labels case-insensitively. Empty means All.
func ParseDateRange(s string) (DateRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RangeAll, nil
	}
	for _, r := range DateRanges {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown date range %q", s)
}

// Window returns the lookback window, or false for All.
func (r DateRange) Window() (time.Duration, bool) {
	days, ok := rangeDays[r]
	if !ok {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}

// Predicate selects rows.
type Predicate func(rollup.EnrichedRow) bool

// FilterRows returns the rows matching pred, in input order. A nil pred keeps everything.
func FilterRows(rows []rollup.EnrichedRow, pred Predicate) []rollup.EnrichedRow {
	out := make([]rollup.EnrichedRow, 0, len(rows))
	for _, r := range rows {
		if pred == nil || pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// And matches when every predicate matches. Nil predicates are ignored.
func And(preds ...Predicate) Predicate {
	return func(r rollup.EnrichedRow) bool {
		for _, p := range preds {
			if p != nil && !p(r) {
				return false
			}
		}
		return true
	}
}

// LaunchedWithin matches rows launched no more than the range's window before now. Rows
// launched after now also match. With All it matches every row; with any other range, rows
// without a launch date never match.
func LaunchedWithin(r DateRange, now time.Time) Predicate {
	window, ok := r.Window()
	if !ok {
		return nil
	}
	return func(row rollup.EnrichedRow) bool {
		if !row.HasLaunchDate() {
			return false
		}
		return now.Sub(row.LaunchDate) <= window
	}
}

// InRange matches rows whose metric is present and lies in [min, max].
func InRange(metricFn MetricFunc, min, max float64) Predicate {
	return func(row rollup.EnrichedRow) bool {
		v, ok := metricFn(row).Get()
		return ok && v >= min && v <= max
	}
}

func fieldEquals(want string, field func(rollup.EnrichedRow) string) Predicate {
	if want == "" {
		return nil
	}
	return func(row rollup.EnrichedRow) bool { return field(row) == want }
}

// Filter holds the table's criteria. Empty fields do not constrain.
type Filter struct {
	Name             string           `json:"name,omitempty"`
	Provider         string           `json:"provider,omitempty"`
	Framework        string           `json:"framework,omitempty"`
	DataAvailability string           `json:"dataAvailability,omitempty"`
	Vertical         string           `json:"vertical,omitempty"`
	Layer            rollup.LayerKind `json:"layer,omitempty"`
	Range            DateRange        `json:"range,omitempty"`
}

// Predicate combines every active criterion with AND.
func (f Filter) Predicate(now time.Time) Predicate {
	return And(
		LaunchedWithin(f.Range, now),
		fieldEquals(f.Name, func(r rollup.EnrichedRow) string { return r.Name }),
		fieldEquals(f.Provider, func(r rollup.EnrichedRow) string { return r.Provider }),
		fieldEquals(f.Framework, func(r rollup.EnrichedRow) string { return r.Framework }),
		fieldEquals(f.DataAvailability, func(r rollup.EnrichedRow) string { return r.DataAvailability }),
		fieldEquals(f.Vertical, func(r rollup.EnrichedRow) string { return r.Vertical }),
		fieldEquals(string(f.Layer), func(r rollup.EnrichedRow) string { return string(r.Layer) }),
	)
}

// Apply filters rows with f at time now.
func (f Filter) Apply(rows []rollup.EnrichedRow, now time.Time) []rollup.EnrichedRow {
	return FilterRows(rows, f.Predicate(now))
}
