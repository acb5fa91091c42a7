package rollup

import (
	"strings"
	"time"

	"github.com/rollups-terminal/rollupsx/pkg/metric"
)

// LayerKind is the stack position of a chain. Values other than L2 and L3 are kept verbatim.
type LayerKind string

const (
	LayerL2 LayerKind = "L2"
	LayerL3 LayerKind = "L3"
)

// ParseLayerKind normalizes the sheet's L2/L3 cell.
func ParseLayerKind(s string) LayerKind {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "L2":
		return LayerL2
	case "L3":
		return LayerL3
	default:
		return LayerKind(s)
	}
}

// SourceRow is one tracked chain as listed in the spreadsheet.
type SourceRow struct {
	Name             string    `json:"name"`
	ExplorerBaseURL  string    `json:"explorerBaseUrl"`
	TVLProjectID     string    `json:"tvlProjectId,omitempty"`
	Provider         string    `json:"provider"`
	LaunchDate       time.Time `json:"launchDate"`
	LaunchDateRaw    string    `json:"launchDateRaw"`
	Vertical         string    `json:"vertical"`
	Framework        string    `json:"framework"`
	DataAvailability string    `json:"dataAvailability"`
	Layer            LayerKind `json:"layer"`
	// Settlement is only populated for L3 chains.
	Settlement string `json:"settlement,omitempty"`
}

// HasLaunchDate reports whether the sheet's launch date could be parsed.
func (r SourceRow) HasLaunchDate() bool { return !r.LaunchDate.IsZero() }

// ExplorerMetrics is what a block explorer reports for one chain.
type ExplorerMetrics struct {
	TotalAddresses    metric.Value `json:"totalAddresses"`
	TotalTransactions metric.Value `json:"totalTransactions"`
	TransactionsToday metric.Value `json:"transactionsToday"`
	Last30DaysTxCount metric.Value `json:"last30DaysTxCount"`
}

// MissingExplorerMetrics is the bundle returned when nothing could be fetched.
var MissingExplorerMetrics = ExplorerMetrics{}

// EnrichedRow is a SourceRow plus its live metrics. Build it with NewEnrichedRow; it is passed
// by value and never updated in place.
type EnrichedRow struct {
	SourceRow
	TotalAddresses    metric.Value `json:"totalAddresses"`
	TotalTransactions metric.Value `json:"totalTransactions"`
	TransactionsToday metric.Value `json:"transactionsToday"`
	Last30DaysTxCount metric.Value `json:"last30DaysTxCount"`
	TotalValueLocked  metric.Value `json:"totalValueLocked"`
}

// NewEnrichedRow merges a source row with its explorer bundle and TVL.
func NewEnrichedRow(src SourceRow, m ExplorerMetrics, tvl metric.Value) EnrichedRow {
	return EnrichedRow{
		SourceRow:         src,
		TotalAddresses:    m.TotalAddresses,
		TotalTransactions: m.TotalTransactions,
		TransactionsToday: m.TransactionsToday,
		Last30DaysTxCount: m.Last30DaysTxCount,
		TotalValueLocked:  tvl,
	}
}

// Metrics returns the explorer part of the row.
func (r EnrichedRow) Metrics() ExplorerMetrics {
	return ExplorerMetrics{
		TotalAddresses:    r.TotalAddresses,
		TotalTransactions: r.TotalTransactions,
		TransactionsToday: r.TransactionsToday,
		Last30DaysTxCount: r.Last30DaysTxCount,
	}
}

// MissingCount returns how many of the five metrics are missing.
func (r EnrichedRow) MissingCount() int {
	n := 0
	for _, v := range []metric.Value{r.TotalAddresses, r.TotalTransactions, r.TransactionsToday, r.Last30DaysTxCount, r.TotalValueLocked} {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Field accessors used as grouping keys and metric selectors.

func Name(r EnrichedRow) string     { return r.Name }
func Provider(r EnrichedRow) string { return r.Provider }

func TotalTransactions(r EnrichedRow) metric.Value { return r.TotalTransactions }
func TotalAddresses(r EnrichedRow) metric.Value    { return r.TotalAddresses }
func TransactionsToday(r EnrichedRow) metric.Value { return r.TransactionsToday }
func Last30DaysTxCount(r EnrichedRow) metric.Value { return r.Last30DaysTxCount }
func TotalValueLocked(r EnrichedRow) metric.Value  { return r.TotalValueLocked }

// MetricSelectors maps a metric's JSON field name to its accessor.
var MetricSelectors = map[string]func(EnrichedRow) metric.Value{
	"totalAddresses":    TotalAddresses,
	"totalTransactions": TotalTransactions,
	"transactionsToday": TransactionsToday,
	"last30DaysTxCount": Last30DaysTxCount,
	"totalValueLocked":  TotalValueLocked,
}
