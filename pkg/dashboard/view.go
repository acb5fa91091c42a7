package dashboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/rollups-terminal/rollupsx/pkg/aggregate"
	"github.com/rollups-terminal/rollupsx/pkg/metric"
	"github.com/rollups-terminal/rollupsx/pkg/pipeline"
	"github.com/rollups-terminal/rollupsx/pkg/rollup"
)

// Colors assigns chart colours.
type Colors interface {
	ProviderColor(provider string) string
	ChainColor(provider string) string
}

// Display holds the formatted metrics of a row.
type Display struct {
	TotalAddresses    string `json:"totalAddresses"`
	TotalTransactions string `json:"totalTransactions"`
	TransactionsToday string `json:"transactionsToday"`
	Last30DaysTxCount string `json:"last30DaysTxCount"`
	TotalValueLocked  string `json:"totalValueLocked"`
}

// Row is a table row with raw and formatted metrics.
type Row struct {
	rollup.EnrichedRow
	LaunchDate string  `json:"launchDate"`
	Display    Display `json:"display"`
}

// Point is one slice or bar of a chart.
type Point struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
	Color   string  `json:"color"`
	// Share is the percentage of the series total, 0 when the total is 0.
	Share   float64 `json:"share"`
}

// Group is one provider's bars in the grouped chart.
type Group struct {
	Provider string  `json:"provider"`
	Color    string  `json:"color"`
	Points   []Point `json:"points"`
}

// Charts are the chart series built from the filtered rows.
type Charts struct {
	TransactionsByProvider      []Point `json:"transactionsByProvider"`
	TransactionsByChain         []Point `json:"transactionsByChain"`
	AddressesByProvider         []Point `json:"addressesByProvider"`
	AddressesByChain            []Point `json:"addressesByChain"`
	TransactionsByProviderChain []Group `json:"transactionsByProviderChain"`
}

// Totals summarize the filtered rows. Missing values do not contribute.
type Totals struct {
	Chains            int    `json:"chains"`
	TotalTransactions string `json:"totalTransactions"`
	TotalAddresses    string `json:"totalAddresses"`
	TotalValueLocked  string `json:"totalValueLocked"`
}

// View is everything the dashboard page renders.
type View struct {
	RunID     uuid.UUID         `json:"runId"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Options   aggregate.Options `json:"options"`
	HasL3     bool              `json:"hasL3"`
	Rows      []Row             `json:"rows"`
	Totals    Totals            `json:"totals"`
	Charts    Charts            `json:"charts"`
}

const launchLayout = "2006-01-02"

// Build derives the view from a snapshot. Options come from every row; rows, totals and charts
// from the rows matching q.
func Build(snap *pipeline.Snapshot, q Query, colors Colors, now time.Time) View {
	all := snap.Rows
	rows := q.Rows(all, now)

	v := View{
		RunID:     snap.RunID,
		FetchedAt: snap.FetchedAt,
		Options:   aggregate.OptionsFrom(all),
		HasL3:     aggregate.HasL3(rows),
		Rows:      make([]Row, len(rows)),
		Totals:    totals(rows),
		Charts:    charts(rows, q, colors),
	}
	for i, r := range rows {
		v.Rows[i] = toRow(r)
	}
	return v
}

func toRow(r rollup.EnrichedRow) Row {
	out := Row{
		EnrichedRow: r,
		LaunchDate:  r.LaunchDateRaw,
		Display: Display{
			TotalAddresses:    metric.FormatForDisplay(r.TotalAddresses),
			TotalTransactions: metric.FormatForDisplay(r.TotalTransactions),
			TransactionsToday: metric.FormatForDisplay(r.TransactionsToday),
			Last30DaysTxCount: metric.FormatForDisplay(r.Last30DaysTxCount),
			TotalValueLocked:  metric.FormatForDisplay(r.TotalValueLocked),
		},
	}
	if r.HasLaunchDate() {
		out.LaunchDate = r.SourceRow.LaunchDate.Format(launchLayout)
	}
	return out
}

func totals(rows []rollup.EnrichedRow) Totals {
	sum := func(fn aggregate.MetricFunc) string {
		var total float64
		seen := false
		for _, r := range rows {
			if n, ok := fn(r).Get(); ok {
				total += n
				seen = true
			}
		}
		if !seen {
			return metric.MissingMarker
		}
		return metric.FormatNumber(total)
	}
	return Totals{
		Chains:            len(rows),
		TotalTransactions: sum(rollup.TotalTransactions),
		TotalAddresses:    sum(rollup.TotalAddresses),
		TotalValueLocked:  sum(rollup.TotalValueLocked),
	}
}

func charts(rows []rollup.EnrichedRow, q Query, colors Colors) Charts {
	providerOf := make(map[string]string, len(rows))
	for _, r := range rows {
		providerOf[r.Name] = r.Provider
	}
	chainPoints := func(s *aggregate.Sums[string]) []Point {
		out := make([]Point, 0, s.Len())
		total := s.Total()
		for _, e := range s.Entries() {
			out = append(out, point(e, total, colors.ChainColor(providerOf[e.Key])))
		}
		return out
	}
	providerPoints := func(s *aggregate.Sums[string]) []Point {
		out := make([]Point, 0, s.Len())
		total := s.Total()
		for _, e := range s.Entries() {
			out = append(out, point(e, total, colors.ProviderColor(e.Key)))
		}
		return out
	}

	txByChain := aggregate.AggregateBy(rows, rollup.Name, rollup.TotalTransactions).WithinRange(q.Min, q.Max)
	inRange := aggregate.FilterRows(rows, func(r rollup.EnrichedRow) bool {
		_, ok := txByChain.Get(r.Name)
		return ok
	})

	nested := aggregate.AggregateNested(rows, rollup.Provider, rollup.Name, rollup.TotalTransactions)
	groups := make([]Group, 0, len(nested.Outer()))
	for _, p := range nested.Outer() {
		g, _ := nested.Group(p)
		groups = append(groups, Group{Provider: p, Color: colors.ProviderColor(p), Points: chainPoints(g)})
	}

	return Charts{
		TransactionsByProvider:      providerPoints(aggregate.AggregateBy(inRange, rollup.Provider, rollup.TotalTransactions)),
		TransactionsByChain:         chainPoints(txByChain),
		AddressesByProvider:         providerPoints(aggregate.AggregateBy(rows, rollup.Provider, rollup.TotalAddresses)),
		AddressesByChain:            chainPoints(aggregate.AggregateBy(rows, rollup.Name, rollup.TotalAddresses)),
		TransactionsByProviderChain: groups,
	}
}

func point(e aggregate.Entry[string], total float64, color string) Point {
	p := Point{Label: e.Key, Value: e.Value, Display: metric.FormatNumber(e.Value), Color: color}
	if total != 0 {
		p.Share = e.Value / total * 100
	}
	return p
}
