package explorer

import "fmt"

// DefaultAPIPrefix is where Blockscout serves its v2 REST API.
const DefaultAPIPrefix = "/api/v2"

const (
	statsPath = "/stats"
	chartPath = "/stats/charts/transactions"
)

// Metric targets.
const (
	TargetStats = "explorer_stats"
	TargetChart = "explorer_chart"
)

// statsResponse mirrors GET /stats. Blockscout reports counters as strings, other explorers as
// numbers, so the fields stay untyped until normalized.
type statsResponse struct {
	TotalAddresses    any `json:"total_addresses"`
	TotalTransactions any `json:"total_transactions"`
	TransactionsToday any `json:"transactions_today"`
}

// ChartPoint is one day of the transactions chart.
type ChartPoint struct {
	Date    string `json:"date"`
	TxCount any    `json:"tx_count"`
}

// chartResponse mirrors GET /stats/charts/transactions.
type chartResponse struct {
	ChartData []ChartPoint `json:"chart_data"`
}

// PointError reports a chart point whose tx_count is unusable.
type PointError struct {
	Index int
	Date  string
}

func (e *PointError) Error() string {
	return fmt.Sprintf("chart point %d (%s) has no numeric tx_count", e.Index, e.Date)
}
