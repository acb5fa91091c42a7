package explorer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/metric"
	"github.com/rollups-terminal/rollupsx/pkg/rollup"
	"github.com/rollups-terminal/rollupsx/pkg/upstream"
	"github.com/rollups-terminal/rollupsx/pkg/utils"
)

// ErrNoChartData is returned when the transactions chart has no chart_data series.
var ErrNoChartData = errors.New("chart_data missing")

// Client reads aggregate stats and the daily transaction chart from Blockscout-style explorers.
type Client struct {
	http    *upstream.Client
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient returns an explorer Client. prefix is the API root appended to each chain's explorer
// URL (DefaultAPIPrefix for Blockscout).
func NewClient(http *upstream.Client, prefix string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http:    http,
		prefix:  utils.TrimURL(prefix),
		timeout: timeout,
		logger:  logger,
	}
}

// Stats holds the three counters of the stats endpoint.
type Stats struct {
	TotalAddresses    metric.Value
	TotalTransactions metric.Value
	TransactionsToday metric.Value
}

// FetchMetrics returns the chain's metrics bundle. It never fails: the stats call and the chart
// call fail independently, and each failure leaves only its own fields missing.
func (c *Client) FetchMetrics(ctx context.Context, baseURL string) rollup.ExplorerMetrics {
	base := utils.TrimURL(baseURL)
	if base == "" {
		return rollup.MissingExplorerMetrics
	}

	type chartResult struct {
		sum metric.Value
		err error
	}
	chartCh := make(chan chartResult, 1)
	go func() {
		sum, err := c.Last30DaysTxCount(ctx, base)
		chartCh <- chartResult{sum: sum, err: err}
	}()

	stats, statsErr := c.Stats(ctx, base)
	chart := <-chartCh

	if statsErr != nil {
		c.logger.Warn("explorer stats fetch failed", zap.String("explorer", base), zap.Error(statsErr))
	}
	if chart.err != nil {
		c.logger.Warn("explorer chart fetch failed", zap.String("explorer", base), zap.Error(chart.err))
	}

	return rollup.ExplorerMetrics{
		TotalAddresses:    stats.TotalAddresses,
		TotalTransactions: stats.TotalTransactions,
		TransactionsToday: stats.TransactionsToday,
		Last30DaysTxCount: chart.sum,
	}
}

// Stats calls {base}{prefix}/stats. On error all three counters are missing.
func (c *Client) Stats(ctx context.Context, base string) (Stats, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp statsResponse
	if err := c.http.GetJSON(callCtx, TargetStats, base+c.prefix+statsPath, &resp); err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalAddresses:    metric.ToNumericOrMissing(resp.TotalAddresses).NonNegative(),
		TotalTransactions: metric.ToNumericOrMissing(resp.TotalTransactions).NonNegative(),
		TransactionsToday: metric.ToNumericOrMissing(resp.TransactionsToday).NonNegative(),
	}, nil
}

// Last30DaysTxCount calls {base}{prefix}/stats/charts/transactions and sums tx_count across the
// returned series. An absent series or a non-numeric entry yields Missing; an empty series is 0.
func (c *Client) Last30DaysTxCount(ctx context.Context, base string) (metric.Value, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp chartResponse
	if err := c.http.GetJSON(callCtx, TargetChart, base+c.prefix+chartPath, &resp); err != nil {
		return metric.Missing, err
	}
	return SumTxCount(resp.ChartData)
}

// SumTxCount adds up the tx_count of every chart point.
func SumTxCount(points []ChartPoint) (metric.Value, error) {
	if points == nil {
		return metric.Missing, ErrNoChartData
	}
	sum := metric.Of(0)
	for i, p := range points {
		n := metric.ToNumericOrMissing(p.TxCount).NonNegative()
		if n.IsMissing() {
			return metric.Missing, &PointError{Index: i, Date: p.Date}
		}
		sum = sum.Add(n)
	}
	return sum, nil
}
