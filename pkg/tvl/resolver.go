package tvl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/metric"
	"github.com/rollups-terminal/rollupsx/pkg/upstream"
)

// TargetResolver labels resolver calls in metrics.
const TargetResolver = "tvl_resolver"

// fixedPointScale converts the series' fixed-point subtotals into reporting currency units.
const fixedPointScale = 1e8

var (
	ErrNoSeries  = errors.New("tvl series is empty")
	ErrMalformed = errors.New("tvl series entry is malformed")
)

// chartResponse is the part of the proxy payload the resolver reads.
type chartResponse struct {
	TvlData []json.RawMessage `json:"tvlData"`
}

// Resolver turns a TVL project id into the latest TVL value.
type Resolver struct {
	client   *upstream.Client
	endpoint string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewResolver returns a Resolver calling endpoint (the TVL proxy, e.g. http://host/api/tvl).
func NewResolver(client *upstream.Client, endpoint string, timeout time.Duration, logger *zap.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		client:   client,
		endpoint: endpoint,
		timeout:  timeout,
		logger:   logger,
	}
}

// Resolve returns the project's latest TVL, or metric.Missing. An empty projectID returns
// Missing without touching the network. Failures are logged and never returned.
func (r *Resolver) Resolve(ctx context.Context, projectID string) metric.Value {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return metric.Missing
	}

	u, err := url.Parse(r.endpoint)
	if err != nil {
		r.logger.Warn("invalid tvl endpoint", zap.String("endpoint", r.endpoint), zap.Error(err))
		return metric.Missing
	}
	q := u.Query()
	q.Set("projectId", projectID)
	u.RawQuery = q.Encode()

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var resp chartResponse
	if err := r.client.GetJSON(callCtx, TargetResolver, u.String(), &resp); err != nil {
		r.logger.Warn("tvl fetch failed", zap.String("projectId", projectID), zap.Error(err))
		return metric.Missing
	}

	v, err := LatestTVL(resp.TvlData)
	if err != nil {
		r.logger.Warn("tvl data unusable", zap.String("projectId", projectID), zap.Error(err))
		return metric.Missing
	}
	return v
}

// LatestTVL reads the last entry of a chronologically ordered series of
// [timestamp, a, b, c, ...] tuples and returns (a + b + c) / 1e8.
func LatestTVL(series []json.RawMessage) (metric.Value, error) {
	if len(series) == 0 {
		return metric.Missing, ErrNoSeries
	}

	last := series[len(series)-1]
	var fields []any
	dec := json.NewDecoder(bytes.NewReader(last))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return metric.Missing, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(fields) < 4 {
		return metric.Missing, fmt.Errorf("%w: %d fields", ErrMalformed, len(fields))
	}

	sum := metric.Of(0)
	for i := 1; i <= 3; i++ {
		f := metric.ToNumericOrMissing(fields[i])
		if f.IsMissing() {
			return metric.Missing, fmt.Errorf("%w: field %d is not numeric", ErrMalformed, i)
		}
		sum = sum.Add(f)
	}
	return metric.Of(sum.Float() / fixedPointScale), nil
}
