package enrich

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/metric"
	"github.com/rollups-terminal/rollupsx/pkg/metrics"
	"github.com/rollups-terminal/rollupsx/pkg/rollup"
)

// ExplorerFetcher returns a chain's explorer metrics. Implementations absorb their own failures.
type ExplorerFetcher interface {
	FetchMetrics(ctx context.Context, baseURL string) rollup.ExplorerMetrics
}

// TVLResolver returns a project's TVL or metric.Missing.
type TVLResolver interface {
	Resolve(ctx context.Context, projectID string) metric.Value
}

// Enricher merges source rows with live metrics, one pool task per row.
type Enricher struct {
	explorer ExplorerFetcher
	tvl      TVLResolver
	pool     pond.ResultPool[rollup.EnrichedRow]
	logger   *zap.Logger
	metrics  *metrics.Registry
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithMetrics records run duration and missing fields.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Enricher) { e.metrics = m }
}

// New returns an Enricher running at most workers rows at a time.
func New(explorer ExplorerFetcher, tvl TVLResolver, workers int, logger *zap.Logger, opts ...Option) *Enricher {
	e := &Enricher{
		explorer: explorer,
		tvl:      tvl,
		pool:     pond.NewResultPool[rollup.EnrichedRow](Parallelism(workers)),
		logger:   logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Parallelism clamps the configured worker count, defaulting to eight per CPU.
func Parallelism(override int) int {
	if override > 0 {
		if override > 256 {
			return 256
		}
		return override
	}
	n := runtime.NumCPU() * 8
	if n < 8 {
		n = 8
	}
	if n > 256 {
		n = 256
	}
	return n
}

// Close stops the pool after in-flight rows finish.
func (e *Enricher) Close() {
	e.pool.StopAndWait()
}

// EnrichAll returns one EnrichedRow per input row, in input order. Each row is enriched
// independently; a row whose fetchers panic gets all-missing metrics and the others are
// unaffected. It returns only when every row is done.
func (e *Enricher) EnrichAll(ctx context.Context, rows []rollup.SourceRow) []rollup.EnrichedRow {
	if len(rows) == 0 {
		return []rollup.EnrichedRow{}
	}
	start := time.Now()

	group := e.pool.NewGroupContext(ctx)
	for _, src := range rows {
		group.Submit(func() rollup.EnrichedRow {
			return e.enrichOne(ctx, src)
		})
	}

	out, err := group.Wait()
	if err != nil || len(out) != len(rows) {
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			e.logger.Warn("enrichment group failed", zap.Error(err))
		}
		out = unenriched(rows)
	}

	e.observe(out, time.Since(start))
	return out
}

// enrichOne runs the explorer and TVL lookups for one row concurrently.
func (e *Enricher) enrichOne(ctx context.Context, src rollup.SourceRow) (row rollup.EnrichedRow) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("row enrichment panicked", zap.String("name", src.Name), zap.Any("panic", r))
			row = rollup.NewEnrichedRow(src, rollup.MissingExplorerMetrics, metric.Missing)
		}
	}()

	tvlCh := make(chan metric.Value, 1)
	go func() {
		v, err := safeResolve(ctx, e.tvl, src.TVLProjectID)
		if err != nil {
			e.logger.Error("tvl resolver panicked", zap.String("name", src.Name), zap.Error(err))
		}
		tvlCh <- v
	}()

	m := e.explorer.FetchMetrics(ctx, src.ExplorerBaseURL)
	return rollup.NewEnrichedRow(src, m, <-tvlCh)
}

// safeResolve keeps a panicking resolver from taking the process down with its goroutine.
func safeResolve(ctx context.Context, r TVLResolver, projectID string) (v metric.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			v = metric.Missing
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.Resolve(ctx, projectID), nil
}

func unenriched(rows []rollup.SourceRow) []rollup.EnrichedRow {
	out := make([]rollup.EnrichedRow, len(rows))
	for i, src := range rows {
		out[i] = rollup.NewEnrichedRow(src, rollup.MissingExplorerMetrics, metric.Missing)
	}
	return out
}

func (e *Enricher) observe(rows []rollup.EnrichedRow, took time.Duration) {
	missing := 0
	for _, r := range rows {
		for field, sel := range rollup.MetricSelectors {
			if sel(r).IsMissing() {
				e.metrics.ObserveMissing(field)
				missing++
			}
		}
	}
	e.metrics.ObserveEnrichRun(len(rows), took)
	e.logger.Info("enrichment finished",
		zap.Int("rows", len(rows)),
		zap.Int("missingFields", missing),
		zap.Duration("took", took))
}
