package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/metrics"
	"github.com/rollups-terminal/rollupsx/pkg/rollup"
)

// ErrSourceUnavailable wraps any failure to load the base dataset.
var ErrSourceUnavailable = errors.New("source unavailable")

// Source yields the tracked chains.
type Source interface {
	Load(ctx context.Context) ([]rollup.SourceRow, error)
}

// Enricher attaches live metrics to source rows.
type Enricher interface {
	EnrichAll(ctx context.Context, rows []rollup.SourceRow) []rollup.EnrichedRow
}

// Snapshot is the result of one run.
type Snapshot struct {
	RunID     uuid.UUID            `json:"runId"`
	FetchedAt time.Time            `json:"fetchedAt"`
	Rows      []rollup.EnrichedRow `json:"rows"`
}

// Pipeline runs load then enrich.
type Pipeline struct {
	source   Source
	enricher Enricher
	metrics  *metrics.Registry
	logger   *zap.Logger
	now      func() time.Time
}

// New returns a Pipeline. m may be nil.
func New(source Source, enricher Enricher, m *metrics.Registry, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		source:   source,
		enricher: enricher,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Run loads the sheet and enriches every row. A load failure is returned as
// ErrSourceUnavailable and no rows are produced.
func (p *Pipeline) Run(ctx context.Context) (*Snapshot, error) {
	id := uuid.New()
	logger := p.logger.With(zap.String("run_id", id.String()))
	start := p.now()

	rows, err := p.source.Load(ctx)
	if err != nil {
		p.metrics.ObserveSourceFailure()
		logger.Error("Failed to load source rows", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	enriched := p.enricher.EnrichAll(ctx, rows)
	logger.Debug("Pipeline run finished",
		zap.Int("rows", len(enriched)),
		zap.Duration("took", p.now().Sub(start)))

	return &Snapshot{RunID: id, FetchedAt: start.UTC(), Rows: enriched}, nil
}
