package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/velodata/bike-count-etl/internal/domain"
	"github.com/velodata/bike-count-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw rows from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// DatasetTransformer turns one extracted batch, treated as a dataset window,
// into feature rows. The dead-period cleaner works across the whole batch, so
// transformation is a dataset operation, not a per-row map.
type DatasetTransformer interface {
	TransformDataset(ctx context.Context, raws []domain.RawEvent) (Result, error)
}

// BatchLoader writes multiple feature rows to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Result is the outcome of transforming one dataset window.
type Result struct {
	// Outputs are the serialized feature rows to load.
	Outputs []domain.OutputEvent
	// Processed are the raw rows that parsed cleanly, including rows the
	// dead-period cleaner dropped; their offsets are safe to commit once
	// Outputs are loaded.
	Processed []domain.RawEvent
	// Malformed are rows that violated the input contract. They are skipped
	// and committed so a poison row cannot wedge the pipeline.
	Malformed []domain.RawEvent

	DeadPeriodDays int
	DroppedRows    int
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer DatasetTransformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t DatasetTransformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has processed at least one
// batch, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any rows yet")
	}
	return nil
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.RowsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	result, err := p.transformer.TransformDataset(ctx, rawBatch)
	if err != nil {
		p.logger.Error("transform dataset failed", "error", err, "batch_size", len(rawBatch))
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	for _, raw := range result.Malformed {
		p.logger.Warn("row violates input contract, skipping",
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		p.metrics.TransformErrors.Inc()
		p.commitOffset(ctx, raw)
	}

	if result.DeadPeriodDays > 0 {
		p.logger.Info("dead periods removed",
			"counter_days", result.DeadPeriodDays,
			"rows_dropped", result.DroppedRows,
		)
		p.metrics.DeadPeriodDays.Add(float64(result.DeadPeriodDays))
		p.metrics.DeadPeriodRows.Add(float64(result.DroppedRows))
	}

	if len(result.Outputs) > 0 {
		if err := p.loader.LoadBatch(ctx, result.Outputs); err != nil {
			p.logger.Error("load batch failed", "error", err, "batch_size", len(result.Outputs))
			return p.backoffOrStop(ctx, backoff, maxBackoff)
		}
		p.metrics.RowsProduced.Add(float64(len(result.Outputs)))
	}

	for _, raw := range result.Processed {
		p.commitOffset(ctx, raw)
	}

	if len(result.Processed) > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
