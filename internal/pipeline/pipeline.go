package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/water-testing-etl/internal/domain"
	"github.com/couchcryptid/water-testing-etl/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw lab result record into an enriched test result.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.TestResult, error)
}

// BatchLoader writes multiple test results to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, results []domain.TestResult) error
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has loaded at least one batch,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		if len(rawBatch) == 0 {
			p.logger.Error("extract batch failed", "error", err)
			return p.backoffOrStop(ctx, backoff)
		}
		// Fetched messages are not redelivered, so a partial batch is still processed.
		p.logger.Warn("extract batch incomplete, processing fetched messages", "error", err, "batch_size", len(rawBatch))
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	loaded, ok := p.transformAndLoad(ctx, rawBatch, backoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad transforms each message in the batch, loads the successes,
// and then commits every offset in the batch in order. Failed messages are
// committed along with the rest so a record that can never be computed does
// not block its partition. The reader has already moved past these offsets
// and Kafka commits are cumulative per partition, so a failed load is retried
// with backoff until it succeeds or ctx is cancelled; nothing is committed
// before the load succeeds. Returns the number of loaded results and false if
// the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration) (int, bool) {
	outBatch := make([]domain.TestResult, 0, len(rawBatch))

	for _, raw := range rawBatch {
		result, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			kind := domain.ErrorKind(err)
			p.logger.Warn("transform failed, skipping message",
				"error", err,
				"kind", kind,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.WithLabelValues(kind).Inc()
			continue
		}
		outBatch = append(outBatch, result)
	}

	if len(outBatch) > 0 {
		if !p.loadWithRetry(ctx, outBatch, backoff) {
			return 0, false
		}

		p.metrics.MessagesProduced.Add(float64(len(outBatch)))
		for i := range outBatch {
			p.observeResult(outBatch[i])
		}
	}

	for _, raw := range rawBatch {
		p.commitOffset(ctx, raw)
	}

	return len(outBatch), true
}

// loadWithRetry loads results until the loader succeeds. Returns false if ctx
// was cancelled first.
func (p *Pipeline) loadWithRetry(ctx context.Context, results []domain.TestResult, backoff *time.Duration) bool {
	for {
		err := p.loader.LoadBatch(ctx, results)
		if err == nil {
			*backoff = initialBackoff
			return true
		}
		p.logger.Error("load batch failed, retrying", "error", err, "batch_size", len(results), "backoff", *backoff)
		if !p.backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

func (p *Pipeline) observeResult(result domain.TestResult) {
	p.metrics.ResultsByBalance.WithLabelValues(result.Derived.Balance).Inc()
	p.metrics.SulfateChlorineRatio.Observe(result.Derived.SulfateChlorineRatio)
	p.metrics.ResidualAlkalinityMgL.Observe(result.Derived.ResAlkalinity)
	for _, flag := range result.Flags {
		p.metrics.ImplausibleResults.WithLabelValues(flag).Inc()
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
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
