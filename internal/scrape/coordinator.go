package scrape

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jfalgout/examdump/internal/progress"
)

// Coordinator fans the keyed link set out over a bounded pool of workers.
// Each in-flight item owns a full rendering session, which is process-heavy,
// so the concurrency bound is a hard cap on open sessions, not a tuning hint.
type Coordinator struct {
	sessions    SessionFactory
	extractor   RecordExtractor
	concurrency int
	pacer       *Pacer
	emitter     progress.Emitter
	logger      *zap.Logger
	runID       uuid.UUID
}

// NewCoordinator builds a Coordinator. concurrency values below 1 are
// raised to 1. emitter may be nil.
func NewCoordinator(
	sessions SessionFactory,
	extractor RecordExtractor,
	concurrency int,
	runID uuid.UUID,
	emitter progress.Emitter,
	logger *zap.Logger,
) *Coordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		sessions:    sessions,
		extractor:   extractor,
		concurrency: concurrency,
		emitter:     emitter,
		logger:      logger,
		runID:       runID,
	}
}

// SetPacer installs an optional fetch pacer. A nil pacer means each worker
// starts as soon as it holds a concurrency slot.
func (c *Coordinator) SetPacer(p *Pacer) {
	c.pacer = p
}

// FetchAll fetches every item and returns exactly one record per item, in
// input order. It returns only after every dispatched item has produced a
// result; failures degrade single records and never cancel, block, or
// corrupt sibling items. Cancellation of ctx converts not-yet-started items
// to degraded records while letting in-flight fetches finish.
func (c *Coordinator) FetchAll(ctx context.Context, items []LinkItem) []QuestionRecord {
	// Workers write to disjoint indexes, so the slice needs no lock: each
	// result arrives through its own slot, completion order irrelevant.
	results := make([]QuestionRecord, len(items))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	var completed atomic.Int64
	total := len(items)

	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item := items[i]

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				rec := FailedRecord(item)
				results[i] = rec
				c.observe(item, rec, 0, int(completed.Add(1)), total)
				return
			}

			start := time.Now()
			rec := c.fetchOne(ctx, item)
			results[i] = rec
			c.observe(item, rec, time.Since(start), int(completed.Add(1)), total)
		}(i)
	}

	wg.Wait()
	return results
}

// fetchOne runs the per-item pipeline: fresh session, navigate, settle,
// extract. The session is released on every exit path. All errors collapse
// into the degraded record for this item.
func (c *Coordinator) fetchOne(ctx context.Context, item LinkItem) QuestionRecord {
	if err := c.pacer.Wait(ctx); err != nil {
		c.logger.Warn("pacing aborted", zap.String("url", item.Link), zap.Error(err))
		return FailedRecord(item)
	}
	sess, err := c.sessions.NewSession(ctx)
	if err != nil {
		c.logger.Warn("session open failed", zap.String("url", item.Link), zap.Error(err))
		return FailedRecord(item)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, item.Link); err != nil {
		c.logger.Warn("navigate failed", zap.String("url", item.Link), zap.Error(err))
		return FailedRecord(item)
	}
	markup, err := sess.Content(ctx)
	if err != nil {
		c.logger.Warn("content read failed", zap.String("url", item.Link), zap.Error(err))
		return FailedRecord(item)
	}
	return c.extractor.Extract(item, markup)
}

func (c *Coordinator) observe(item LinkItem, rec QuestionRecord, dur time.Duration, completed, total int) {
	c.logger.Debug("item done",
		zap.String("url", item.Link),
		zap.Int("topic", item.Key.Topic),
		zap.Int("question", item.Key.Question),
		zap.Bool("failed", rec.Failed),
		zap.Int("completed", completed),
		zap.Int("total", total),
	)
	if c.emitter == nil {
		return
	}
	c.emitter.Emit(progress.Event{
		RunID:     c.runID,
		TS:        time.Now().UTC(),
		Stage:     progress.StageFetchDone,
		URL:       item.Link,
		Completed: completed,
		Total:     total,
		Failed:    rec.Failed,
		Dur:       dur,
	})
}
