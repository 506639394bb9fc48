package progress

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSinkTimeout = 5 * time.Second
	defaultBufferSize  = 256
)

// Tracker fans individual events out to registered sinks. Emit is safe for
// concurrent use by the fetch workers and never blocks them: events go
// through a buffered channel drained by a background goroutine, and a full
// buffer drops the event rather than stalling the pipeline. A misbehaving
// sink is logged and skipped.
type Tracker struct {
	sinks       []Sink
	logger      *zap.Logger
	sinkTimeout time.Duration

	events chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewTracker wires sinks into a Tracker and starts its dispatch loop. A nil
// logger is replaced with a no-op logger.
func NewTracker(logger *zap.Logger, sinks ...Sink) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		sinks:       append([]Sink(nil), sinks...),
		logger:      logger,
		sinkTimeout: defaultSinkTimeout,
		events:      make(chan Event, defaultBufferSize),
		done:        make(chan struct{}),
	}
	go t.run()
	return t
}

// Emit validates evt and queues it for dispatch. Emit returns immediately;
// invalid events and events that do not fit the buffer are dropped, since
// progress is advisory.
func (t *Tracker) Emit(evt Event) {
	if t == nil {
		return
	}
	if err := evt.Validate(); err != nil {
		t.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.events <- evt:
	default:
		t.logger.Debug("progress buffer full, dropping event", zap.String("stage", string(evt.Stage)))
	}
}

func (t *Tracker) run() {
	defer close(t.done)
	for evt := range t.events {
		t.dispatch(evt)
	}
}

func (t *Tracker) dispatch(evt Event) {
	for _, sink := range t.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), t.sinkTimeout)
		if err := sink.Consume(ctx, []Event{evt}); err != nil {
			t.logger.Warn("progress sink rejected event", zap.Error(err))
		}
		cancel()
	}
}

// Close drains any queued events, then closes all sinks. Emit calls after
// Close are ignored. Draining is bounded by ctx.
func (t *Tracker) Close(ctx context.Context) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.events)
	t.mu.Unlock()

	select {
	case <-t.done:
	case <-ctx.Done():
		t.logger.Warn("progress drain interrupted", zap.Error(ctx.Err()))
	}

	var firstErr error
	for _, sink := range t.sinks {
		if err := sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
