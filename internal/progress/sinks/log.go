// Package sinks provides progress.Sink implementations: structured logs,
// Prometheus collectors, and an in-memory snapshot for the ops endpoint.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/jfalgout/examdump/internal/progress"
)

// LogSink emits structured logs for progress streams. Useful during
// development or when no ops surface is running.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.logger.Info("progress",
			zap.String("run_id", evt.RunID.String()),
			zap.String("stage", string(evt.Stage)),
			zap.String("url", evt.URL),
			zap.Int("completed", evt.Completed),
			zap.Int("total", evt.Total),
			zap.Bool("failed", evt.Failed),
			zap.Duration("dur", evt.Dur),
			zap.String("note", evt.Note),
		)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
