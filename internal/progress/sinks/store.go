package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/jfalgout/examdump/internal/progress"
)

// Snapshot is the externally visible progress state of the current run.
type Snapshot struct {
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Failed    int       `json:"failed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreSink keeps an in-memory snapshot of the latest progress state. The
// ops endpoint reads it; nothing in the pipeline depends on it.
type StoreSink struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewStoreSink returns an empty snapshot store.
func NewStoreSink() *StoreSink {
	return &StoreSink{}
}

// Consume folds the batch into the snapshot.
func (s *StoreSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.snap.RunID = evt.RunID.String()
		s.snap.Stage = string(evt.Stage)
		s.snap.UpdatedAt = evt.TS
		if evt.Stage == progress.StageFetchDone {
			s.snap.Completed = evt.Completed
			s.snap.Total = evt.Total
			if evt.Failed {
				s.snap.Failed++
			}
		}
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (s *StoreSink) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
