// Package progress defines the advisory events emitted by the scrape
// pipeline. Progress is observable, never a control signal: dropping or
// delaying events must not affect the run.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageRunStart  Stage = "RUN_START"
	StageRunDone   Stage = "RUN_DONE"
	StageRunError  Stage = "RUN_ERROR"
	StageListing   Stage = "LISTING_PAGE"
	StageFetchDone Stage = "FETCH_DONE"
)

// Event captures a single pipeline milestone.
type Event struct {
	// RunID identifies one scrape run.
	RunID uuid.UUID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage is the milestone type.
	Stage Stage
	// URL optionally scopes fetch events to the page being processed.
	URL string
	// Completed and Total describe fetch-phase progress (completed of N).
	Completed int
	Total     int
	// Failed marks a fetch that produced a degraded record.
	Failed bool
	// Dur is the wall time of the completed unit.
	Dur time.Duration
	// Note carries low-volume context such as error text.
	Note string
}

// Validate performs coarse checks before an event is fanned out.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError, StageListing:
	case StageFetchDone:
		if e.Total <= 0 || e.Completed < 0 || e.Completed > e.Total {
			return fmt.Errorf("fetch done requires 0 <= completed <= total, got %d/%d", e.Completed, e.Total)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
