package progress

import "context"

// Sink consumes batches of progress events. Implementations must tolerate
// repeated calls, honor ctx deadlines, and may be invoked concurrently.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events. Tracker satisfies this interface so
// the pipeline stays agnostic about where events end up.
type Emitter interface {
	Emit(evt Event)
}
