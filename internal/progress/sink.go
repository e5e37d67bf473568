package progress

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// timeNow is swapped in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// Sink consumes progress events. Implementations must tolerate being called
// sequentially from a single crawl goroutine.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Reporter fans events out to the configured sinks synchronously. A sink
// failure is logged and never interrupts the crawl.
type Reporter struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewReporter wires the sinks behind one publish point.
func NewReporter(logger *zap.Logger, sinks ...Sink) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{sinks: sinks, logger: logger}
}

// Publish stamps and validates the event, then hands it to every sink.
func (r *Reporter) Publish(ctx context.Context, evt Event) {
	if evt.TS.IsZero() {
		evt.TS = timeNow()
	}
	if err := evt.Validate(); err != nil {
		r.logger.Warn("dropping invalid progress event", zap.Error(err))
		return
	}
	batch := []Event{evt}
	for _, sink := range r.sinks {
		if err := sink.Consume(ctx, batch); err != nil {
			r.logger.Warn("progress sink failed", zap.Error(err))
		}
	}
}

// Close closes every sink, returning the first error encountered.
func (r *Reporter) Close(ctx context.Context) error {
	var firstErr error
	for _, sink := range r.sinks {
		if err := sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
