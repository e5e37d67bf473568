// Package sinks provides the progress.Sink implementations.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/civicgrid/planportal-crawler/internal/progress"
)

// LogSink emits structured logs for each progress event. It is the
// crawl's user-visible progress display.
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
		fields := []zap.Field{
			zap.String("pass", evt.Pass),
			zap.String("stage", string(evt.Stage)),
		}
		if evt.Reference != "" {
			fields = append(fields, zap.String("reference", evt.Reference))
		}
		if evt.URL != "" {
			fields = append(fields, zap.String("url", evt.URL))
		}
		if evt.Outcome != "" {
			fields = append(fields, zap.String("outcome", evt.Outcome))
		}
		if evt.Reason != "" {
			fields = append(fields, zap.String("reason", evt.Reason))
		}
		if evt.DocType != "" {
			fields = append(fields, zap.String("doc_type", evt.DocType), zap.Int64("bytes", evt.Bytes))
		}
		if evt.Stage == progress.StagePassStart {
			fields = append(fields, zap.Int("cases", evt.Total))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("dur", evt.Dur))
		}
		s.logger.Info("crawl progress", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
