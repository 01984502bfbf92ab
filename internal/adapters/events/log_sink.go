package events

import (
	"context"
	"log/slog"

	"github.com/trebuchet-org/dvote/internal/domain"
)

// LogSink writes every event to the structured log
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a sink that logs at info level
func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log.With("component", "events")}
}

func (s *LogSink) Publish(ctx context.Context, events ...domain.Event) error {
	for _, e := range events {
		s.log.InfoContext(ctx, e.String(), "event", e.EventName())
	}
	return nil
}

// NopSink drops every event
type NopSink struct{}

func (NopSink) Publish(context.Context, ...domain.Event) error { return nil }
