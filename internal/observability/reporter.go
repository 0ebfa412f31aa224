package observability

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/disdro-l0/internal/domain"
)

// LogReporter writes station events to a structured logger. Failures log at
// error level and soft warnings at warn.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs one event.
func (r *LogReporter) Report(ctx context.Context, ev domain.StationEvent) {
	level := slog.LevelInfo
	switch {
	case ev.State == domain.StateFailed:
		level = slog.LevelError
	case ev.Kind != "":
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("run_id", ev.RunID),
		slog.String("station", ev.Station),
		slog.String("state", string(ev.State)),
	}
	if ev.Stage != "" {
		attrs = append(attrs, slog.String("stage", string(ev.Stage)))
	}
	if ev.Kind != "" {
		attrs = append(attrs, slog.String("kind", ev.Kind))
	}
	if ev.Rows > 0 {
		attrs = append(attrs, slog.Int("rows", ev.Rows))
	}

	msg := ev.Message
	if msg == "" {
		msg = "station " + string(ev.State)
	}
	r.logger.LogAttrs(ctx, level, msg, attrs...)
}
