package receiver

import (
	"context"
	"log/slog"
)

// Sink receives analyzed exports. Consume must be safe for concurrent use.
type Sink interface {
	Consume(ctx context.Context, res Result)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, res Result)

// Consume calls f.
func (f SinkFunc) Consume(ctx context.Context, res Result) { f(ctx, res) }

// LogSink writes a one-line summary per export. Exports with anomalies or a
// mapped stack trace are logged at warn level, the rest at debug.
type LogSink struct {
	Logger *slog.Logger
}

// Consume implements Sink.
func (s *LogSink) Consume(ctx context.Context, res Result) {
	r := res.Report
	level := slog.LevelDebug
	if r.Combined.TotalAnomalies > 0 || r.Mapping.Found() {
		level = slog.LevelWarn
	}

	attrs := []any{
		"id", r.ID,
		"signal", res.Signal,
		"transport", res.Transport,
		"records", res.Records,
		"anomalies", r.Counts.Total,
		"critical", r.Counts.Critical,
		"high", r.Counts.High,
	}
	if rc := r.Mapping.RootCause; rc != nil {
		attrs = append(attrs,
			"error", r.Mapping.ErrorMessage,
			"root_cause", rc.File,
			"line", rc.Line,
			"function", rc.Function)
	}

	s.Logger.Log(ctx, level, "Analyzed export", attrs...)
}
