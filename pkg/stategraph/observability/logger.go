// Package observability provides structured logging, metrics, and
// distributed tracing for stategraph runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Metrics and tracing are opt-in and have no-op implementations when
// disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds run position to a logger. Returns a new logger with
// run_id, node, and step fields.
func EnrichLogger(logger *slog.Logger, runID, node string, step int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node", node),
		slog.Int("step", step),
	)
}

// LogRunStart logs the start of a graph run. threadID may be empty for
// unthreaded runs.
func LogRunStart(logger *slog.Logger, graph, runID, threadID string) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("graph", graph),
		slog.String("run_id", runID),
	}
	if threadID != "" {
		attrs = append(attrs, slog.String("thread_id", threadID))
	}
	logger.Info("graph run starting", attrs...)
}

// LogRunComplete logs successful graph run completion.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Info("graph run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogRunError logs graph run failure.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("graph run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, node string, step int) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node", node),
		slog.Int("step", step),
	)
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, node string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node", node),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs a node failure that was converted into a transcript
// message. Warn, not Error: the run keeps going.
func LogNodeError(logger *slog.Logger, node string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("node failed, error recorded in transcript",
		slog.String("node", node),
		slog.String("error", err.Error()),
	)
}

// LogCheckpoint logs checkpoint creation.
func LogCheckpoint(logger *slog.Logger, threadID string, sequence int64, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("thread_id", threadID),
		slog.Int64("sequence", sequence),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogCheckpointError logs a checkpoint failure (non-fatal by default).
func LogCheckpointError(logger *slog.Logger, threadID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("checkpoint failed",
		slog.String("thread_id", threadID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation. Returns a
// function that, when called, returns the elapsed time in milliseconds.
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
