package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// captureLogger returns a debug-level text logger writing into buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestEnrichLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := EnrichLogger(captureLogger(&buf), "run-7", "draft", 2)

	logger.Info("hello")

	out := buf.String()
	assert.Contains(t, out, "run_id=run-7")
	assert.Contains(t, out, "node=draft")
	assert.Contains(t, out, "step=2")
}

func TestEnrichLogger_Nil(t *testing.T) {
	assert.Nil(t, EnrichLogger(nil, "run-1", "node", 0))
}

func TestLogRunStart(t *testing.T) {
	t.Run("threaded run includes thread_id", func(t *testing.T) {
		var buf bytes.Buffer
		LogRunStart(captureLogger(&buf), "support-bot", "run-1", "thread-9")

		out := buf.String()
		assert.Contains(t, out, "graph run starting")
		assert.Contains(t, out, "graph=support-bot")
		assert.Contains(t, out, "run_id=run-1")
		assert.Contains(t, out, "thread_id=thread-9")
	})

	t.Run("unthreaded run omits thread_id", func(t *testing.T) {
		var buf bytes.Buffer
		LogRunStart(captureLogger(&buf), "support-bot", "run-1", "")

		assert.NotContains(t, buf.String(), "thread_id")
	})
}

func TestLogRunComplete(t *testing.T) {
	var buf bytes.Buffer
	LogRunComplete(captureLogger(&buf), "run-1", 12.5, 4)

	out := buf.String()
	assert.Contains(t, out, "graph run completed")
	assert.Contains(t, out, "duration_ms=12.5")
	assert.Contains(t, out, "steps=4")
}

func TestLogRunError(t *testing.T) {
	var buf bytes.Buffer
	LogRunError(captureLogger(&buf), "run-1", errors.New("recursion limit 3 reached"), 8.0, "agent")

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "graph run failed")
	assert.Contains(t, out, "recursion limit 3 reached")
	assert.Contains(t, out, "last_node=agent")
}

func TestLogNodeError_WarnsAndContinues(t *testing.T) {
	var buf bytes.Buffer
	LogNodeError(captureLogger(&buf), "search", errors.New("rate limited"))

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "node failed")
	assert.Contains(t, out, "node=search")
	assert.Contains(t, out, "rate limited")
}

func TestLogNodeLifecycle(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	LogNodeStart(logger, "draft", 0)
	LogNodeComplete(logger, "draft", 3.0)

	out := buf.String()
	assert.Contains(t, out, "node starting")
	assert.Contains(t, out, "node completed")
	assert.Contains(t, out, "step=0")
}

func TestLogCheckpoint(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	LogCheckpoint(logger, "thread-1", 3, 512)
	LogCheckpointError(logger, "thread-1", "save", errors.New("disk full"))

	out := buf.String()
	assert.Contains(t, out, "checkpoint saved")
	assert.Contains(t, out, "sequence=3")
	assert.Contains(t, out, "size_bytes=512")
	assert.Contains(t, out, "checkpoint failed")
	assert.Contains(t, out, "operation=save")
	assert.Contains(t, out, "disk full")
}

// TestLogHelpers_NilLogger tests that every helper tolerates a nil
// logger.
func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogRunStart(nil, "g", "r", "t")
		LogRunComplete(nil, "r", 1.0, 1)
		LogRunError(nil, "r", errors.New("e"), 1.0, "n")
		LogNodeStart(nil, "n", 0)
		LogNodeComplete(nil, "n", 1.0)
		LogNodeError(nil, "n", errors.New("e"))
		LogCheckpoint(nil, "t", 1, 1)
		LogCheckpointError(nil, "t", "save", errors.New("e"))
	})
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(20 * time.Millisecond)
	elapsed := done()

	assert.GreaterOrEqual(t, elapsed, 10.0)
	assert.Less(t, elapsed, 5000.0)
}
