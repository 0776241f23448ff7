package stategraph

import (
	"time"

	"github.com/kirtanmodi/stategraph/pkg/stategraph/observability"
)

// runConfig holds per-run settings assembled from RunOptions.
type runConfig struct {
	threadID               string
	checkpointEveryStep    bool
	checkpointFailureFatal bool
	observer               StepObserver
	metrics                observability.MetricsRecorder
	spans                  observability.SpanManager
	sequence               int64
}

func defaultRunConfig() runConfig {
	return runConfig{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// RunOption configures a single Invoke or Resume call.
type RunOption func(*runConfig)

// WithThreadID keys the run to a persistent conversation thread. The
// thread's checkpoint is loaded before the first step (a missing
// checkpoint means a fresh thread) and saved when the run reaches END or
// is cancelled. Requires a checkpoint store on the Context; without one
// the run fails with ErrStoreRequired.
func WithThreadID(id string) RunOption {
	return func(c *runConfig) {
		c.threadID = id
	}
}

// WithCheckpointEveryStep saves the thread after every step instead of
// only at the end of the run, trading write volume for a smaller
// replay window after a crash. No effect without a thread ID.
func WithCheckpointEveryStep() RunOption {
	return func(c *runConfig) {
		c.checkpointEveryStep = true
	}
}

// WithFailFastCheckpoints makes checkpoint persistence failures abort
// the run with *CheckpointError. The default is to log the failure and
// keep going: losing a checkpoint is usually preferable to losing the
// run.
func WithFailFastCheckpoints() RunOption {
	return func(c *runConfig) {
		c.checkpointFailureFatal = true
	}
}

// WithStepObserver registers fn to be called synchronously after every
// executed step. Keep it fast; the run waits for it.
func WithStepObserver(fn StepObserver) RunOption {
	return func(c *runConfig) {
		c.observer = fn
	}
}

// WithMetrics enables OpenTelemetry metrics for this run, using the
// global meter provider.
func WithMetrics() RunOption {
	return func(c *runConfig) {
		c.metrics = observability.NewMetricsRecorder()
	}
}

// WithTracing enables OpenTelemetry tracing for this run, using the
// global tracer provider. Node spans nest under a run span.
func WithTracing() RunOption {
	return func(c *runConfig) {
		c.spans = observability.NewSpanManager()
	}
}

// StepEvent describes one executed step, delivered to a StepObserver
// after the node ran and its route was resolved.
type StepEvent struct {
	// Node that executed.
	Node string

	// Kind the node was registered with.
	Kind NodeKind

	// Step counter value when the node ran (zero-based).
	Step int

	// Duration of the node function.
	Duration time.Duration

	// Err is the node's error, nil on success. A non-nil Err here was
	// recovered into the transcript; the run continued.
	Err error

	// Next is the resolved routing target (a node name or END), or ""
	// when routing failed and the run is about to abort.
	Next string
}

// StepObserver receives StepEvents synchronously during a run.
type StepObserver func(event StepEvent)
