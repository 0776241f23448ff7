package stategraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/kirtanmodi/stategraph/pkg/stategraph/checkpoint"
	"github.com/kirtanmodi/stategraph/pkg/stategraph/model"
	"github.com/kirtanmodi/stategraph/pkg/stategraph/observability"
)

// Invoke runs the graph from its entry point until a route reaches END,
// and returns the final accumulated state.
//
// Each step executes one node and merges its partial update into the
// state: transcript messages append, other channels overwrite. A node
// that returns an error does not abort the run; the error is appended to
// the transcript as a message and routing continues. Fatal conditions
// are structural: an unresolvable routing key (*RoutingKeyError), a node
// with no outgoing edge (*NoOutgoingEdgeError), a node panic
// (*PanicError), or hitting the compiled recursion limit
// (*RecursionLimitError, which carries the partial state).
//
// Cancellation is cooperative. The context is checked between steps, and
// cancellation returns *CancelledError with everything accumulated so
// far; it never interrupts a node mid-flight.
//
// With WithThreadID the run is persistent: the thread's checkpoint is
// loaded first and the initial state merged over it as an update, and
// the final state is saved when the run reaches END or is cancelled.
// A single run is strictly sequential; runs with distinct thread IDs may
// execute concurrently on the same CompiledGraph.
func (cg *CompiledGraph) Invoke(ctx Context, initial State, opts ...RunOption) (State, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ec := asExecutionContext(ctx)

	state := initial.Clone()
	if cfg.threadID != "" {
		loaded, cp, err := cg.loadThread(ec, &cfg)
		if err != nil {
			return nil, err
		}
		if cp != nil {
			cfg.sequence = cp.Sequence
			state = cg.applyUpdate(loaded, initial)
		}
	}

	return cg.run(ec, state, cg.entryPoint, &cfg)
}

// loadThread fetches and decodes a thread's checkpoint. A missing
// checkpoint means a fresh thread, not an error.
func (cg *CompiledGraph) loadThread(ec *executionContext, cfg *runConfig) (State, *checkpoint.Checkpoint, error) {
	store := ec.store
	if store == nil {
		return nil, nil, ErrStoreRequired
	}

	data, err := store.Load(ec, cfg.threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, &CheckpointError{ThreadID: cfg.threadID, Op: "load", Err: err}
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return nil, nil, &CheckpointError{ThreadID: cfg.threadID, Op: "decode", Err: err}
	}

	var state State
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}
	return state, cp, nil
}

// run wraps the execution loop with run-level logging, metrics, and
// tracing.
func (cg *CompiledGraph) run(ec *executionContext, state State, startNode string, cfg *runConfig) (State, error) {
	start := time.Now()
	observability.LogRunStart(ec.logger, cg.name, ec.runID, cfg.threadID)

	spanCtx, span := cfg.spans.StartRunSpan(ec.Context, cg.name, ec.runID)
	runEC := ec.withSpanContext(spanCtx)

	final, steps, err := cg.runFrom(runEC, state, startNode, cfg)

	duration := time.Since(start)
	cfg.spans.EndSpanWithError(span, err)
	cfg.metrics.RecordGraphRun(runEC.Context, err == nil, duration, steps)

	durationMs := float64(duration.Milliseconds())
	if err != nil {
		observability.LogRunError(ec.logger, ec.runID, err, durationMs, lastNodeOf(err))
	} else {
		observability.LogRunComplete(ec.logger, ec.runID, durationMs, steps)
	}
	return final, err
}

// runFrom is the execution loop. Per step: check for terminal, check
// cancellation, charge the recursion limit, execute the node, merge its
// update, resolve the next node. The returned step count is the number
// of node executions performed.
func (cg *CompiledGraph) runFrom(ec *executionContext, state State, startNode string, cfg *runConfig) (State, int, error) {
	current := startNode
	steps := 0

	for {
		if current == END {
			if err := cg.saveFinal(ec, cfg, state, END, steps); err != nil {
				return state, steps, err
			}
			return state, steps, nil
		}

		// Cooperative cancellation between steps. The final save runs
		// anyway so the thread can be resumed from this exact point.
		select {
		case <-ec.Done():
			cerr := &CancelledError{Node: current, State: state, Cause: ec.Err()}
			if err := cg.saveFinal(ec, cfg, state, current, steps); err != nil {
				return state, steps, errors.Join(cerr, err)
			}
			return state, steps, cerr
		default:
		}

		if steps >= cg.recursionLimit {
			return state, steps, &RecursionLimitError{
				Limit:    cg.recursionLimit,
				Steps:    steps,
				LastNode: current,
				State:    state,
			}
		}

		n, ok := cg.nodes[current]
		if !ok {
			return state, steps, &UnknownNodeError{Node: current, Ref: "executor"}
		}

		nodeEC := ec.withNode(current, steps)
		observability.LogNodeStart(nodeEC.logger, current, steps)
		spanCtx, span := cfg.spans.StartNodeSpan(ec.Context, current, steps)

		nodeStart := time.Now()
		update, nodeErr := cg.executeNode(nodeEC.withSpanContext(spanCtx), n, current, state)
		nodeDuration := time.Since(nodeStart)

		cfg.spans.EndSpanWithError(span, nodeErr)
		cfg.metrics.RecordNodeExecution(ec.Context, current, nodeDuration, nodeErr)

		if nodeErr != nil {
			var pe *PanicError
			if errors.As(nodeErr, &pe) {
				return state, steps, nodeErr
			}
			// Node failures feed back into the conversation instead of
			// aborting: the transcript shows the error and routing
			// decides what happens next.
			state = cg.applyUpdate(state, errorUpdate(n.kind, nodeErr))
			observability.LogNodeError(nodeEC.logger, current, nodeErr)
		} else {
			state = cg.applyUpdate(state, update)
			observability.LogNodeComplete(nodeEC.logger, current, float64(nodeDuration.Milliseconds()))
		}

		next, routeErr := cg.nextNode(nodeEC, current, state)

		if cfg.observer != nil {
			cfg.observer(StepEvent{
				Node:     current,
				Kind:     n.kind,
				Step:     steps,
				Duration: nodeDuration,
				Err:      nodeErr,
				Next:     next,
			})
		}

		if routeErr != nil {
			return state, steps, routeErr
		}

		steps++

		if cfg.checkpointEveryStep {
			if err := cg.saveStep(ec, cfg, state, next, steps); err != nil {
				return state, steps, err
			}
		}

		current = next
	}
}

// executeNode invokes one node with panic recovery. The returned error
// is the node's own error, or *PanicError when it panicked.
func (cg *CompiledGraph) executeNode(ec *executionContext, n node, name string, state State) (update State, err error) {
	defer func() {
		if r := recover(); r != nil {
			update = nil
			err = &PanicError{
				Node:  name,
				Value: r,
				Stack: string(debug.Stack()),
			}
		}
	}()
	return n.fn(ec, state)
}

// errorUpdate turns a node failure into a visible transcript entry so
// capability errors never vanish. Tool nodes report with the tool role,
// everything else as the assistant.
func errorUpdate(kind NodeKind, err error) State {
	msg := model.Message{
		Role:    model.RoleAssistant,
		Content: fmt.Sprintf("error: %v", err),
	}
	if kind == KindTool {
		msg.Role = model.RoleTool
	}
	return Append(msg)
}

// nextNode resolves where control flows after current: the conditional
// edge when one exists, the unconditional edge otherwise.
func (cg *CompiledGraph) nextNode(ec *executionContext, current string, state State) (string, error) {
	if ce, ok := cg.conditionalEdges[current]; ok {
		key := ce.router(ec, state)
		if target, ok := ce.targets[key]; ok {
			return target, nil
		}
		if ce.defaultTarget != "" {
			return ce.defaultTarget, nil
		}
		cause := ErrUnknownRoutingKey
		if key == "" {
			cause = ErrEmptyRoutingKey
		}
		return "", &RoutingKeyError{Node: current, Key: key, State: state, Err: cause}
	}
	if target, ok := cg.edges[current]; ok {
		return target, nil
	}
	return "", &NoOutgoingEdgeError{Node: current, State: state}
}

// saveFinal persists the end-of-run checkpoint. It detaches from the
// run's cancellation: the save after a cancel is what makes resumable
// threads work.
func (cg *CompiledGraph) saveFinal(ec *executionContext, cfg *runConfig, state State, nextNode string, steps int) error {
	if cfg.threadID == "" {
		return nil
	}
	return cg.persist(context.WithoutCancel(ec.Context), ec, cfg, state, nextNode, steps)
}

// saveStep persists a mid-run checkpoint for WithCheckpointEveryStep.
func (cg *CompiledGraph) saveStep(ec *executionContext, cfg *runConfig, state State, nextNode string, steps int) error {
	if cfg.threadID == "" {
		return nil
	}
	return cg.persist(ec.Context, ec, cfg, state, nextNode, steps)
}

// persist serializes and writes one checkpoint. Failures are logged and
// swallowed unless WithFailFastCheckpoints was set.
func (cg *CompiledGraph) persist(ctx context.Context, ec *executionContext, cfg *runConfig, state State, nextNode string, steps int) error {
	store := ec.store
	if store == nil {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return cg.checkpointFailure(ec, cfg, "serialize", err)
	}

	cfg.sequence++
	cp := checkpoint.New(cfg.threadID, ec.runID, data, nextNode).
		WithSteps(steps).
		WithSequence(cfg.sequence)

	payload, err := cp.Marshal()
	if err != nil {
		return cg.checkpointFailure(ec, cfg, "marshal", err)
	}
	if err := store.Save(ctx, cfg.threadID, payload); err != nil {
		return cg.checkpointFailure(ec, cfg, "save", err)
	}

	observability.LogCheckpoint(ec.logger, cfg.threadID, cfg.sequence, len(payload))
	cfg.metrics.RecordCheckpoint(ctx, cfg.threadID, int64(len(payload)))
	return nil
}

// checkpointFailure applies the run's persistence failure policy.
func (cg *CompiledGraph) checkpointFailure(ec *executionContext, cfg *runConfig, op string, err error) error {
	if cfg.checkpointFailureFatal {
		return &CheckpointError{ThreadID: cfg.threadID, Op: op, Err: err}
	}
	observability.LogCheckpointError(ec.logger, cfg.threadID, op, err)
	return nil
}

// lastNodeOf extracts the node a fatal error stopped at, for log fields.
func lastNodeOf(err error) string {
	var limitErr *RecursionLimitError
	if errors.As(err, &limitErr) {
		return limitErr.LastNode
	}
	var routeErr *RoutingKeyError
	if errors.As(err, &routeErr) {
		return routeErr.Node
	}
	var edgeErr *NoOutgoingEdgeError
	if errors.As(err, &edgeErr) {
		return edgeErr.Node
	}
	var cancelErr *CancelledError
	if errors.As(err, &cancelErr) {
		return cancelErr.Node
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return panicErr.Node
	}
	return ""
}
