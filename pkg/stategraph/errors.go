package stategraph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for graph validation and execution.
var (
	// Graph construction/compilation errors
	ErrNoEntryPoint    = errors.New("entry point not set")
	ErrEntryNotFound   = errors.New("entry point node not found")
	ErrUnreachableNode = errors.New("node unreachable from entry point")

	// Execution errors
	ErrRecursionLimit    = errors.New("recursion limit exceeded")
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyRoutingKey   = errors.New("router returned empty key")
	ErrUnknownRoutingKey = errors.New("routing key not in target map")
	ErrNoOutgoingEdge    = errors.New("no outgoing edge")

	// Checkpoint/resume errors
	ErrStoreRequired     = errors.New("checkpoint store required when thread ID is set")
	ErrNoCheckpoint      = errors.New("no checkpoint for thread")
	ErrThreadCompleted   = errors.New("thread already completed")
	ErrInvalidResumeNode = errors.New("resume node not found in graph")
	ErrDeserializeState  = errors.New("failed to deserialize state")
)

// DuplicateNodeError reports an AddNode call reusing an existing node
// name. It is delivered by panic: registering the same name twice is a
// programming error, not a runtime condition.
type DuplicateNodeError struct {
	Node string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node name %q", e.Node)
}

// UnknownNodeError reports a reference to a node name that was never
// registered. Ref says where the reference came from (edge source, edge
// target, conditional target, default target).
type UnknownNodeError struct {
	Node string
	Ref  string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %q referenced as %s", e.Node, e.Ref)
}

// GraphValidationError is returned by Compile when the graph is not
// runnable. Issues holds every problem found, not just the first, so a
// misconfigured graph can be fixed in one pass.
type GraphValidationError struct {
	Issues []error
}

func (e *GraphValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Error()
	}
	return fmt.Sprintf("graph validation failed: %s", strings.Join(msgs, "; "))
}

// Unwrap exposes the individual issues to errors.Is and errors.As.
func (e *GraphValidationError) Unwrap() []error {
	return e.Issues
}

// RecursionLimitError is returned when a run performs Limit steps
// without reaching END. LastNode is the node that was about to execute,
// and State carries everything accumulated so far, so the partial
// transcript survives the failure.
type RecursionLimitError struct {
	Limit    int
	Steps    int
	LastNode string
	State    State
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("recursion limit %d reached after %d steps, at node %q", e.Limit, e.Steps, e.LastNode)
}

func (e *RecursionLimitError) Unwrap() error {
	return ErrRecursionLimit
}

// RoutingKeyError is returned when a router's key misses the target map
// and the edge has no default target. Routing failures are fatal and
// leave State exactly as it was after the source node's update.
type RoutingKeyError struct {
	Node  string
	Key   string
	State State
	Err   error
}

func (e *RoutingKeyError) Error() string {
	return fmt.Sprintf("routing from node %q: key %q: %v", e.Node, e.Key, e.Err)
}

func (e *RoutingKeyError) Unwrap() error {
	return e.Err
}

// NoOutgoingEdgeError is returned when a node completes but has neither
// a conditional edge nor an unconditional edge to follow.
type NoOutgoingEdgeError struct {
	Node  string
	State State
}

func (e *NoOutgoingEdgeError) Error() string {
	return fmt.Sprintf("no outgoing edge from node %q", e.Node)
}

func (e *NoOutgoingEdgeError) Unwrap() error {
	return ErrNoOutgoingEdge
}

// CancelledError is returned when the run's context is cancelled between
// steps. Node is the node that would have executed next and State holds
// everything accumulated before cancellation; with a thread ID the run
// can be resumed from exactly this point.
type CancelledError struct {
	Node  string
	State State
	Cause error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("run cancelled before node %q: %v", e.Node, e.Cause)
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a panic recovered from a node function. Unlike plain
// error returns, which feed back into the transcript, panics abort the
// run.
type PanicError struct {
	Node  string
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in node %q: %v", e.Node, e.Value)
}

// CheckpointError wraps a checkpoint persistence failure.
type CheckpointError struct {
	ThreadID string
	Op       string // "load", "decode", "serialize", "marshal", "save"
	Err      error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s for thread %q: %v", e.Op, e.ThreadID, e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}
