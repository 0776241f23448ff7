package stategraph

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirtanmodi/stategraph/pkg/stategraph/checkpoint"
)

// Resume continues an interrupted thread from its last checkpoint,
// starting at the node the run was about to execute when it stopped.
// The resumed run gets a fresh recursion limit.
//
// A thread whose checkpoint already reached END cannot be resumed;
// Resume returns ErrThreadCompleted together with the final state, so
// the thread stays inspectable. To continue the conversation instead,
// call Invoke with the same thread ID and new input.
func (cg *CompiledGraph) Resume(ctx Context, threadID string, opts ...RunOption) (State, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if threadID == "" {
		return nil, checkpoint.ErrEmptyThreadID
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.threadID = threadID

	ec := asExecutionContext(ctx)
	store := ec.store
	if store == nil {
		return nil, ErrStoreRequired
	}

	data, err := store.Load(ec, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNoCheckpoint, threadID)
	}
	if err != nil {
		return nil, &CheckpointError{ThreadID: threadID, Op: "load", Err: err}
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return nil, &CheckpointError{ThreadID: threadID, Op: "decode", Err: err}
	}

	var state State
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}

	if cp.NextNode == END {
		return state, fmt.Errorf("%w: %q", ErrThreadCompleted, threadID)
	}
	if !cg.HasNode(cp.NextNode) {
		return state, fmt.Errorf("%w: %q", ErrInvalidResumeNode, cp.NextNode)
	}

	cfg.sequence = cp.Sequence
	return cg.run(ec, state, cp.NextNode, &cfg)
}
