package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to checkpoint structure.
const Version = 1

// Checkpoint is the persisted snapshot of a thread. It contains the
// serialized run state plus everything needed to resume an interrupted
// run: the node to execute next and the step budget already spent.
type Checkpoint struct {
	// Metadata
	Version   int       `json:"version"`
	ThreadID  string    `json:"thread_id"`
	RunID     string    `json:"run_id"`
	Sequence  int64     `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`

	// Execution state
	State    json.RawMessage `json:"state"`
	NextNode string          `json:"next_node"`
	Steps    int             `json:"steps"`
}

// Marshal serializes a checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON. Checkpoints written by
// a newer format version fail with ErrUnsupportedVersion.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Version > Version {
		return nil, fmt.Errorf("%w: checkpoint version %d, supported up to %d", ErrUnsupportedVersion, c.Version, Version)
	}
	return &c, nil
}

// New creates a checkpoint for a thread. State must already be
// JSON-serialized. NextNode is the node the run would execute next, or
// the terminal marker when the run completed.
func New(threadID, runID string, state []byte, nextNode string) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		ThreadID:  threadID,
		RunID:     runID,
		Sequence:  1,
		CreatedAt: time.Now().UTC(),
		State:     state,
		NextNode:  nextNode,
	}
}

// WithSteps records how many steps the run had executed when saved.
func (c *Checkpoint) WithSteps(steps int) *Checkpoint {
	c.Steps = steps
	return c
}

// WithSequence sets the save counter for the thread.
func (c *Checkpoint) WithSequence(seq int64) *Checkpoint {
	c.Sequence = seq
	return c
}
