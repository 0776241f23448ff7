package stategraph

import (
	"context"
	"errors"

	"github.com/kirtanmodi/stategraph/pkg/stategraph/checkpoint"
	"github.com/kirtanmodi/stategraph/pkg/stategraph/model"
)

// Helper node functions shared across tests

// sayNode returns a node that appends one assistant message.
func sayNode(content string) NodeFunc {
	return func(ctx Context, s State) (State, error) {
		return Append(model.NewAssistantMessage(content)), nil
	}
}

// trackNode records its execution order and appends one assistant
// message named after itself.
func trackNode(name string, tracker *[]string) NodeFunc {
	return func(ctx Context, s State) (State, error) {
		*tracker = append(*tracker, name)
		return Append(model.NewAssistantMessage(name)), nil
	}
}

// failNode returns the given error without touching the state.
func failNode(err error) NodeFunc {
	return func(ctx Context, s State) (State, error) {
		return nil, err
	}
}

// panicNode panics with the given value.
func panicNode(value any) NodeFunc {
	return func(ctx Context, s State) (State, error) {
		panic(value)
	}
}

// noopNode returns an empty update.
func noopNode(ctx Context, s State) (State, error) {
	return nil, nil
}

// setChannel returns a node that writes value into one state channel.
func setChannel(channel string, value any) NodeFunc {
	return func(ctx Context, s State) (State, error) {
		return State{channel: value}, nil
	}
}

// routeOn returns a router that reads its key from a state channel.
func routeOn(channel string) RouterFunc {
	return func(ctx Context, s State) string {
		key, _ := s[channel].(string)
		return key
	}
}

// routeTo returns a router that always picks the same key.
func routeTo(key string) RouterFunc {
	return func(ctx Context, s State) string {
		return key
	}
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}

// errSaveFailed is the error injected by failingStore.
var errSaveFailed = errors.New("save failed")

// failingStore wraps a MemoryStore and fails saves on demand, so tests
// can exercise the checkpoint failure policies.
type failingStore struct {
	*checkpoint.MemoryStore
	failSave bool
}

func (f *failingStore) Save(ctx context.Context, threadID string, data []byte) error {
	if f.failSave {
		return errSaveFailed
	}
	return f.MemoryStore.Save(ctx, threadID, data)
}
