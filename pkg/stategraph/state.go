package stategraph

import (
	"encoding/json"

	"github.com/kirtanmodi/stategraph/pkg/stategraph/model"
)

// MessagesKey is the reserved state channel holding the conversation
// transcript. Updates to this channel always append; they never replace
// or deduplicate prior messages.
const MessagesKey = "messages"

// State is the shared run state threaded through a graph execution. Keys
// are independent channels, each merged by its own rule when a node
// returns an update.
//
// Nodes receive the accumulated state and return a partial state holding
// only the channels they changed (a delta). Returning the full input
// state as a delta is a bug: under the append rule for messages it would
// duplicate the entire transcript.
type State map[string]any

// Reducer merges a node's update for one channel into the accumulated
// value. current is the accumulated value (nil if the channel is absent)
// and update is the node's delta for that channel.
//
// Reducers must be associative: merging a, then b, then c must produce
// the same value as merging a with the pre-merged (b, c). The built-in
// rules (append for messages, last-writer-wins elsewhere) both hold this
// property, and custom reducers are expected to preserve it.
type Reducer func(current, update any) any

// NewState builds a State holding the given transcript.
func NewState(msgs ...model.Message) State {
	return State{MessagesKey: msgs}
}

// Append builds a partial state that appends the given messages to the
// transcript. It is the conventional return value for nodes that only
// produce conversation output:
//
//	return stategraph.Append(model.NewAssistantMessage("done")), nil
func Append(msgs ...model.Message) State {
	return State{MessagesKey: msgs}
}

// Messages returns the transcript channel. Values of unexpected types in
// the channel are skipped.
func (s State) Messages() []model.Message {
	return asMessages(s[MessagesKey])
}

// LastMessage returns the newest transcript entry, or false when the
// transcript is empty.
func (s State) LastMessage() (model.Message, bool) {
	msgs := s.Messages()
	if len(msgs) == 0 {
		return model.Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Clone returns a copy of the state. The transcript slice is copied so
// appends to the clone never alias the original; other channel values
// are copied by reference.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		if k == MessagesKey {
			msgs := asMessages(v)
			copied := make([]model.Message, len(msgs))
			copy(copied, msgs)
			out[k] = copied
			continue
		}
		out[k] = v
	}
	return out
}

// UnmarshalJSON decodes a state, restoring the transcript channel to
// []model.Message rather than the generic []any that plain map decoding
// would produce.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(State, len(raw))
	for k, v := range raw {
		if k == MessagesKey {
			var msgs []model.Message
			if err := json.Unmarshal(v, &msgs); err != nil {
				return err
			}
			out[k] = msgs
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		out[k] = val
	}
	*s = out
	return nil
}

// mergeState merges a node's partial update into the accumulated state,
// channel by channel, and returns the merged state. The inputs are not
// mutated. Channels absent from the update carry over unchanged; the
// messages channel appends; channels with a registered reducer use it;
// everything else is overwritten whole.
func mergeState(state, update State, reducers map[string]Reducer) State {
	next := state.Clone()
	for ch, val := range update {
		if ch == MessagesKey {
			next[ch] = appendMessages(state[ch], val)
			continue
		}
		if r, ok := reducers[ch]; ok {
			next[ch] = r(state[ch], val)
			continue
		}
		next[ch] = val
	}
	return next
}

// appendMessages is the reducer for the transcript channel: strict
// append in arrival order, no deduplication. The result is always a
// fresh slice so concurrent readers of the previous state never observe
// the merge.
func appendMessages(current, update any) []model.Message {
	cur := asMessages(current)
	upd := asMessages(update)
	out := make([]model.Message, 0, len(cur)+len(upd))
	out = append(out, cur...)
	out = append(out, upd...)
	return out
}

// asMessages coerces a transcript channel value. Accepts a single
// message, a message slice, or an []any of messages; anything else
// yields nil.
func asMessages(v any) []model.Message {
	switch m := v.(type) {
	case nil:
		return nil
	case []model.Message:
		return m
	case model.Message:
		return []model.Message{m}
	case []any:
		out := make([]model.Message, 0, len(m))
		for _, e := range m {
			if msg, ok := e.(model.Message); ok {
				out = append(out, msg)
			}
		}
		return out
	default:
		return nil
	}
}
