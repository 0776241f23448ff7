package stategraph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirtanmodi/stategraph/pkg/stategraph/model"
)

// TestState_MessagesAppend verifies the transcript channel appends in
// arrival order without deduplication.
func TestState_MessagesAppend(t *testing.T) {
	base := NewState(model.NewHumanMessage("hi"))
	update := Append(
		model.NewAssistantMessage("hello"),
		model.NewAssistantMessage("hello"), // duplicate content is kept
	)

	merged := mergeState(base, update, nil)

	msgs := merged.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.Equal(t, "hello", msgs[2].Content)
}

// TestState_MessagesNeverReplaced verifies an update cannot shrink the
// transcript.
func TestState_MessagesNeverReplaced(t *testing.T) {
	base := NewState(
		model.NewHumanMessage("one"),
		model.NewAssistantMessage("two"),
	)

	merged := mergeState(base, Append(model.NewHumanMessage("three")), nil)

	assert.Len(t, merged.Messages(), 3)
	assert.Len(t, base.Messages(), 2) // base untouched
}

// TestState_OtherChannelsOverwrite verifies last-writer-wins for
// non-transcript channels, including nested structures.
func TestState_OtherChannelsOverwrite(t *testing.T) {
	base := State{"counter": 1, "tags": []string{"a", "b"}}

	merged := mergeState(base, State{"counter": 5, "tags": []string{"c"}}, nil)

	assert.Equal(t, 5, merged["counter"])
	assert.Equal(t, []string{"c"}, merged["tags"]) // whole value replaced, not merged
}

// TestState_AbsentChannelsCarried verifies channels missing from an
// update carry over unchanged.
func TestState_AbsentChannelsCarried(t *testing.T) {
	base := State{"counter": 7, MessagesKey: []model.Message{model.NewHumanMessage("hi")}}

	merged := mergeState(base, State{"other": true}, nil)

	assert.Equal(t, 7, merged["counter"])
	assert.Len(t, merged.Messages(), 1)
	assert.Equal(t, true, merged["other"])
}

// TestState_CustomReducer verifies a registered reducer overrides
// last-writer-wins for its channel.
func TestState_CustomReducer(t *testing.T) {
	sum := func(current, update any) any {
		cur, _ := current.(int)
		upd, _ := update.(int)
		return cur + upd
	}

	merged := mergeState(State{"total": 10}, State{"total": 5}, map[string]Reducer{"total": sum})

	assert.Equal(t, 15, merged["total"])
}

// TestState_MergeAssociative verifies merging (a+b)+c equals a+(b+c)
// for the built-in rules.
func TestState_MergeAssociative(t *testing.T) {
	a := State{MessagesKey: []model.Message{model.NewHumanMessage("1")}, "k": "a"}
	b := State{MessagesKey: []model.Message{model.NewAssistantMessage("2")}, "k": "b"}
	c := State{MessagesKey: []model.Message{model.NewAssistantMessage("3")}, "k": "c"}

	left := mergeState(mergeState(a, b, nil), c, nil)
	right := mergeState(a, mergeState(b, c, nil), nil)

	assert.Equal(t, left.Messages(), right.Messages())
	assert.Equal(t, left["k"], right["k"])
}

// TestState_Clone verifies clones are isolated from the original.
func TestState_Clone(t *testing.T) {
	original := State{
		MessagesKey: []model.Message{model.NewHumanMessage("hi")},
		"counter":   1,
	}

	clone := original.Clone()
	clone["counter"] = 99
	msgs := clone[MessagesKey].([]model.Message)
	msgs[0] = model.NewHumanMessage("mutated")

	assert.Equal(t, 1, original["counter"])
	assert.Equal(t, "hi", original.Messages()[0].Content)
}

// TestState_LastMessage verifies newest-entry lookup.
func TestState_LastMessage(t *testing.T) {
	s := NewState(
		model.NewHumanMessage("first"),
		model.NewAssistantMessage("second"),
	)

	last, ok := s.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "second", last.Content)
	assert.Equal(t, model.RoleAssistant, last.Role)

	_, ok = State{}.LastMessage()
	assert.False(t, ok)
}

// TestState_MessagesCoercion verifies tolerated transcript channel
// shapes.
func TestState_MessagesCoercion(t *testing.T) {
	single := State{MessagesKey: model.NewHumanMessage("solo")}
	assert.Len(t, single.Messages(), 1)

	loose := State{MessagesKey: []any{model.NewHumanMessage("a"), 42, model.NewAssistantMessage("b")}}
	msgs := loose.Messages()
	require.Len(t, msgs, 2) // the non-message element is skipped
	assert.Equal(t, "a", msgs[0].Content)
	assert.Equal(t, "b", msgs[1].Content)

	assert.Nil(t, State{MessagesKey: "not messages"}.Messages())
	assert.Nil(t, State{}.Messages())
}

// TestState_JSONRoundTrip verifies serialization restores the transcript
// as typed messages.
func TestState_JSONRoundTrip(t *testing.T) {
	original := State{
		MessagesKey: []model.Message{
			model.NewHumanMessage("what is 2+2?"),
			model.NewToolCallMessage("", model.ToolCall{ID: "call_1", Name: "calc", Arguments: json.RawMessage(`{"expr":"2+2"}`)}),
			model.NewToolMessage("call_1", "4"),
		},
		"turns": 2,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))

	msgs := decoded.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.RoleHuman, msgs[0].Role)
	require.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, "calc", msgs[1].ToolCalls[0].Name)
	assert.Equal(t, "call_1", msgs[2].ToolCallID)

	// JSON numbers decode as float64
	assert.Equal(t, float64(2), decoded["turns"])
}

// TestState_UnmarshalInvalid verifies decode failures surface.
func TestState_UnmarshalInvalid(t *testing.T) {
	var s State
	assert.Error(t, json.Unmarshal([]byte(`not json`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"messages": 42}`), &s))
}
