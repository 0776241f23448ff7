package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExpand tests {var} pattern expansion.
func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		vars     map[string]any
		expected string
	}{
		{
			name:     "simple variable",
			input:    "Hello {name}",
			vars:     map[string]any{"name": "World"},
			expected: "Hello World",
		},
		{
			name:     "multiple variables",
			input:    "{greeting} {name}!",
			vars:     map[string]any{"greeting": "Hello", "name": "World"},
			expected: "Hello World!",
		},
		{
			name:     "adjacent variables",
			input:    "{a}{b}{c}",
			vars:     map[string]any{"a": "1", "b": "2", "c": "3"},
			expected: "123",
		},
		{
			name:     "numeric value",
			input:    "max turns: {max_turns}",
			vars:     map[string]any{"max_turns": 10},
			expected: "max turns: 10",
		},
		{
			name:     "underscore in variable name",
			input:    "{tool_descriptions}",
			vars:     map[string]any{"tool_descriptions": "- search: finds"},
			expected: "- search: finds",
		},
		{
			name:     "multiline substitution",
			input:    "Tools:\n{tool_descriptions}\nGo.",
			vars:     map[string]any{"tool_descriptions": "- a: one\n- b: two"},
			expected: "Tools:\n- a: one\n- b: two\nGo.",
		},
		{
			name:     "no placeholders",
			input:    "plain text",
			vars:     map[string]any{"unused": "x"},
			expected: "plain text",
		},
		{
			name:     "empty input",
			input:    "",
			vars:     map[string]any{"a": "1"},
			expected: "",
		},
		{
			name:     "unmatched braces ignored",
			input:    "json: {\"key\": 1} and {name}",
			vars:     map[string]any{"name": "x"},
			expected: "json: {\"key\": 1} and x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(tt.input, tt.vars))
		})
	}
}

// TestExpand_MissingKeep tests the default handling of unknown names.
func TestExpand_MissingKeep(t *testing.T) {
	assert.Equal(t, "Hello {missing}", Expand("Hello {missing}", nil))
}

// TestExpander_MissingEmpty tests empty substitution for unknown names.
func TestExpander_MissingEmpty(t *testing.T) {
	exp := NewExpander(WithMissingAction(MissingEmpty))

	result, err := exp.Expand("Hello {missing}!", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello !", result)
}

// TestExpander_MissingError tests strict expansion.
func TestExpander_MissingError(t *testing.T) {
	exp := NewExpander(WithMissingAction(MissingError))

	result, err := exp.Expand("{a} {b} {c}", map[string]any{"b": "2"})

	require.Error(t, err)
	var undefErr *UndefinedVariableError
	require.ErrorAs(t, err, &undefErr)
	assert.Equal(t, []string{"a", "c"}, undefErr.Names)
	assert.Equal(t, "undefined variables: a, c", err.Error())

	// partially expanded result still comes back
	assert.Equal(t, "{a} 2 {c}", result)
}

// TestExpander_MissingError_Single tests the singular error message.
func TestExpander_MissingError_Single(t *testing.T) {
	exp := NewExpander(WithMissingAction(MissingError))

	_, err := exp.Expand("{only}", nil)
	require.Error(t, err)
	assert.Equal(t, "undefined variable: only", err.Error())
}

// TestMustExpand tests the panicking variant.
func TestMustExpand(t *testing.T) {
	exp := NewExpander()
	assert.Equal(t, "hi World", exp.MustExpand("hi {name}", map[string]any{"name": "World"}))

	strict := NewExpander(WithMissingAction(MissingError))
	assert.Panics(t, func() {
		strict.MustExpand("{missing}", nil)
	})
}

// TestVars tests placeholder discovery.
func TestVars(t *testing.T) {
	names := Vars("Use {tool_descriptions} wisely, {name}. Again: {name}")
	assert.Equal(t, []string{"tool_descriptions", "name"}, names)

	assert.Nil(t, Vars("no placeholders"))
	assert.Nil(t, Vars(""))
}
