package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Internal tests for private CLI client helpers.

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name     string
		client   *CLIClient
		req      CompletionRequest
		contains []string
	}{
		{
			name:   "basic request",
			client: NewCLIClient("claude"),
			req: CompletionRequest{
				Messages: []Message{NewHumanMessage("Hello")},
			},
			contains: []string{"--print", "-p"},
		},
		{
			name:   "with system prompt",
			client: NewCLIClient("claude"),
			req: CompletionRequest{
				SystemPrompt: "Be helpful",
				Messages:     []Message{NewHumanMessage("Hi")},
			},
			contains: []string{"--system-prompt", "Be helpful"},
		},
		{
			name:   "with default model",
			client: NewCLIClient("claude", WithDefaultModel("haiku")),
			req: CompletionRequest{
				Messages: []Message{NewHumanMessage("Test")},
			},
			contains: []string{"--model", "haiku"},
		},
		{
			name:   "request model overrides default",
			client: NewCLIClient("claude", WithDefaultModel("haiku")),
			req: CompletionRequest{
				Model:    "sonnet",
				Messages: []Message{NewHumanMessage("Test")},
			},
			contains: []string{"--model", "sonnet"},
		},
		{
			name:   "with max tokens",
			client: NewCLIClient("claude"),
			req: CompletionRequest{
				MaxTokens: 1000,
				Messages:  []Message{NewHumanMessage("Test")},
			},
			contains: []string{"--max-tokens", "1000"},
		},
		{
			name:   "with extra args",
			client: NewCLIClient("claude", WithExtraArgs("--allowedTools", "read")),
			req: CompletionRequest{
				Messages: []Message{NewHumanMessage("Test")},
			},
			contains: []string{"--allowedTools", "read"},
		},
		{
			name:   "multi-turn transcript flattens into one prompt",
			client: NewCLIClient("claude"),
			req: CompletionRequest{
				Messages: []Message{
					NewHumanMessage("First"),
					NewAssistantMessage("Response"),
					NewHumanMessage("Second"),
				},
			},
			contains: []string{"-p"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.client.buildArgs(tt.req)

			for _, want := range tt.contains {
				assert.Contains(t, args, want, "expected args to contain %q, got %v", want, args)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	client := NewCLIClient("claude", WithDefaultModel("test-model"))

	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"simple text", []byte("Hello, world!"), "Hello, world!"},
		{"whitespace trimmed", []byte("  trimmed content  \n"), "trimmed content"},
		{"multiline", []byte("Line 1\nLine 2\nLine 3"), "Line 1\nLine 2\nLine 3"},
		{"empty", []byte(""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := client.parseResponse(tt.data)

			assert.Equal(t, tt.expected, resp.Content)
			assert.Equal(t, "stop", resp.FinishReason)
			assert.Equal(t, "test-model", resp.Model)
		})
	}
}

func TestIsRetryableOutput(t *testing.T) {
	tests := []struct {
		errMsg    string
		retryable bool
	}{
		{"rate limit exceeded", true},
		{"Rate Limit", true},
		{"request timeout", true},
		{"server overloaded", true},
		{"503 service unavailable", true},
		{"error 529", true},
		{"invalid request", false},
		{"authentication failed", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.errMsg, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableOutput(tt.errMsg))
		})
	}
}
