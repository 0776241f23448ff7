package model

import (
	"context"
	"sync"
	"time"
)

// MockClient is a scripted Client for tests and examples.
//
// Responses are served sequentially and cycle back to the first once
// exhausted. Every request is recorded for inspection. MockClient is safe
// for concurrent use.
type MockClient struct {
	mu sync.Mutex

	responses    []CompletionResponse
	err          error
	completeFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	next         int

	// Calls records every request in order. Guard concurrent reads with
	// CallCount/LastCall or read after the client is quiescent.
	Calls []CompletionRequest
}

// NewMockClient creates a mock that always returns the given content.
func NewMockClient(response string) *MockClient {
	return &MockClient{
		responses: []CompletionResponse{{Content: response, FinishReason: "stop"}},
	}
}

// WithResponses replaces the script with content-only responses, served
// in order and cycling.
func (m *MockClient) WithResponses(responses ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = make([]CompletionResponse, len(responses))
	for i, r := range responses {
		m.responses[i] = CompletionResponse{Content: r, FinishReason: "stop"}
	}
	m.next = 0
	return m
}

// WithScript replaces the script with fully specified responses, letting
// tests drive tool-call sequences.
func (m *MockClient) WithScript(responses ...CompletionResponse) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = make([]CompletionResponse, len(responses))
	copy(m.responses, responses)
	m.next = 0
	return m
}

// WithError makes every call fail with err.
func (m *MockClient) WithError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithCompleteFunc overrides Complete with a custom function.
// Calls are still recorded.
func (m *MockClient) WithCompleteFunc(fn func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeFunc = fn
	return m
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError("complete", err, false)
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	fn := m.completeFunc
	injected := m.err
	var resp CompletionResponse
	if injected == nil && fn == nil && len(m.responses) > 0 {
		resp = m.responses[m.next%len(m.responses)]
		m.next++
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if injected != nil {
		return nil, injected
	}

	resp.Usage = approxUsage(req, resp.Content)
	if resp.FinishReason == "" {
		resp.FinishReason = "stop"
	}
	resp.Duration = time.Millisecond
	return &resp, nil
}

// Stream implements Client. The response arrives as a single final chunk.
func (m *MockClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	resp, err := m.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk, 1)
	usage := resp.Usage
	ch <- StreamChunk{
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
		Usage:     &usage,
		Done:      true,
	}
	close(ch)
	return ch, nil
}

// CallCount returns the number of recorded calls.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or nil if none were made.
func (m *MockClient) LastCall() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	req := m.Calls[len(m.Calls)-1]
	return &req
}

// Reset clears recorded calls and restarts the response script.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.next = 0
}

// approxUsage estimates token counts at roughly four characters per token,
// with a floor of one so usage is always visible in assertions.
func approxUsage(req CompletionRequest, output string) TokenUsage {
	input := len(req.SystemPrompt)
	for _, msg := range req.Messages {
		input += len(msg.Content)
	}

	usage := TokenUsage{
		InputTokens:  approxTokens(input),
		OutputTokens: approxTokens(len(output)),
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	return usage
}

func approxTokens(chars int) int {
	n := chars / 4
	if n < 1 {
		n = 1
	}
	return n
}
