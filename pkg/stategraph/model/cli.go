package model

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CLIClient implements Client by shelling out to a local model CLI binary
// (for example the claude CLI). Tool-call responses are not supported; use
// an API-backed client or MockClient for tool loops.
type CLIClient struct {
	binary    string
	model     string
	workdir   string
	timeout   time.Duration
	extraArgs []string
}

// CLIOption configures CLIClient.
type CLIOption func(*CLIClient)

// NewCLIClient creates a client that invokes the given binary. The binary
// must be resolvable via PATH or be an absolute path.
func NewCLIClient(binary string, opts ...CLIOption) *CLIClient {
	c := &CLIClient{
		binary:  binary,
		timeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithDefaultModel sets the model used when the request does not name one.
func WithDefaultModel(model string) CLIOption {
	return func(c *CLIClient) { c.model = model }
}

// WithWorkdir sets the working directory for CLI invocations.
func WithWorkdir(dir string) CLIOption {
	return func(c *CLIClient) { c.workdir = dir }
}

// WithTimeout bounds each invocation. Zero disables the bound; the caller's
// context still applies.
func WithTimeout(d time.Duration) CLIOption {
	return func(c *CLIClient) { c.timeout = d }
}

// WithExtraArgs appends fixed arguments to every invocation.
func WithExtraArgs(args ...string) CLIOption {
	return func(c *CLIClient) { c.extraArgs = append(c.extraArgs, args...) }
}

// Complete implements Client.
func (c *CLIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.binary, c.buildArgs(req)...)
	if c.workdir != "" {
		cmd.Dir = c.workdir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, NewError("complete", ctx.Err(), false)
		}

		errMsg := stderr.String()
		return nil, NewError("complete", fmt.Errorf("%w: %s", err, errMsg), isRetryableOutput(errMsg))
	}

	resp := c.parseResponse(stdout.Bytes())
	resp.Duration = time.Since(start)
	return resp, nil
}

// Stream implements Client. Output is consumed as line-delimited JSON
// events; lines that are not JSON pass through as raw content.
func (c *CLIClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	args := append(c.buildArgs(req), "--output-format", "stream-json")
	cmd := exec.CommandContext(ctx, c.binary, args...)
	if c.workdir != "" {
		cmd.Dir = c.workdir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, NewError("stream", fmt.Errorf("create stdout pipe: %w", err), false)
	}
	if err := cmd.Start(); err != nil {
		return nil, NewError("stream", fmt.Errorf("start command: %w", err), false)
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer func() { _ = cmd.Wait() }()

		sawStop := false
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}

			var event cliStreamEvent
			if err := json.Unmarshal([]byte(line), &event); err != nil {
				if !emit(ctx, ch, StreamChunk{Content: line + "\n"}) {
					return
				}
				continue
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta != nil && event.Delta.Text != "" {
					if !emit(ctx, ch, StreamChunk{Content: event.Delta.Text}) {
						return
					}
				}
			case "message_stop":
				sawStop = true
				usage := &TokenUsage{
					InputTokens:  event.Usage.InputTokens,
					OutputTokens: event.Usage.OutputTokens,
					TotalTokens:  event.Usage.InputTokens + event.Usage.OutputTokens,
				}
				if !emit(ctx, ch, StreamChunk{Done: true, Usage: usage}) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			ch <- StreamChunk{Error: NewError("stream", fmt.Errorf("read output: %w", err), false)}
			return
		}
		if !sawStop {
			emit(ctx, ch, StreamChunk{Done: true})
		}
	}()

	return ch, nil
}

// emit sends a chunk unless the context is cancelled first. A false return
// means the consumer is gone and streaming should stop.
func emit(ctx context.Context, ch chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		ch <- StreamChunk{Error: ctx.Err()}
		return false
	}
}

// buildArgs constructs CLI arguments from a request.
func (c *CLIClient) buildArgs(req CompletionRequest) []string {
	args := []string{"--print"}

	if req.SystemPrompt != "" {
		args = append(args, "--system-prompt", req.SystemPrompt)
	}

	model := c.model
	if req.Model != "" {
		model = req.Model
	}
	if model != "" {
		args = append(args, "--model", model)
	}

	if req.MaxTokens > 0 {
		args = append(args, "--max-tokens", fmt.Sprintf("%d", req.MaxTokens))
	}

	args = append(args, c.extraArgs...)

	// The CLI takes a single prompt, so the transcript is flattened into
	// alternating turns.
	var prompt strings.Builder
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleHuman:
			prompt.WriteString(msg.Content)
			prompt.WriteString("\n")
		case RoleAssistant:
			if prompt.Len() > 0 && msg.Content != "" {
				prompt.WriteString("\nAssistant: ")
				prompt.WriteString(msg.Content)
				prompt.WriteString("\n\nUser: ")
			}
		}
	}

	if p := strings.TrimSpace(prompt.String()); p != "" {
		args = append(args, "-p", p)
	}
	return args
}

// parseResponse extracts response data from plain CLI output.
func (c *CLIClient) parseResponse(data []byte) *CompletionResponse {
	return &CompletionResponse{
		Content:      strings.TrimSpace(string(data)),
		FinishReason: "stop",
		Model:        c.model,
		// Token counts are not available from plain CLI output.
	}
}

// isRetryableOutput checks whether stderr output indicates a transient error.
func isRetryableOutput(errMsg string) bool {
	errLower := strings.ToLower(errMsg)
	return strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "overloaded") ||
		strings.Contains(errLower, "503") ||
		strings.Contains(errLower, "529")
}

// cliStreamEvent is a streaming event emitted by the CLI.
type cliStreamEvent struct {
	Type  string          `json:"type"`
	Delta *cliStreamDelta `json:"delta,omitempty"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

type cliStreamDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
