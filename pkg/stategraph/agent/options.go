package agent

import "fmt"

// Option configures the tool loop built by New.
type Option func(*loop)

// WithSystemPrompt replaces the default system prompt template. The
// template may reference {tool_descriptions}, which expands to the
// registry's enabled-plugin description block at build time.
func WithSystemPrompt(template string) Option {
	return func(l *loop) {
		if template != "" {
			l.systemPrompt = template
		}
	}
}

// WithMaxTurns sets the soft cap on assistant turns per run. Once the
// transcript holds this many assistant messages the loop stops calling
// the model and routes to finalize. Panics if n is not positive.
func WithMaxTurns(n int) Option {
	if n <= 0 {
		panic(fmt.Sprintf("agent: max turns must be positive, got %d", n))
	}
	return func(l *loop) {
		l.maxTurns = n
	}
}

// WithRecursionLimit overrides the hard step limit passed to Compile.
// When unset the loop sizes it from the turn budget so a well-behaved
// conversation never trips it.
func WithRecursionLimit(n int) Option {
	return func(l *loop) {
		l.recursionLimit = n
	}
}

// WithModel sets the model identifier sent on every completion request.
func WithModel(name string) Option {
	return func(l *loop) {
		l.modelName = name
	}
}

// WithStrictRouting makes a tool call naming an unregistered plugin
// fail the run with a routing error instead of quietly ending it.
func WithStrictRouting() Option {
	return func(l *loop) {
		l.strict = true
	}
}

// WithName sets the compiled graph's name, visible in logs and traces.
func WithName(name string) Option {
	return func(l *loop) {
		if name != "" {
			l.name = name
		}
	}
}
