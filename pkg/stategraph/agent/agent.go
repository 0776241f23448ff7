// Package agent assembles the prebuilt tool-loop graph: an agent node
// that calls the model, one tool node per enabled registry plugin
// looping back to the agent, and a finalize node that ends over-long
// conversations gracefully.
//
// The loop routes on the agent's output. Pending tool calls dispatch to
// their tool nodes one at a time; an assistant reply without tool calls
// ends the run; exhausting the soft turn budget routes to finalize,
// which appends a user-visible explanation instead of failing the run.
// The budget is independent of the engine's hard recursion limit: the
// soft guard ends the conversation politely well before the hard limit
// would abort it.
package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kirtanmodi/stategraph/pkg/stategraph"
	"github.com/kirtanmodi/stategraph/pkg/stategraph/model"
	"github.com/kirtanmodi/stategraph/pkg/stategraph/prompt"
	"github.com/kirtanmodi/stategraph/pkg/stategraph/registry"
)

// Loop node names. Plugin names may not collide with these.
const (
	agentNode    = "agent"
	finalizeNode = "finalize"
)

// DefaultMaxTurns is the soft cap on assistant turns per run.
const DefaultMaxTurns = 10

// DefaultSystemPrompt is the system prompt template used when
// WithSystemPrompt is not given. The {tool_descriptions} placeholder
// expands to the registry's DescriptionBlock.
const DefaultSystemPrompt = `You are a helpful assistant.

You have access to the following tools:
{tool_descriptions}

Call a tool when it helps you answer. When you have the final answer, reply directly without requesting tools.`

type loop struct {
	client         model.Client
	systemPrompt   string
	modelName      string
	maxTurns       int
	recursionLimit int
	strict         bool
	name           string

	// snapshots taken at build time, matching the compiled topology
	system string
	tools  []model.Tool
}

// New builds and compiles the tool-loop graph over the registry's
// currently enabled plugins. The compiled graph snapshots the registry:
// later registrations or toggles need a new New call to take effect.
//
// client may be nil if every run's Context carries one (see
// stategraph.WithClient).
func New(client model.Client, reg *registry.Registry, opts ...Option) (*stategraph.CompiledGraph, error) {
	if reg == nil {
		return nil, errors.New("agent: registry cannot be nil")
	}

	l := &loop{
		client:       client,
		systemPrompt: DefaultSystemPrompt,
		maxTurns:     DefaultMaxTurns,
		name:         "agent-loop",
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.recursionLimit == 0 {
		// room for a tool dispatch and re-entry per turn, plus finalize
		l.recursionLimit = 4*l.maxTurns + 4
	}

	toolNodes := reg.EnabledToolNodes()
	if err := validateToolNames(toolNodes); err != nil {
		return nil, err
	}

	l.system = prompt.Expand(l.systemPrompt, map[string]any{
		"tool_descriptions": reg.DescriptionBlock(),
	})
	for _, p := range reg.EnabledTools() {
		l.tools = append(l.tools, model.Tool{Name: p.Name, Description: p.Description})
	}

	g := stategraph.New().
		AddNode(agentNode, l.agentFn, stategraph.WithKind(stategraph.KindAgent)).
		AddNode(finalizeNode, l.finalizeFn).
		AddEdge(finalizeNode, stategraph.END).
		SetEntry(agentNode)

	targets := map[string]string{
		finalizeNode:   finalizeNode,
		stategraph.END: stategraph.END,
	}
	for _, tn := range toolNodes {
		g.AddNode(tn.Name, tn.Fn, stategraph.WithKind(stategraph.KindTool))
		g.AddEdge(tn.Name, agentNode)
		targets[tn.Name] = tn.Name
	}

	var condOpts []stategraph.ConditionalOption
	if !l.strict {
		condOpts = append(condOpts, stategraph.WithDefaultTarget(stategraph.END))
	}
	g.AddConditionalEdge(agentNode, l.route, targets, condOpts...)

	return g.Compile(
		stategraph.WithName(l.name),
		stategraph.WithRecursionLimit(l.recursionLimit),
	)
}

// validateToolNames rejects plugin names the builder could not accept,
// as errors rather than panics: plugin names often come from runtime
// configuration, not source code.
func validateToolNames(tools []registry.ToolNode) error {
	for _, tn := range tools {
		name := tn.Name
		switch {
		case name == agentNode || name == finalizeNode:
			return fmt.Errorf("agent: tool name %q collides with a loop node", name)
		case strings.EqualFold(name, "end") || strings.EqualFold(name, stategraph.END):
			return fmt.Errorf("agent: tool name %q is reserved", name)
		case strings.ContainsAny(name, " \t\n\r"):
			return fmt.Errorf("agent: tool name %q contains whitespace", name)
		}
	}
	return nil
}

// agentFn is the agent node. Re-entry with outstanding tool calls, or
// with the turn budget spent, is a no-op pass that lets the router
// decide; otherwise it spends one model call and appends the reply.
func (l *loop) agentFn(ctx stategraph.Context, state stategraph.State) (stategraph.State, error) {
	msgs := state.Messages()

	if len(model.PendingToolCalls(msgs)) > 0 {
		return nil, nil
	}
	if assistantTurns(msgs) >= l.maxTurns {
		return nil, nil
	}

	client := l.client
	if client == nil {
		client = ctx.Client()
	}
	if client == nil {
		return nil, model.NewError("complete", errors.New("no model client configured"), false)
	}

	resp, err := client.Complete(ctx, model.CompletionRequest{
		SystemPrompt: l.system,
		Messages:     msgs,
		Model:        l.modelName,
		Tools:        l.tools,
	})
	if err != nil {
		return nil, err
	}
	return stategraph.Append(resp.Message()), nil
}

// finalizeFn appends the graceful turn-limit explanation.
func (l *loop) finalizeFn(ctx stategraph.Context, state stategraph.State) (stategraph.State, error) {
	content := fmt.Sprintf(
		"This conversation reached its limit of %d assistant turns before finishing. Stopping here; send a new request to continue.",
		l.maxTurns,
	)
	return stategraph.Append(model.NewAssistantMessage(content)), nil
}

// route picks the next node after the agent. Pending tool calls win,
// then a direct assistant reply ends the run, then a spent turn budget
// finalizes. The raw tool-call name is the routing key: unregistered
// names fall to the default target (END) or, under strict routing, fail
// the run.
func (l *loop) route(ctx stategraph.Context, state stategraph.State) string {
	msgs := state.Messages()

	if pending := model.PendingToolCalls(msgs); len(pending) > 0 {
		return pending[0].Name
	}
	if last, ok := state.LastMessage(); ok && last.Role == model.RoleAssistant {
		return stategraph.END
	}
	if assistantTurns(msgs) >= l.maxTurns {
		return finalizeNode
	}
	return stategraph.END
}

func assistantTurns(msgs []model.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Role == model.RoleAssistant {
			n++
		}
	}
	return n
}
