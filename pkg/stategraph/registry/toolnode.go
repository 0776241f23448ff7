package registry

import (
	"encoding/json"
	"fmt"

	"github.com/kirtanmodi/stategraph/pkg/stategraph"
	"github.com/kirtanmodi/stategraph/pkg/stategraph/model"
)

// ToolNode pairs a plugin name with the node function derived from it,
// ready for Graph.AddNode.
type ToolNode struct {
	Name string
	Fn   stategraph.NodeFunc
}

// EnabledToolNodes derives one node per enabled plugin, in registration
// order. The derivation is recomputed on every call and each node
// captures its plugin by value: disabling or replacing a plugin changes
// future derivations, never nodes already wired into a compiled graph.
//
// The derived node answers the pending tool calls of the transcript's
// latest assistant message that name its plugin, in order, producing
// one correlated tool-role message per call. Tool failures become
// visible error messages in the transcript; the node itself never
// returns an error.
func (r *Registry) EnabledToolNodes() []ToolNode {
	tools := r.EnabledTools()
	nodes := make([]ToolNode, 0, len(tools))
	for _, p := range tools {
		nodes = append(nodes, ToolNode{Name: p.Name, Fn: toolNodeFunc(p)})
	}
	return nodes
}

func toolNodeFunc(p Plugin) stategraph.NodeFunc {
	return func(ctx stategraph.Context, state stategraph.State) (stategraph.State, error) {
		var results []model.Message
		for _, call := range model.PendingToolCalls(state.Messages()) {
			if call.Name != p.Name {
				continue
			}
			results = append(results, runTool(ctx, p, call))
		}
		if len(results) == 0 {
			return nil, nil
		}
		return stategraph.Append(results...), nil
	}
}

// runTool executes one call and renders its outcome as the correlated
// tool-role message.
func runTool(ctx stategraph.Context, p Plugin, call model.ToolCall) model.Message {
	args, err := decodeArgs(call.Arguments)
	if err != nil {
		ctx.Logger().Warn("tool arguments undecodable", "tool", p.Name, "call_id", call.ID, "error", err)
		return model.NewToolMessage(call.ID, fmt.Sprintf("error: %v", err))
	}

	result, err := p.Tool(ctx, args)
	if err != nil {
		ctx.Logger().Warn("tool failed", "tool", p.Name, "call_id", call.ID, "error", err)
		return model.NewToolMessage(call.ID, fmt.Sprintf("error: %v", err))
	}
	return model.NewToolMessage(call.ID, renderResult(result))
}

// decodeArgs unpacks a call's JSON argument object. Absent arguments
// mean an empty map.
func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// renderResult converts a tool's return value to message content.
// Strings pass through, everything else is JSON.
func renderResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}
