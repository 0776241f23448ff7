// Package registry manages named tool plugins and derives graph nodes
// from them.
//
// A Registry is the mutable counterpart to the immutable CompiledGraph:
// plugins can be registered, replaced, enabled, and disabled at any
// time, and EnabledToolNodes derives a fresh node set on every call.
// Graphs compiled earlier keep the topology they were compiled with;
// only a new compile sees registry changes.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Tool executes one tool call. Arguments arrive decoded from the
// assistant's JSON payload; the returned value is rendered into the
// tool-role result message (strings as-is, everything else as JSON).
type Tool func(ctx context.Context, args map[string]any) (any, error)

// Plugin is a named, describable tool.
type Plugin struct {
	Name        string
	Description string
	Tool        Tool
}

// Registry is a mutex-guarded, insertion-ordered plugin collection.
// All methods are safe for concurrent use; a run never observes a
// half-applied registration.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
	logger  *slog.Logger
}

type entry struct {
	plugin  Plugin
	enabled bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration warnings. Defaults
// to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a plugin, enabled. Registering an existing name
// replaces the plugin in place: the original registration position is
// kept and a warning is logged, since hot re-registration is routine
// during development. Panics on an empty name or nil tool.
func (r *Registry) Register(p Plugin) {
	if p.Name == "" {
		panic("registry: plugin name cannot be empty")
	}
	if p.Tool == nil {
		panic("registry: plugin tool cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[p.Name]; ok {
		e.plugin = p
		e.enabled = true
		r.logger.Warn("plugin re-registered", "plugin", p.Name)
		return
	}
	r.entries[p.Name] = &entry{plugin: p, enabled: true}
	r.order = append(r.order, p.Name)
}

// Unregister removes a plugin and reports whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return false
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// SetEnabled toggles a plugin without forgetting it. Unknown names
// return false so callers can probe optimistically.
func (r *Registry) SetEnabled(name string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return false
	}
	e.enabled = enabled
	return true
}

// Get returns the plugin registered under name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Plugin{}, false
	}
	return e.plugin, true
}

// Enabled reports whether name is registered and enabled.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	return ok && e.enabled
}

// Len returns the number of registered plugins, enabled or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Names returns every registered plugin name in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// EnabledTools returns the enabled plugins in registration order. The
// result is a fresh snapshot; later registry changes never affect it.
func (r *Registry) EnabledTools() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		if e := r.entries[name]; e.enabled {
			tools = append(tools, e.plugin)
		}
	}
	return tools
}

// DescriptionBlock renders the enabled plugins as "- {name}: {description}"
// lines joined by newlines, in registration order. The exact format is a
// prompt contract: templates substitute it for {tool_descriptions}.
func (r *Registry) DescriptionBlock() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]string, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		if !e.enabled {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", e.plugin.Name, e.plugin.Description))
	}
	return strings.Join(lines, "\n")
}
