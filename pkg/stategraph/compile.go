package stategraph

import (
	"fmt"
	"log/slog"
	"sort"
)

const (
	// DefaultRecursionLimit is the per-run step budget compiled into a
	// graph unless WithRecursionLimit overrides it.
	DefaultRecursionLimit = 25

	// MaxRecursionLimit bounds WithRecursionLimit. A limit this large is
	// almost certainly a bug, so anything above it panics at compile
	// configuration time.
	MaxRecursionLimit = 100000
)

// CompileOption configures graph compilation.
type CompileOption func(*compileConfig)

type compileConfig struct {
	recursionLimit int
	name           string
}

// WithRecursionLimit sets the hard step budget for every run of the
// compiled graph. Each node invocation costs one step; a run that
// reaches the limit fails with RecursionLimitError. Panics unless
// 0 < n <= MaxRecursionLimit.
func WithRecursionLimit(n int) CompileOption {
	return func(c *compileConfig) {
		if n <= 0 {
			panic("stategraph: recursion limit must be positive")
		}
		if n > MaxRecursionLimit {
			panic(fmt.Sprintf("stategraph: recursion limit cannot exceed %d", MaxRecursionLimit))
		}
		c.recursionLimit = n
	}
}

// WithName names the compiled graph for logs, metrics, and traces.
func WithName(name string) CompileOption {
	return func(c *compileConfig) {
		if name == "" {
			panic("stategraph: graph name cannot be empty")
		}
		c.name = name
	}
}

// Compile validates the graph and produces an immutable CompiledGraph.
//
// Validation is a full referential-integrity pass: the entry point must
// be set and registered, every edge endpoint must resolve to a node or
// END, and every node must be reachable from the entry. All problems are
// collected into a single *GraphValidationError rather than failing at
// the first, so one compile surfaces everything to fix.
//
// A graph with no static route to END still compiles; such runs can only
// end at the recursion limit, so Compile logs a warning. Later mutations
// of the builder never affect a compiled graph.
func (g *Graph) Compile(opts ...CompileOption) (*CompiledGraph, error) {
	cfg := compileConfig{recursionLimit: DefaultRecursionLimit, name: "stategraph"}
	for _, opt := range opts {
		opt(&cfg)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var issues []error

	entryValid := false
	switch {
	case g.entryPoint == "":
		issues = append(issues, ErrNoEntryPoint)
	case !g.has(g.entryPoint):
		issues = append(issues, fmt.Errorf("%w: %q", ErrEntryNotFound, g.entryPoint))
	default:
		entryValid = true
	}

	issues = append(issues, g.danglingReferences()...)

	if entryValid {
		reachable := g.reachableFrom(g.entryPoint)
		for _, name := range sortedKeys(g.nodes) {
			if !reachable[name] {
				issues = append(issues, fmt.Errorf("%w: %q", ErrUnreachableNode, name))
			}
		}
	}

	if len(issues) > 0 {
		return nil, &GraphValidationError{Issues: issues}
	}

	if !g.hasPathToEnd() {
		slog.Warn("graph has no static path to the terminal marker; runs will end only at the recursion limit",
			"graph", cfg.name,
			"entry", g.entryPoint)
	}

	return g.buildCompiledGraph(cfg), nil
}

func (g *Graph) has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// danglingReferences re-walks every edge reference. AddEdge and
// AddConditionalEdge already reject unknown names at the call site, so
// this normally finds nothing, but Compile's contract is a validation
// pass that stands on its own and reports every problem at once.
func (g *Graph) danglingReferences() []error {
	var issues []error
	for _, from := range sortedKeys(g.edges) {
		if !g.has(from) {
			issues = append(issues, &UnknownNodeError{Node: from, Ref: "edge source"})
		}
		if to := g.edges[from]; to != END && !g.has(to) {
			issues = append(issues, &UnknownNodeError{Node: to, Ref: "edge target"})
		}
	}
	for _, from := range sortedKeys(g.conditionalEdges) {
		if !g.has(from) {
			issues = append(issues, &UnknownNodeError{Node: from, Ref: "conditional edge source"})
		}
		ce := g.conditionalEdges[from]
		for _, key := range sortedKeys(ce.targets) {
			if t := ce.targets[key]; t != END && !g.has(t) {
				issues = append(issues, &UnknownNodeError{Node: t, Ref: fmt.Sprintf("conditional target for key %q", key)})
			}
		}
		if d := ce.defaultTarget; d != "" && d != END && !g.has(d) {
			issues = append(issues, &UnknownNodeError{Node: d, Ref: "conditional default target"})
		}
	}
	return issues
}

// reachableFrom walks the static edge structure breadth-first. For
// conditional edges every declared target plus the default counts as a
// successor; the router itself is opaque.
func (g *Graph) reachableFrom(entry string) map[string]bool {
	visited := map[string]bool{entry: true}
	queue := []string{entry}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.staticSuccessors(cur) {
			if next == END || visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return visited
}

// staticSuccessors returns the declared successors of a node in
// deterministic order, END included. Callers hold g.mu.
func (g *Graph) staticSuccessors(name string) []string {
	if to, ok := g.edges[name]; ok {
		return []string{to}
	}
	ce, ok := g.conditionalEdges[name]
	if !ok {
		return nil
	}
	seen := make(map[string]bool, len(ce.targets)+1)
	out := make([]string, 0, len(ce.targets)+1)
	for _, key := range sortedKeys(ce.targets) {
		t := ce.targets[key]
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	if ce.defaultTarget != "" && !seen[ce.defaultTarget] {
		out = append(out, ce.defaultTarget)
	}
	return out
}

// hasPathToEnd reports whether some sequence of edges can take the entry
// point to END. Reverse reachability to a fixpoint: a node can reach END
// if any of its declared successors is END or can reach it.
func (g *Graph) hasPathToEnd() bool {
	canReach := make(map[string]bool, len(g.nodes))
	for changed := true; changed; {
		changed = false
		for name := range g.nodes {
			if canReach[name] {
				continue
			}
			for _, next := range g.staticSuccessors(name) {
				if next == END || canReach[next] {
					canReach[name] = true
					changed = true
					break
				}
			}
		}
	}
	return canReach[g.entryPoint]
}

// buildCompiledGraph snapshots the builder into an immutable
// CompiledGraph, precomputing the static successor and predecessor sets
// for introspection. Callers hold g.mu.
func (g *Graph) buildCompiledGraph(cfg compileConfig) *CompiledGraph {
	cg := &CompiledGraph{
		name:             cfg.name,
		entryPoint:       g.entryPoint,
		recursionLimit:   cfg.recursionLimit,
		nodes:            make(map[string]node, len(g.nodes)),
		edges:            make(map[string]string, len(g.edges)),
		conditionalEdges: make(map[string]conditionalEdge, len(g.conditionalEdges)),
		reducers:         make(map[string]Reducer, len(g.reducers)),
		successors:       make(map[string][]string, len(g.nodes)),
		predecessors:     make(map[string][]string, len(g.nodes)),
	}
	for name, n := range g.nodes {
		cg.nodes[name] = n
	}
	for from, to := range g.edges {
		cg.edges[from] = to
	}
	for from, ce := range g.conditionalEdges {
		copied := conditionalEdge{
			router:        ce.router,
			targets:       make(map[string]string, len(ce.targets)),
			defaultTarget: ce.defaultTarget,
		}
		for k, v := range ce.targets {
			copied.targets[k] = v
		}
		cg.conditionalEdges[from] = copied
	}
	for ch, r := range g.reducers {
		cg.reducers[ch] = r
	}
	for _, name := range sortedKeys(g.nodes) {
		succ := g.staticSuccessors(name)
		cg.successors[name] = succ
		for _, s := range succ {
			if s == END {
				continue
			}
			cg.predecessors[s] = append(cg.predecessors[s], name)
		}
	}
	for name := range cg.predecessors {
		sort.Strings(cg.predecessors[name])
	}
	return cg
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
