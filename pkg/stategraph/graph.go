package stategraph

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a builder for workflow definitions. Add nodes and edges, set
// the entry point, then Compile to get an executable CompiledGraph.
//
// Builder misuse (empty names, nil functions, duplicate registrations,
// edges to nodes that do not exist) panics at the offending call: these
// are programming errors, caught best at the line that makes them.
// Duplicate and unknown node names panic with *DuplicateNodeError and
// *UnknownNodeError so tests can assert on them.
//
// All methods return the graph for chaining. The builder is safe for
// concurrent use, though graphs are normally assembled from one
// goroutine. Compiling does not freeze the builder, but compiled graphs
// never see later mutations.
type Graph struct {
	mu               sync.RWMutex
	nodes            map[string]node
	edges            map[string]string
	conditionalEdges map[string]conditionalEdge
	reducers         map[string]Reducer
	entryPoint       string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:            make(map[string]node),
		edges:            make(map[string]string),
		conditionalEdges: make(map[string]conditionalEdge),
		reducers:         make(map[string]Reducer),
	}
}

// AddNode registers a named node. Panics with *DuplicateNodeError if the
// name is already registered, and with a descriptive message if the name
// is empty, reserved, or contains whitespace, or if fn is nil.
func (g *Graph) AddNode(name string, fn NodeFunc, opts ...NodeOption) *Graph {
	if name == "" {
		panic("stategraph: node name cannot be empty")
	}
	if lower := strings.ToLower(name); lower == "end" || lower == END {
		panic("stategraph: node name cannot be reserved word 'END'")
	}
	if strings.ContainsAny(name, " \t\n\r") {
		panic("stategraph: node name cannot contain whitespace")
	}
	if fn == nil {
		panic("stategraph: node function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[name]; exists {
		panic(&DuplicateNodeError{Node: name})
	}

	n := node{fn: fn, kind: KindPlain}
	for _, opt := range opts {
		opt(&n)
	}
	g.nodes[name] = n
	return g
}

// AddEdge declares an unconditional edge from one node to another, or to
// END. Both endpoints are validated here, at the call that declares
// them: an unregistered endpoint panics with *UnknownNodeError, so add
// nodes before the edges that reference them.
//
// A node has at most one outgoing edge construct. Declaring a second
// edge from the same source, or an edge alongside a conditional edge,
// panics: parallel fan-out is not supported.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.mustExist(from, "edge source")
	if to != END {
		g.mustExist(to, "edge target")
	}
	g.mustBeFree(from)

	g.edges[from] = to
	return g
}

// AddConditionalEdge declares a routed edge: after from completes,
// router picks a key, and targets maps keys to next nodes (or END).
// Every referenced node, including a default target set through
// WithDefaultTarget, is validated here and panics with
// *UnknownNodeError if unregistered.
//
// At runtime a key missing from targets falls back to the default
// target; with no default the run fails with RoutingKeyError.
func (g *Graph) AddConditionalEdge(from string, router RouterFunc, targets map[string]string, opts ...ConditionalOption) *Graph {
	if router == nil {
		panic("stategraph: router function cannot be nil")
	}
	if len(targets) == 0 {
		panic(fmt.Sprintf("stategraph: conditional edge from %q has no targets", from))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.mustExist(from, "conditional edge source")

	ce := conditionalEdge{
		router:  router,
		targets: make(map[string]string, len(targets)),
	}
	for key, target := range targets {
		if target != END {
			g.mustExist(target, fmt.Sprintf("conditional target for key %q", key))
		}
		ce.targets[key] = target
	}
	for _, opt := range opts {
		opt(&ce)
	}
	if ce.defaultTarget != "" && ce.defaultTarget != END {
		g.mustExist(ce.defaultTarget, "conditional default target")
	}
	g.mustBeFree(from)

	g.conditionalEdges[from] = ce
	return g
}

// SetEntry declares the node the run starts from. The name is validated
// at Compile, not here, so entry can be set before its node is added.
func (g *Graph) SetEntry(name string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entryPoint = name
	return g
}

// SetChannelReducer installs a custom merge rule for one state channel.
// The messages channel always appends and cannot be overridden.
// Reducers must be associative; see Reducer.
func (g *Graph) SetChannelReducer(channel string, r Reducer) *Graph {
	if channel == MessagesKey {
		panic("stategraph: the messages channel reducer cannot be overridden")
	}
	if r == nil {
		panic("stategraph: reducer function cannot be nil")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reducers[channel] = r
	return g
}

// mustExist panics with *UnknownNodeError unless name is registered.
// Callers hold g.mu.
func (g *Graph) mustExist(name, ref string) {
	if _, ok := g.nodes[name]; !ok {
		panic(&UnknownNodeError{Node: name, Ref: ref})
	}
}

// mustBeFree panics if from already has an outgoing edge construct.
// Callers hold g.mu.
func (g *Graph) mustBeFree(from string) {
	if _, ok := g.edges[from]; ok {
		panic(fmt.Sprintf("stategraph: node %q already has an outgoing edge", from))
	}
	if _, ok := g.conditionalEdges[from]; ok {
		panic(fmt.Sprintf("stategraph: node %q already has a conditional edge", from))
	}
}
