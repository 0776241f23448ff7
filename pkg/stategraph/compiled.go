package stategraph

// CompiledGraph is an immutable, validated snapshot of a Graph, ready to
// execute. It is safe for concurrent use: any number of runs may invoke
// the same compiled graph at once, and later mutations of the source
// builder are never observed.
type CompiledGraph struct {
	name             string
	entryPoint       string
	recursionLimit   int
	nodes            map[string]node
	edges            map[string]string
	conditionalEdges map[string]conditionalEdge
	reducers         map[string]Reducer
	successors       map[string][]string
	predecessors     map[string][]string
}

// Name returns the graph name used in logs, metrics, and traces.
func (cg *CompiledGraph) Name() string {
	return cg.name
}

// Entry returns the entry point node name.
func (cg *CompiledGraph) Entry() string {
	return cg.entryPoint
}

// RecursionLimit returns the hard per-run step budget.
func (cg *CompiledGraph) RecursionLimit() int {
	return cg.recursionLimit
}

// Nodes returns all node names in sorted order.
func (cg *CompiledGraph) Nodes() []string {
	return sortedKeys(cg.nodes)
}

// HasNode reports whether a node name is part of the graph.
func (cg *CompiledGraph) HasNode(name string) bool {
	_, ok := cg.nodes[name]
	return ok
}

// NodeKind returns the kind a node was registered with, and false for
// names the graph does not contain.
func (cg *CompiledGraph) NodeKind(name string) (NodeKind, bool) {
	n, ok := cg.nodes[name]
	return n.kind, ok
}

// Successors returns the statically declared targets of a node: the
// unconditional edge target, or every conditional target plus default.
// END appears literally. The returned slice is shared; do not modify it.
func (cg *CompiledGraph) Successors(name string) []string {
	return cg.successors[name]
}

// Predecessors returns the nodes with a declared edge into name, sorted.
// The returned slice is shared; do not modify it.
func (cg *CompiledGraph) Predecessors(name string) []string {
	return cg.predecessors[name]
}

// IsConditional reports whether a node routes through a conditional
// edge.
func (cg *CompiledGraph) IsConditional(name string) bool {
	_, ok := cg.conditionalEdges[name]
	return ok
}

// applyUpdate merges a node's partial update into the accumulated state
// through the graph's channel reducers.
func (cg *CompiledGraph) applyUpdate(state, update State) State {
	if len(update) == 0 {
		return state
	}
	return mergeState(state, update, cg.reducers)
}
