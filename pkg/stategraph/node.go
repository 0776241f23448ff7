package stategraph

// END is the terminal marker. Use it as an edge target or a routing
// target to finish the run; it is not a node and cannot be registered as
// one.
const END = "__end__"

// NodeFunc is the unit of work executed at each step. It receives the
// accumulated state and returns a partial state holding only the
// channels it changed. Treat the received state as read-only; the engine
// owns it and applies the returned update through the channel reducers.
//
// A returned error does not abort the run: the engine converts it into
// an error message appended to the transcript and continues routing, so
// downstream nodes (and the model) can see and react to the failure.
// Panics, by contrast, are fatal and surface as PanicError.
type NodeFunc func(ctx Context, state State) (State, error)

// RouterFunc inspects the state after a node completes and returns a
// routing key. The key is looked up in the conditional edge's target
// map; a miss falls back to the default target when one is configured
// and otherwise fails the run with RoutingKeyError.
type RouterFunc func(ctx Context, state State) string

// NodeKind labels what a node does. It drives log fields and decides the
// role of the synthetic transcript message written when the node fails:
// tool nodes produce tool-role messages, everything else assistant-role.
type NodeKind string

const (
	KindPlain NodeKind = "plain"
	KindTool  NodeKind = "tool"
	KindAgent NodeKind = "agent"
)

type node struct {
	fn   NodeFunc
	kind NodeKind
}

// NodeOption configures a node at registration time.
type NodeOption func(*node)

// WithKind labels the node. Nodes default to KindPlain.
func WithKind(kind NodeKind) NodeOption {
	return func(n *node) {
		n.kind = kind
	}
}

// conditionalEdge routes from its source node through a router function.
// targets maps routing keys to node names (or END); defaultTarget, when
// non-empty, catches keys missing from the map.
type conditionalEdge struct {
	router        RouterFunc
	targets       map[string]string
	defaultTarget string
}

// ConditionalOption configures a conditional edge.
type ConditionalOption func(*conditionalEdge)

// WithDefaultTarget sets the fallback target used when the router
// returns a key that is not in the target map. Without a default such
// keys fail the run.
func WithDefaultTarget(target string) ConditionalOption {
	return func(ce *conditionalEdge) {
		ce.defaultTarget = target
	}
}
