/*
Package stategraph provides graph-based orchestration for conversational
workflows.

# Overview

stategraph is a Go library for building and executing directed, possibly
cyclic graphs where named nodes transform a shared run state and edges
define control flow. It is designed for orchestrating model-powered
workflows: multi-turn conversations, tool loops, and checkpointed
long-running threads.

The library provides:
  - An accumulating State with per-channel merge rules (the transcript
    channel appends, everything else is last-writer-wins)
  - Compile-time validation of graph structure with collect-all errors
  - A hard recursion limit guarding cyclic workflows
  - Thread-keyed checkpointing with resume support
  - OpenTelemetry integration for observability

# Basic Usage

Create a graph with nodes and edges, then compile and invoke:

	func echo(ctx stategraph.Context, s stategraph.State) (stategraph.State, error) {
	    last, _ := s.LastMessage()
	    return stategraph.Append(model.NewAssistantMessage("You said: " + last.Content)), nil
	}

	func main() {
	    graph := stategraph.New().
	        AddNode("echo", echo).
	        AddEdge("echo", stategraph.END).
	        SetEntry("echo")

	    compiled, err := graph.Compile()
	    if err != nil {
	        log.Fatal(err)
	    }

	    ctx := stategraph.NewContext(context.Background())
	    final, err := compiled.Invoke(ctx, stategraph.NewState(model.NewHumanMessage("hi")))
	    if err != nil {
	        log.Fatal(err)
	    }
	    for _, msg := range final.Messages() {
	        fmt.Printf("%s: %s\n", msg.Role, msg.Content)
	    }
	}

Nodes return partial states (deltas), never the full accumulated state.
The engine merges each delta through the channel reducers: messages
append, other channels overwrite.

# Conditional Routing

Conditional edges carry a router, an explicit target map, and an optional
default:

	graph.AddConditionalEdge("review", routeReview, map[string]string{
	    "approve": "publish",
	    "revise":  "draft",
	}, stategraph.WithDefaultTarget(stategraph.END))

The router returns a key. A key missing from the target map falls back to
the default target; with no default configured the run fails with
RoutingKeyError. Routing failures are always fatal: they indicate graph
misconfiguration, unlike node failures which are converted into
transcript messages so downstream nodes can react to them.

# Loops and Limits

Cycles are first-class. Every compiled graph carries a hard recursion
limit (default 25) checked before each node invocation:

	compiled, err := graph.Compile(stategraph.WithRecursionLimit(50))

Exceeding the limit fails with RecursionLimitError carrying the partial
transcript, so callers can inspect how far the run got.

# Checkpointing

Supplying a thread ID persists the conversation across invocations:

	store, _ := checkpoint.NewSQLiteStore("./threads.db")
	defer store.Close()

	ctx := stategraph.NewContext(context.Background(), stategraph.WithStore(store))
	final, err := compiled.Invoke(ctx, initial, stategraph.WithThreadID("thread-42"))

The engine loads the thread's checkpoint before the first step and saves
when the run reaches the terminal marker or is cancelled. A cancelled run
resumes from where it stopped:

	final, err = compiled.Resume(ctx, "thread-42")

# Error Handling

Errors carry the offending node and the state at failure:

	final, err := compiled.Invoke(ctx, initial)
	var limitErr *stategraph.RecursionLimitError
	if errors.As(err, &limitErr) {
	    log.Printf("stopped at %s after %d steps", limitErr.LastNode, limitErr.Steps)
	}

Node panics are recovered into PanicError with a stack trace. Node error
returns never abort the run; they append an error message to the
transcript and the run continues.

# Thread Safety

  - Graph is safe for concurrent construction but is typically built
    from a single goroutine
  - CompiledGraph is immutable and safe for concurrent Invoke calls
  - Distinct threads execute independently; a single run is strictly
    sequential

# Subpackages

  - model: messages, the model client interface, mock and CLI clients
  - registry: runtime plugin registry with derived tool nodes
  - agent: prebuilt agent and tool loop
  - checkpoint: thread-keyed stores (memory, SQLite, Redis)
  - observability: logging, metrics, and tracing helpers
  - prompt: system-prompt template expansion
  - config: typed configuration loading
*/
package stategraph
