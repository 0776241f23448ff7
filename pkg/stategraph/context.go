package stategraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kirtanmodi/stategraph/pkg/stategraph/checkpoint"
	"github.com/kirtanmodi/stategraph/pkg/stategraph/model"
)

// Context carries run-scoped dependencies and identity through a graph
// execution. It embeds context.Context, so cancellation and deadlines
// flow through unchanged; the engine checks for cancellation between
// steps.
//
// Inside a node the context is enriched: Logger carries run, node, and
// step fields, and NodeName and Step identify the current position.
type Context interface {
	context.Context

	// Logger returns the run logger. Inside node execution it carries
	// run_id, node, and step fields.
	Logger() *slog.Logger

	// Client returns the configured model client, or nil when none was
	// supplied. Nodes that call the model should treat nil as a
	// configuration error.
	Client() model.Client

	// Store returns the configured checkpoint store, or nil when none
	// was supplied.
	Store() checkpoint.Store

	// RunID identifies this invocation. Generated when not supplied
	// through WithRunID.
	RunID() string

	// NodeName returns the name of the executing node, or "" outside
	// node execution.
	NodeName() string

	// Step returns the step counter at the executing node, or 0 outside
	// node execution.
	Step() int
}

type executionContext struct {
	context.Context
	logger   *slog.Logger
	client   model.Client
	store    checkpoint.Store
	runID    string
	nodeName string
	step     int
}

// ContextOption configures a Context created by NewContext.
type ContextOption func(*executionContext)

// WithLogger sets the run logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ContextOption {
	return func(ec *executionContext) {
		if logger != nil {
			ec.logger = logger
		}
	}
}

// WithClient sets the model client available to nodes through
// Context.Client.
func WithClient(client model.Client) ContextOption {
	return func(ec *executionContext) {
		ec.client = client
	}
}

// WithStore sets the checkpoint store used for thread persistence.
func WithStore(store checkpoint.Store) ContextOption {
	return func(ec *executionContext) {
		ec.store = store
	}
}

// WithRunID overrides the generated run ID, for correlating runs with
// external systems.
func WithRunID(id string) ContextOption {
	return func(ec *executionContext) {
		if id != "" {
			ec.runID = id
		}
	}
}

// NewContext wraps a standard context for a graph run. Without options
// the context logs through slog.Default(), has a generated run ID, and
// carries no client or store.
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

func (ec *executionContext) Logger() *slog.Logger    { return ec.logger }
func (ec *executionContext) Client() model.Client    { return ec.client }
func (ec *executionContext) Store() checkpoint.Store { return ec.store }
func (ec *executionContext) RunID() string           { return ec.runID }
func (ec *executionContext) NodeName() string        { return ec.nodeName }
func (ec *executionContext) Step() int               { return ec.step }

// withNode derives a child context positioned at one node execution,
// with an enriched logger. The parent is never mutated.
func (ec *executionContext) withNode(name string, step int) *executionContext {
	child := *ec
	child.nodeName = name
	child.step = step
	child.logger = ec.logger.With(
		"run_id", ec.runID,
		"node", name,
		"step", step,
	)
	return &child
}

// withSpanContext returns a copy carrying ctx as the embedded Context,
// so node work parents under the span that ctx holds.
func (ec *executionContext) withSpanContext(ctx context.Context) *executionContext {
	child := *ec
	child.Context = ctx
	return &child
}

// asExecutionContext normalizes a caller-supplied Context. Contexts from
// NewContext pass through; foreign implementations are wrapped so the
// engine can derive node-scoped children.
func asExecutionContext(ctx Context) *executionContext {
	if ec, ok := ctx.(*executionContext); ok {
		return ec
	}
	return &executionContext{
		Context: ctx,
		logger:  ctx.Logger(),
		client:  ctx.Client(),
		store:   ctx.Store(),
		runID:   ctx.RunID(),
	}
}
