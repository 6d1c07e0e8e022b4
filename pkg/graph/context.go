package graph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"scrivener/pkg/graph/checkpoint"
	"scrivener/pkg/llm"
)

// Context is the execution context handed to every node. It extends
// context.Context with the services a step needs (logger, model client,
// checkpointer) and per-turn metadata.
//
// Context is immutable after creation; the executor derives per-node
// contexts with the node ID and an enriched logger.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with thread and node
	// context. Never nil; defaults to slog.Default().
	Logger() *slog.Logger

	// LLM returns the model client, or nil if none was configured.
	LLM() llm.Client

	// Checkpointer returns the checkpoint store, or nil.
	Checkpointer() checkpoint.Store

	// ThreadID identifies the conversation this turn belongs to.
	// Auto-generated if not configured.
	ThreadID() string

	// NodeID is the node currently executing; empty before the turn starts.
	NodeID() string

	// Attempt is the retry attempt number (1 = first attempt).
	Attempt() int
}

type executionContext struct {
	context.Context

	logger       *slog.Logger
	llmClient    llm.Client
	checkpointer checkpoint.Store
	threadID     string
	nodeID       string
	attempt      int
}

func (c *executionContext) Logger() *slog.Logger             { return c.logger }
func (c *executionContext) LLM() llm.Client                  { return c.llmClient }
func (c *executionContext) Checkpointer() checkpoint.Store   { return c.checkpointer }
func (c *executionContext) ThreadID() string                 { return c.threadID }
func (c *executionContext) NodeID() string                   { return c.nodeID }
func (c *executionContext) Attempt() int                     { return c.attempt }

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger. It is enriched with thread_id, node_id and
// attempt as the turn progresses.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) { c.logger = logger }
}

// WithLLM sets the model client available to nodes via ctx.LLM().
func WithLLM(client llm.Client) ContextOption {
	return func(c *executionContext) { c.llmClient = client }
}

// WithCheckpointer sets the checkpoint store.
func WithCheckpointer(store checkpoint.Store) ContextOption {
	return func(c *executionContext) { c.checkpointer = store }
}

// WithThreadID pins the conversation thread identifier. Without it a
// random UUID is generated, which is fine for one-shot turns but defeats
// checkpoint continuity across turns.
func WithThreadID(id string) ContextOption {
	return func(c *executionContext) { c.threadID = id }
}

// NewContext wraps a standard context with turn services and metadata.
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context:  ctx,
		logger:   slog.Default(),
		threadID: uuid.New().String(),
		attempt:  1,
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// withNodeID derives a per-node context with an enriched logger.
func (c *executionContext) withNodeID(nodeID string) *executionContext {
	return &executionContext{
		Context:      c.Context,
		logger:       c.logger.With("thread_id", c.threadID, "node_id", nodeID, "attempt", c.attempt),
		llmClient:    c.llmClient,
		checkpointer: c.checkpointer,
		threadID:     c.threadID,
		nodeID:       nodeID,
		attempt:      c.attempt,
	}
}
