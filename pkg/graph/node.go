package graph

// END is the terminal node identifier.
// Use it as an edge target (or router result) to finish the turn.
const END = "__end__"

// NodeFunc is the signature of every step in the graph.
// The state is passed by value; a node returns the updated state rather
// than mutating shared memory.
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc decides the next node after a conditional edge's source ran.
// It must return a registered node ID or END; an empty string or an
// unknown ID aborts the turn with a RouterError.
type RouterFunc[S any] func(ctx Context, state S) string
