// Package graph provides the execution engine behind the assistant:
// a directed graph of named steps connected by plain and conditional
// edges, executed strictly sequentially for one conversation turn.
//
// Build a graph with NewGraph, register nodes and edges, then Compile()
// into an immutable CompiledGraph that is safe to share across turns:
//
//	g := graph.NewGraph[State]().
//	    AddNode("classify", classify).
//	    AddNode("respond", respond).
//	    AddEdge("classify", "respond").
//	    AddEdge("respond", graph.END).
//	    SetEntry("classify")
//
//	compiled, err := g.Compile()
//	final, err := compiled.Run(graph.NewContext(ctx), initial)
//
// Conditional edges carry a RouterFunc that inspects the state after the
// source node ran and names the next node (or END). Exactly one node runs
// at a time; there is no parallel execution. Each turn can optionally be
// checkpointed after every node (see the checkpoint subpackage), keyed by
// the conversation thread ID, and resumed with Resume.
package graph
