package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrivener/pkg/graph/checkpoint"
)

// TestRun_LinearFlow tests basic linear execution.
func TestRun_LinearFlow(t *testing.T) {
	g := NewGraph[Counter]().
		AddNode("inc1", increment).
		AddNode("inc2", increment).
		AddNode("inc3", increment).
		AddEdge("inc1", "inc2").
		AddEdge("inc2", "inc3").
		AddEdge("inc3", END).
		SetEntry("inc1")

	compiled, err := g.Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), Counter{Value: 0})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Value)
}

// TestRun_NilContext tests that a nil context is rejected.
func TestRun_NilContext(t *testing.T) {
	g := NewGraph[Counter]().
		AddNode("only", increment).
		AddEdge("only", END).
		SetEntry("only")

	compiled, err := g.Compile()
	require.NoError(t, err)

	_, err = compiled.Run(nil, Counter{})

	assert.ErrorIs(t, err, ErrNilContext)
}

// TestRun_ConditionalRouting tests both branches of a conditional edge.
func TestRun_ConditionalRouting(t *testing.T) {
	router := func(ctx Context, s TurnState) string {
		if s.GoLeft {
			return "left"
		}
		return "right"
	}

	build := func(tracker *[]string) *CompiledGraph[TurnState] {
		compiled, err := NewGraph[TurnState]().
			AddNode("start", makeTrackingNode("start", tracker)).
			AddNode("left", makeTrackingNode("left", tracker)).
			AddNode("right", makeTrackingNode("right", tracker)).
			AddConditionalEdge("start", router).
			AddEdge("left", END).
			AddEdge("right", END).
			SetEntry("start").
			Compile()
		require.NoError(t, err)
		return compiled
	}

	var left []string
	_, err := build(&left).Run(testCtx(), TurnState{GoLeft: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "left"}, left)

	var right []string
	_, err = build(&right).Run(testCtx(), TurnState{GoLeft: false})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "right"}, right)
}

// TestRun_EmptyRouteIsFatal tests that a router returning "" aborts
// the turn with a RouterError.
func TestRun_EmptyRouteIsFatal(t *testing.T) {
	var tracker []string
	router := func(ctx Context, s TurnState) string { return "" }

	compiled, err := NewGraph[TurnState]().
		AddNode("start", makeTrackingNode("start", &tracker)).
		AddConditionalEdge("start", router).
		SetEntry("start").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), TurnState{})

	var routerErr *RouterError
	require.ErrorAs(t, err, &routerErr)
	assert.ErrorIs(t, err, ErrEmptyRoute)
	assert.Equal(t, "start", routerErr.FromNode)
}

// TestRun_UnknownRouteIsFatal tests that routing to a missing node fails.
func TestRun_UnknownRouteIsFatal(t *testing.T) {
	var tracker []string
	router := func(ctx Context, s TurnState) string { return "ghost" }

	compiled, err := NewGraph[TurnState]().
		AddNode("start", makeTrackingNode("start", &tracker)).
		AddConditionalEdge("start", router).
		SetEntry("start").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), TurnState{})

	assert.ErrorIs(t, err, ErrRouteNotFound)
}

// TestRun_NodeErrorPropagates tests node errors wrap in NodeError.
func TestRun_NodeErrorPropagates(t *testing.T) {
	boom := errors.New("boom")

	compiled, err := NewGraph[TurnState]().
		AddNode("fail", makeFailingNode(boom)).
		AddEdge("fail", END).
		SetEntry("fail").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), TurnState{})

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "fail", nodeErr.NodeID)
	assert.ErrorIs(t, err, boom)
}

// TestRun_PanicRecovery tests a panicking node becomes a PanicError.
func TestRun_PanicRecovery(t *testing.T) {
	compiled, err := NewGraph[TurnState]().
		AddNode("explode", makePanicNode("kaboom")).
		AddEdge("explode", END).
		SetEntry("explode").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), TurnState{})

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "explode", panicErr.NodeID)
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
}

// TestRun_MaxIterations tests the loop guard.
func TestRun_MaxIterations(t *testing.T) {
	router := func(ctx Context, s Counter) string { return "loop" }

	compiled, err := NewGraph[Counter]().
		AddNode("loop", increment).
		AddConditionalEdge("loop", router).
		SetEntry("loop").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), Counter{}, WithMaxIterations(5))

	var maxErr *MaxIterationsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 5, maxErr.Max)
}

// TestRun_Cancellation tests cancellation between nodes.
func TestRun_Cancellation(t *testing.T) {
	baseCtx, cancel := context.WithCancel(context.Background())

	firstNode := func(ctx Context, s Counter) (Counter, error) {
		cancel() // cancel while the pipeline is mid-flight
		s.Value++
		return s, nil
	}

	compiled, err := NewGraph[Counter]().
		AddNode("first", firstNode).
		AddNode("second", increment).
		AddEdge("first", "second").
		AddEdge("second", END).
		SetEntry("first").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(NewContext(baseCtx), Counter{})

	var cancelErr *CancellationError
	require.ErrorAs(t, err, &cancelErr)
	assert.Equal(t, "second", cancelErr.NodeID)
	assert.False(t, cancelErr.WasExecuting)
	assert.Equal(t, 1, result.Value) // first node's work is kept
}

// TestRun_CheckpointAfterEachNode tests checkpoint persistence.
func TestRun_CheckpointAfterEachNode(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddNode("b", increment).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), Counter{},
		WithCheckpointing(store, "thread-1"))
	require.NoError(t, err)

	infos, err := store.List("thread-1")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	// Latest checkpoint should carry the final state and point at END.
	data, err := store.Load("thread-1", "b")
	require.NoError(t, err)
	cp, err := checkpoint.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, END, cp.NextNode)

	var state Counter
	require.NoError(t, json.Unmarshal(cp.State, &state))
	assert.Equal(t, 2, state.Value)
}

// TestRun_CheckpointingRequiresThreadID tests the thread ID guard.
func TestRun_CheckpointingRequiresThreadID(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), Counter{}, WithCheckpointing(store, ""))

	assert.ErrorIs(t, err, ErrThreadIDRequired)
}

// TestRun_CheckpointFailureNonFatalByDefault tests that a failing store
// does not abort the turn unless configured fatal.
func TestRun_CheckpointFailureNonFatalByDefault(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	require.NoError(t, store.Close()) // closed store fails every Save

	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), Counter{},
		WithCheckpointing(store, "thread-1"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.Value)

	_, err = compiled.Run(testCtx(), Counter{},
		WithCheckpointing(store, "thread-1"),
		WithFatalCheckpointFailures())

	var cpErr *CheckpointError
	assert.ErrorAs(t, err, &cpErr)
}
