package graph

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrivener/pkg/graph/checkpoint"
)

func threeStepGraph(t *testing.T) *CompiledGraph[Counter] {
	t.Helper()
	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddNode("b", increment).
		AddNode("c", increment).
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)
	return compiled
}

// TestResume_FromMidTurn tests that Resume picks up at the node the
// latest checkpoint named next and only runs the remaining nodes.
func TestResume_FromMidTurn(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	// Simulate a crash after node "a": one checkpoint, pointing at "b".
	state, err := json.Marshal(Counter{Value: 1})
	require.NoError(t, err)
	cp := checkpoint.New("thread-1", "a", 1, state, "b")
	data, err := cp.Marshal()
	require.NoError(t, err)
	require.NoError(t, store.Save("thread-1", "a", data))

	compiled := threeStepGraph(t)
	result, err := compiled.Resume(testCtx(), store, "thread-1")

	require.NoError(t, err)
	assert.Equal(t, 3, result.Value)

	// Resume checkpoints the nodes it ran, continuing the sequence.
	infos, err := store.List("thread-1")
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, 3, infos[len(infos)-1].Sequence)
}

// TestResume_CompletedTurn tests that a checkpoint pointing at END
// returns the stored state without executing anything.
func TestResume_CompletedTurn(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	state, err := json.Marshal(Counter{Value: 3})
	require.NoError(t, err)
	cp := checkpoint.New("thread-1", "c", 3, state, END)
	data, err := cp.Marshal()
	require.NoError(t, err)
	require.NoError(t, store.Save("thread-1", "c", data))

	compiled := threeStepGraph(t)
	result, err := compiled.Resume(testCtx(), store, "thread-1")

	require.NoError(t, err)
	assert.Equal(t, 3, result.Value)

	infos, err := store.List("thread-1")
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

// TestResume_NoCheckpoints tests the empty-thread error.
func TestResume_NoCheckpoints(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	compiled := threeStepGraph(t)
	_, err := compiled.Resume(testCtx(), store, "unknown-thread")

	assert.ErrorIs(t, err, ErrNoCheckpoints)
}

// TestResume_NilContext tests that a nil context is rejected.
func TestResume_NilContext(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	compiled := threeStepGraph(t)
	_, err := compiled.Resume(nil, store, "thread-1")

	assert.ErrorIs(t, err, ErrNilContext)
}

// TestResume_CorruptState tests that undecodable state fails with
// ErrDeserializeState.
func TestResume_CorruptState(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	cp := checkpoint.New("thread-1", "a", 1, []byte(`"not a counter"`), "b")
	data, err := cp.Marshal()
	require.NoError(t, err)
	require.NoError(t, store.Save("thread-1", "a", data))

	compiled := threeStepGraph(t)
	_, err = compiled.Resume(testCtx(), store, "thread-1")

	assert.ErrorIs(t, err, ErrDeserializeState)
}

// TestResume_VersionMismatch tests rejection of incompatible checkpoints.
func TestResume_VersionMismatch(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	state, err := json.Marshal(Counter{Value: 1})
	require.NoError(t, err)
	cp := checkpoint.New("thread-1", "a", 1, state, "b")
	cp.Version = checkpoint.Version + 1
	data, err := cp.Marshal()
	require.NoError(t, err)
	require.NoError(t, store.Save("thread-1", "a", data))

	compiled := threeStepGraph(t)
	_, err = compiled.Resume(testCtx(), store, "thread-1")

	assert.ErrorIs(t, err, ErrCheckpointVersionMismatch)
}

// TestResume_UnknownNextNode tests a checkpoint naming a node the
// current graph no longer has.
func TestResume_UnknownNextNode(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	state, err := json.Marshal(Counter{Value: 1})
	require.NoError(t, err)
	cp := checkpoint.New("thread-1", "a", 1, state, "removed")
	data, err := cp.Marshal()
	require.NoError(t, err)
	require.NoError(t, store.Save("thread-1", "a", data))

	compiled := threeStepGraph(t)
	_, err = compiled.Resume(testCtx(), store, "thread-1")

	assert.ErrorIs(t, err, ErrNodeNotFound)
}

// TestErrorTypes_MessagesAndUnwrap tests the formatted messages and
// Unwrap chains of the execution error types.
func TestErrorTypes_MessagesAndUnwrap(t *testing.T) {
	inner := errors.New("inner")

	nodeErr := &NodeError{NodeID: "n1", Op: "execute", Err: inner}
	assert.Contains(t, nodeErr.Error(), "n1")
	assert.ErrorIs(t, nodeErr, inner)

	routerErr := &RouterError{FromNode: "n1", Returned: "ghost", Err: ErrRouteNotFound}
	assert.Contains(t, routerErr.Error(), "ghost")
	assert.ErrorIs(t, routerErr, ErrRouteNotFound)

	panicErr := &PanicError{NodeID: "n1", Value: "boom", Stack: "trace"}
	assert.Contains(t, panicErr.Error(), "boom")

	maxErr := &MaxIterationsError{Max: 7, LastNodeID: "n1"}
	assert.Contains(t, maxErr.Error(), "7")
	assert.ErrorIs(t, maxErr, ErrMaxIterations)

	cancelErr := &CancellationError{NodeID: "n1", Cause: inner, WasExecuting: false}
	assert.Contains(t, cancelErr.Error(), "before node n1")
	assert.ErrorIs(t, cancelErr, inner)

	cpErr := &CheckpointError{NodeID: "n1", Op: "save", Err: inner}
	assert.Contains(t, cpErr.Error(), "save")
	assert.ErrorIs(t, cpErr, inner)
}
