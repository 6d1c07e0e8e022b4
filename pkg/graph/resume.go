package graph

import (
	"encoding/json"
	"fmt"

	"scrivener/pkg/graph/checkpoint"
)

// Resume continues a thread from its latest checkpoint: the stored state
// is restored and execution picks up at the node the checkpoint named
// next. Used by hosting layers that persist conversations across process
// restarts.
func (cg *CompiledGraph[S]) Resume(ctx Context, store checkpoint.Store, threadID string, opts ...RunOption) (S, error) {
	var zero S

	if ctx == nil {
		return zero, ErrNilContext
	}

	infos, err := store.List(threadID)
	if err != nil {
		return zero, fmt.Errorf("list checkpoints: %w", err)
	}
	if len(infos) == 0 {
		return zero, fmt.Errorf("%w: %s", ErrNoCheckpoints, threadID)
	}

	latest := infos[len(infos)-1]
	data, err := store.Load(threadID, latest.NodeID)
	if err != nil {
		return zero, fmt.Errorf("load checkpoint: %w", err)
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}
	if cp.Version != checkpoint.Version {
		return zero, fmt.Errorf("%w: got %d, expected %d",
			ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}

	var state S
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}

	if cp.NextNode == END {
		// The turn already finished; nothing left to execute.
		return state, nil
	}

	cfg := defaultRunConfig()
	cfg.checkpointStore = store
	cfg.threadID = threadID
	cfg.sequence = latest.Sequence
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = ctx.Logger()
	}

	if !cg.HasNode(cp.NextNode) {
		return state, fmt.Errorf("%w: %s", ErrNodeNotFound, cp.NextNode)
	}

	result, _, err := cg.runFrom(ctx, ctx, state, cp.NextNode, &cfg)
	return result, err
}
