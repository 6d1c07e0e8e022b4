// Package checkpoint persists per-thread graph state so conversations
// survive process restarts. The hosting layer owns durability; the
// engine only writes through the Store interface after each node.
package checkpoint

import (
	"errors"
	"time"
)

// Store persists checkpoints. Implementations must be safe for
// concurrent use: different conversation threads checkpoint in parallel.
type Store interface {
	// Save stores a checkpoint for a thread at a specific node,
	// overwriting any previous checkpoint for (threadID, nodeID).
	Save(threadID, nodeID string, data []byte) error

	// Load retrieves a checkpoint. Returns ErrNotFound if absent.
	Load(threadID, nodeID string) ([]byte, error)

	// List returns all checkpoints for a thread ordered by sequence.
	// An unknown thread yields an empty slice, not an error.
	List(threadID string) ([]Info, error)

	// Delete removes one checkpoint. Missing checkpoints are not an error.
	Delete(threadID, nodeID string) error

	// DeleteThread removes every checkpoint for a thread.
	DeleteThread(threadID string) error

	// Close releases any resources.
	Close() error
}

// Info is checkpoint metadata, available without loading the state blob.
type Info struct {
	ThreadID  string
	NodeID    string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

var (
	// ErrNotFound indicates a checkpoint doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
