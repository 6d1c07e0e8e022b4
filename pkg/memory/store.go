// Package memory holds long-lived assistant memories, keyed by a
// hierarchical namespace. Reflections about a user's style and
// preferences live under ["memories", assistantID] and are rendered
// into prompts with FormatReflections.
package memory

import (
	"context"
	"strings"
	"sync"
)

// Store reads and writes namespaced memory values.
type Store interface {
	// Get returns the value stored under the namespace and key. The
	// second return is false when no value exists.
	Get(ctx context.Context, namespace []string, key string) (map[string]any, bool, error)

	// Put stores a value under the namespace and key, replacing any
	// existing value.
	Put(ctx context.Context, namespace []string, key string, value map[string]any) error
}

// InMemoryStore is a Store backed by a map. Safe for concurrent use.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]map[string]any
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{values: make(map[string]map[string]any)}
}

func storeKey(namespace []string, key string) string {
	return strings.Join(namespace, "/") + "#" + key
}

// Get implements Store.
func (s *InMemoryStore) Get(ctx context.Context, namespace []string, key string) (map[string]any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[storeKey(namespace, key)]
	if !ok {
		return nil, false, nil
	}
	// Shallow copy so callers cannot mutate stored state.
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out, true, nil
}

// Put implements Store.
func (s *InMemoryStore) Put(ctx context.Context, namespace []string, key string, value map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make(map[string]any, len(value))
	for k, v := range value {
		stored[k] = v
	}
	s.values[storeKey(namespace, key)] = stored
	return nil
}
