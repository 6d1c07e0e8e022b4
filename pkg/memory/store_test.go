package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInMemoryStore_PutGet tests basic round-trip storage.
func TestInMemoryStore_PutGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	ns := ReflectionNamespace("assistant-1")

	value := map[string]any{"styleRules": []string{"be concise"}}
	require.NoError(t, store.Put(ctx, ns, ReflectionKey, value))

	got, ok, err := store.Get(ctx, ns, ReflectionKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, got)
}

// TestInMemoryStore_GetMissing tests absent values report false.
func TestInMemoryStore_GetMissing(t *testing.T) {
	store := NewInMemoryStore()

	got, ok, err := store.Get(context.Background(), []string{"memories", "nobody"}, ReflectionKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

// TestInMemoryStore_NamespaceIsolation tests values in different
// namespaces do not collide.
func TestInMemoryStore_NamespaceIsolation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, ReflectionNamespace("a"), ReflectionKey,
		map[string]any{"content": []string{"likes Go"}}))
	require.NoError(t, store.Put(ctx, ReflectionNamespace("b"), ReflectionKey,
		map[string]any{"content": []string{"likes Rust"}}))

	got, ok, err := store.Get(ctx, ReflectionNamespace("a"), ReflectionKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"likes Go"}, got["content"])
}

// TestInMemoryStore_Overwrite tests Put replaces an existing value.
func TestInMemoryStore_Overwrite(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	ns := ReflectionNamespace("a")

	require.NoError(t, store.Put(ctx, ns, ReflectionKey, map[string]any{"v": 1}))
	require.NoError(t, store.Put(ctx, ns, ReflectionKey, map[string]any{"v": 2}))

	got, ok, err := store.Get(ctx, ns, ReflectionKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got["v"])
}

// TestInMemoryStore_CopySemantics tests callers cannot mutate stored maps.
func TestInMemoryStore_CopySemantics(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	ns := ReflectionNamespace("a")

	value := map[string]any{"k": "original"}
	require.NoError(t, store.Put(ctx, ns, ReflectionKey, value))
	value["k"] = "mutated after put"

	got, _, err := store.Get(ctx, ns, ReflectionKey)
	require.NoError(t, err)
	assert.Equal(t, "original", got["k"])

	got["k"] = "mutated after get"
	again, _, err := store.Get(ctx, ns, ReflectionKey)
	require.NoError(t, err)
	assert.Equal(t, "original", again["k"])
}

// TestInMemoryStore_CancelledContext tests context errors propagate.
func TestInMemoryStore_CancelledContext(t *testing.T) {
	store := NewInMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, []string{"n"}, "k", nil), context.Canceled)
	_, _, err := store.Get(ctx, []string{"n"}, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

// TestFormatReflections_Empty tests the fallback text.
func TestFormatReflections_Empty(t *testing.T) {
	assert.Equal(t, NoReflections, FormatReflections(nil))
	assert.Equal(t, NoReflections, FormatReflections(map[string]any{}))
	assert.Equal(t, NoReflections, FormatReflections(map[string]any{
		"styleRules": []string{},
		"content":    []any{},
	}))
}

// TestFormatReflections_StyleRulesOnly tests the style section alone.
func TestFormatReflections_StyleRulesOnly(t *testing.T) {
	got := FormatReflections(map[string]any{
		"styleRules": []string{"short sentences", "no emoji"},
	})

	assert.Equal(t,
		"Style rules the user has established:\n- short sentences\n- no emoji",
		got)
}

// TestFormatReflections_Both tests both sections with a blank line between.
func TestFormatReflections_Both(t *testing.T) {
	got := FormatReflections(map[string]any{
		"styleRules": []any{"formal tone"},
		"content":    []any{"works in fintech"},
	})

	assert.Equal(t,
		"Style rules the user has established:\n- formal tone\n\n"+
			"Facts remembered about the user:\n- works in fintech",
		got)
}

// TestFormatReflections_SkipsNonStrings tests non-string entries are dropped.
func TestFormatReflections_SkipsNonStrings(t *testing.T) {
	got := FormatReflections(map[string]any{
		"content": []any{"real fact", 42, nil},
	})

	assert.Equal(t, "Facts remembered about the user:\n- real fact", got)
}
