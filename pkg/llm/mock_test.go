package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMockClient_FixedResponse tests the single-response constructor.
func TestMockClient_FixedResponse(t *testing.T) {
	mock := NewMockClient("hello")

	for i := 0; i < 3; i++ {
		resp, err := mock.Complete(context.Background(), CompletionRequest{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "hello", resp.Content)
		assert.Equal(t, "stop", resp.FinishReason)
	}
	assert.Equal(t, 3, mock.CallCount())
}

// TestMockClient_SequentialResponses tests the script cycles in order.
func TestMockClient_SequentialResponses(t *testing.T) {
	mock := NewMockClient("").WithResponses("first", "second", "third")

	var got []string
	for i := 0; i < 4; i++ {
		resp, err := mock.Complete(context.Background(), CompletionRequest{})
		require.NoError(t, err)
		got = append(got, resp.Content)
	}

	// Cycles back to the first response after the script is exhausted.
	assert.Equal(t, []string{"first", "second", "third", "first"}, got)
}

// TestMockClient_WithToolCall tests the tool-call response builder.
func TestMockClient_WithToolCall(t *testing.T) {
	mock := (&MockClient{}).WithToolCall("route_query", map[string]any{
		"route": "generateArtifact",
	})

	resp, err := mock.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "route_query", resp.ToolCalls[0].Name)
	assert.Equal(t, "tool_use", resp.FinishReason)

	var args map[string]any
	require.NoError(t, json.Unmarshal(resp.ToolCalls[0].Arguments, &args))
	assert.Equal(t, "generateArtifact", args["route"])
}

// TestMockClient_WithError tests every call fails once an error is set.
func TestMockClient_WithError(t *testing.T) {
	boom := errors.New("rate limited")
	mock := NewMockClient("ignored").WithError(boom)

	_, err := mock.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mock.CallCount())
}

// TestMockClient_WithCompleteFunc tests the full-override hook.
func TestMockClient_WithCompleteFunc(t *testing.T) {
	mock := (&MockClient{}).WithCompleteFunc(func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		return &CompletionResponse{Content: "echo: " + req.Messages[0].Content}, nil
	})

	resp, err := mock.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "echo: ping", resp.Content)
	assert.Equal(t, 1, mock.CallCount())
}

// TestMockClient_RecordsRequests tests call tracking and LastCall.
func TestMockClient_RecordsRequests(t *testing.T) {
	mock := NewMockClient("ok")

	assert.Nil(t, mock.LastCall())

	_, err := mock.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "be terse",
		Messages:     []Message{{Role: RoleUser, Content: "one"}},
	})
	require.NoError(t, err)
	_, err = mock.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "two"}},
	})
	require.NoError(t, err)

	require.NotNil(t, mock.LastCall())
	assert.Equal(t, "two", mock.LastCall().Messages[0].Content)
	assert.Equal(t, "be terse", mock.Calls[0].SystemPrompt)
}

// TestMockClient_Reset tests Reset clears calls and restarts the script.
func TestMockClient_Reset(t *testing.T) {
	mock := NewMockClient("").WithResponses("first", "second")

	_, err := mock.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)

	mock.Reset()
	assert.Equal(t, 0, mock.CallCount())

	resp, err := mock.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)
}

// TestMockClient_ContextCancelled tests a cancelled context short-circuits.
func TestMockClient_ContextCancelled(t *testing.T) {
	mock := NewMockClient("never")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Complete(ctx, CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mock.CallCount())
}

// TestMockClient_ApproximateUsage tests usage estimation from the request.
func TestMockClient_ApproximateUsage(t *testing.T) {
	mock := NewMockClient("12345678") // 8 chars -> 3 output tokens

	resp, err := mock.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "abcd",
		Messages:     []Message{{Role: RoleUser, Content: "efgh"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Usage.InputTokens)
	assert.Equal(t, 3, resp.Usage.OutputTokens)
	assert.Equal(t, 6, resp.Usage.TotalTokens)
}

// TestTokenUsage_Add tests accumulation across calls.
func TestTokenUsage_Add(t *testing.T) {
	total := TokenUsage{}
	total.Add(TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15})
	total.Add(TokenUsage{InputTokens: 2, OutputTokens: 3, TotalTokens: 5})

	assert.Equal(t, 12, total.InputTokens)
	assert.Equal(t, 8, total.OutputTokens)
	assert.Equal(t, 20, total.TotalTokens)
}
