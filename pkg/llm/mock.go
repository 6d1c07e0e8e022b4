package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockClient is a scripted Client for tests. It returns fixed or
// sequential responses, records every request, and supports a custom
// complete function for full control.
//
// Safe for concurrent use.
type MockClient struct {
	mu           sync.Mutex
	responses    []*CompletionResponse
	index        int
	err          error
	completeFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Calls records every request in order. Guard with the mock's own
	// methods in concurrent tests.
	Calls []CompletionRequest
}

// NewMockClient creates a mock that always returns content.
func NewMockClient(content string) *MockClient {
	return &MockClient{
		responses: []*CompletionResponse{textResponse(content)},
	}
}

// WithResponses replaces the script with sequential text responses.
// After the last response the script cycles back to the first.
func (m *MockClient) WithResponses(contents ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = m.responses[:0]
	for _, c := range contents {
		m.responses = append(m.responses, textResponse(c))
	}
	m.index = 0
	return m
}

// WithResponse appends a fully-specified response to the script.
func (m *MockClient) WithResponse(resp *CompletionResponse) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	return m
}

// WithToolCall appends a response whose only content is a call to the
// named tool with the given arguments. args is marshaled to JSON;
// marshal failures panic since they indicate a broken test fixture.
func (m *MockClient) WithToolCall(name string, args any) *MockClient {
	raw, err := json.Marshal(args)
	if err != nil {
		panic("llm: mock tool call args: " + err.Error())
	}
	return m.WithResponse(&CompletionResponse{
		ToolCalls:    []ToolCall{{ID: "mock-call-1", Name: name, Arguments: raw}},
		FinishReason: "tool_use",
		Usage:        TokenUsage{InputTokens: 1, OutputTokens: 1, TotalTokens: 2},
	})
}

// WithError makes every call fail with err.
func (m *MockClient) WithError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithCompleteFunc overrides Complete entirely. Calls are still recorded.
func (m *MockClient) WithCompleteFunc(fn func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeFunc = fn
	return m
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	err := m.err
	fn := m.completeFunc
	var resp *CompletionResponse
	if err == nil && fn == nil && len(m.responses) > 0 {
		resp = m.responses[m.index%len(m.responses)]
		m.index++
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(ctx, req)
	}
	if resp == nil {
		return textResponse(""), nil
	}

	// Fill in usage from the request so tests can assert on it.
	out := *resp
	if out.Usage.TotalTokens == 0 {
		out.Usage = approximateUsage(req, out.Content)
	}
	return &out, nil
}

// CallCount returns the number of recorded calls.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or nil if none were made.
func (m *MockClient) LastCall() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	last := m.Calls[len(m.Calls)-1]
	return &last
}

// Reset clears recorded calls and restarts the script.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.index = 0
}

func textResponse(content string) *CompletionResponse {
	return &CompletionResponse{
		Content:      content,
		FinishReason: "stop",
	}
}

// approximateUsage estimates token counts at four characters per token,
// with a floor of one token per side.
func approximateUsage(req CompletionRequest, output string) TokenUsage {
	inputChars := len(req.SystemPrompt)
	for _, msg := range req.Messages {
		inputChars += len(msg.Content)
	}
	in := inputChars/4 + 1
	out := len(output)/4 + 1
	return TokenUsage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}
