package canvas

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"scrivener/pkg/graph"
	"scrivener/pkg/llm"
	"scrivener/pkg/search"
	"scrivener/pkg/webfetch"
)

// stubBackend is a scripted search.Backend.
type stubBackend struct {
	results map[string][]search.Result
	err     error
	queries []string
}

func (b *stubBackend) Search(ctx context.Context, query string) ([]search.Result, error) {
	b.queries = append(b.queries, query)
	if b.err != nil {
		return nil, b.err
	}
	return b.results[query], nil
}

// stubFetcher is a scripted webfetch.Fetcher keyed by URL.
type stubFetcher struct {
	pages   map[string]string
	err     error
	fetched []string
}

func (f *stubFetcher) Fetch(ctx context.Context, pageURL string) (*webfetch.Page, error) {
	f.fetched = append(f.fetched, pageURL)
	if f.err != nil {
		return nil, f.err
	}
	content, ok := f.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("no page for %s", pageURL)
	}
	return &webfetch.Page{URL: pageURL, Content: content}, nil
}

// failingMemory is a memory.Store whose reads and writes always fail.
type failingMemory struct {
	err error
}

func (f failingMemory) Get(ctx context.Context, namespace []string, key string) (map[string]any, bool, error) {
	return nil, false, f.err
}

func (f failingMemory) Put(ctx context.Context, namespace []string, key string, value map[string]any) error {
	return f.err
}

func newTestAssistant(t *testing.T, opts ...AssistantOption) *Assistant {
	t.Helper()
	a, err := NewAssistant("test-assistant", &stubBackend{}, opts...)
	require.NoError(t, err)
	return a
}

func llmCtx(client llm.Client) graph.Context {
	return graph.NewContext(context.Background(), graph.WithLLM(client))
}

// codeState builds a state holding a single code version and one human
// message so operations that need a recent request succeed.
func codeState(code string) State {
	return State{
		Artifact: NewArtifact(CodeContent{Title: "Program", Language: "go", Code: code}),
	}.AppendMessage(NewHumanMessage("change it"))
}

func markdownState(md string) State {
	return State{
		Artifact: NewArtifact(MarkdownContent{Title: "Doc", FullMarkdown: md}),
	}.AppendMessage(NewHumanMessage("change it"))
}
