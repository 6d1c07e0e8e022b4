package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultHTML(url, title, snippet string) string {
	return fmt.Sprintf(`<div class="result">
		<a class="result__a" href="%s">%s</a>
		<a class="result__snippet">%s</a>
	</div>`, url, title, snippet)
}

// TestDuckDuckGo_ParsesResults tests result extraction from the HTML page.
func TestDuckDuckGo_ParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go generics tutorial", r.URL.Query().Get("q"))
		page := "<html><body>" +
			resultHTML("https://go.dev/doc/tutorial/generics", "Tutorial: Generics", "Add generic functions to your code.") +
			resultHTML("https://go.dev/blog/intro-generics", "An Introduction To Generics", "Supported since Go 1.18.") +
			"</body></html>"
		w.Write([]byte(page))
	}))
	defer server.Close()

	ddg := NewDuckDuckGo(WithEndpoint(server.URL))
	results, err := ddg.Search(context.Background(), "go generics tutorial")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://go.dev/doc/tutorial/generics", results[0].URL)
	assert.Equal(t, "Tutorial: Generics", results[0].Title)
	assert.Equal(t, "Add generic functions to your code.", results[0].Snippet)
	assert.Equal(t, "An Introduction To Generics", results[1].Title)
}

// TestDuckDuckGo_UnwrapsRedirectLinks tests uddg redirect links resolve
// to their target URL.
func TestDuckDuckGo_UnwrapsRedirectLinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := "<html><body>" +
			resultHTML("//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc%2F&amp;rut=abc123", "Go Docs", "Documentation.") +
			"</body></html>"
		w.Write([]byte(page))
	}))
	defer server.Close()

	ddg := NewDuckDuckGo(WithEndpoint(server.URL))
	results, err := ddg.Search(context.Background(), "go docs")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://go.dev/doc/", results[0].URL)
}

// TestDuckDuckGo_MaxResults tests the result cap.
func TestDuckDuckGo_MaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString("<html><body>")
		for i := 0; i < 10; i++ {
			b.WriteString(resultHTML(
				fmt.Sprintf("https://example.com/%d", i),
				fmt.Sprintf("Result %d", i),
				"snippet"))
		}
		b.WriteString("</body></html>")
		w.Write([]byte(b.String()))
	}))
	defer server.Close()

	ddg := NewDuckDuckGo(WithEndpoint(server.URL), WithMaxResults(3))
	results, err := ddg.Search(context.Background(), "anything")

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

// TestDuckDuckGo_SkipsIncompleteResults tests entries without a link or
// title are dropped.
func TestDuckDuckGo_SkipsIncompleteResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := "<html><body>" +
			`<div class="result"><a class="result__a" href="">No URL</a></div>` +
			`<div class="result"><a class="result__a" href="https://example.com"></a></div>` +
			resultHTML("https://example.com/good", "Good", "kept") +
			"</body></html>"
		w.Write([]byte(page))
	}))
	defer server.Close()

	ddg := NewDuckDuckGo(WithEndpoint(server.URL))
	results, err := ddg.Search(context.Background(), "query")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Good", results[0].Title)
}

// TestDuckDuckGo_EmptyQuery tests blank queries are rejected locally.
func TestDuckDuckGo_EmptyQuery(t *testing.T) {
	ddg := NewDuckDuckGo(WithEndpoint("http://unreachable.invalid"))

	_, err := ddg.Search(context.Background(), "   ")
	assert.ErrorContains(t, err, "query is required")
}

// TestDuckDuckGo_ServerError tests non-200 responses fail.
func TestDuckDuckGo_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	ddg := NewDuckDuckGo(WithEndpoint(server.URL))
	_, err := ddg.Search(context.Background(), "query")

	assert.ErrorContains(t, err, "status 403")
}

// TestDuckDuckGo_NoResults tests an empty results page yields an empty
// slice without error.
func TestDuckDuckGo_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><div class='no-results'>nothing</div></body></html>"))
	}))
	defer server.Close()

	ddg := NewDuckDuckGo(WithEndpoint(server.URL))
	results, err := ddg.Search(context.Background(), "gibberish")

	require.NoError(t, err)
	assert.Empty(t, results)
}
