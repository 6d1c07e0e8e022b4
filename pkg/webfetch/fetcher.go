// Package webfetch retrieves web pages and extracts their readable text,
// used to inline page contents into user prompts.
package webfetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Page is the extracted content of a fetched URL.
type Page struct {
	URL     string
	Title   string
	Content string
}

// Fetcher retrieves and extracts a single page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// ReadabilityFetcher fetches pages over HTTP and extracts article text
// with go-readability.
type ReadabilityFetcher struct {
	http      *http.Client
	userAgent string
}

// ReadabilityOption configures a ReadabilityFetcher.
type ReadabilityOption func(*ReadabilityFetcher)

// WithFetchHTTPClient overrides the underlying HTTP client.
func WithFetchHTTPClient(hc *http.Client) ReadabilityOption {
	return func(f *ReadabilityFetcher) { f.http = hc }
}

// WithUserAgent sets the User-Agent header sent with fetches.
func WithUserAgent(ua string) ReadabilityOption {
	return func(f *ReadabilityFetcher) { f.userAgent = ua }
}

// NewReadabilityFetcher creates a fetcher with a 30 second timeout.
func NewReadabilityFetcher(opts ...ReadabilityOption) *ReadabilityFetcher {
	f := &ReadabilityFetcher{
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: "scrivener/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher.
func (f *ReadabilityFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("webfetch: parse url %q: %w", pageURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("webfetch: unsupported scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("webfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webfetch: get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webfetch: get %s: status %d", pageURL, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return nil, fmt.Errorf("webfetch: extract %s: %w", pageURL, err)
	}

	content := strings.TrimSpace(article.TextContent)
	if content == "" {
		return nil, fmt.Errorf("webfetch: no readable content at %s", pageURL)
	}

	return &Page{
		URL:     pageURL,
		Title:   article.Title,
		Content: content,
	}, nil
}
