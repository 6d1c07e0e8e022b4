package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo searches via DuckDuckGo's HTML interface. No API key needed.
type DuckDuckGo struct {
	http       *http.Client
	endpoint   string
	maxResults int
}

// DuckDuckGoOption configures a DuckDuckGo backend.
type DuckDuckGoOption func(*DuckDuckGo)

// WithSearchHTTPClient overrides the underlying HTTP client.
func WithSearchHTTPClient(hc *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGo) { d.http = hc }
}

// WithEndpoint overrides the search endpoint, used in tests.
func WithEndpoint(endpoint string) DuckDuckGoOption {
	return func(d *DuckDuckGo) { d.endpoint = endpoint }
}

// WithMaxResults caps the number of results returned per query.
func WithMaxResults(n int) DuckDuckGoOption {
	return func(d *DuckDuckGo) { d.maxResults = n }
}

// NewDuckDuckGo creates a backend returning up to 10 results per query.
func NewDuckDuckGo(opts ...DuckDuckGoOption) *DuckDuckGo {
	d := &DuckDuckGo{
		http:       &http.Client{Timeout: 30 * time.Second},
		endpoint:   duckDuckGoEndpoint,
		maxResults: 10,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Search implements Backend.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search: query is required")
	}

	searchURL := d.endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: %q: status %d", query, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search: parse results: %w", err)
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		href, _ := link.Attr("href")
		r := Result{
			URL:     cleanRedirect(href),
			Title:   strings.TrimSpace(link.Text()),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		}
		if r.URL != "" && r.Title != "" {
			results = append(results, r)
		}
		return len(results) < d.maxResults
	})
	return results, nil
}

// cleanRedirect unwraps DuckDuckGo's redirect links to the target URL.
func cleanRedirect(href string) string {
	const prefix = "//duckduckgo.com/l/?uddg="
	if !strings.HasPrefix(href, prefix) {
		return href
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(href, prefix))
	if err != nil {
		return href
	}
	if idx := strings.Index(decoded, "&"); idx > 0 {
		decoded = decoded[:idx]
	}
	return decoded
}
