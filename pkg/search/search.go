// Package search provides web search backends for the research subgraph.
package search

import "context"

// Result is a single search hit.
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Backend executes a search query.
type Backend interface {
	Search(ctx context.Context, query string) ([]Result, error)
}
