// Package websearch is the three-stage research subgraph: classify
// whether the turn needs a web search, generate a small set of queries,
// then run them against a search backend. A negative classification
// terminates the subgraph immediately with no results.
package websearch

import (
	"encoding/json"
	"fmt"

	"scrivener/pkg/graph"
	"scrivener/pkg/llm"
	"scrivener/pkg/search"
)

// Node IDs.
const (
	NodeClassifyMessage = "classifyMessage"
	NodeQueryGenerator  = "queryGenerator"
	NodeSearch          = "search"
)

// State is the subgraph's own unit of work.
type State struct {
	Messages     []llm.Message   `json:"messages"`
	ShouldSearch bool            `json:"shouldSearch"`
	Queries      []string        `json:"queries,omitempty"`
	Results      []search.Result `json:"results,omitempty"`
}

// Subgraph builds the compiled web-search pipeline.
type Subgraph struct {
	backend search.Backend
	model   string
}

// New creates a Subgraph using the given backend and classifier model.
func New(backend search.Backend, model string) *Subgraph {
	return &Subgraph{backend: backend, model: model}
}

// Compile wires and validates the pipeline.
func (s *Subgraph) Compile() (*graph.CompiledGraph[State], error) {
	return graph.NewGraph[State]().
		AddNode(NodeClassifyMessage, s.classifyMessage).
		AddNode(NodeQueryGenerator, s.generateQueries).
		AddNode(NodeSearch, s.runSearch).
		SetEntry(NodeClassifyMessage).
		AddConditionalEdge(NodeClassifyMessage, searchOrEnd).
		AddEdge(NodeQueryGenerator, NodeSearch).
		AddEdge(NodeSearch, graph.END).
		Compile()
}

func searchOrEnd(_ graph.Context, state State) string {
	if state.ShouldSearch {
		return NodeQueryGenerator
	}
	return graph.END
}

var classifySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"should_search": {
			"type": "boolean",
			"description": "Whether to search the web based on the user's latest message."
		}
	},
	"required": ["should_search"]
}`)

const classifyPrompt = `Determine whether answering the user's latest message well requires searching the web for current information. Reply with the classification tool.

Latest message:
<message>
%s
</message>`

// classifyMessage decides whether this turn needs a search. A missing
// tool call means no search.
func (s *Subgraph) classifyMessage(ctx graph.Context, state State) (State, error) {
	if len(state.Messages) == 0 {
		return state, fmt.Errorf("no messages to classify")
	}
	latest := state.Messages[len(state.Messages)-1]

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model: s.model,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(classifyPrompt, latest.Content),
		}},
		Tools: []llm.Tool{{
			Name:        "classify_message",
			Description: "Classify whether the user's message needs a web search.",
			Parameters:  classifySchema,
		}},
		ToolChoice: "classify_message",
	})
	if err != nil {
		return state, fmt.Errorf("classify message: %w", err)
	}

	state.ShouldSearch = false
	if len(resp.ToolCalls) > 0 {
		var args struct {
			ShouldSearch bool `json:"should_search"`
		}
		if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &args); err != nil {
			return state, fmt.Errorf("classify message: decode tool call: %w", err)
		}
		state.ShouldSearch = args.ShouldSearch
	}
	return state, nil
}

var queriesSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"queries": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Up to three web search queries derived from the conversation."
		}
	},
	"required": ["queries"]
}`)

const queriesPrompt = `Derive at most three web search queries that would gather the information needed to answer the user's latest message. Use the conversation for context and reply with the query tool.

Conversation:
<conversation>
%s
</conversation>`

// generateQueries derives the search queries from conversation context.
func (s *Subgraph) generateQueries(ctx graph.Context, state State) (State, error) {
	var conversation string
	for _, m := range state.Messages {
		conversation += fmt.Sprintf("%s: %s\n\n", m.Role, m.Content)
	}

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model: s.model,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(queriesPrompt, conversation),
		}},
		Tools: []llm.Tool{{
			Name:        "generate_queries",
			Description: "Generate web search queries for the conversation.",
			Parameters:  queriesSchema,
		}},
		ToolChoice: "generate_queries",
	})
	if err != nil {
		return state, fmt.Errorf("generate queries: %w", err)
	}
	if len(resp.ToolCalls) == 0 {
		return state, fmt.Errorf("generate queries: model returned no tool call")
	}

	var args struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &args); err != nil {
		return state, fmt.Errorf("generate queries: decode tool call: %w", err)
	}
	if len(args.Queries) == 0 {
		return state, fmt.Errorf("generate queries: model returned no queries")
	}

	state.Queries = args.Queries
	return state, nil
}

// runSearch fans the queries into the backend. Per-query failures are
// logged and skipped so one bad query cannot sink the turn.
func (s *Subgraph) runSearch(ctx graph.Context, state State) (State, error) {
	for _, query := range state.Queries {
		results, err := s.backend.Search(ctx, query)
		if err != nil {
			ctx.Logger().Warn("search query failed",
				"query", query,
				"error", err)
			continue
		}
		state.Results = append(state.Results, results...)
	}
	return state, nil
}
