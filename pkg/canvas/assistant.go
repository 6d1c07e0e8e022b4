// Package canvas implements the conversational document/code editing
// assistant: a versioned artifact model, a priority-based intent router,
// the operation nodes that generate and edit artifact versions, a
// web-search hand-off, and the post-processing chain that follows every
// content-producing turn.
package canvas

import (
	"fmt"

	"scrivener/pkg/graph"
	"scrivener/pkg/jobs"
	"scrivener/pkg/memory"
	"scrivener/pkg/search"
	"scrivener/pkg/webfetch"

	"scrivener/pkg/canvas/websearch"
)

// Node IDs of the main graph. Route values in State.Next use the same
// names.
const (
	NodeGeneratePath             = "generatePath"
	NodeGenerateArtifact         = "generateArtifact"
	NodeRewriteArtifact          = "rewriteArtifact"
	NodeRewriteArtifactTheme     = "rewriteArtifactTheme"
	NodeRewriteCodeArtifactTheme = "rewriteCodeArtifactTheme"
	NodeUpdateArtifact           = "updateArtifact"
	NodeUpdateHighlightedText    = "updateHighlightedText"
	NodeCustomAction             = "customAction"
	NodeReplyToGeneralInput      = "replyToGeneralInput"
	NodeWebSearch                = "webSearch"
	NodeRoutePostWebSearch       = "routePostWebSearch"
	NodeGenerateFollowup         = "generateFollowup"
	NodeReflect                  = "reflect"
	NodeCleanState               = "cleanState"
	NodeGenerateTitle            = "generateTitle"
	NodeSummarizer               = "summarizer"
)

// Background job names submitted through the jobs client.
const (
	JobReflection    = "reflection"
	JobSummarization = "summarizer"
	JobTitle         = "title"
)

// CustomAction is a user-defined artifact transformation registered on
// the assistant ahead of time.
type CustomAction struct {
	ID     string
	Title  string
	Prompt string
}

// Assistant owns the collaborators and policy the graph nodes need.
// Build it with NewAssistant, then Graph() to get the runnable pipeline.
type Assistant struct {
	settings    Settings
	assistantID string

	memory  memory.Store
	jobs    *jobs.Client
	fetcher webfetch.Fetcher

	customActions map[string]CustomAction
	systemPrompt  string

	// docMalformed structurally detects a malformed document message.
	// The default flags document parts with no data.
	docMalformed func(Message) bool

	searchGraph *graph.CompiledGraph[websearch.State]
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithSettings replaces the default policy settings.
func WithSettings(s Settings) AssistantOption {
	return func(a *Assistant) { a.settings = s.normalize() }
}

// WithMemory sets the reflection store.
func WithMemory(store memory.Store) AssistantOption {
	return func(a *Assistant) { a.memory = store }
}

// WithJobs sets the background job client. Without one, reflection,
// summarization and title jobs are skipped with a log line.
func WithJobs(client *jobs.Client) AssistantOption {
	return func(a *Assistant) { a.jobs = client }
}

// WithFetcher sets the page fetcher used for URL inlining.
func WithFetcher(f webfetch.Fetcher) AssistantOption {
	return func(a *Assistant) { a.fetcher = f }
}

// WithCustomActions registers the assistant's quick actions.
func WithCustomActions(actions ...CustomAction) AssistantOption {
	return func(a *Assistant) {
		for _, action := range actions {
			a.customActions[action.ID] = action
		}
	}
}

// WithSystemPrompt prepends a user-supplied system prompt to artifact
// generation.
func WithSystemPrompt(prompt string) AssistantOption {
	return func(a *Assistant) { a.systemPrompt = prompt }
}

// WithDocumentDetector replaces the structural malformed-document check.
func WithDocumentDetector(fn func(Message) bool) AssistantOption {
	return func(a *Assistant) {
		if fn != nil {
			a.docMalformed = fn
		}
	}
}

// NewAssistant creates an Assistant identified by assistantID, with its
// web-search subgraph compiled against the given backend.
func NewAssistant(assistantID string, backend search.Backend, opts ...AssistantOption) (*Assistant, error) {
	if assistantID == "" {
		return nil, fmt.Errorf("canvas: assistant ID is required")
	}

	a := &Assistant{
		settings:      DefaultSettings(),
		assistantID:   assistantID,
		memory:        memory.NewInMemoryStore(),
		fetcher:       webfetch.NewReadabilityFetcher(),
		customActions: make(map[string]CustomAction),
		docMalformed:  defaultDocumentDetector,
	}
	for _, opt := range opts {
		opt(a)
	}

	sg, err := websearch.New(backend, a.settings.RouterModel).Compile()
	if err != nil {
		return nil, fmt.Errorf("canvas: compile web search subgraph: %w", err)
	}
	a.searchGraph = sg
	return a, nil
}

// defaultDocumentDetector flags a document part carrying no data.
func defaultDocumentDetector(m Message) bool {
	for _, p := range m.Parts {
		if (p.Type == PartTypeDocument || p.Type == PartTypePDF) && p.Data == "" && p.Text == "" {
			return true
		}
	}
	return false
}

// Graph wires and validates the main turn pipeline.
func (a *Assistant) Graph() (*graph.CompiledGraph[State], error) {
	return graph.NewGraph[State]().
		AddNode(NodeGeneratePath, a.generatePath).
		AddNode(NodeGenerateArtifact, a.generateArtifact).
		AddNode(NodeRewriteArtifact, a.rewriteArtifact).
		AddNode(NodeRewriteArtifactTheme, a.rewriteArtifactTheme).
		AddNode(NodeRewriteCodeArtifactTheme, a.rewriteCodeArtifactTheme).
		AddNode(NodeUpdateArtifact, a.updateArtifact).
		AddNode(NodeUpdateHighlightedText, a.updateHighlightedText).
		AddNode(NodeCustomAction, a.customAction).
		AddNode(NodeReplyToGeneralInput, a.replyToGeneralInput).
		AddNode(NodeWebSearch, a.webSearch).
		AddNode(NodeRoutePostWebSearch, a.routePostWebSearch).
		AddNode(NodeGenerateFollowup, a.generateFollowup).
		AddNode(NodeReflect, a.reflect).
		AddNode(NodeCleanState, a.cleanState).
		AddNode(NodeGenerateTitle, a.generateTitle).
		AddNode(NodeSummarizer, a.summarizer).
		SetEntry(NodeGeneratePath).
		AddConditionalEdge(NodeGeneratePath, routeByNext).
		AddEdge(NodeGenerateArtifact, NodeGenerateFollowup).
		AddEdge(NodeRewriteArtifact, NodeGenerateFollowup).
		AddEdge(NodeRewriteArtifactTheme, NodeGenerateFollowup).
		AddEdge(NodeRewriteCodeArtifactTheme, NodeGenerateFollowup).
		AddEdge(NodeUpdateArtifact, NodeGenerateFollowup).
		AddEdge(NodeUpdateHighlightedText, NodeGenerateFollowup).
		AddEdge(NodeCustomAction, NodeGenerateFollowup).
		AddEdge(NodeWebSearch, NodeRoutePostWebSearch).
		AddConditionalEdge(NodeRoutePostWebSearch, routeAfterWebSearch).
		AddEdge(NodeReplyToGeneralInput, NodeCleanState).
		AddEdge(NodeGenerateFollowup, NodeReflect).
		AddEdge(NodeReflect, NodeCleanState).
		AddConditionalEdge(NodeCleanState, a.routeTerminal).
		AddEdge(NodeGenerateTitle, graph.END).
		AddEdge(NodeSummarizer, graph.END).
		Compile()
}

// routeByNext dispatches to the route the intent router chose. An empty
// Next surfaces as a fatal RouterError in the engine.
func routeByNext(_ graph.Context, state State) string {
	return state.Next
}

// routeAfterWebSearch picks the content-producing step after the search
// subgraph returns, by artifact presence.
func routeAfterWebSearch(_ graph.Context, state State) string {
	if state.HasArtifact() {
		return NodeRewriteArtifact
	}
	return NodeGenerateArtifact
}

// routeTerminal decides how the turn ends: title the first substantive
// exchange, summarize when the internal history is over budget,
// otherwise stop.
func (a *Assistant) routeTerminal(_ graph.Context, state State) string {
	if len(state.Messages) <= a.settings.TitleMessageCeiling {
		return NodeGenerateTitle
	}
	if state.InternalCharCount() > a.settings.CharacterMax {
		return NodeSummarizer
	}
	return graph.END
}
