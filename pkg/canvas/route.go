package canvas

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"scrivener/pkg/graph"
	"scrivener/pkg/llm"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// generatePath is the intent router. It resolves context documents,
// optionally inlines URL contents into the latest human message, then
// chooses exactly one route by fixed priority, falling back to a model
// classification call when no flag is set.
func (a *Assistant) generatePath(ctx graph.Context, state State) (State, error) {
	var newMessages []Message
	if docMsg := contextDocumentMessage(state); docMsg != nil {
		newMessages = append(newMessages, *docMsg)
	}
	state = a.repairDocumentMessages(ctx, state)

	// Fixed priority, first match wins.
	route := ""
	switch {
	case state.HighlightedCode != nil:
		route = NodeUpdateArtifact
	case state.HighlightedText != nil:
		route = NodeUpdateHighlightedText
	case state.Language != "" || state.ArtifactLength != "" || state.RegenerateWithEmojis || state.ReadingLevel != "":
		route = NodeRewriteArtifactTheme
	case state.AddComments || state.AddLogs || state.PortLanguage != "" || state.FixBugs:
		route = NodeRewriteCodeArtifactTheme
	case state.CustomActionID != "":
		route = NodeCustomAction
	case state.WebSearchEnabled:
		route = NodeWebSearch
	}
	if route != "" {
		state = appendNewMessages(state, newMessages)
		state.Next = route
		return state, nil
	}

	state = a.maybeInlineURLs(ctx, state)

	route, err := a.dynamicRoute(ctx, state, newMessages)
	if err != nil {
		return state, err
	}
	state = appendNewMessages(state, newMessages)
	state.Next = route
	return state, nil
}

// contextDocumentMessage turns this turn's uploaded documents into one
// synthetic human message carrying document parts.
func contextDocumentMessage(state State) *Message {
	if len(state.ContextDocuments) == 0 {
		return nil
	}
	parts := make([]Part, 0, len(state.ContextDocuments))
	for _, doc := range state.ContextDocuments {
		partType := doc.Type
		if partType == "" {
			partType = PartTypeDocument
		}
		parts = append(parts, Part{Type: partType, Text: doc.Name, Data: doc.Data})
	}
	return &Message{ID: uuid.NewString(), Role: RoleHuman, Parts: parts}
}

func appendNewMessages(state State, newMessages []Message) State {
	for _, m := range newMessages {
		state = state.AppendMessage(m)
	}
	return state
}

// repairDocumentMessages runs a best-effort model repair over a
// malformed document message at the tail of the internal history.
// Failures are logged and the message is left as-is; routing never
// aborts here.
func (a *Assistant) repairDocumentMessages(ctx graph.Context, state State) State {
	if len(state.InternalMessages) == 0 {
		return state
	}
	last := state.InternalMessages[len(state.InternalMessages)-1]
	if !a.docMalformed(last) {
		return state
	}

	raw, err := json.Marshal(last)
	if err != nil {
		ctx.Logger().Warn("document repair skipped", "error", err)
		return state
	}
	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model: a.settings.RouterModel,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(fixDocumentPrompt, string(raw)),
		}},
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		ctx.Logger().Warn("document repair failed", "message_id", last.ID, "error", err)
		return state
	}

	fixed := last.WithText(resp.Content)
	internal := append([]Message(nil), state.InternalMessages...)
	internal[len(internal)-1] = fixed
	state.InternalMessages = internal
	return state
}

// maybeInlineURLs scans only the latest human message for literal URLs,
// asks a lightweight classifier whether their contents belong in the
// prompt, and on a positive answer substitutes each URL with a tagged
// block of the fetched page text. Any failure leaves the message
// byte-for-byte unchanged.
func (a *Assistant) maybeInlineURLs(ctx graph.Context, state State) State {
	idx := -1
	for i := len(state.InternalMessages) - 1; i >= 0; i-- {
		if state.InternalMessages[i].Role == RoleHuman {
			idx = i
			break
		}
	}
	if idx < 0 {
		return state
	}

	msg := state.InternalMessages[idx]
	urls := urlPattern.FindAllString(msg.Text(), -1)
	if len(urls) == 0 {
		return state
	}

	updated, ok := a.inlineURLContents(ctx, msg, urls)
	if !ok {
		return state
	}

	internal := append([]Message(nil), state.InternalMessages...)
	internal[idx] = updated
	state.InternalMessages = internal
	return state
}

var includeURLSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"should_include_url_contents": {
			"type": "boolean",
			"description": "Whether to include the URL contents in the prompt."
		}
	},
	"required": ["should_include_url_contents"]
}`)

func (a *Assistant) inlineURLContents(ctx graph.Context, msg Message, urls []string) (Message, bool) {
	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model: a.settings.RouterModel,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(includeURLPrompt, msg.Text()),
		}},
		Tools: []llm.Tool{{
			Name:        "determine_include_url_contents",
			Description: "Whether to include URL contents in the prompt.",
			Parameters:  includeURLSchema,
		}},
		ToolChoice: "determine_include_url_contents",
	})
	if err != nil {
		ctx.Logger().Warn("url inclusion classification failed", "error", err)
		return msg, false
	}
	if len(resp.ToolCalls) == 0 {
		return msg, false
	}
	var args struct {
		ShouldInclude bool `json:"should_include_url_contents"`
	}
	if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &args); err != nil {
		ctx.Logger().Warn("url inclusion classification failed", "error", err)
		return msg, false
	}
	if !args.ShouldInclude {
		return msg, false
	}

	text := msg.Text()
	for _, u := range urls {
		page, err := a.fetcher.Fetch(ctx, u)
		if err != nil {
			ctx.Logger().Warn("url fetch failed, message left unchanged",
				"url", u,
				"error", err)
			return msg, false
		}
		text = strings.ReplaceAll(text, u,
			fmt.Sprintf("<page-contents url=%q>\n%s\n</page-contents>", u, page.Content))
	}

	updated := msg.WithText(text)
	if updated.Kwargs == nil {
		updated.Kwargs = make(map[string]any)
	}
	updated.Kwargs[KwargWebSearchStatus] = "done"
	return updated, true
}

var routeQuerySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"route": {
			"type": "string",
			"description": "The route to take based on the user's query."
		}
	},
	"required": ["route"]
}`)

// dynamicRoute is the model-driven fallback classification. No usable
// route from the model is a fatal error for the turn; there is no safe
// default.
func (a *Assistant) dynamicRoute(ctx graph.Context, state State, newMessages []Message) (string, error) {
	options := routeOptionsNoArtifact
	artifactSection := noArtifactPrompt
	allowed := map[string]bool{NodeGenerateArtifact: true, NodeReplyToGeneralInput: true}

	if state.HasArtifact() {
		current, err := state.Artifact.Current()
		if err != nil {
			return "", err
		}
		options = routeOptionsHasArtifact
		artifactSection = fmt.Sprintf(currentArtifactPrompt,
			current.ContentTitle(), current.ContentType(), formatArtifactContent(current, true))
		allowed = map[string]bool{NodeRewriteArtifact: true, NodeReplyToGeneralInput: true}
	}

	prompt := fmt.Sprintf(routeQueryPrompt, options, state.recentConversation(3), artifactSection)

	messages := toLLMMessages(newMessages)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:    a.settings.RouterModel,
		Messages: messages,
		Tools: []llm.Tool{{
			Name:        "route_query",
			Description: "The route to take based on the user's query.",
			Parameters:  routeQuerySchema,
		}},
		ToolChoice: "route_query",
	})
	if err != nil {
		return "", fmt.Errorf("route classification: %w", err)
	}
	if len(resp.ToolCalls) == 0 {
		return "", fmt.Errorf("route classification returned no tool call")
	}

	var args struct {
		Route string `json:"route"`
	}
	if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &args); err != nil {
		return "", fmt.Errorf("route classification: decode tool call: %w", err)
	}
	if args.Route == "" {
		return "", fmt.Errorf("route classification returned no route")
	}
	if !allowed[args.Route] {
		return "", fmt.Errorf("route classification returned unknown route %q", args.Route)
	}
	return args.Route, nil
}
