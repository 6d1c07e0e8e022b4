package canvas

import (
	"encoding/json"
	"fmt"
	"strings"

	"scrivener/pkg/graph"
	"scrivener/pkg/llm"
	"scrivener/pkg/memory"
)

// formatArtifactContent renders a content version for a prompt. shorten
// truncates long bodies for cheap classification calls.
func formatArtifactContent(c ArtifactContent, shorten bool) string {
	var body string
	switch v := c.(type) {
	case CodeContent:
		body = v.Code
	case MarkdownContent:
		body = v.FullMarkdown
	}
	if shorten && len(body) > 500 {
		body = body[:500] + "..."
	}
	return body
}

// reflections loads and formats the assistant's stored reflections.
// Store failures degrade to the no-reflections text.
func (a *Assistant) reflections(ctx graph.Context) string {
	value, ok, err := a.memory.Get(ctx, memory.ReflectionNamespace(a.assistantID), memory.ReflectionKey)
	if err != nil {
		ctx.Logger().Warn("reflection lookup failed", "error", err)
		return memory.NoReflections
	}
	if !ok {
		return memory.NoReflections
	}
	return memory.FormatReflections(value)
}

var generateArtifactSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"type": {
			"type": "string",
			"enum": ["code", "text"],
			"description": "Whether the artifact is code or a markdown document."
		},
		"title": {
			"type": "string",
			"description": "A short title for the artifact."
		},
		"language": {
			"type": "string",
			"description": "The programming language, when the artifact is code."
		},
		"artifact": {
			"type": "string",
			"description": "The full artifact content."
		}
	},
	"required": ["type", "title", "artifact"]
}`)

// generateArtifact produces artifact version 1 via a forced tool call.
// A response without a tool call is fatal for the turn.
func (a *Assistant) generateArtifact(ctx graph.Context, state State) (State, error) {
	prompt := fmt.Sprintf(generateArtifactPrompt, a.reflections(ctx))
	if a.systemPrompt != "" {
		prompt = a.systemPrompt + "\n" + prompt
	}

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:        a.settings.Model,
		Temperature:  a.settings.Temperature,
		SystemPrompt: prompt,
		Messages:     toLLMMessages(state.InternalMessages),
		Tools: []llm.Tool{{
			Name:        "generate_artifact",
			Description: "Generate a new artifact for the user.",
			Parameters:  generateArtifactSchema,
		}},
		ToolChoice: "generate_artifact",
	})
	if err != nil {
		return state, fmt.Errorf("generate artifact: %w", err)
	}
	if len(resp.ToolCalls) == 0 {
		return state, fmt.Errorf("generate artifact: model returned no tool call")
	}

	var args struct {
		Type     ContentType `json:"type"`
		Title    string      `json:"title"`
		Language string      `json:"language"`
		Artifact string      `json:"artifact"`
	}
	if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &args); err != nil {
		return state, fmt.Errorf("generate artifact: decode tool call: %w", err)
	}

	var content ArtifactContent
	switch args.Type {
	case ContentTypeCode:
		content = CodeContent{Title: args.Title, Language: args.Language, Code: args.Artifact}
	case ContentTypeText:
		content = MarkdownContent{Title: args.Title, FullMarkdown: args.Artifact}
	default:
		return state, fmt.Errorf("generate artifact: unknown content type %q", args.Type)
	}

	state.Artifact = NewArtifact(content)
	return state, nil
}

var updateMetaSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"type": {
			"type": "string",
			"enum": ["code", "text"],
			"description": "The artifact's new type, if it changed."
		},
		"title": {
			"type": "string",
			"description": "The artifact's new title, if it changed."
		},
		"language": {
			"type": "string",
			"description": "The new programming language, if it changed."
		}
	}
}`)

type artifactMeta struct {
	Type     ContentType `json:"type"`
	Title    string      `json:"title"`
	Language string      `json:"language"`
}

// optionallyUpdateMeta asks a cheap model whether the rewrite changes
// the artifact's type, title or language. Best effort: every failure is
// logged and an empty meta returned.
func (a *Assistant) optionallyUpdateMeta(ctx graph.Context, state State, current ArtifactContent) artifactMeta {
	recent, err := state.RecentHumanMessage()
	if err != nil {
		return artifactMeta{}
	}

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:        a.settings.RouterModel,
		SystemPrompt: fmt.Sprintf(updateMetaPrompt, formatArtifactContent(current, true), a.reflections(ctx)),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: recent.Text()}},
		Tools: []llm.Tool{{
			Name:        "optionally_update_artifact_meta",
			Description: "Update the artifact's metadata when the rewrite changes it.",
			Parameters:  updateMetaSchema,
		}},
		ToolChoice: "optionally_update_artifact_meta",
	})
	if err != nil || len(resp.ToolCalls) == 0 {
		ctx.Logger().Warn("artifact meta update skipped", "error", err)
		return artifactMeta{}
	}

	var meta artifactMeta
	if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &meta); err != nil {
		ctx.Logger().Warn("artifact meta update skipped", "error", err)
		return artifactMeta{}
	}
	return meta
}

// rewriteArtifact produces a full rewrite of the current artifact as a
// new appended version, with a best-effort metadata refresh first.
func (a *Assistant) rewriteArtifact(ctx graph.Context, state State) (State, error) {
	if !state.HasArtifact() {
		return state, fmt.Errorf("rewrite artifact: no artifact present")
	}
	current, err := state.Artifact.Current()
	if err != nil {
		return state, fmt.Errorf("rewrite artifact: %w", err)
	}

	meta := a.optionallyUpdateMeta(ctx, state, current)

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:        a.settings.Model,
		Temperature:  a.settings.Temperature,
		SystemPrompt: fmt.Sprintf(rewriteArtifactPrompt, formatArtifactContent(current, false), a.reflections(ctx)),
		Messages:     toLLMMessages(state.InternalMessages),
	})
	if err != nil {
		return state, fmt.Errorf("rewrite artifact: %w", err)
	}

	newType := current.ContentType()
	if meta.Type != "" {
		newType = meta.Type
	}
	title := current.ContentTitle()
	if meta.Title != "" {
		title = meta.Title
	}

	var content ArtifactContent
	if newType == ContentTypeCode {
		language := meta.Language
		if language == "" {
			if code, ok := current.(CodeContent); ok {
				language = code.Language
			}
		}
		content = CodeContent{Title: title, Language: language, Code: resp.Content}
	} else {
		content = MarkdownContent{Title: title, FullMarkdown: resp.Content}
	}

	state.Artifact = state.Artifact.Append(content)
	return state, nil
}

// rewriteArtifactTheme applies the language/length/reading-level/emoji
// flags as a whole-artifact restyle.
func (a *Assistant) rewriteArtifactTheme(ctx graph.Context, state State) (State, error) {
	if !state.HasArtifact() {
		return state, fmt.Errorf("rewrite artifact theme: no artifact present")
	}
	current, err := state.Artifact.Current()
	if err != nil {
		return state, fmt.Errorf("rewrite artifact theme: %w", err)
	}

	var instructions []string
	if state.Language != "" {
		instructions = append(instructions, fmt.Sprintf("- Translate the artifact into %s.", state.Language))
	}
	if state.ArtifactLength != "" {
		instructions = append(instructions, fmt.Sprintf("- Rewrite the artifact to be %s in length.", state.ArtifactLength))
	}
	if state.ReadingLevel != "" {
		instructions = append(instructions, fmt.Sprintf("- Rewrite the artifact at a %s reading level.", state.ReadingLevel))
	}
	if state.RegenerateWithEmojis {
		instructions = append(instructions, "- Regenerate the artifact with emojis added where appropriate.")
	}
	if len(instructions) == 0 {
		return state, fmt.Errorf("rewrite artifact theme: no theme flag set")
	}

	content, err := a.rewriteWithInstructions(ctx, state, current, instructions)
	if err != nil {
		return state, fmt.Errorf("rewrite artifact theme: %w", err)
	}
	state.Artifact = state.Artifact.Append(content)
	return state, nil
}

// rewriteCodeArtifactTheme applies the code-specific flags. It requires
// the current content to be code.
func (a *Assistant) rewriteCodeArtifactTheme(ctx graph.Context, state State) (State, error) {
	code, err := state.CurrentCode()
	if err != nil {
		return state, fmt.Errorf("rewrite code theme: %w", err)
	}

	var instructions []string
	if state.AddComments {
		instructions = append(instructions, "- Add helpful comments explaining the code.")
	}
	if state.AddLogs {
		instructions = append(instructions, "- Add log statements useful for debugging.")
	}
	if state.PortLanguage != "" {
		instructions = append(instructions, fmt.Sprintf("- Port the code to %s.", state.PortLanguage))
	}
	if state.FixBugs {
		instructions = append(instructions, "- Find and fix any bugs.")
	}
	if len(instructions) == 0 {
		return state, fmt.Errorf("rewrite code theme: no code theme flag set")
	}

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:        a.settings.Model,
		Temperature:  a.settings.Temperature,
		SystemPrompt: fmt.Sprintf(rewriteThemePrompt, strings.Join(instructions, "\n"), code.Code, a.reflections(ctx)),
		Messages:     toLLMMessages(state.InternalMessages),
	})
	if err != nil {
		return state, fmt.Errorf("rewrite code theme: %w", err)
	}

	language := code.Language
	if state.PortLanguage != "" {
		language = state.PortLanguage
	}
	state.Artifact = state.Artifact.Append(CodeContent{
		Title:    code.Title,
		Language: language,
		Code:     resp.Content,
	})
	return state, nil
}

func (a *Assistant) rewriteWithInstructions(ctx graph.Context, state State, current ArtifactContent, instructions []string) (ArtifactContent, error) {
	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:        a.settings.Model,
		Temperature:  a.settings.Temperature,
		SystemPrompt: fmt.Sprintf(rewriteThemePrompt, strings.Join(instructions, "\n"), formatArtifactContent(current, false), a.reflections(ctx)),
		Messages:     toLLMMessages(state.InternalMessages),
	})
	if err != nil {
		return nil, err
	}

	switch v := current.(type) {
	case CodeContent:
		return CodeContent{Title: v.Title, Language: v.Language, Code: resp.Content}, nil
	case MarkdownContent:
		return MarkdownContent{Title: v.Title, FullMarkdown: resp.Content}, nil
	}
	return nil, fmt.Errorf("unknown content type %T", current)
}

// updateArtifact rewrites a highlighted code range. The highlight must
// fall within the current code's bounds; out-of-bounds fails rather
// than clamps. Only the surrounding context window clamps to bounds.
func (a *Assistant) updateArtifact(ctx graph.Context, state State) (State, error) {
	code, err := state.CurrentCode()
	if err != nil {
		return state, fmt.Errorf("update artifact: %w", err)
	}
	hl := state.HighlightedCode
	if hl == nil {
		return state, fmt.Errorf("update artifact: no code highlight present")
	}
	if hl.StartIndex < 0 || hl.EndIndex < hl.StartIndex || hl.EndIndex > len(code.Code) {
		return state, fmt.Errorf("update artifact: highlight [%d,%d) out of bounds for %d characters",
			hl.StartIndex, hl.EndIndex, len(code.Code))
	}

	window := a.settings.HighlightContextWindow
	contextStart := hl.StartIndex - window
	if contextStart < 0 {
		contextStart = 0
	}
	contextEnd := hl.EndIndex + window
	if contextEnd > len(code.Code) {
		contextEnd = len(code.Code)
	}

	highlighted := code.Code[hl.StartIndex:hl.EndIndex]
	before := code.Code[contextStart:hl.StartIndex]
	after := code.Code[hl.EndIndex:contextEnd]

	recent, err := state.RecentHumanMessage()
	if err != nil {
		return state, fmt.Errorf("update artifact: %w", err)
	}

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:        a.settings.Model,
		SystemPrompt: fmt.Sprintf(updateHighlightedCodePrompt, highlighted, before, after, a.reflections(ctx)),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: recent.Text()}},
	})
	if err != nil {
		return state, fmt.Errorf("update artifact: %w", err)
	}

	spliced := code.Code[:hl.StartIndex] + resp.Content + code.Code[hl.EndIndex:]
	state.Artifact = state.Artifact.Append(CodeContent{
		Title:    code.Title,
		Language: code.Language,
		Code:     spliced,
	})
	return state, nil
}

// updateHighlightedText rewrites the markdown block enclosing a text
// selection and replaces only the first literal occurrence of the old
// block in the full document.
func (a *Assistant) updateHighlightedText(ctx graph.Context, state State) (State, error) {
	md, err := state.CurrentMarkdown()
	if err != nil {
		return state, fmt.Errorf("update highlighted text: %w", err)
	}
	hl := state.HighlightedText
	if hl == nil {
		return state, fmt.Errorf("update highlighted text: no text highlight present")
	}
	if !strings.Contains(md.FullMarkdown, hl.MarkdownBlock) {
		return state, fmt.Errorf("update highlighted text: highlighted block not found in current content")
	}

	recent, err := state.RecentHumanMessage()
	if err != nil {
		return state, fmt.Errorf("update highlighted text: %w", err)
	}

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:        a.settings.Model,
		SystemPrompt: fmt.Sprintf(updateHighlightedTextPrompt, hl.SelectedText, hl.MarkdownBlock),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: recent.Text()}},
	})
	if err != nil {
		return state, fmt.Errorf("update highlighted text: %w", err)
	}

	updated := strings.Replace(md.FullMarkdown, hl.MarkdownBlock, resp.Content, 1)
	state.Artifact = state.Artifact.Append(MarkdownContent{
		Title:        md.Title,
		FullMarkdown: updated,
	})
	return state, nil
}

// customAction applies a pre-registered quick action to the current
// artifact. An unknown action ID is fatal for the turn.
func (a *Assistant) customAction(ctx graph.Context, state State) (State, error) {
	action, ok := a.customActions[state.CustomActionID]
	if !ok {
		return state, fmt.Errorf("custom action: unknown action %q", state.CustomActionID)
	}
	if !state.HasArtifact() {
		return state, fmt.Errorf("custom action: no artifact present")
	}
	current, err := state.Artifact.Current()
	if err != nil {
		return state, fmt.Errorf("custom action: %w", err)
	}

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:        a.settings.Model,
		Temperature:  a.settings.Temperature,
		SystemPrompt: fmt.Sprintf(customActionPrompt, action.Prompt, formatArtifactContent(current, false)),
		Messages:     toLLMMessages(state.InternalMessages),
	})
	if err != nil {
		return state, fmt.Errorf("custom action %q: %w", action.ID, err)
	}

	var content ArtifactContent
	switch v := current.(type) {
	case CodeContent:
		content = CodeContent{Title: v.Title, Language: v.Language, Code: resp.Content}
	case MarkdownContent:
		content = MarkdownContent{Title: v.Title, FullMarkdown: resp.Content}
	default:
		return state, fmt.Errorf("custom action: unknown content type %T", current)
	}

	state.Artifact = state.Artifact.Append(content)
	return state, nil
}
