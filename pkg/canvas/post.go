package canvas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scrivener/pkg/graph"
	"scrivener/pkg/jobs"
	"scrivener/pkg/llm"
	"scrivener/pkg/search"

	"scrivener/pkg/canvas/websearch"
)

// replyToGeneralInput produces a conversational reply with no artifact
// mutation. It routes straight to cleanState, skipping followup and
// reflection.
func (a *Assistant) replyToGeneralInput(ctx graph.Context, state State) (State, error) {
	artifactSection := noArtifactPrompt
	if state.HasArtifact() {
		current, err := state.Artifact.Current()
		if err != nil {
			return state, fmt.Errorf("reply: %w", err)
		}
		artifactSection = fmt.Sprintf(currentArtifactPrompt,
			current.ContentTitle(), current.ContentType(), formatArtifactContent(current, false))
	}

	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:        a.settings.Model,
		Temperature:  a.settings.Temperature,
		SystemPrompt: fmt.Sprintf(replyPrompt, artifactSection, a.reflections(ctx)),
		Messages:     toLLMMessages(state.InternalMessages),
	})
	if err != nil {
		return state, fmt.Errorf("reply: %w", err)
	}

	return state.AppendMessage(NewAssistantMessage(resp.Content)), nil
}

// webSearch hands the turn to the research subgraph and carries its
// results back into the canvas state.
func (a *Assistant) webSearch(ctx graph.Context, state State) (State, error) {
	subState := websearch.State{Messages: toLLMMessages(state.InternalMessages)}

	result, err := a.searchGraph.Run(ctx, subState)
	if err != nil {
		return state, fmt.Errorf("web search: %w", err)
	}

	state.WebSearchResults = result.Results
	return state, nil
}

// routePostWebSearch disables web search for subsequent turns and, when
// the subgraph produced results, injects a summary message into both
// histories. The conditional edge after this node picks rewrite or
// generate by artifact presence.
func (a *Assistant) routePostWebSearch(_ graph.Context, state State) (State, error) {
	results := state.WebSearchResults
	state.WebSearchEnabled = false
	if len(results) == 0 {
		return state, nil
	}

	msg := webSearchResultsMessage(results)
	return state.AppendMessage(msg), nil
}

func webSearchResultsMessage(results []search.Result) Message {
	var b strings.Builder
	b.WriteString("Here is what I found on the web:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "\n- [%s](%s)", r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, ": %s", r.Snippet)
		}
	}

	msg := NewAssistantMessage(b.String())
	msg.Kwargs = map[string]any{
		KwargWebSearchResults: results,
		KwargWebSearchStatus:  "done",
	}
	return msg
}

// generateFollowup appends a short description of what changed. Model
// errors degrade to a static fallback; the turn never fails here.
func (a *Assistant) generateFollowup(ctx graph.Context, state State) (State, error) {
	artifactText := ""
	if state.HasArtifact() {
		if current, err := state.Artifact.Current(); err == nil {
			artifactText = formatArtifactContent(current, true)
		}
	}

	text := followupFallback
	resp, err := ctx.LLM().Complete(ctx, llm.CompletionRequest{
		Model:        a.settings.RouterModel,
		SystemPrompt: fmt.Sprintf(followupPrompt, artifactText, a.reflections(ctx)),
		Messages:     toLLMMessages(state.InternalMessages),
		MaxTokens:    250,
	})
	if err != nil {
		ctx.Logger().Warn("followup generation failed, using fallback", "error", err)
	} else if strings.TrimSpace(resp.Content) != "" {
		text = resp.Content
	}

	return state.AppendMessage(NewAssistantMessage(text)), nil
}

// reflect schedules the asynchronous reflection job. Fire-and-forget:
// the goroutine is never awaited and its failures are only logged.
func (a *Assistant) reflect(ctx graph.Context, state State) (State, error) {
	if a.jobs == nil {
		ctx.Logger().Debug("reflection skipped, no jobs client configured")
		return state, nil
	}

	logger := ctx.Logger()
	input := map[string]any{
		"messages": state.InternalMessages,
		"artifact": state.Artifact,
	}
	opts := jobs.RunOptions{
		Config: map[string]any{
			"configurable": map[string]any{"assistant_id": a.assistantID},
		},
		MultitaskStrategy: "enqueue",
		AfterSeconds:      int(a.settings.ReflectionDelay.Seconds()),
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		jobCtx, cancel := context.WithTimeout(detached, time.Minute)
		defer cancel()

		threadID, err := a.jobs.CreateThread(jobCtx)
		if err != nil {
			logger.Warn("reflection scheduling failed", "error", err)
			return
		}
		if err := a.jobs.CreateRun(jobCtx, threadID, JobReflection, input, opts); err != nil {
			logger.Warn("reflection scheduling failed", "error", err)
		}
	}()

	return state, nil
}

// cleanState resets all per-turn transient fields. The artifact and both
// message histories persist across turns.
func (a *Assistant) cleanState(_ graph.Context, state State) (State, error) {
	return state.ResetTransient(), nil
}

// generateTitle enqueues a title-generation job for the conversation's
// first substantive exchange. Failures are logged, never fatal.
func (a *Assistant) generateTitle(ctx graph.Context, state State) (State, error) {
	a.enqueueJob(ctx, JobTitle, map[string]any{
		"messages":  state.Messages,
		"artifact":  state.Artifact,
		"thread_id": ctx.ThreadID(),
	})
	return state, nil
}

// summarizer enqueues a summarization job once the internal history is
// over the character budget. Failures are logged, never fatal.
func (a *Assistant) summarizer(ctx graph.Context, state State) (State, error) {
	a.enqueueJob(ctx, JobSummarization, map[string]any{
		"messages":  state.InternalMessages,
		"thread_id": ctx.ThreadID(),
	})
	return state, nil
}

func (a *Assistant) enqueueJob(ctx graph.Context, jobName string, input map[string]any) {
	if a.jobs == nil {
		ctx.Logger().Debug("job skipped, no jobs client configured", "job", jobName)
		return
	}

	threadID, err := a.jobs.CreateThread(ctx)
	if err != nil {
		ctx.Logger().Warn("job scheduling failed", "job", jobName, "error", err)
		return
	}
	if err := a.jobs.CreateRun(ctx, threadID, jobName, input, jobs.RunOptions{}); err != nil {
		ctx.Logger().Warn("job scheduling failed", "job", jobName, "error", err)
	}
}
