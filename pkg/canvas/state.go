package canvas

import (
	"fmt"
	"strings"

	"scrivener/pkg/search"
)

// CodeHighlight is a request-scoped character range into the latest code
// content.
type CodeHighlight struct {
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
}

// TextHighlight is a request-scoped selection inside a markdown artifact:
// the selected text plus the full enclosing markdown block.
type TextHighlight struct {
	SelectedText  string `json:"selectedText"`
	MarkdownBlock string `json:"markdownBlock"`
}

// Document is an uploaded context document attached to a turn.
type Document struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// State is the unit of work passed through every graph node for one
// conversation turn.
//
// Messages is the user-visible history. InternalMessages is the model
// context history; the two diverge once summarization replaces a prefix
// of the internal history with a synthetic summary message while the
// visible history keeps the full record.
type State struct {
	Messages         []Message `json:"messages"`
	InternalMessages []Message `json:"internalMessages"`

	Artifact *Artifact `json:"artifact,omitempty"`

	HighlightedCode *CodeHighlight `json:"highlightedCode,omitempty"`
	HighlightedText *TextHighlight `json:"highlightedText,omitempty"`

	// Intent flags, request-scoped. At most one route is chosen per
	// turn regardless of how many are set.
	Language             string `json:"language,omitempty"`
	ArtifactLength       string `json:"artifactLength,omitempty"`
	RegenerateWithEmojis bool   `json:"regenerateWithEmojis,omitempty"`
	ReadingLevel         string `json:"readingLevel,omitempty"`
	AddComments          bool   `json:"addComments,omitempty"`
	AddLogs              bool   `json:"addLogs,omitempty"`
	PortLanguage         string `json:"portLanguage,omitempty"`
	FixBugs              bool   `json:"fixBugs,omitempty"`
	CustomActionID       string `json:"customQuickActionId,omitempty"`
	WebSearchEnabled     bool   `json:"webSearchEnabled,omitempty"`

	WebSearchResults []search.Result `json:"webSearchResults,omitempty"`
	ContextDocuments []Document      `json:"contextDocuments,omitempty"`

	// Next is the routing decision for this turn, set by the intent
	// router and cleared by state reset.
	Next string `json:"next,omitempty"`
}

// AppendMessage adds a message to both histories.
func (s State) AppendMessage(msg Message) State {
	s.Messages = append(append([]Message(nil), s.Messages...), msg)
	s.InternalMessages = append(append([]Message(nil), s.InternalMessages...), msg)
	return s
}

// RecentHumanMessage returns the most recent human message from the
// internal history.
func (s State) RecentHumanMessage() (Message, error) {
	for i := len(s.InternalMessages) - 1; i >= 0; i-- {
		if s.InternalMessages[i].Role == RoleHuman {
			return s.InternalMessages[i], nil
		}
	}
	return Message{}, fmt.Errorf("no human message in conversation")
}

// InternalCharCount sums text characters across the internal history.
func (s State) InternalCharCount() int {
	total := 0
	for _, m := range s.InternalMessages {
		total += m.CharCount()
	}
	return total
}

// recentConversation renders the last n internal messages for a routing
// or query-generation prompt.
func (s State) recentConversation(n int) string {
	msgs := s.InternalMessages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Text()))
	}
	return strings.Join(lines, "\n\n")
}

// CurrentCode returns the current content as code, failing on a
// type-discriminant mismatch.
func (s State) CurrentCode() (CodeContent, error) {
	if s.Artifact == nil || len(s.Artifact.Contents) == 0 {
		return CodeContent{}, fmt.Errorf("no artifact present")
	}
	current, err := s.Artifact.Current()
	if err != nil {
		return CodeContent{}, err
	}
	code, ok := current.(CodeContent)
	if !ok {
		return CodeContent{}, fmt.Errorf("current artifact content is not code")
	}
	return code, nil
}

// CurrentMarkdown returns the current content as markdown, failing on a
// type-discriminant mismatch.
func (s State) CurrentMarkdown() (MarkdownContent, error) {
	if s.Artifact == nil || len(s.Artifact.Contents) == 0 {
		return MarkdownContent{}, fmt.Errorf("no artifact present")
	}
	current, err := s.Artifact.Current()
	if err != nil {
		return MarkdownContent{}, err
	}
	md, ok := current.(MarkdownContent)
	if !ok {
		return MarkdownContent{}, fmt.Errorf("current artifact content is not markdown")
	}
	return md, nil
}

// HasArtifact reports whether the state carries a non-empty artifact.
func (s State) HasArtifact() bool {
	return s.Artifact != nil && len(s.Artifact.Contents) > 0
}

// ResetTransient clears every per-turn flag, highlight and routing
// decision. The artifact and both message histories persist.
func (s State) ResetTransient() State {
	s.HighlightedCode = nil
	s.HighlightedText = nil
	s.Language = ""
	s.ArtifactLength = ""
	s.RegenerateWithEmojis = false
	s.ReadingLevel = ""
	s.AddComments = false
	s.AddLogs = false
	s.PortLanguage = ""
	s.FixBugs = false
	s.CustomActionID = ""
	s.WebSearchEnabled = false
	s.WebSearchResults = nil
	s.ContextDocuments = nil
	s.Next = ""
	return s
}
