package canvas

import (
	"strings"

	"github.com/google/uuid"

	"scrivener/pkg/llm"
)

// Role identifies who produced a conversation message.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "ai"
)

// Part types. Document parts carry uploaded file content.
const (
	PartTypeText     = "text"
	PartTypeDocument = "document"
	PartTypePDF      = "application/pdf"
)

// Message kwarg keys marking structural roles of synthetic messages.
const (
	KwargSummaryMessage   = "summarizedMessage"
	KwargWebSearchResults = "webSearchResults"
	KwargWebSearchStatus  = "webSearchStatus"
)

// Part is one segment of a message body.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data string `json:"data,omitempty"`
}

// Message is a conversation turn in either history. Kwargs carry
// structural markers (summary message, attached web results) that
// survive serialization.
type Message struct {
	ID     string         `json:"id"`
	Role   Role           `json:"role"`
	Parts  []Part         `json:"parts"`
	Kwargs map[string]any `json:"kwargs,omitempty"`
}

// NewHumanMessage creates a single-part text message from the user.
func NewHumanMessage(text string) Message {
	return Message{
		ID:    uuid.NewString(),
		Role:  RoleHuman,
		Parts: []Part{{Type: PartTypeText, Text: text}},
	}
}

// NewAssistantMessage creates a single-part text message from the model.
func NewAssistantMessage(text string) Message {
	return Message{
		ID:    uuid.NewString(),
		Role:  RoleAssistant,
		Parts: []Part{{Type: PartTypeText, Text: text}},
	}
}

// Text concatenates the message's text parts.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// CharCount counts characters across all text parts.
func (m Message) CharCount() int {
	n := 0
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			n += len(p.Text)
		}
	}
	return n
}

// IsSummary reports whether the message is a synthetic summary created
// by the summarization job.
func (m Message) IsSummary() bool {
	v, ok := m.Kwargs[KwargSummaryMessage].(bool)
	return ok && v
}

// HasDocumentPart reports whether the message carries an uploaded
// document part.
func (m Message) HasDocumentPart() bool {
	for _, p := range m.Parts {
		if p.Type == PartTypeDocument || p.Type == PartTypePDF {
			return true
		}
	}
	return false
}

// WithText returns a copy of the message with its text parts replaced by
// a single text part. Identity and kwargs are preserved.
func (m Message) WithText(text string) Message {
	out := m
	out.Parts = []Part{{Type: PartTypeText, Text: text}}
	return out
}

// toLLMMessages converts conversation messages to completion messages.
// Document parts are skipped; they are delivered through dedicated
// context-document messages instead.
func toLLMMessages(messages []Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := llm.RoleUser
		if m.Role == RoleAssistant {
			role = llm.RoleAssistant
		}
		text := m.Text()
		if text == "" {
			continue
		}
		out = append(out, llm.Message{Role: role, Content: text})
	}
	return out
}
