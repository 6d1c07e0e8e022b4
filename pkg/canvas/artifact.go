package canvas

import (
	"encoding/json"
	"fmt"
)

// ContentType discriminates artifact content variants on the wire.
type ContentType string

const (
	ContentTypeCode ContentType = "code"
	ContentTypeText ContentType = "text"
)

// ArtifactContent is one immutable version of the artifact. Concrete
// types are CodeContent and MarkdownContent.
type ArtifactContent interface {
	ContentIndex() int
	ContentTitle() string
	ContentType() ContentType
}

// CodeContent is a code version of the artifact.
type CodeContent struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

func (c CodeContent) ContentIndex() int        { return c.Index }
func (c CodeContent) ContentTitle() string     { return c.Title }
func (c CodeContent) ContentType() ContentType { return ContentTypeCode }

// MarkdownContent is a prose version of the artifact.
type MarkdownContent struct {
	Index        int    `json:"index"`
	Title        string `json:"title"`
	FullMarkdown string `json:"fullMarkdown"`
}

func (c MarkdownContent) ContentIndex() int        { return c.Index }
func (c MarkdownContent) ContentTitle() string     { return c.Title }
func (c MarkdownContent) ContentType() ContentType { return ContentTypeText }

// Artifact is the versioned document or code object being edited.
// Contents is append-only; CurrentIndex is a 1-based pointer that always
// equals len(Contents) after a mutation.
type Artifact struct {
	CurrentIndex int
	Contents     []ArtifactContent
}

// NewArtifact creates a version-1 artifact from the first content. The
// content's index is forced to 1.
func NewArtifact(content ArtifactContent) *Artifact {
	return &Artifact{
		CurrentIndex: 1,
		Contents:     []ArtifactContent{withIndex(content, 1)},
	}
}

// Current returns the content CurrentIndex points at.
func (a *Artifact) Current() (ArtifactContent, error) {
	for _, c := range a.Contents {
		if c.ContentIndex() == a.CurrentIndex {
			return c, nil
		}
	}
	return nil, fmt.Errorf("artifact: no content at index %d", a.CurrentIndex)
}

// Append returns a new Artifact with content added as the latest version.
// The receiver is not modified; prior versions are shared.
func (a *Artifact) Append(content ArtifactContent) *Artifact {
	next := len(a.Contents) + 1
	contents := make([]ArtifactContent, len(a.Contents), next)
	copy(contents, a.Contents)
	return &Artifact{
		CurrentIndex: next,
		Contents:     append(contents, withIndex(content, next)),
	}
}

func withIndex(content ArtifactContent, index int) ArtifactContent {
	switch c := content.(type) {
	case CodeContent:
		c.Index = index
		return c
	case MarkdownContent:
		c.Index = index
		return c
	}
	return content
}

type artifactJSON struct {
	CurrentIndex int               `json:"currentIndex"`
	Contents     []json.RawMessage `json:"contents"`
}

type contentTag struct {
	Type ContentType `json:"type"`
}

// MarshalJSON writes each content with a "type" discriminant so the
// artifact survives checkpoint round-trips.
func (a Artifact) MarshalJSON() ([]byte, error) {
	out := artifactJSON{CurrentIndex: a.CurrentIndex}
	for _, c := range a.Contents {
		var (
			raw []byte
			err error
		)
		switch v := c.(type) {
		case CodeContent:
			raw, err = json.Marshal(struct {
				Type ContentType `json:"type"`
				CodeContent
			}{ContentTypeCode, v})
		case MarkdownContent:
			raw, err = json.Marshal(struct {
				Type ContentType `json:"type"`
				MarkdownContent
			}{ContentTypeText, v})
		default:
			err = fmt.Errorf("artifact: unknown content type %T", c)
		}
		if err != nil {
			return nil, err
		}
		out.Contents = append(out.Contents, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the tagged union written by MarshalJSON.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	var in artifactJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	a.CurrentIndex = in.CurrentIndex
	a.Contents = nil
	for _, raw := range in.Contents {
		var tag contentTag
		if err := json.Unmarshal(raw, &tag); err != nil {
			return err
		}
		switch tag.Type {
		case ContentTypeCode:
			var c CodeContent
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			a.Contents = append(a.Contents, c)
		case ContentTypeText:
			var c MarkdownContent
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			a.Contents = append(a.Contents, c)
		default:
			return fmt.Errorf("artifact: unknown content type %q", tag.Type)
		}
	}
	return nil
}
