package memory

import "strings"

// NoReflections is the prompt text used when an assistant has no stored
// reflections yet.
const NoReflections = "No reflections found."

// ReflectionKey is the memory key reflections are stored under.
const ReflectionKey = "reflection"

// ReflectionNamespace returns the memory namespace for an assistant's
// reflections.
func ReflectionNamespace(assistantID string) []string {
	return []string{"memories", assistantID}
}

// FormatReflections renders a stored reflection value into prompt text.
// The value holds "styleRules" and "content" entries, each a list of
// strings. A nil or empty value yields NoReflections.
func FormatReflections(value map[string]any) string {
	styleRules := stringList(value["styleRules"])
	content := stringList(value["content"])
	if len(styleRules) == 0 && len(content) == 0 {
		return NoReflections
	}

	var b strings.Builder
	if len(styleRules) > 0 {
		b.WriteString("Style rules the user has established:\n")
		for _, rule := range styleRules {
			b.WriteString("- ")
			b.WriteString(rule)
			b.WriteString("\n")
		}
	}
	if len(content) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Facts remembered about the user:\n")
		for _, fact := range content {
			b.WriteString("- ")
			b.WriteString(fact)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
