package canvas

import (
	"time"

	"scrivener/pkg/graph/config"
)

// Default policy values.
const (
	DefaultCharacterMax           = 300000
	DefaultTitleMessageCeiling    = 2
	DefaultHighlightContextWindow = 500
	DefaultModel                  = "gemini-2.0-flash"
	DefaultTemperature            = 0.5
	DefaultReflectionDelay        = 5 * time.Minute
)

// Settings carries the assistant's policy knobs. Zero values are
// replaced with defaults by normalize, so a partially filled struct is
// usable.
type Settings struct {
	// CharacterMax is the internal-history character budget above which
	// a summarization job is enqueued.
	CharacterMax int

	// TitleMessageCeiling is the visible message count at or below
	// which the turn still counts as the first substantive exchange and
	// triggers title generation.
	TitleMessageCeiling int

	// HighlightContextWindow is the number of characters of surrounding
	// context shown to the model on either side of a code highlight.
	HighlightContextWindow int

	// Model runs content generation; RouterModel runs the cheap
	// classification calls. RouterModel falls back to Model.
	Model       string
	RouterModel string

	Temperature float64

	// ReflectionDelay postpones the scheduled reflection job.
	ReflectionDelay time.Duration
}

// DefaultSettings returns the stock policy.
func DefaultSettings() Settings {
	return Settings{}.normalize()
}

// SettingsFromConfig reads settings from the "assistant" section of a
// config map, falling back to defaults for anything missing.
func SettingsFromConfig(cfg config.Config) Settings {
	section := cfg.Section("assistant")
	return Settings{
		CharacterMax:           section.Int("character_max", DefaultCharacterMax),
		TitleMessageCeiling:    section.Int("title_message_ceiling", DefaultTitleMessageCeiling),
		HighlightContextWindow: section.Int("highlight_context_window", DefaultHighlightContextWindow),
		Model:                  section.String("model", DefaultModel),
		RouterModel:            section.String("router_model", ""),
		Temperature:            section.Float("temperature", DefaultTemperature),
		ReflectionDelay:        section.Duration("reflection_delay", DefaultReflectionDelay),
	}.normalize()
}

func (s Settings) normalize() Settings {
	if s.CharacterMax <= 0 {
		s.CharacterMax = DefaultCharacterMax
	}
	if s.TitleMessageCeiling <= 0 {
		s.TitleMessageCeiling = DefaultTitleMessageCeiling
	}
	if s.HighlightContextWindow <= 0 {
		s.HighlightContextWindow = DefaultHighlightContextWindow
	}
	if s.Model == "" {
		s.Model = DefaultModel
	}
	if s.RouterModel == "" {
		s.RouterModel = s.Model
	}
	if s.Temperature <= 0 {
		s.Temperature = DefaultTemperature
	}
	if s.ReflectionDelay <= 0 {
		s.ReflectionDelay = DefaultReflectionDelay
	}
	return s
}
