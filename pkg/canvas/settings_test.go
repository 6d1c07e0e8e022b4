package canvas

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrivener/pkg/graph/config"
)

// TestSettingsFromConfig_Overrides tests config values replace defaults.
func TestSettingsFromConfig_Overrides(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
assistant:
  character_max: 150000
  title_message_ceiling: 4
  highlight_context_window: 250
  model: gemini-2.0-pro
  router_model: gemini-2.0-flash
  temperature: 0.2
  reflection_delay: 10m
`))
	require.NoError(t, err)

	s := SettingsFromConfig(cfg)

	assert.Equal(t, 150000, s.CharacterMax)
	assert.Equal(t, 4, s.TitleMessageCeiling)
	assert.Equal(t, 250, s.HighlightContextWindow)
	assert.Equal(t, "gemini-2.0-pro", s.Model)
	assert.Equal(t, "gemini-2.0-flash", s.RouterModel)
	assert.Equal(t, 0.2, s.Temperature)
	assert.Equal(t, 10*time.Minute, s.ReflectionDelay)
}

// TestSettingsFromConfig_Empty tests an empty config yields the defaults.
func TestSettingsFromConfig_Empty(t *testing.T) {
	s := SettingsFromConfig(config.New(nil))

	assert.Equal(t, DefaultSettings(), s)
}

// TestSettingsFromConfig_RouterModelFallback tests RouterModel follows
// Model when unset.
func TestSettingsFromConfig_RouterModelFallback(t *testing.T) {
	cfg, err := config.FromYAML([]byte("assistant:\n  model: gemini-2.0-pro\n"))
	require.NoError(t, err)

	s := SettingsFromConfig(cfg)

	assert.Equal(t, "gemini-2.0-pro", s.RouterModel)
}
