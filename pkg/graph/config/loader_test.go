package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFromYAML tests YAML parsing with nested sections.
func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`
assistant:
  model: gemini-2.0-flash
  temperature: 0.5
  character_max: 300000
  web_search: true
`))
	require.NoError(t, err)

	assistant := cfg.Section("assistant")
	assert.Equal(t, "gemini-2.0-flash", assistant.String("model", ""))
	assert.Equal(t, 0.5, assistant.Float("temperature", 0))
	assert.Equal(t, 300000, assistant.Int("character_max", 0))
	assert.True(t, assistant.Bool("web_search", false))
}

// TestFromYAML_Invalid tests malformed YAML is rejected.
func TestFromYAML_Invalid(t *testing.T) {
	_, err := FromYAML([]byte("key: [unclosed"))
	assert.Error(t, err)
}

// TestFromJSON tests JSON parsing with nested sections.
func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"assistant": {"model": "gemini-2.0-flash", "title_message_ceiling": 2}}`))
	require.NoError(t, err)

	assistant := cfg.Section("assistant")
	assert.Equal(t, "gemini-2.0-flash", assistant.String("model", ""))
	assert.Equal(t, 2, assistant.Int("title_message_ceiling", 0))
}

// TestFromJSON_Invalid tests malformed JSON is rejected.
func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte("{"))
	assert.Error(t, err)
}

// TestFromFile_ExtensionDetection tests format selection by extension.
func TestFromFile_ExtensionDetection(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: from-yaml"), 0o644))
	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "from-json"}`), 0o644))

	cfg, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.String("name", ""))

	cfg, err = FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "from-json", cfg.String("name", ""))
}

// TestFromFile_UnsupportedExtension tests unknown formats are rejected.
func TestFromFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = 'x'"), 0o644))

	_, err := FromFile(path)
	assert.ErrorContains(t, err, "unsupported config file extension")
}

// TestFromFile_Missing tests a missing file is an error.
func TestFromFile_Missing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestFromFile_EnvExpansion tests ${VAR} values expand before parsing.
func TestFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("SCRIVENER_TEST_KEY", "secret-value")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: ${SCRIVENER_TEST_KEY}"), 0o644))

	cfg, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-value", cfg.String("api_key", ""))
}
