package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Zendaya", cfg.Name)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "g-key", cfg.Keys.Gemini)
	assert.Contains(t, cfg.Routines, "morning")
	assert.Equal(t, filepath.Join(cfg.DataDir, "knowledge.db"), cfg.KnowledgePath())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zendaya.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
user: Sam
provider: openai
apps:
  Obsidian: obsidian
routines:
  evening: [close slack, open spotify]
devices:
  desk lamp: LIGHTS/LAMP
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Sam", cfg.User)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "Zendaya", cfg.Name)
	assert.Equal(t, "obsidian", cfg.Apps["obsidian"])
	assert.Greater(t, len(cfg.Apps), 1)
	assert.Equal(t, []string{"close slack", "open spotify"}, cfg.Routines["evening"])
	assert.Contains(t, cfg.Routines, "focus")
	assert.Equal(t, "LIGHTS/LAMP", cfg.Devices["desk lamp"])
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zendaya.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user: Sam\n"), 0o644))
	t.Setenv("ZENDAYA_USER", "Alex")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Alex", cfg.User)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apps: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultsAreCopies(t *testing.T) {
	a := Default()
	a.Routines["morning"][0] = "changed"
	a.Voices["zendaya"] = "x"

	b := Default()
	assert.Equal(t, "open gmail", b.Routines["morning"][0])
	assert.Equal(t, DefaultVoices["zendaya"], b.Voices["zendaya"])
}
