package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMergesUserOverridesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
gate:
  auto_threshold_chars: 80
  embedding_model_id: custom-embedder
stream:
  min_interval_ms: 1000
scrub:
  mode: off
prompt:
  stable_cache_size: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.Gate.AutoThresholdChars)
	assert.Equal(t, "custom-embedder", cfg.Gate.EmbeddingModelID)
	assert.Equal(t, DefaultConfig().Gate.ManualThresholdChars, cfg.Gate.ManualThresholdChars)
	assert.Equal(t, 1000_000_000, int(cfg.Stream.MinInterval))
	assert.EqualValues(t, "off", cfg.Scrub)
	assert.Equal(t, 10, cfg.Prompt.StableCacheSize)
	assert.Equal(t, DefaultConfig().Prompt.SchemaVersion, cfg.Prompt.SchemaVersion)
}
