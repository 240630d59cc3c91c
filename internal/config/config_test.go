package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "openai", cfg.Embedder.Type)
	assert.Equal(t, "gpt-4", cfg.Completion.Model)
	require.NotNil(t, cfg.Completion.Temperature)
	assert.InDelta(t, 0.5, *cfg.Completion.Temperature, 1e-6)
	assert.Equal(t, 1000, cfg.Splitter.ChunkSize)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Equal(t, 5, cfg.Selector.MaxAttempts)
	assert.Equal(t, filepath.Join(".", "config.json"), cfg.SessionPath())
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
workdir: /data
embedder:
  type: tfidf
completion:
  model: gpt-4o
  temperature: 0
retrieval:
  top_k: 8
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Nil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "gpt-4o", cfg.Completion.Model)
	assert.Zero(t, *cfg.Completion.Temperature)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Completion.APIKeyEnv)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/data/config.json", cfg.SessionPath())
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":    "embedder: [",
		"embedder":    "embedder:\n  type: word2vec\n",
		"temperature": "completion:\n  temperature: 3\n",
		"log format":  "log:\n  format: xml\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(path, Default()))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadDefault_WritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "ragqa", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, Default(), cfg)
}
