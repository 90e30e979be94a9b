package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"document-qa/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvOpenAIKey, "")
	t.Setenv(EnvGoogleKey, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, models.DefaultChunkSize, cfg.RAG.ChunkSize)
	require.Equal(t, models.DefaultChunkOverlap, cfg.RAG.ChunkOverlap)
	require.Equal(t, "\n", cfg.RAG.Separator)
	require.Equal(t, models.DefaultTopK, cfg.RAG.TopK)
	require.Equal(t, models.MergedPDFName, cfg.Merge.OutputName)
	require.Equal(t, "gemini-1.5-flash", cfg.Gemini.DefaultModel)
	require.ErrorIs(t, cfg.RequireOpenAIKey(), ErrMissingOpenAIKey)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	t.Setenv(EnvOpenAIKey, "sk-from-env")
	t.Setenv(EnvGoogleKey, "g-from-env")

	path := writeConfig(t, `
rag:
  chunk_size: 500
  chunk_overlap: 50
openai:
  model: gpt-4o
gemini:
  models: ["gemini-1.5-pro"]
sampling:
  temperature: 0.5
  top_p: 0.9
  max_tokens: 1000
merge:
  work_dir: /tmp/qa
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 500, cfg.RAG.ChunkSize)
	require.Equal(t, 50, cfg.RAG.ChunkOverlap)
	// untouched keys keep their defaults
	require.Equal(t, "\n", cfg.RAG.Separator)
	require.Equal(t, models.DefaultTopK, cfg.RAG.TopK)
	require.Equal(t, "gemini-1.5-pro", cfg.Gemini.DefaultModel)
	require.Equal(t, "/tmp/qa", cfg.Merge.WorkDir)

	require.Equal(t, "sk-from-env", cfg.OpenAIAPIKey)
	require.Equal(t, "sk-from-env", cfg.EmbedLLM.Key)
	require.Equal(t, "g-from-env", cfg.GoogleAPIKey)
	require.NoError(t, cfg.RequireOpenAIKey())

	oa := cfg.OpenAISampling()
	require.Equal(t, models.LLMConfig{Model: "gpt-4o", Temperature: 0.5, TopP: 0.9, MaxTokens: 1000}, oa)
	require.Equal(t, "gemini-1.5-pro", cfg.GeminiSampling().Model)
}

func TestLoadConfigSecretsNotReadFromFile(t *testing.T) {
	t.Setenv(EnvOpenAIKey, "")
	path := writeConfig(t, "openaiapikey: sk-in-file\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Empty(t, cfg.OpenAIAPIKey)
}

func TestLoadConfigInvalid(t *testing.T) {
	cases := map[string]string{
		"overlap >= size":  "rag:\n  chunk_size: 100\n  chunk_overlap: 100\n",
		"negative overlap": "rag:\n  chunk_overlap: -1\n",
		"temperature":      "sampling:\n  temperature: 3\n",
		"max tokens":       "sampling:\n  max_tokens: 10\n",
		"provider":         "embed_llm:\n  provider: cohere\n",
		"bad yaml":         "rag: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestRequireOpenAIKeyMessage(t *testing.T) {
	var cfg *Config
	err := cfg.RequireOpenAIKey()
	require.EqualError(t, err, "OpenAI API Key not found. Please set the environment variable.")
}
