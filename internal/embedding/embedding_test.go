package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"document-qa/internal/config"
	"document-qa/internal/llmservice"
	"document-qa/internal/testutil"
)

func TestNew_SelectsProvider(t *testing.T) {
	cfg := config.Default()
	cfg.OpenAIAPIKey = "sk-test"

	e, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, e)

	cfg.EmbedLLM = config.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "nomic-embed-text"}
	e, err = New(cfg)
	require.NoError(t, err)
	require.NotNil(t, e)

	cfg.EmbedLLM.Provider = "bogus"
	_, err = New(cfg)
	require.Error(t, err)
}

func TestWithProviderErrors(t *testing.T) {
	quota := errors.New("429 quota exceeded")
	emb := WithProviderErrors("openai", &testutil.FakeEmbedder{Err: quota})

	_, err := emb.EmbedDocuments(context.Background(), []string{"a"})
	var pe *llmservice.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "openai", pe.Provider)
	require.ErrorIs(t, err, quota)

	_, err = emb.EmbedQuery(context.Background(), "a")
	require.ErrorAs(t, err, &pe)

	ok := WithProviderErrors("ollama", &testutil.FakeEmbedder{})
	v, err := ok.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, testutil.Vector("hello"), v)
}
