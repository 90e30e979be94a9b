package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/testutil"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.RAG.ChunkSize = 60
	cfg.RAG.ChunkOverlap = 10
	cfg.RAG.TopK = 2
	return cfg
}

const handbook = `Cats sleep for most of the day.
Dogs need a walk every morning.
Parrots can learn to repeat words.
Goldfish live in a bowl of water.`

func TestMissingKeyHaltsBeforeProviders(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	emb := &testutil.FakeEmbedder{}
	gen := &testutil.FakeGenerator{Reply: "unused"}

	qa, err := New(cfg, emb, gen)
	require.ErrorIs(t, err, config.ErrMissingOpenAIKey)
	require.Nil(t, qa)
	require.EqualError(t, err, models.MissingOpenAIKeyMessage)
	require.Zero(t, emb.Calls.Load())
	require.Empty(t, gen.Requests())

	_, err = NewFromConfig(cfg)
	require.ErrorIs(t, err, config.ErrMissingOpenAIKey)
}

func TestInvalidChunkingRejected(t *testing.T) {
	cfg := testConfig()
	cfg.RAG.ChunkOverlap = cfg.RAG.ChunkSize
	_, err := New(cfg, &testutil.FakeEmbedder{}, &testutil.FakeGenerator{})
	require.Error(t, err)
}

func TestIngestAndAsk(t *testing.T) {
	emb := &testutil.FakeEmbedder{}
	gen := &testutil.FakeGenerator{Reply: "They walk in the morning."}
	qa, err := New(testConfig(), emb, gen)
	require.NoError(t, err)

	ctx := context.Background()
	kb, err := qa.Ingest(ctx, models.Upload{Name: "pets.pdf", Data: testutil.BuildPDF(strings.Split(handbook, "\n")...)})
	require.NoError(t, err)
	require.Equal(t, "pets.pdf", kb.Source)
	require.Greater(t, len(kb.Chunks), 1)

	answer, err := qa.Ask(ctx, kb, "  When do dogs need a walk?  ", models.DefaultLLMConfig("gpt-4o-mini"))
	require.NoError(t, err)
	require.Equal(t, "When do dogs need a walk?", answer.Question)
	require.Equal(t, "They walk in the morning.", answer.Content)
	require.Len(t, answer.Sources, 2)
	require.Contains(t, answer.Sources[0].Content, "Dogs need a walk")

	reqs := gen.Requests()
	require.Len(t, reqs, 1)
	require.Empty(t, reqs[0].Attachments)
	require.Equal(t, "gpt-4o-mini", reqs[0].Config.Model)
	require.Contains(t, reqs[0].Prompt, "Question: When do dogs need a walk?")
	for _, src := range answer.Sources {
		require.Contains(t, reqs[0].Prompt, src.Content)
	}
}

func TestAskIsDeterministic(t *testing.T) {
	qa, err := New(testConfig(), &testutil.FakeEmbedder{}, &testutil.FakeGenerator{Reply: "ok"})
	require.NoError(t, err)

	kb, err := qa.Ingest(context.Background(), models.Upload{Name: "pets.txt", Data: []byte(handbook)})
	require.NoError(t, err)

	first, err := qa.Ask(context.Background(), kb, "goldfish water", models.DefaultLLMConfig(""))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := qa.Ask(context.Background(), kb, "goldfish water", models.DefaultLLMConfig(""))
		require.NoError(t, err)
		require.Equal(t, first.Sources, again.Sources)
	}
}

func TestAskValidation(t *testing.T) {
	gen := &testutil.FakeGenerator{}
	qa, err := New(testConfig(), &testutil.FakeEmbedder{}, gen)
	require.NoError(t, err)
	kb, err := qa.Ingest(context.Background(), models.Upload{Name: "a.txt", Data: []byte(handbook)})
	require.NoError(t, err)

	_, err = qa.Ask(context.Background(), kb, "   ", models.DefaultLLMConfig(""))
	require.ErrorIs(t, err, ErrEmptyQuestion)

	cfg := models.DefaultLLMConfig("")
	cfg.Temperature = 3
	_, err = qa.Ask(context.Background(), kb, "cats?", cfg)
	require.ErrorIs(t, err, models.ErrInvalidLLMConfig)
	require.Empty(t, gen.Requests())
}

func TestAskPropagatesGeneratorError(t *testing.T) {
	boom := errors.New("rate limited")
	qa, err := New(testConfig(), &testutil.FakeEmbedder{}, &testutil.FakeGenerator{Err: boom})
	require.NoError(t, err)
	kb, err := qa.Ingest(context.Background(), models.Upload{Name: "a.txt", Data: []byte(handbook)})
	require.NoError(t, err)

	_, err = qa.Ask(context.Background(), kb, "cats?", models.DefaultLLMConfig(""))
	require.ErrorIs(t, err, boom)
}

func TestIngestUnsupportedFile(t *testing.T) {
	emb := &testutil.FakeEmbedder{}
	qa, err := New(testConfig(), emb, &testutil.FakeGenerator{})
	require.NoError(t, err)

	_, err = qa.Ingest(context.Background(), models.Upload{Name: "photo.png", Data: []byte{0x89, 'P', 'N', 'G'}})
	require.Error(t, err)
	require.Zero(t, emb.Calls.Load())
}

func TestPrompt(t *testing.T) {
	qa, err := New(testConfig(), &testutil.FakeEmbedder{}, &testutil.FakeGenerator{})
	require.NoError(t, err)

	prompt, err := qa.Prompt([]models.Chunk{{Content: "alpha"}, {Content: "beta"}}, "what?")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(prompt, "Use the following pieces of context"))
	require.Contains(t, prompt, "alpha\n\nbeta")
	require.True(t, strings.HasSuffix(prompt, "Question: what?\nHelpful Answer:"))
}

func TestEmbeddingFailureIsProviderError(t *testing.T) {
	quota := errors.New("429 quota exceeded")
	emb := embedding.WithProviderErrors("openai", &testutil.FakeEmbedder{Err: quota})
	gen := &testutil.FakeGenerator{}
	qa, err := New(testConfig(), emb, gen)
	require.NoError(t, err)

	_, err = qa.Ingest(context.Background(), models.Upload{Name: "a.txt", Data: []byte(handbook)})
	var pe *llmservice.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "openai", pe.Provider)
	require.ErrorIs(t, err, quota)
	require.Empty(t, gen.Requests())
}
