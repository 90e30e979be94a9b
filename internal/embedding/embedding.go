package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-qa/internal/config"
	"document-qa/internal/llmservice"
)

// New builds the embedder selected by cfg.EmbedLLM.Provider. Every
// embedding failure is reported as an *llmservice.ProviderError.
func New(cfg *config.Config) (embeddings.Embedder, error) {
	var (
		embedder *embeddings.EmbedderImpl
		err      error
	)
	provider := cfg.EmbedLLM.Provider
	switch provider {
	case "ollama":
		embedder, err = NewOllamaEmbedder(&cfg.EmbedLLM)
	case "openai", "":
		provider = "openai"
		embedder, err = NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.EmbeddingModel)
	default:
		err = fmt.Errorf("unknown embedding provider %q", cfg.EmbedLLM.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithProviderErrors(provider, embedder), nil
}

type providerEmbedder struct {
	provider string
	embedder embeddings.Embedder
}

// WithProviderErrors wraps the errors of embedder as provider errors.
func WithProviderErrors(provider string, embedder embeddings.Embedder) embeddings.Embedder {
	return &providerEmbedder{provider: provider, embedder: embedder}
}

func (p *providerEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &llmservice.ProviderError{Provider: p.provider, Err: err}
	}
	return vectors, nil
}

func (p *providerEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, &llmservice.ProviderError{Provider: p.provider, Err: err}
	}
	return vector, nil
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI embeddings API
func NewOpenAIEmbedder(apiKey, baseURL, embeddingModel string) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        baseURL,
		"embedding_model": embeddingModel,
	}).Msg("Creating OpenAI embedder")

	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
		openai.WithEmbeddingModel(embeddingModel),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return embedder, nil
}

// new ollama embedder
func NewOllamaEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        llmConfig.BaseURL,
		"embedding_model": llmConfig.Model,
	}).Msg("Creating Ollama embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(llmConfig.BaseURL),
		ollama.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return embedder, nil
}
