package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/prompts"

	"document-qa/internal/chromemdb"
	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/parser"
)

var ErrEmptyQuestion = errors.New("question is empty")

// PDFQA answers questions about a single uploaded document using
// retrieval over its chunks.
type PDFQA struct {
	embedder  embeddings.Embedder
	generator llmservice.Generator
	chunking  parser.ChunkOptions
	topK      int
	template  prompts.PromptTemplate
}

// KnowledgeBase is the indexed form of one upload.
type KnowledgeBase struct {
	Source string
	Chunks []models.Chunk
	index  *chromemdb.Index
}

// New checks for the OpenAI key before anything else is touched.
func New(cfg *config.Config, embedder embeddings.Embedder, generator llmservice.Generator) (*PDFQA, error) {
	if err := cfg.RequireOpenAIKey(); err != nil {
		return nil, err
	}
	topK := cfg.RAG.TopK
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	chunking := parser.ChunkOptions{
		Size:      cfg.RAG.ChunkSize,
		Overlap:   cfg.RAG.ChunkOverlap,
		Separator: cfg.RAG.Separator,
	}
	if err := chunking.Validate(); err != nil {
		return nil, err
	}
	return &PDFQA{
		embedder:  embedder,
		generator: generator,
		chunking:  chunking,
		topK:      topK,
		template:  prompts.NewPromptTemplate(models.StuffQAPromptTemplate, []string{"context", "question"}),
	}, nil
}

// NewFromConfig wires the OpenAI embedder and chat model described by cfg.
func NewFromConfig(cfg *config.Config) (*PDFQA, error) {
	if err := cfg.RequireOpenAIKey(); err != nil {
		return nil, err
	}
	embedder, err := embedding.New(cfg)
	if err != nil {
		return nil, err
	}
	generator, err := llmservice.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	if err != nil {
		return nil, err
	}
	return New(cfg, embedder, generator)
}

// Chunk extracts and splits the upload without calling any provider.
func (q *PDFQA) Chunk(upload models.Upload) ([]models.Chunk, error) {
	text, err := parser.ExtractText(upload)
	if err != nil {
		return nil, err
	}
	return parser.Split(text, q.chunking)
}

// Ingest extracts, chunks and indexes one upload.
func (q *PDFQA) Ingest(ctx context.Context, upload models.Upload) (*KnowledgeBase, error) {
	chunks, err := q.Chunk(upload)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", upload.Name).Int("chunks", len(chunks)).Msg("Indexing document")

	index, err := chromemdb.Build(ctx, chunks, q.embedder)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", upload.Name, err)
	}
	return &KnowledgeBase{Source: upload.Name, Chunks: chunks, index: index}, nil
}

// Ask retrieves the closest chunks and stuffs them into a single prompt.
func (q *PDFQA) Ask(ctx context.Context, kb *KnowledgeBase, question string, cfg models.LLMConfig) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	docs, err := kb.index.Search(ctx, question, q.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	prompt, err := q.Prompt(docs, question)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("sources", len(docs)).Str("model", cfg.Model).Msg("Asking LLM")
	content, err := q.generator.Generate(ctx, llmservice.Request{Prompt: prompt, Config: cfg})
	if err != nil {
		return nil, err
	}
	return &models.Answer{Question: question, Content: content, Sources: docs}, nil
}

// Prompt renders the question-answering prompt for the given context.
func (q *PDFQA) Prompt(docs []models.Chunk, question string) (string, error) {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.Content
	}
	prompt, err := q.template.Format(map[string]any{
		"context":  strings.Join(parts, models.ContextSeparator),
		"question": question,
	})
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}
	return prompt, nil
}
