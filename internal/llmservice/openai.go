package llmservice

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const providerOpenAI = "openai"

var errNoChoices = errors.New("no response generated")

type OpenAIGenerator struct {
	llm   llms.Model
	model string
}

func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, providerError(providerOpenAI, err)
	}
	return &OpenAIGenerator{llm: llm, model: model}, nil
}

// call llm
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if len(req.Attachments) > 0 {
		return "", providerError(providerOpenAI, errors.New("inline attachments are not supported"))
	}
	model := req.Config.Model
	if model == "" {
		model = g.model
	}
	log.Debug().Str("model", model).Int("prompt_chars", len(req.Prompt)).Msg("Generating content")

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}
	resp, err := g.llm.GenerateContent(ctx, messages,
		llms.WithModel(model),
		llms.WithTemperature(req.Config.Temperature),
		llms.WithTopP(req.Config.TopP),
		llms.WithMaxTokens(req.Config.MaxTokens),
	)
	if err != nil {
		return "", providerError(providerOpenAI, err)
	}
	if len(resp.Choices) == 0 {
		return "", providerError(providerOpenAI, errNoChoices)
	}
	return resp.Choices[0].Content, nil
}
