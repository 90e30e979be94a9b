package llmservice

import (
	"context"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const providerGemini = "gemini"

// GeminiGenerator talks to the Gemini API. The client is created on the
// first call, so a missing key only surfaces when a question is asked.
type GeminiGenerator struct {
	apiKey string
	opts   []option.ClientOption

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiGenerator(apiKey string, opts ...option.ClientOption) *GeminiGenerator {
	return &GeminiGenerator{apiKey: apiKey, opts: opts}
}

func (g *GeminiGenerator) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	g.client = client
	return client, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", providerError(providerGemini, err)
	}

	model := client.GenerativeModel(req.Config.Model)
	model.SetTemperature(float32(req.Config.Temperature))
	model.SetTopP(float32(req.Config.TopP))
	model.SetMaxOutputTokens(int32(req.Config.MaxTokens))

	parts := make([]genai.Part, 0, len(req.Attachments)+1)
	for _, a := range req.Attachments {
		parts = append(parts, genai.Blob{MIMEType: a.MIMEType, Data: a.Data})
	}
	parts = append(parts, genai.Text(req.Prompt))

	log.Debug().Str("model", req.Config.Model).Int("attachments", len(req.Attachments)).Msg("Generating content")
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", providerError(providerGemini, err)
	}
	text := responseText(resp)
	if text == "" {
		return "", providerError(providerGemini, errNoChoices)
	}
	return text, nil
}

// Close releases the underlying client, if one was created.
func (g *GeminiGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		// only the first candidate with content is shown
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}
