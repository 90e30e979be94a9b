package llmservice

import (
	"context"
	"fmt"

	"document-qa/internal/models"
)

// Generator turns a prompt and sampling parameters into a single text
// response.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Request struct {
	Prompt      string
	Config      models.LLMConfig
	Attachments []Attachment
}

// Attachment is binary content sent inline with the prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// ProviderError wraps any failure reported by, or while reaching, an LLM
// or embedding provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
