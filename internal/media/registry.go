package media

import (
	"context"
	"fmt"

	"document-qa/internal/llmservice"
	"document-qa/internal/models"
)

// unsupported stands in for media kinds that have no implementation yet.
type unsupported struct {
	kind Kind
}

func (u unsupported) Kind() Kind { return u.kind }

func (u unsupported) Prepare(context.Context, string, []models.Upload) (*Prepared, error) {
	return nil, u.err()
}

func (u unsupported) Ask(context.Context, *Prepared, string, models.LLMConfig) (string, error) {
	return "", u.err()
}

func (u unsupported) err() error {
	return fmt.Errorf("%s: %w", u.kind.Label(), ErrNotSupported)
}

type Registry struct {
	handlers map[Kind]Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[Kind]Handler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Kind()] = h
	}
	return r
}

// DefaultRegistry registers the PDF handler and placeholders for every
// other kind.
func DefaultRegistry(generator llmservice.Generator, outputName string) *Registry {
	return NewRegistry(
		NewPDFHandler(generator, outputName),
		unsupported{kind: KindImage},
		unsupported{kind: KindVideo},
		unsupported{kind: KindAudio},
	)
}

func (r *Registry) Lookup(kind Kind) (Handler, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return h, nil
}
