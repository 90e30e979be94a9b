package testutil

import (
	"context"
	"sync"

	"document-qa/internal/llmservice"
)

// FakeGenerator records every request and replies with Reply or Err.
type FakeGenerator struct {
	Reply string
	Err   error

	mu       sync.Mutex
	requests []llmservice.Request
}

func (f *FakeGenerator) Generate(ctx context.Context, req llmservice.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

func (f *FakeGenerator) Requests() []llmservice.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llmservice.Request(nil), f.requests...)
}
