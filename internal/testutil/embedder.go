package testutil

import (
	"context"
	"hash/fnv"
	"strings"
	"sync/atomic"
	"unicode"
)

const fakeDims = 256

// FakeEmbedder hashes lowercase words into a fixed-size bag-of-words
// vector. It satisfies langchaingo's embeddings.Embedder.
type FakeEmbedder struct {
	Calls atomic.Int64
	Err   error
}

func (f *FakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.Calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = Vector(text)
	}
	return out, nil
}

func (f *FakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.Calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	return Vector(text), nil
}

// Vector is the embedding FakeEmbedder assigns to text. The last
// dimension is a constant so no vector is ever zero.
func Vector(text string) []float32 {
	v := make([]float32, fakeDims+1)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%fakeDims]++
	}
	v[fakeDims] = 0.5
	return v
}
