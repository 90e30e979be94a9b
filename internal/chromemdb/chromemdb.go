package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"document-qa/internal/models"
)

const collectionName = "chunks"

var ErrInvalidK = errors.New("k must be positive")

// Index is an in-memory similarity index over the chunks of one session.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
	chunks     []models.Chunk
}

// Build embeds chunks and loads them into a fresh in-memory collection.
func Build(ctx context.Context, chunks []models.Chunk, embedder embeddings.Embedder) (*Index, error) {
	db := chromem.NewDB()
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
	c, err := db.CreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %v", err)
	}
	idx := &Index{db: db, collection: c, embedder: embedder, chunks: chunks}
	if len(chunks) == 0 {
		return idx, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   chunk.Content,
			Metadata:  map[string]string{"index": strconv.Itoa(i), "position": strconv.Itoa(chunk.Position)},
			Embedding: vectors[i],
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %v", err)
	}
	log.Debug().Int("chunks", len(chunks)).Msg("Built vector index")
	return idx, nil
}

// Len returns the number of indexed chunks.
func (i *Index) Len() int {
	return i.collection.Count()
}

// Search returns up to k chunks ordered by similarity to query. Ties are
// broken by chunk position so identical queries give identical results.
func (i *Index) Search(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	count := i.collection.Count()
	if count == 0 {
		return nil, nil
	}

	queryEmbedding, err := i.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	// rank every document here; chromem's own top-k cut is unordered on ties
	results, err := i.collection.QueryEmbedding(ctx, queryEmbedding, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	hits := make([]hit, 0, len(results))
	for _, r := range results {
		n, err := strconv.Atoi(r.Metadata["index"])
		if err != nil || n < 0 || n >= len(i.chunks) {
			return nil, fmt.Errorf("corrupt index entry %q", r.ID)
		}
		hits = append(hits, hit{index: n, similarity: r.Similarity})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].similarity != hits[b].similarity {
			return hits[a].similarity > hits[b].similarity
		}
		return hits[a].index < hits[b].index
	})

	hits = hits[:min(k, len(hits))]
	out := make([]models.Chunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, i.chunks[h.index])
	}
	return out, nil
}

type hit struct {
	index      int
	similarity float32
}
