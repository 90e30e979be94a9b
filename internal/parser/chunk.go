package parser

import (
	"errors"
	"fmt"
	"strings"

	"document-qa/internal/models"
)

var ErrInvalidChunkOptions = errors.New("invalid chunk options")

// ChunkOptions bounds every chunk to Size runes; consecutive chunks share
// exactly Overlap runes.
type ChunkOptions struct {
	Size      int
	Overlap   int
	Separator string
}

func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		Size:      models.DefaultChunkSize,
		Overlap:   models.DefaultChunkOverlap,
		Separator: models.DefaultSeparator,
	}
}

func (o ChunkOptions) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidChunkOptions, o.Size)
	}
	if o.Overlap < 0 || o.Overlap >= o.Size {
		return fmt.Errorf("%w: overlap %d must be >= 0 and < size %d", ErrInvalidChunkOptions, o.Overlap, o.Size)
	}
	return nil
}

// Split cuts text into windows of at most opts.Size runes. A window ends
// right after the last separator inside it when that still leaves more
// than opts.Overlap runes in the chunk, otherwise it is cut hard at
// opts.Size. The next window starts opts.Overlap runes before the end of
// the previous one, so Join(Split(t)) == t.
func Split(text string, opts ChunkOptions) ([]models.Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}
	sep := []rune(opts.Separator)

	var chunks []models.Chunk
	start := 0
	for {
		end := start + opts.Size
		if end >= n {
			end = n
		} else if cut := lastSeparatorCut(runes, start, end, sep, opts.Overlap); cut > 0 {
			end = cut
		}
		chunks = append(chunks, models.Chunk{
			Content:  string(runes[start:end]),
			Position: len(chunks),
			Start:    start,
			End:      end,
		})
		if end == n {
			break
		}
		// end-start > Overlap on every path, so start always advances.
		start = end - opts.Overlap
	}
	return chunks, nil
}

// lastSeparatorCut returns the offset just past the last separator in
// runes[start:end], or -1 when there is none far enough from start.
func lastSeparatorCut(runes []rune, start, end int, sep []rune, overlap int) int {
	if len(sep) == 0 {
		return -1
	}
	for i := end - len(sep); i >= start; i-- {
		if !hasPrefix(runes[i:], sep) {
			continue
		}
		cut := i + len(sep)
		if cut-start > overlap {
			return cut
		}
		return -1
	}
	return -1
}

func hasPrefix(runes, prefix []rune) bool {
	if len(runes) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if runes[i] != r {
			return false
		}
	}
	return true
}

// Join rebuilds the source text from chunks produced by Split with the
// same overlap.
func Join(chunks []models.Chunk, overlap int) string {
	var b strings.Builder
	for i, chunk := range chunks {
		if i == 0 {
			b.WriteString(chunk.Content)
			continue
		}
		runes := []rune(chunk.Content)
		b.WriteString(string(runes[min(overlap, len(runes)):]))
	}
	return b.String()
}
