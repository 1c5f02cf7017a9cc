package extract

import (
	"errors"
	"fmt"

	"github.com/docfold/docfold/internal/chunk"
	"github.com/docfold/docfold/internal/tokenizer"
)

// Default sliding-window parameters, in token units.
const (
	DefaultSplitSize    = 256
	DefaultSplitOverlap = 20
)

// TextMeta is the metadata carried by plain-text chunks. TotalChunks is
// known only once splitting completes and is backfilled in a second pass.
type TextMeta struct {
	ChunkIndex  int `json:"chunk_index"`
	TotalChunks int `json:"total_chunks"`
}

// SplitOptions configures the plain-text splitter. A zero ChunkSize
// selects DefaultSplitSize; ChunkOverlap is taken as given, so an
// explicit zero means no overlap.
type SplitOptions struct {
	Model        string
	ChunkSize    int
	ChunkOverlap int
	Codec        chunk.Codec
}

// DefaultSplitOptions returns the standard window parameters.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{ChunkSize: DefaultSplitSize, ChunkOverlap: DefaultSplitOverlap}
}

// SplitText partitions text into a deterministic sliding window over its
// token stream: window width ChunkSize, step ChunkSize-ChunkOverlap
// (minimum 1). Text that already fits the window yields exactly one chunk.
func SplitText(text string, opts SplitOptions) ([]chunk.Chunk[TextMeta], error) {
	size := opts.ChunkSize
	if size == 0 {
		size = DefaultSplitSize
	}
	if size < 0 {
		return nil, errors.New("split: chunk size must be positive")
	}
	overlap := opts.ChunkOverlap
	if overlap < 0 {
		return nil, errors.New("split: chunk overlap cannot be negative")
	}
	if overlap >= size {
		return nil, fmt.Errorf("split: overlap %d must be smaller than size %d", overlap, size)
	}

	codec := opts.Codec
	if codec == nil {
		c, err := tokenizer.ForModel(opts.Model)
		if err != nil {
			return nil, fmt.Errorf("split: resolve tokenizer; %w", err)
		}
		codec = c
	}

	ids := codec.Encode(text)
	if len(ids) <= size {
		return []chunk.Chunk[TextMeta]{{
			Text:     text,
			Encoded:  ids,
			Metadata: TextMeta{ChunkIndex: 0, TotalChunks: 1},
		}}, nil
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	var out []chunk.Chunk[TextMeta]
	for start := 0; ; start += step {
		end := min(start+size, len(ids))
		// Windows are decoded rather than carrying token caches: a window
		// boundary can fall mid-rune, so decode-then-encode is not
		// guaranteed to reproduce the window ids.
		out = append(out, chunk.Chunk[TextMeta]{
			Text:     codec.Decode(ids[start:end]),
			Metadata: TextMeta{ChunkIndex: len(out)},
		})
		if end == len(ids) {
			break
		}
	}
	for i := range out {
		out[i].Metadata.TotalChunks = len(out)
	}
	return out, nil
}
