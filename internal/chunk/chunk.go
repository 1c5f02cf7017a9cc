// Package chunk defines the chunk data model and the token-budgeted
// streaming reducer. Format-specific merge rules are supplied by combine
// strategies; the reducer itself never inspects chunk metadata.
package chunk

// Codec is the pluggable tokenizer contract the reducer depends on.
// *tokenizer.Codec satisfies it.
type Codec interface {
	Encode(text string) []int
	Decode(ids []int) string
}

// Chunk is a unit of extracted text plus format-specific metadata.
// Encoded, when non-nil, caches Codec.Encode(Text); a strategy that
// rewrites Text must clear or recompute the cache.
type Chunk[M any] struct {
	Text     string `json:"text"`
	Metadata M      `json:"metadata"`
	Encoded  []int  `json:"-"`
}

// Tokenize fills the chunk's token cache if it is missing.
func Tokenize[M any](c *Chunk[M], codec Codec) {
	if c.Encoded == nil {
		c.Encoded = codec.Encode(c.Text)
	}
}

// Context carries the tokenizer configuration for one reduction run.
// It is immutable for the duration of the run.
type Context struct {
	Model        string
	TargetTokens int
	Codec        Codec
}

// Strategy encapsulates per-format merge rules consumed by the reducer.
//
// Combine is called with the current accumulator and the incoming chunk
// when their combined token count fits the target. Its return length
// selects the outcome:
//
//	0  — drop the accumulator entirely
//	1  — chunks merged into one, which becomes the accumulator
//	2  — no merge; the first passes through, the second accumulates
//	3+ — emit all but the last, keep the last as the accumulator
type Strategy[M any] interface {
	Combine(first, second Chunk[M], rctx *Context) ([]Chunk[M], error)
}

// Finisher is an optional strategy extension that flushes remaining
// state at stream end. Without it the final accumulator is emitted as-is.
type Finisher[M any] interface {
	End(last Chunk[M], rctx *Context) ([]Chunk[M], error)
}

// Stream is a pull-based source of chunks in source order.
type Stream[M any] interface {
	Next() (Chunk[M], bool)
}

// SliceStream adapts a chunk slice to the Stream interface.
type SliceStream[M any] struct {
	chunks []Chunk[M]
	pos    int
}

// NewSliceStream returns a stream over the given chunks.
func NewSliceStream[M any](chunks []Chunk[M]) *SliceStream[M] {
	return &SliceStream[M]{chunks: chunks}
}

// Next returns the next chunk, or false when the slice is exhausted.
func (s *SliceStream[M]) Next() (Chunk[M], bool) {
	if s.pos >= len(s.chunks) {
		var zero Chunk[M]
		return zero, false
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, true
}
