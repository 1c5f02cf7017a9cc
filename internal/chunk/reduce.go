package chunk

import (
	"errors"
	"fmt"

	"github.com/docfold/docfold/internal/tokenizer"
)

// DefaultTargetTokens is the token budget used when none is configured.
const DefaultTargetTokens = 256

// Options configures a reduction run.
type Options struct {
	// Model selects the tokenizer encoding; empty means tokenizer.DefaultModel.
	Model string

	// TargetTokens is the per-chunk token budget; zero means DefaultTargetTokens.
	TargetTokens int

	// Codec overrides the tokenizer resolved from Model. Mainly for tests
	// and callers that bring their own tokenizer.
	Codec Codec
}

func (o Options) context() (*Context, error) {
	model := o.Model
	if model == "" {
		model = tokenizer.DefaultModel
	}
	target := o.TargetTokens
	if target == 0 {
		target = DefaultTargetTokens
	}
	if target < 0 {
		return nil, errors.New("chunk: target tokens must be positive")
	}
	codec := o.Codec
	if codec == nil {
		c, err := tokenizer.ForModel(model)
		if err != nil {
			return nil, fmt.Errorf("chunk: resolve tokenizer; %w", err)
		}
		codec = c
	}
	return &Context{Model: model, TargetTokens: target, Codec: codec}, nil
}

// Reducer merges an ordered chunk stream under a token budget using a
// combine strategy. It buffers a single accumulator chunk regardless of
// input size. A Reducer must not be driven from multiple goroutines;
// independent Reducer instances are safe to run in parallel.
type Reducer[M any] struct {
	src     Stream[M]
	strat   Strategy[M]
	rctx    *Context
	acc     *Chunk[M]
	pending []Chunk[M]
	done    bool
	err     error
}

// NewReducer builds a reducer over src using the given strategy.
func NewReducer[M any](src Stream[M], strat Strategy[M], opts Options) (*Reducer[M], error) {
	rctx, err := opts.context()
	if err != nil {
		return nil, err
	}
	return &Reducer[M]{src: src, strat: strat, rctx: rctx}, nil
}

// Context returns the reduction context. The returned value must be
// treated as read-only.
func (r *Reducer[M]) Context() *Context {
	return r.rctx
}

// Next returns the next reduced chunk. The boolean is false once the
// stream is exhausted or an error occurred; the error, once set, is
// returned on every subsequent call.
func (r *Reducer[M]) Next() (Chunk[M], bool, error) {
	var zero Chunk[M]
	for {
		if r.err != nil {
			return zero, false, r.err
		}
		if len(r.pending) > 0 {
			out := r.pending[0]
			r.pending = r.pending[1:]
			return out, true, nil
		}
		if r.done {
			return zero, false, nil
		}

		in, ok := r.src.Next()
		if !ok {
			r.done = true
			r.flush()
			continue
		}
		Tokenize(&in, r.rctx.Codec)

		if r.acc == nil {
			r.acc = &in
			continue
		}

		if len(r.acc.Encoded)+len(in.Encoded) <= r.rctx.TargetTokens {
			out, err := r.strat.Combine(*r.acc, in, r.rctx)
			if err != nil {
				r.err = err
				continue
			}
			r.absorb(out)
			continue
		}

		// Accumulator is full; emit it unchanged and start accumulating
		// the incoming chunk.
		full := *r.acc
		next := in
		r.acc = &next
		r.pending = append(r.pending, full)
	}
}

// absorb applies the combine return-length semantics: everything but the
// last returned chunk is emitted, the last becomes the new accumulator,
// and an empty return clears the accumulator.
func (r *Reducer[M]) absorb(out []Chunk[M]) {
	if len(out) == 0 {
		r.acc = nil
		return
	}
	for i := 0; i < len(out)-1; i++ {
		Tokenize(&out[i], r.rctx.Codec)
		r.pending = append(r.pending, out[i])
	}
	last := out[len(out)-1]
	Tokenize(&last, r.rctx.Codec)
	r.acc = &last
}

func (r *Reducer[M]) flush() {
	if r.acc == nil {
		return
	}
	last := *r.acc
	r.acc = nil

	out := []Chunk[M]{last}
	if f, ok := r.strat.(Finisher[M]); ok {
		flushed, err := f.End(last, r.rctx)
		if err != nil {
			r.err = err
			return
		}
		out = flushed
	}
	for i := range out {
		Tokenize(&out[i], r.rctx.Codec)
	}
	r.pending = append(r.pending, out...)
}

// Reduce is a convenience fold over a chunk slice.
func Reduce[M any](chunks []Chunk[M], strat Strategy[M], opts Options) ([]Chunk[M], error) {
	r, err := NewReducer(NewSliceStream(chunks), strat, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Chunk[M], 0, len(chunks))
	for {
		c, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, c)
	}
}
