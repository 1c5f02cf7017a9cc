package chunk_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/chunk"
	"github.com/docfold/docfold/internal/testutil"
)

// concatStrategy always merges, joining texts with a space.
type concatStrategy struct{}

func (concatStrategy) Combine(first, second chunk.Chunk[string], rctx *chunk.Context) ([]chunk.Chunk[string], error) {
	merged := chunk.Chunk[string]{
		Text:     first.Text + " " + second.Text,
		Metadata: first.Metadata,
	}
	return []chunk.Chunk[string]{merged}, nil
}

// refuseStrategy never merges.
type refuseStrategy struct{}

func (refuseStrategy) Combine(first, second chunk.Chunk[string], rctx *chunk.Context) ([]chunk.Chunk[string], error) {
	return []chunk.Chunk[string]{first, second}, nil
}

// dropStrategy discards the accumulator on every combine.
type dropStrategy struct{}

func (dropStrategy) Combine(first, second chunk.Chunk[string], rctx *chunk.Context) ([]chunk.Chunk[string], error) {
	return nil, nil
}

// spreadStrategy emits both inputs and keeps a fresh marker accumulator,
// exercising the 3+ return semantics.
type spreadStrategy struct{}

func (spreadStrategy) Combine(first, second chunk.Chunk[string], rctx *chunk.Context) ([]chunk.Chunk[string], error) {
	marker := chunk.Chunk[string]{Text: "marker", Metadata: "spread"}
	return []chunk.Chunk[string]{first, second, marker}, nil
}

// haltingStrategy fails on combine.
type haltingStrategy struct{}

func (haltingStrategy) Combine(first, second chunk.Chunk[string], rctx *chunk.Context) ([]chunk.Chunk[string], error) {
	return nil, errors.New("combine failed")
}

// splittingEndStrategy refuses merges but splits the final chunk in two
// at stream end.
type splittingEndStrategy struct{}

func (splittingEndStrategy) Combine(first, second chunk.Chunk[string], rctx *chunk.Context) ([]chunk.Chunk[string], error) {
	return []chunk.Chunk[string]{first, second}, nil
}

func (splittingEndStrategy) End(last chunk.Chunk[string], rctx *chunk.Context) ([]chunk.Chunk[string], error) {
	words := strings.Fields(last.Text)
	if len(words) < 2 {
		return []chunk.Chunk[string]{last}, nil
	}
	half := len(words) / 2
	return []chunk.Chunk[string]{
		{Text: strings.Join(words[:half], " "), Metadata: last.Metadata},
		{Text: strings.Join(words[half:], " "), Metadata: last.Metadata},
	}, nil
}

func textChunks(texts ...string) []chunk.Chunk[string] {
	out := make([]chunk.Chunk[string], 0, len(texts))
	for _, t := range texts {
		out = append(out, chunk.Chunk[string]{Text: t})
	}
	return out
}

func wordOpts(target int) chunk.Options {
	return chunk.Options{TargetTokens: target, Codec: testutil.NewWordCodec()}
}

func TestReduceEmptyInput(t *testing.T) {
	for name, strat := range map[string]chunk.Strategy[string]{
		"concat": concatStrategy{},
		"refuse": refuseStrategy{},
		"drop":   dropStrategy{},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := chunk.Reduce(nil, strat, wordOpts(8))
			require.NoError(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestReduceSingleChunk(t *testing.T) {
	codec := testutil.NewWordCodec()
	in := textChunks("one lonely chunk")

	out, err := chunk.Reduce(in, refuseStrategy{}, chunk.Options{TargetTokens: 8, Codec: codec})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "one lonely chunk", out[0].Text)
	assert.Equal(t, codec.Encode("one lonely chunk"), out[0].Encoded)
}

func TestReducePassThrough(t *testing.T) {
	in := textChunks("a", "b", "c", "d", "e")

	out, err := chunk.Reduce(in, refuseStrategy{}, wordOpts(100))
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].Text, out[i].Text)
		assert.NotNil(t, out[i].Encoded)
	}
}

func TestReduceMergesWithinBudget(t *testing.T) {
	in := textChunks("alpha beta", "gamma delta", "epsilon")

	out, err := chunk.Reduce(in, concatStrategy{}, wordOpts(8))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "alpha beta gamma delta epsilon", out[0].Text)
}

func TestReduceRespectsBudget(t *testing.T) {
	const target = 6

	var in []chunk.Chunk[string]
	for i := 0; i < 40; i++ {
		// Chunks of 1..4 tokens, each individually under the budget.
		width := i%4 + 1
		words := make([]string, width)
		for j := range words {
			words[j] = fmt.Sprintf("w%d_%d", i, j)
		}
		in = append(in, chunk.Chunk[string]{Text: strings.Join(words, " ")})
	}

	codec := testutil.NewWordCodec()
	out, err := chunk.Reduce(in, concatStrategy{}, chunk.Options{TargetTokens: target, Codec: codec})
	require.NoError(t, err)
	require.NotEmpty(t, out)
	for i, c := range out {
		assert.LessOrEqual(t, len(codec.Encode(c.Text)), target, "chunk %d over budget", i)
	}
}

func TestReduceDropSemantics(t *testing.T) {
	in := textChunks("a", "b")

	out, err := chunk.Reduce(in, dropStrategy{}, wordOpts(8))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReduceMultiReturnSemantics(t *testing.T) {
	in := textChunks("a", "b")

	out, err := chunk.Reduce(in, spreadStrategy{}, wordOpts(8))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Text)
	assert.Equal(t, "b", out[1].Text)
	assert.Equal(t, "marker", out[2].Text)
	assert.Equal(t, "spread", out[2].Metadata)
}

func TestReduceEndFlush(t *testing.T) {
	in := textChunks("one two three four")

	out, err := chunk.Reduce(in, splittingEndStrategy{}, wordOpts(100))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "one two", out[0].Text)
	assert.Equal(t, "three four", out[1].Text)
	assert.NotNil(t, out[0].Encoded)
	assert.NotNil(t, out[1].Encoded)
}

func TestReduceStrategyError(t *testing.T) {
	in := textChunks("a", "b")

	_, err := chunk.Reduce(in, haltingStrategy{}, wordOpts(8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "combine failed")

	// The error sticks on subsequent pulls.
	r, err := chunk.NewReducer(chunk.NewSliceStream(in), haltingStrategy{}, wordOpts(8))
	require.NoError(t, err)
	_, ok, err := r.Next()
	assert.False(t, ok)
	require.Error(t, err)
	_, ok, err = r.Next()
	assert.False(t, ok)
	require.Error(t, err)
}

func TestReduceEmitsFullAccumulatorUnchanged(t *testing.T) {
	// Two chunks of 4 tokens with a budget of 6: no merge is admitted, so
	// the first is emitted exactly as it arrived.
	in := textChunks("a b c d", "e f g h")

	out, err := chunk.Reduce(in, concatStrategy{}, wordOpts(6))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a b c d", out[0].Text)
	assert.Equal(t, "e f g h", out[1].Text)
}

func TestReducerNextAfterExhaustion(t *testing.T) {
	r, err := chunk.NewReducer(chunk.NewSliceStream(textChunks("a")), refuseStrategy{}, wordOpts(8))
	require.NoError(t, err)

	_, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		_, ok, err = r.Next()
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestOptionsValidation(t *testing.T) {
	_, err := chunk.Reduce(textChunks("a"), refuseStrategy{}, chunk.Options{
		TargetTokens: -1,
		Codec:        testutil.NewWordCodec(),
	})
	require.Error(t, err)
}
