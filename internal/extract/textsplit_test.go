package extract_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/extract"
	"github.com/docfold/docfold/internal/testutil"
)

func words(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(out, " ")
}

func TestSplitTextShortInput(t *testing.T) {
	codec := testutil.NewWordCodec()
	text := "fits in one window"

	chunks, err := extract.SplitText(text, extract.SplitOptions{ChunkSize: 10, Codec: codec})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Metadata.ChunkIndex)
	assert.Equal(t, 1, chunks[0].Metadata.TotalChunks)
	assert.Equal(t, codec.Encode(text), chunks[0].Encoded)
}

func TestSplitTextRoundTrip(t *testing.T) {
	codec := testutil.NewWordCodec()
	text := words(53)

	chunks, err := extract.SplitText(text, extract.SplitOptions{
		ChunkSize:    10,
		ChunkOverlap: 0,
		Codec:        codec,
	})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}
	joined := strings.Join(parts, " ")
	assert.Equal(t, codec.Encode(text), codec.Encode(joined))
}

func TestSplitTextTotalChunks(t *testing.T) {
	codec := testutil.NewWordCodec()

	chunks, err := extract.SplitText(words(40), extract.SplitOptions{
		ChunkSize:    8,
		ChunkOverlap: 2,
		Codec:        codec,
	})
	require.NoError(t, err)
	for i, c := range chunks {
		assert.Equal(t, i, c.Metadata.ChunkIndex)
		assert.Equal(t, len(chunks), c.Metadata.TotalChunks)
	}
}

func TestSplitTextWindowWidth(t *testing.T) {
	codec := testutil.NewWordCodec()

	chunks, err := extract.SplitText(words(40), extract.SplitOptions{
		ChunkSize:    8,
		ChunkOverlap: 3,
		Codec:        codec,
	})
	require.NoError(t, err)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(codec.Encode(c.Text)), 8, "chunk %d over window", i)
	}
}

func TestSplitTextOverlapMonotonic(t *testing.T) {
	codec := testutil.NewWordCodec()
	text := words(60)

	var prev int
	for _, overlap := range []int{0, 2, 4, 7} {
		chunks, err := extract.SplitText(text, extract.SplitOptions{
			ChunkSize:    8,
			ChunkOverlap: overlap,
			Codec:        codec,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(chunks), prev, "overlap %d reduced chunk count", overlap)
		prev = len(chunks)
	}
}

func TestSplitTextEmptyInput(t *testing.T) {
	chunks, err := extract.SplitText("", extract.SplitOptions{ChunkSize: 8, Codec: testutil.NewWordCodec()})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Metadata.TotalChunks)
}

func TestSplitTextValidation(t *testing.T) {
	codec := testutil.NewWordCodec()
	tests := []struct {
		name string
		opts extract.SplitOptions
	}{
		{"negative size", extract.SplitOptions{ChunkSize: -1, Codec: codec}},
		{"negative overlap", extract.SplitOptions{ChunkSize: 8, ChunkOverlap: -1, Codec: codec}},
		{"overlap equals size", extract.SplitOptions{ChunkSize: 8, ChunkOverlap: 8, Codec: codec}},
		{"overlap exceeds size", extract.SplitOptions{ChunkSize: 8, ChunkOverlap: 9, Codec: codec}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extract.SplitText("any text", tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestDefaultSplitOptions(t *testing.T) {
	opts := extract.DefaultSplitOptions()
	assert.Equal(t, 256, opts.ChunkSize)
	assert.Equal(t, 20, opts.ChunkOverlap)
}
