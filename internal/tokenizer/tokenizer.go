// Package tokenizer adapts tiktoken encodings behind a small codec
// interface keyed by model name. Token budgets everywhere else in docfold
// are interpreted in the units of the codec configured here.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultModel is the model whose encoding is used when none is configured.
const DefaultModel = "gpt-4o"

// Codec encodes and decodes text for a single model's encoding.
// A Codec is safe for concurrent use.
type Codec struct {
	model string
	tke   *tiktoken.Tiktoken
}

var (
	codecMu sync.Mutex
	codecs  = make(map[string]*Codec)
)

// ForModel returns a cached codec for the given model or encoding name.
// The name is first tried as an encoding name, then as a model name.
// An empty name selects DefaultModel.
func ForModel(model string) (*Codec, error) {
	if model == "" {
		model = DefaultModel
	}

	codecMu.Lock()
	defer codecMu.Unlock()

	if c, ok := codecs[model]; ok {
		return c, nil
	}

	tke, err := tiktoken.GetEncoding(model)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(model)
		if err != nil {
			return nil, fmt.Errorf("no encoding for model %q; %w", model, err)
		}
	}

	c := &Codec{model: model, tke: tke}
	codecs[model] = c
	return c, nil
}

// Model returns the model name this codec was resolved for.
func (c *Codec) Model() string {
	return c.model
}

// Encode converts text to token IDs.
func (c *Codec) Encode(text string) []int {
	return c.tke.Encode(text, nil, nil)
}

// Decode converts token IDs back to text.
func (c *Codec) Decode(ids []int) string {
	return c.tke.Decode(ids)
}

// Count returns the token count of text.
func (c *Codec) Count(text string) int {
	return len(c.Encode(text))
}
