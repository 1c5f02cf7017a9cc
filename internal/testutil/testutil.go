// Package testutil provides testing utilities shared across packages.
package testutil

import (
	"strings"
	"sync"
)

// WordCodec is a deterministic whitespace tokenizer for tests: every
// distinct word is one token. Decode joins words with single spaces, so
// round trips normalize whitespace. Safe for concurrent use.
type WordCodec struct {
	mu    sync.Mutex
	ids   map[string]int
	words []string
}

// NewWordCodec returns an empty word codec.
func NewWordCodec() *WordCodec {
	return &WordCodec{ids: make(map[string]int)}
}

// Encode maps each whitespace-separated word to a stable id.
func (c *WordCodec) Encode(text string) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := strings.Fields(text)
	out := make([]int, 0, len(fields))
	for _, w := range fields {
		id, ok := c.ids[w]
		if !ok {
			id = len(c.words)
			c.ids[w] = id
			c.words = append(c.words, w)
		}
		out = append(out, id)
	}
	return out
}

// Decode joins the words for the given ids with single spaces.
func (c *WordCodec) Decode(ids []int) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	words := make([]string, 0, len(ids))
	for _, id := range ids {
		if id >= 0 && id < len(c.words) {
			words = append(words, c.words[id])
		}
	}
	return strings.Join(words, " ")
}
