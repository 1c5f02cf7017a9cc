package prompt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/prompt"
)

func TestParseSimpleVariables(t *testing.T) {
	info, err := prompt.Parse("Hello {{name}}, welcome to {{company.title}}.")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "company.title"}, info.Variables)
	assert.False(t, info.UsesDocs)
	assert.False(t, info.UsesHistory)
}

func TestParseDocsDetection(t *testing.T) {
	info, err := prompt.Parse("{{#each docs}}{{this}}{{/each}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, info.Variables)
	assert.True(t, info.UsesDocs)
	assert.False(t, info.UsesHistory)
}

func TestParseDocsPrefix(t *testing.T) {
	info, err := prompt.Parse("{{docsCount}} documents, {{history.0.role}} first")
	require.NoError(t, err)
	assert.True(t, info.UsesDocs)
	assert.True(t, info.UsesHistory)
}

func TestParseExcludesBuiltins(t *testing.T) {
	info, err := prompt.Parse(
		"{{#if ready}}{{#each items}}{{this}}{{/each}}{{/if}}" +
			"{{#with user}}{{name}}{{/with}}" +
			"{{#unless done}}{{lookup table key}}{{/unless}}" +
			"{{log note}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"ready", "items", "user", "name", "done", "table", "key", "note"}, info.Variables)
	for _, v := range info.Variables {
		assert.NotContains(t, []string{"if", "each", "with", "unless", "lookup", "log"}, v)
	}
}

func TestParseElseBranch(t *testing.T) {
	info, err := prompt.Parse("{{#if premium}}{{plan}}{{else}}{{fallbackPlan}}{{/if}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"premium", "plan", "fallbackPlan"}, info.Variables)
}

func TestParseDeduplicatesInOrder(t *testing.T) {
	info, err := prompt.Parse("{{b}} {{a}} {{b}} {{a}} {{c}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, info.Variables)
}

func TestParseSubexpressionAndHash(t *testing.T) {
	info, err := prompt.Parse("{{format (lookup rows index) width=pageWidth}}")
	require.NoError(t, err)
	assert.Contains(t, info.Variables, "format")
	assert.Contains(t, info.Variables, "rows")
	assert.Contains(t, info.Variables, "index")
	assert.Contains(t, info.Variables, "pageWidth")
	assert.NotContains(t, info.Variables, "lookup")
}

func TestParseSkipsDataAndThis(t *testing.T) {
	info, err := prompt.Parse("{{#each docs}}{{@index}}: {{this}} {{.}}{{/each}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, info.Variables)
}

func TestParseEmptyTemplate(t *testing.T) {
	info, err := prompt.Parse("plain text, no variables")
	require.NoError(t, err)
	assert.Empty(t, info.Variables)
	assert.False(t, info.UsesDocs)
	assert.False(t, info.UsesHistory)
}

func TestParseMalformedTemplate(t *testing.T) {
	_, err := prompt.Parse("{{#if open}} never closed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse template")
}
