package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("What is RAG?", []ContextChunk{
		{Text: "RAG grounds answers in retrieved text.", Document: "intro.pdf"},
		{Text: "Chunks are embedded and indexed.", Document: "pipeline.md"},
	})

	assert.Contains(t, prompt, "[Source: intro.pdf]")
	assert.Contains(t, prompt, "[Source: pipeline.md]")
	assert.Contains(t, prompt, "Question: What is RAG?")
	assert.Contains(t, prompt, "RAG grounds answers in retrieved text.")
}

func TestUniqueSources(t *testing.T) {
	sources := uniqueSources([]ContextChunk{
		{Document: "a.txt"},
		{Document: "b.txt"},
		{Document: "a.txt"},
		{Document: "c.txt"},
	})

	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, sources)
}
