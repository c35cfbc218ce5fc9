// Package generate produces grounded answers from retrieved chunks via an
// external chat-completion model.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrGenerationFailed = errors.New("answer generation failed")

type Config struct {
	BaseURL     string        `yaml:"baseURL"`
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"apiKeyEnv"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ContextChunk is one retrieved chunk handed to the model as grounding.
type ContextChunk struct {
	Text     string `json:"text"`
	Document string `json:"document"`
}

type Answer struct {
	Text    string   `json:"answer"`
	Sources []string `json:"sources"`
}

type Generator interface {
	Generate(ctx context.Context, query string, chunks []ContextChunk) (*Answer, error)
}

const systemInstruction = `You are an AI assistant for a Retrieval-Augmented Generation (RAG) chatbot. Your task is to answer user questions using only the information provided in the context.

Guidelines:
- Only use information from the provided context
- Do not add external knowledge or make assumptions
- If the context is insufficient, acknowledge it clearly
- Provide accurate, clear, and detailed responses
- Cite specific parts of the context when relevant
- Be concise but comprehensive
- Use a professional and helpful tone`

// buildPrompt labels every chunk with its source document so the model can
// cite where an answer came from.
func buildPrompt(query string, chunks []ContextChunk) string {
	blocks := make([]string, len(chunks))
	for i, chunk := range chunks {
		blocks[i] = fmt.Sprintf("[Source: %s]\n%s", chunk.Document, chunk.Text)
	}

	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:",
		strings.Join(blocks, "\n\n"), query)
}

// uniqueSources preserves first-seen order.
func uniqueSources(chunks []ContextChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if _, ok := seen[chunk.Document]; ok {
			continue
		}
		seen[chunk.Document] = struct{}{}
		sources = append(sources, chunk.Document)
	}

	return sources
}
