package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

var ErrMissingAPIKey = errors.New("generation API key not set")

const (
	defaultBaseURL     = "https://api.groq.com/openai/v1"
	defaultModel       = "llama-3.3-70b-versatile"
	defaultTemperature = 0.7
	defaultTimeout     = time.Minute
)

// GroqGenerator speaks the OpenAI-compatible chat-completions API that Groq
// exposes, so any compatible endpoint works via BaseURL.
type GroqGenerator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
	log         *zap.Logger
}

func NewGroqGenerator(cfg Config) (*GroqGenerator, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if cfg.APIKeyEnv != "" && apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	log := zap.L().With(
		zap.String("component", "generator"),
		zap.String("model", cfg.Model),
	)

	return &GroqGenerator{
		baseURL:     cfg.BaseURL,
		apiKey:      apiKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: cfg.Timeout},
		log:         log,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *GroqGenerator) Generate(ctx context.Context, query string, chunks []ContextChunk) (*Answer, error) {
	if len(chunks) == 0 {
		return &Answer{
			Text: "I couldn't find any relevant information in the uploaded documents to answer your question. Please upload documents first.",
		}, nil
	}

	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: buildPrompt(query, chunks)},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error("chat request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.log.Error("chat request rejected", zap.String("status", resp.Status))
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, resp.Status)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	answer := &Answer{
		Text:    out.Choices[0].Message.Content,
		Sources: uniqueSources(chunks),
	}

	g.log.Info("answer generated",
		zap.Int("chunks", len(chunks)),
		zap.Int("length", len(answer.Text)),
	)

	return answer, nil
}
