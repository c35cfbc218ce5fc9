package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "text-embedding-3-small"
	defaultDimension = 384
	defaultTimeout   = 30 * time.Second
)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	baseURL string
	apiKey  string
	model   string
	dim     int
	client  *http.Client
	log     *zap.Logger
}

func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = defaultDimension
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if cfg.APIKeyEnv != "" && apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	log := zap.L().With(
		zap.String("component", "embedder"),
		zap.String("model", cfg.Model),
	)

	return &OpenAIEmbedder{
		baseURL: cfg.BaseURL,
		apiKey:  apiKey,
		model:   cfg.Model,
		dim:     cfg.Dimension,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input text, in input order. Any transport or
// shape problem surfaces as ErrEmbeddingUnavailable so callers can abort
// without mutating the index.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingsRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Error("embeddings request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.log.Error("embeddings request rejected", zap.String("status", resp.Status))
		return nil, fmt.Errorf("%w: %s", ErrEmbeddingUnavailable, resp.Status)
	}

	var out embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %d texts, %d embeddings",
			ErrEmbeddingUnavailable, len(texts), len(out.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: embedding index %d out of range",
				ErrEmbeddingUnavailable, d.Index)
		}

		if len(d.Embedding) != e.dim {
			return nil, fmt.Errorf("%w: expected dimension %d, got %d",
				ErrEmbeddingUnavailable, e.dim, len(d.Embedding))
		}

		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}
