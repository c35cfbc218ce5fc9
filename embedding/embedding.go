// Package embedding turns chunk and query text into fixed-dimension vectors.
// The model itself is external; this package only speaks its HTTP API.
package embedding

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	ErrMissingAPIKey        = errors.New("embedding API key not set")
)

type Config struct {
	BaseURL   string        `yaml:"baseURL"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"apiKeyEnv"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Embedder converts a batch of texts into vectors of a fixed dimension,
// preserving input order and length.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
