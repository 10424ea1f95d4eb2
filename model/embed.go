package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"interview/config"
)

var (
	ErrBlankText   = errors.New("embed: blank text")
	ErrVectorShape = errors.New("embed: provider vector has the wrong length")
)

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderConfig is shared by the remote embedding providers.
type EmbedderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Dim     int
}

func (c EmbedderConfig) validate() error {
	if c.Dim <= 0 || c.Dim > math.MaxInt32 {
		return fmt.Errorf("embed: dimension %d out of range", c.Dim)
	}
	return nil
}

// NewEmbedder builds the provider selected by EMBEDDING_PROVIDER.
// Vectors are L2-normalised so ingestion and queries share one geometry.
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	ec := EmbedderConfig{Model: cfg.EmbeddingModel, Dim: cfg.EmbeddingDim}

	var (
		inner Embedder
		err   error
	)
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai embedding provider")
		}
		ec.APIKey = cfg.OpenAIAPIKey
		inner, err = NewOpenAIEmbedder(ec)
	case config.EmbeddingProviderGemini:
		if cfg.GoogleAPIKey == "" {
			return nil, errors.New("GOOGLE_API_KEY is required for the gemini embedding provider")
		}
		ec.APIKey = cfg.GoogleAPIKey
		inner, err = NewGeminiEmbedder(ctx, ec)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
	if err != nil {
		return nil, err
	}

	return &normalizingEmbedder{inner: inner, timeout: cfg.ProviderTimeout}, nil
}

type normalizingEmbedder struct {
	inner   Embedder
	timeout time.Duration
}

func (n *normalizingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrBlankText
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	vec, err := n.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return Normalize(vec), nil
}

// toVector converts a provider's values, rejecting any length other than dim.
func toVector[T float32 | float64](provider string, values []T, dim int) ([]float32, error) {
	if len(values) != dim {
		return nil, fmt.Errorf("%s: got %d values, want %d: %w", provider, len(values), dim, ErrVectorShape)
	}
	out := make([]float32, dim)
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

// Normalize scales v to unit length. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
