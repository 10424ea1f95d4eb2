package model

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview/config"
)

func TestNormalize(t *testing.T) {
	out := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, out[0], 1e-6)
	assert.InDelta(t, 0.8, out[1], 1e-6)

	var sum float64
	for _, x := range out {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, Normalize(zero))
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.5, 0.25, 0.125]}],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	t.Run("returns vector", func(t *testing.T) {
		e, err := NewOpenAIEmbedder(EmbedderConfig{BaseURL: srv.URL, APIKey: "k", Dim: 3})
		require.NoError(t, err)
		vec, err := e.Embed(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, 0.25, 0.125}, vec)
	})

	t.Run("wrong length", func(t *testing.T) {
		e, err := NewOpenAIEmbedder(EmbedderConfig{BaseURL: srv.URL, APIKey: "k", Dim: 4})
		require.NoError(t, err)
		_, err = e.Embed(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrVectorShape)
	})
}

func TestGeminiEmbedder(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"embedding": {"values": [3, 4]},
			"embeddings": [{"values": [3, 4]}]
		}`))
	}))
	defer srv.Close()

	t.Run("returns vector", func(t *testing.T) {
		e, err := NewGeminiEmbedder(context.Background(), EmbedderConfig{BaseURL: srv.URL, APIKey: "g-key", Dim: 2})
		require.NoError(t, err)
		vec, err := e.Embed(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, []float32{3, 4}, vec)
		assert.Equal(t, "g-key", gotKey)
	})

	t.Run("wrong length", func(t *testing.T) {
		e, err := NewGeminiEmbedder(context.Background(), EmbedderConfig{BaseURL: srv.URL, APIKey: "g-key", Dim: 3})
		require.NoError(t, err)
		_, err = e.Embed(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrVectorShape)
	})
}

func TestEmbedderConfigRejectsBadDimension(t *testing.T) {
	for _, dim := range []int{0, -1, math.MaxInt32 + 1} {
		_, err := NewOpenAIEmbedder(EmbedderConfig{APIKey: "k", Dim: dim})
		assert.Error(t, err, dim)

		_, err = NewGeminiEmbedder(context.Background(), EmbedderConfig{APIKey: "k", Dim: dim})
		assert.Error(t, err, dim)
	}
}

func TestToVector(t *testing.T) {
	vec, err := toVector("openai", []float64{0.5, 0.25}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)

	_, err = toVector[float32]("gemini", nil, 2)
	assert.ErrorIs(t, err, ErrVectorShape)
}

func TestNewEmbedderRequiresKeys(t *testing.T) {
	_, err := NewEmbedder(context.Background(), &config.Config{EmbeddingProvider: config.EmbeddingProviderOpenAI, EmbeddingDim: 3})
	assert.Error(t, err)

	_, err = NewEmbedder(context.Background(), &config.Config{EmbeddingProvider: config.EmbeddingProviderGemini, EmbeddingDim: 3})
	assert.Error(t, err)

	_, err = NewEmbedder(context.Background(), &config.Config{EmbeddingProvider: "ollama"})
	assert.Error(t, err)
}

type stubEmbedder struct{ vec []float32 }

func (s stubEmbedder) Embed(context.Context, string) ([]float32, error) { return s.vec, nil }

func TestNormalizingEmbedder(t *testing.T) {
	e := &normalizingEmbedder{inner: stubEmbedder{vec: []float32{0, 2}}}
	vec, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vec)

	_, err = e.Embed(context.Background(), "  \n ")
	assert.ErrorIs(t, err, ErrBlankText)
}
