package model

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const geminiEmbeddingModel = "gemini-embedding-001"

// GeminiEmbedder embeds retrieval queries and documents with the Gen AI SDK.
type GeminiEmbedder struct {
	models *genai.Models
	model  string
	dim    int32
}

func NewGeminiEmbedder(ctx context.Context, cfg EmbedderConfig) (*GeminiEmbedder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = geminiEmbeddingModel
	}
	return &GeminiEmbedder{models: client.Models, model: cfg.Model, dim: int32(cfg.Dim)}, nil
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.models.EmbedContent(ctx, g.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &g.dim,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	var values []float32
	if len(resp.Embeddings) > 0 {
		values = resp.Embeddings[0].Values
	}
	return toVector("gemini", values, int(g.dim))
}
