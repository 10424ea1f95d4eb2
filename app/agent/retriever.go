package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"interview/types"
)

const sharedEmbedTimeout = 30 * time.Second

var errEmptyEmbedding = errors.New("embedding provider returned an empty vector")

// Retriever embeds a query and returns the nearest stored chunks.
type Retriever struct {
	embedder   Embedder
	store      Searcher
	queryCache *lru.Cache[string, []float32]
	loadGroup  singleflight.Group
	logger     *slog.Logger
}

// NewRetriever caches up to cacheSize query embeddings; 0 disables the cache.
func NewRetriever(embedder Embedder, store Searcher, cacheSize int) (*Retriever, error) {
	r := &Retriever{
		embedder: embedder,
		store:    store,
		logger:   slog.Default(),
	}
	if cacheSize > 0 {
		c, err := lru.New[string, []float32](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("query cache: %w", err)
		}
		r.queryCache = c
	}
	return r, nil
}

// Retrieve returns at most topK results ranked by ascending distance.
// Every failure degrades to an empty result and a single error log.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) []types.RetrievalResult {
	if topK <= 0 {
		return []types.RetrievalResult{}
	}

	vec, err := r.embed(ctx, query)
	if err != nil {
		r.logger.Error("query embedding failed", "error", err)
		return []types.RetrievalResult{}
	}

	results, err := r.store.Search(ctx, vec, topK)
	if err != nil {
		r.logger.Error("vector search failed", "top_k", topK, "error", err)
		return []types.RetrievalResult{}
	}
	if results == nil {
		results = []types.RetrievalResult{}
	}
	return results
}

func (r *Retriever) embed(ctx context.Context, query string) ([]float32, error) {
	if r.queryCache != nil {
		if v, ok := r.queryCache.Get(query); ok {
			return v, nil
		}
	}

	// The shared call outlives any single caller; each caller waits on its own ctx.
	ch := r.loadGroup.DoChan(query, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedEmbedTimeout)
		defer cancel()

		vec, err := r.embedder.Embed(callCtx, query)
		if err != nil {
			return nil, err
		}
		if len(vec) == 0 {
			return nil, errEmptyEmbedding
		}
		if r.queryCache != nil {
			r.queryCache.Add(query, vec)
		}
		return vec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]float32), nil
	}
}
