package agent

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview/model"
	"interview/types"
)

type completerFunc func(ctx context.Context, req model.ChatRequest) (string, error)

func (f completerFunc) Complete(ctx context.Context, req model.ChatRequest) (string, error) {
	return f(ctx, req)
}

type embedderFunc func(ctx context.Context, text string) ([]float32, error)

func (f embedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

type searcherFunc func(ctx context.Context, vec []float32, limit int) ([]types.RetrievalResult, error)

func (f searcherFunc) Search(ctx context.Context, vec []float32, limit int) ([]types.RetrievalResult, error) {
	return f(ctx, vec, limit)
}

type webFunc func(ctx context.Context, query string, maxResults int) ([]string, error)

func (f webFunc) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	return f(ctx, query, maxResults)
}

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func errorCount(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), "level=ERROR")
}

func fixedEmbedder(vec []float32) embedderFunc {
	return func(ctx context.Context, text string) ([]float32, error) { return vec, nil }
}

func bookResults() []types.RetrievalResult {
	return []types.RetrievalResult{
		{ID: uuid.New(), Text: "Practice the STAR method.", Source: "book.pdf", Page: 4, Distance: 0.12},
		{ID: uuid.New(), Text: "Explain trade-offs out loud.", Source: "book.pdf", Page: 4, Distance: 0.35},
		{ID: uuid.New(), Text: "Clarify requirements first.", Source: "book.pdf", Page: 9, Distance: 0.61},
	}
}

func TestGenerateReport(t *testing.T) {
	const expanded = "• behavioral expectations\n• common technical pitfalls"

	var embedded string
	var limit int
	llm := completerFunc(func(ctx context.Context, req model.ChatRequest) (string, error) {
		if req.System == expanderSystemPrompt {
			assert.Contains(t, req.User, ReportTopic)
			return expanded, nil
		}
		assert.Contains(t, req.User, "Source: book.pdf | Page: 4\nPractice the STAR method.")
		assert.Contains(t, req.User, `"job_role": "Backend Engineer"`)
		return `Here is the report: {"summary":"Solid","technical_feedback":"Good","behavioral_feedback":"Calm",` +
			`"communication_feedback":"Clear","suggestions":["Use STAR"],"score":"7/10"}`, nil
	})
	embedder := embedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		embedded = text
		return []float32{0.1, 0.2}, nil
	})
	store := searcherFunc(func(ctx context.Context, vec []float32, l int) ([]types.RetrievalResult, error) {
		limit = l
		return bookResults(), nil
	})

	logger, _ := captureLogger()
	a, err := New(Options{LLM: llm, Embedder: embedder, Store: store, TopK: 5, Logger: logger})
	require.NoError(t, err)
	a.Synthesizer.countTokens = func(string) (int, error) { return 42, nil }

	snap := types.SessionSnapshot{JobInfo: &types.JobInfo{CandidateName: "Ada", JobRole: "Backend Engineer"}}
	report := a.GenerateReport(context.Background(), snap)

	require.NotNil(t, report)
	assert.Equal(t, "Solid", report.Summary)
	assert.Equal(t, types.Score("7/10"), report.Score)
	assert.Equal(t, []string{"Use STAR"}, report.Suggestions)
	assert.Equal(t, expanded, embedded)
	assert.Equal(t, 5, limit)
}

func TestGenerateReportExpansionFailsUsesTopic(t *testing.T) {
	var embedded string
	llm := completerFunc(func(ctx context.Context, req model.ChatRequest) (string, error) {
		if req.System == expanderSystemPrompt {
			return "", errors.New("rate limited")
		}
		return `{"summary":"ok"}`, nil
	})
	embedder := embedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		embedded = text
		return []float32{1}, nil
	})
	store := searcherFunc(func(ctx context.Context, vec []float32, l int) ([]types.RetrievalResult, error) {
		return nil, nil
	})

	logger, _ := captureLogger()
	a, err := New(Options{LLM: llm, Embedder: embedder, Store: store, Logger: logger})
	require.NoError(t, err)
	a.Synthesizer.countTokens = func(string) (int, error) { return 0, nil }

	report := a.GenerateReport(context.Background(), types.SessionSnapshot{})
	require.NotNil(t, report)
	assert.Equal(t, "ok", report.Summary)
	assert.Equal(t, ReportTopic, embedded)
}

func TestNewRequiresProviders(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	t.Run("structured feedback", func(t *testing.T) {
		llm := completerFunc(func(ctx context.Context, req model.ChatRequest) (string, error) {
			assert.Equal(t, evaluatorSystemPrompt, req.System)
			assert.True(t, strings.HasSuffix(req.User, "Technical Answer:\nA map is a hash table."))
			assert.InDelta(t, 0.4, req.Temperature, 1e-9)
			return "```json\n" + `{"evaluation":[{"category":"Correctness","score":8.5,"feedback":"Accurate","improvement_tip":"Mention collisions"}],` +
				`"overall_summary":"Good answer","actionable_suggestions":["Discuss load factor"]}` + "\n```", nil
		})
		e := NewAnswerEvaluator(llm)
		e.logger, _ = captureLogger()

		fb := e.Evaluate(context.Background(), "A map is a hash table.")
		assert.Empty(t, fb.Error)
		require.Len(t, fb.Evaluation, 1)
		assert.Equal(t, "Correctness", fb.Evaluation[0].Category)
		assert.InDelta(t, 8.5, fb.Evaluation[0].Score, 1e-9)
		assert.Equal(t, []string{"Discuss load factor"}, fb.ActionableSuggestions)
	})

	t.Run("invalid json", func(t *testing.T) {
		llm := completerFunc(func(ctx context.Context, req model.ChatRequest) (string, error) {
			return "I think the answer was fine.", nil
		})
		e := NewAnswerEvaluator(llm)
		var buf *bytes.Buffer
		e.logger, buf = captureLogger()

		fb := e.Evaluate(context.Background(), "x")
		assert.Equal(t, errInvalidEvaluation, fb.Error)
		assert.Empty(t, fb.Evaluation)
		assert.Equal(t, 1, errorCount(buf))
	})

	t.Run("incomplete", func(t *testing.T) {
		llm := completerFunc(func(ctx context.Context, req model.ChatRequest) (string, error) {
			return `{"overall_summary":"fine"}`, nil
		})
		e := NewAnswerEvaluator(llm)
		e.logger, _ = captureLogger()

		fb := e.Evaluate(context.Background(), "x")
		assert.NotEmpty(t, fb.Error)
	})

	t.Run("provider error", func(t *testing.T) {
		llm := completerFunc(func(ctx context.Context, req model.ChatRequest) (string, error) {
			return "", errors.New("connection reset")
		})
		e := NewAnswerEvaluator(llm)
		e.logger, _ = captureLogger()

		fb := e.Evaluate(context.Background(), "x")
		assert.Contains(t, fb.Error, "connection reset")
	})
}

func TestExpand(t *testing.T) {
	t.Run("trims provider text", func(t *testing.T) {
		llm := completerFunc(func(ctx context.Context, req model.ChatRequest) (string, error) {
			assert.Equal(t, expanderSystemPrompt, req.System)
			assert.Contains(t, req.User, `"technical interview improvement"`)
			assert.Contains(t, req.User, "preparation strategies")
			assert.InDelta(t, 0.7, req.Temperature, 1e-9)
			return "  • expanded query \n", nil
		})
		q := NewQueryExpander(llm)
		assert.Equal(t, "• expanded query", q.Expand(context.Background(), "technical interview improvement"))
	})

	t.Run("provider error gives empty", func(t *testing.T) {
		llm := completerFunc(func(ctx context.Context, req model.ChatRequest) (string, error) {
			return "", errors.New("boom")
		})
		q := NewQueryExpander(llm)
		var buf *bytes.Buffer
		q.logger, buf = captureLogger()

		assert.Equal(t, "", q.Expand(context.Background(), "topic"))
		assert.Equal(t, "topic", q.ExpandOrTopic(context.Background(), "topic"))
		assert.Equal(t, 2, errorCount(buf))
	})
}

func TestRetrieveNonPositiveTopK(t *testing.T) {
	var calls atomic.Int32
	embedder := embedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		return []float32{1}, nil
	})
	store := searcherFunc(func(ctx context.Context, vec []float32, limit int) ([]types.RetrievalResult, error) {
		calls.Add(1)
		return bookResults(), nil
	})

	r, err := NewRetriever(embedder, store, 0)
	require.NoError(t, err)

	for _, k := range []int{0, -1, -100} {
		got := r.Retrieve(context.Background(), "query", k)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
	assert.Zero(t, calls.Load())
}

func TestRetrieveKeepsRankAndDuplicates(t *testing.T) {
	want := bookResults()
	store := searcherFunc(func(ctx context.Context, vec []float32, limit int) ([]types.RetrievalResult, error) {
		assert.Equal(t, 5, limit)
		assert.Equal(t, []float32{0.6, 0.8}, vec)
		return want, nil
	})

	r, err := NewRetriever(fixedEmbedder([]float32{0.6, 0.8}), store, 0)
	require.NoError(t, err)

	got := r.Retrieve(context.Background(), "technical interview improvement", 5)
	require.Len(t, got, 3)
	assert.Equal(t, want, got)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
	}
}

func TestRetrieveSoftFailures(t *testing.T) {
	okStore := searcherFunc(func(ctx context.Context, vec []float32, limit int) ([]types.RetrievalResult, error) {
		return bookResults(), nil
	})

	tests := []struct {
		name     string
		embedder Embedder
		store    Searcher
	}{
		{
			name: "embedding provider raises",
			embedder: embedderFunc(func(ctx context.Context, text string) ([]float32, error) {
				return nil, errors.New("quota exceeded")
			}),
			store: okStore,
		},
		{
			name:     "empty embedding",
			embedder: fixedEmbedder(nil),
			store:    okStore,
		},
		{
			name:     "store unavailable",
			embedder: fixedEmbedder([]float32{1, 0}),
			store: searcherFunc(func(ctx context.Context, vec []float32, limit int) ([]types.RetrievalResult, error) {
				return nil, errors.New("connection refused")
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRetriever(tt.embedder, tt.store, 8)
			require.NoError(t, err)
			var buf *bytes.Buffer
			r.logger, buf = captureLogger()

			got := r.Retrieve(context.Background(), "query", 5)
			assert.NotNil(t, got)
			assert.Empty(t, got)
			assert.Equal(t, 1, errorCount(buf))
		})
	}
}

func TestRetrieveCachesQueryEmbeddings(t *testing.T) {
	var calls atomic.Int32
	embedder := embedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		return []float32{1, 0}, nil
	})
	store := searcherFunc(func(ctx context.Context, vec []float32, limit int) ([]types.RetrievalResult, error) {
		return bookResults(), nil
	})

	cached, err := NewRetriever(embedder, store, 4)
	require.NoError(t, err)
	cached.Retrieve(context.Background(), "same query", 3)
	cached.Retrieve(context.Background(), "same query", 3)
	assert.Equal(t, int32(1), calls.Load())

	calls.Store(0)
	uncached, err := NewRetriever(embedder, store, 0)
	require.NoError(t, err)
	uncached.Retrieve(context.Background(), "same query", 3)
	uncached.Retrieve(context.Background(), "same query", 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetrieveDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int32
	embedder := embedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("temporary")
		}
		return []float32{1}, nil
	})
	store := searcherFunc(func(ctx context.Context, vec []float32, limit int) ([]types.RetrievalResult, error) {
		return bookResults()[:1], nil
	})

	r, err := NewRetriever(embedder, store, 4)
	require.NoError(t, err)
	r.logger, _ = captureLogger()

	assert.Empty(t, r.Retrieve(context.Background(), "q", 1))
	assert.Len(t, r.Retrieve(context.Background(), "q", 1), 1)
}

func TestRetrieveSharedEmbeddingSurvivesCallerCancel(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	embedder := embedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []float32{1, 0}, nil
	})

	r, err := NewRetriever(embedder, searcherFunc(nil), 4)
	require.NoError(t, err)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.embed(first, "shared query")
		firstErr <- err
	}()
	<-started

	type result struct {
		vec []float32
		err error
	}
	second := make(chan result, 1)
	go func() {
		vec, err := r.embed(context.Background(), "shared query")
		second <- result{vec, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, []float32{1, 0}, got.vec)
	case <-time.After(5 * time.Second):
		t.Fatal("waiting caller did not return")
	}
	assert.Equal(t, int32(1), calls.Load())

	vec, ok := r.queryCache.Get("shared query")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0}, vec)
}
