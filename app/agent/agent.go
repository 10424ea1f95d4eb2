// Package agent holds the LLM-backed steps of an interview: question
// generation, answer evaluation and the retrieval-augmented final report.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"interview/model"
	"interview/types"
)

// ReportTopic is the retrieval focus expanded for every final report.
const ReportTopic = "Generate the best technical and behavioral interview improvement insights"

type Completer interface {
	Complete(ctx context.Context, req model.ChatRequest) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Searcher interface {
	Search(ctx context.Context, queryVec []float32, limit int) ([]types.RetrievalResult, error)
}

type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

type Options struct {
	LLM      Completer
	Embedder Embedder
	Store    Searcher
	// Web is optional; nil disables background search for questions.
	Web WebSearcher

	TopK               int
	MaxTokens          int
	EmbeddingCacheSize int
	Logger             *slog.Logger
}

// Agent wires the individual steps together.
type Agent struct {
	Expander    *QueryExpander
	Retriever   *Retriever
	Synthesizer *ReportSynthesizer
	Questions   *QuestionGenerator
	Evaluator   *AnswerEvaluator

	topK   int
	logger *slog.Logger
}

func New(opts Options) (*Agent, error) {
	if opts.LLM == nil || opts.Embedder == nil || opts.Store == nil {
		return nil, fmt.Errorf("agent: llm, embedder and store are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK == 0 {
		opts.TopK = 5
	}

	retriever, err := NewRetriever(opts.Embedder, opts.Store, opts.EmbeddingCacheSize)
	if err != nil {
		return nil, err
	}
	retriever.logger = logger

	expander := NewQueryExpander(opts.LLM)
	expander.logger = logger
	synth := NewReportSynthesizer(opts.LLM, opts.MaxTokens)
	synth.logger = logger
	questions := NewQuestionGenerator(opts.LLM, opts.Web)
	questions.logger = logger
	evaluator := NewAnswerEvaluator(opts.LLM)
	evaluator.logger = logger

	return &Agent{
		Expander:    expander,
		Retriever:   retriever,
		Synthesizer: synth,
		Questions:   questions,
		Evaluator:   evaluator,
		topK:        opts.TopK,
		logger:      logger,
	}, nil
}

// GenerateReport runs expand, retrieve and synthesize for one session.
// A nil report means the model output could not be used this time.
func (a *Agent) GenerateReport(ctx context.Context, snap types.SessionSnapshot) *types.Report {
	query := a.Expander.ExpandOrTopic(ctx, ReportTopic)
	retrieved := a.Retriever.Retrieve(ctx, query, a.topK)
	a.logger.Info("context retrieved", "chunks", len(retrieved))
	return a.Synthesizer.Synthesize(ctx, retrieved, snap)
}

func (a *Agent) GenerateQuestions(ctx context.Context, info types.JobInfo) types.QuestionSet {
	return a.Questions.Generate(ctx, info)
}

func (a *Agent) EvaluateAnswer(ctx context.Context, transcript string) types.TechnicalFeedback {
	return a.Evaluator.Evaluate(ctx, transcript)
}
