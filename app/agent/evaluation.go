package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"interview/model"
	"interview/types"
)

const evaluatorSystemPrompt = "You are a highly skilled technical interviewer. Your job is to evaluate the following technical answer " +
	"in terms of correctness, clarity, depth of explanation, and conciseness. " +
	"Provide feedback in a positive, constructive tone along with suggestions for improvement. " +
	"Your response must strictly follow the provided JSON schema below:\n\n" +
	"Schema:\n" +
	"{\n" +
	"  \"evaluation\": [\n" +
	"    {\"category\": str, \"score\": float, \"feedback\": str, \"improvement_tip\": str}\n" +
	"  ],\n" +
	"  \"overall_summary\": str,\n" +
	"  \"actionable_suggestions\": [str]\n" +
	"}"

const evaluatorUserPrefix = "Please evaluate the following technical answer. Analyze it for correctness, clarity, depth, and conciseness. " +
	"Provide the results in **strict JSON format** as per the schema.\n\n" +
	"Technical Answer:\n"

const errInvalidEvaluation = "Invalid JSON from model."

var errIncompleteEvaluation = errors.New("evaluation is missing evaluation items or overall_summary")

// AnswerEvaluator grades a transcribed answer.
type AnswerEvaluator struct {
	llm    Completer
	logger *slog.Logger
}

func NewAnswerEvaluator(llm Completer) *AnswerEvaluator {
	return &AnswerEvaluator{llm: llm, logger: slog.Default()}
}

// Evaluate never fails; problems are reported in the Error field.
func (e *AnswerEvaluator) Evaluate(ctx context.Context, transcript string) types.TechnicalFeedback {
	out, err := e.llm.Complete(ctx, model.ChatRequest{
		System:      evaluatorSystemPrompt,
		User:        evaluatorUserPrefix + transcript,
		Temperature: 0.4,
	})
	if err != nil {
		e.logger.Error("answer evaluation failed", "error", err)
		return types.TechnicalFeedback{Error: err.Error()}
	}

	fb, err := model.ParseJSON[types.TechnicalFeedback](out)
	if err != nil {
		e.logger.Error("evaluation output unusable", "error", err)
		return types.TechnicalFeedback{Error: errInvalidEvaluation}
	}
	if len(fb.Evaluation) == 0 || strings.TrimSpace(fb.OverallSummary) == "" {
		e.logger.Error("evaluation output unusable", "error", errIncompleteEvaluation)
		return types.TechnicalFeedback{Error: errIncompleteEvaluation.Error()}
	}
	if fb.ActionableSuggestions == nil {
		fb.ActionableSuggestions = []string{}
	}
	fb.Error = ""
	return fb
}
