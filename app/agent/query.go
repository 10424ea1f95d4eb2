package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"interview/model"
)

const expanderSystemPrompt = "You are assisting an AI-powered interview analysis system. " +
	"Your goal is to expand short prompts into detailed structured queries " +
	"to retrieve diverse and meaningful information about interview preparation, " +
	"behavioral expectations, technical pitfalls, communication, and mindset."

const expanderUserTemplate = `The user has given this short or vague prompt:
"%s"

Expand it into a **detailed, structured query** that retrieves information from an interview knowledge base containing:
- Behavioral and technical interview insights
- Recruiter feedback and common mistakes
- Communication and body language improvement tips
- Preparation and strategy frameworks

Requirements:
- Write 5–6 sentences in total
- Include **keywords** such as "behavioral expectations", "common technical pitfalls", "effective communication", "preparation strategies"
- Use **bullet points (•)** for structure
- Make it natural and information-seeking
- Return only the expanded query (no extra commentary)`

// QueryExpander turns a short topic into a richer retrieval query.
type QueryExpander struct {
	llm    Completer
	logger *slog.Logger
}

func NewQueryExpander(llm Completer) *QueryExpander {
	return &QueryExpander{llm: llm, logger: slog.Default()}
}

// Expand returns the trimmed expansion, or "" if the provider fails.
func (q *QueryExpander) Expand(ctx context.Context, topic string) string {
	out, err := q.llm.Complete(ctx, model.ChatRequest{
		System:      expanderSystemPrompt,
		User:        fmt.Sprintf(expanderUserTemplate, topic),
		Temperature: 0.7,
	})
	if err != nil {
		q.logger.Error("query expansion failed", "topic", topic, "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}

func (q *QueryExpander) ExpandOrTopic(ctx context.Context, topic string) string {
	if expanded := q.Expand(ctx, topic); expanded != "" {
		return expanded
	}
	return topic
}
