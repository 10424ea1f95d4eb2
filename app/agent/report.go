package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"interview/model"
	"interview/types"
)

const noContextMarker = "No relevant context retrieved."

var errEmptyReport = errors.New("report has no content")

const reportInstruction = `You are an expert interview analyst AI.
You must create a detailed and professional JSON report analyzing a candidate's mock interview.

You will use:
- Retrieved knowledge base context (technical and behavioral interview insights)
- Job information
- Questions asked
- Audio transcript analysis
- Video emotion analysis

Output Format (strict JSON):
{
  "summary": "...",
  "technical_feedback": "...",
  "behavioral_feedback": "...",
  "communication_feedback": "...",
  "suggestions": ["...", "..."],
  "score" : "overall score according to questions answered is..."
}

Rules:
- Keep tone formal and concise.
- Each section must be complete sentences.
- Return JSON only, no extra text.`

// ReportSynthesizer builds the report prompt and parses the model's answer.
type ReportSynthesizer struct {
	llm         Completer
	maxTokens   int
	countTokens func(string) (int, error)
	logger      *slog.Logger
}

func NewReportSynthesizer(llm Completer, maxTokens int) *ReportSynthesizer {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &ReportSynthesizer{
		llm:         llm,
		maxTokens:   maxTokens,
		countTokens: model.CountTokens,
		logger:      slog.Default(),
	}
}

func formatContext(retrieved []types.RetrievalResult) string {
	if len(retrieved) == 0 {
		return noContextMarker
	}
	blocks := make([]string, 0, len(retrieved))
	for _, r := range retrieved {
		blocks = append(blocks, fmt.Sprintf("Source: %s | Page: %d\n%s", r.Source, r.Page, r.Text))
	}
	return strings.Join(blocks, "\n\n")
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}

// BuildPrompt renders the single user prompt sent for a report.
func (s *ReportSynthesizer) BuildPrompt(retrieved []types.RetrievalResult, snap types.SessionSnapshot) string {
	audio := snap.AudioAnalyses
	if audio == nil {
		audio = map[string]types.AudioAnalysis{}
	}

	var sb strings.Builder
	sb.WriteString(reportInstruction)
	sb.WriteString("\n\n=== Retrieved Context ===\n")
	sb.WriteString(formatContext(retrieved))
	sb.WriteString("\n\n=== Job Info ===\n")
	sb.WriteString(indentJSON(snap.JobInfo))
	sb.WriteString("\n\n=== Questions Asked ===\n")
	sb.WriteString(indentJSON(snap.Questions))
	sb.WriteString("\n\n=== Audio Transcript ===\n")
	sb.WriteString(indentJSON(audio))
	sb.WriteString("\n\n=== Video Emotion Analysis ===\n")
	sb.WriteString(indentJSON(snap.VideoAnalysis))
	sb.WriteString("\n\nNow generate the full JSON report strictly following the schema above.")
	return sb.String()
}

// Synthesize returns nil when the provider fails or its output is not a report.
func (s *ReportSynthesizer) Synthesize(ctx context.Context, retrieved []types.RetrievalResult, snap types.SessionSnapshot) *types.Report {
	prompt := s.BuildPrompt(retrieved, snap)
	if n, err := s.countTokens(prompt); err == nil {
		s.logger.Info("report prompt built", "tokens", n, "chunks", len(retrieved))
	}

	out, err := s.llm.Complete(ctx, model.ChatRequest{
		User:        prompt,
		Temperature: 0.4,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		s.logger.Error("report generation failed", "error", err)
		return nil
	}

	report, err := model.ParseJSON[types.Report](out)
	if err != nil {
		s.logger.Error("report output unusable", "error", err)
		return nil
	}
	if isEmptyReport(report) {
		s.logger.Error("report output unusable", "error", errEmptyReport)
		return nil
	}
	if report.Suggestions == nil {
		report.Suggestions = []string{}
	}
	return &report
}

func isEmptyReport(r types.Report) bool {
	return r.Summary == "" && r.TechnicalFeedback == "" && r.BehavioralFeedback == "" &&
		r.CommunicationFeedback == "" && len(r.Suggestions) == 0 && r.Score == ""
}
