package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"interview/model"
	"interview/types"
)

const (
	questionsSystemPrompt = "You are an experienced technical interviewer. Based on the context provided, generate a list of potential interview questions " +
		"that assess key skills, concepts, and problem-solving ability for the given role and company. " +
		"Prioritize questions relevant to the candidate's professional background and skills as described in their resume. " +
		"The tone should be professional and slightly challenging, but never unsafe or offensive."

	noWebInfo        = "No significant online information found. Rely on provided details."
	internalContext  = "Detailed job description and/or resume provided. Focusing on internal context."
	maxResumeRunes   = 3000
	minDescription   = 100
	webSearchResults = 3
)

var (
	errNoQuestions  = errors.New("question set has no questions")
	errBlankItem    = errors.New("question set contains a blank question")
	errBlankSummary = errors.New("question set has no summary")
)

// FallbackQuestions is served whenever the model output cannot be used.
func FallbackQuestions() types.QuestionSet {
	return types.QuestionSet{
		Questions: []string{
			"What are the key responsibilities of a software engineer?",
			"Explain the difference between an array and a linked list.",
			"How does a hash table work and what are its common use cases?",
			"Explain the time complexity of quicksort in best and worst case.",
			"Write a function to check if a string is a palindrome.",
		},
		Summary: "Interviews for this role typically cover fundamental computer science concepts, data structures, algorithms, and problem-solving skills.",
	}
}

type QuestionGenerator struct {
	llm    Completer
	web    WebSearcher
	logger *slog.Logger
}

func NewQuestionGenerator(llm Completer, web WebSearcher) *QuestionGenerator {
	return &QuestionGenerator{llm: llm, web: web, logger: slog.Default()}
}

// Generate asks for five questions tailored to info. It never fails; any
// provider, parse or validation problem yields FallbackQuestions.
func (g *QuestionGenerator) Generate(ctx context.Context, info types.JobInfo) types.QuestionSet {
	prompt := g.buildPrompt(info, g.backgroundInfo(ctx, info))

	out, err := g.llm.Complete(ctx, model.ChatRequest{
		System:      questionsSystemPrompt,
		User:        prompt,
		Temperature: 0.7,
	})
	if err != nil {
		g.logger.Error("question generation failed", "role", info.JobRole, "error", err)
		return FallbackQuestions()
	}

	qs, err := model.ParseJSON[types.QuestionSet](out)
	if err == nil {
		err = validateQuestionSet(qs)
	}
	if err != nil {
		g.logger.Warn("question output unusable, serving fallback", "error", err)
		return FallbackQuestions()
	}
	return qs
}

func validateQuestionSet(qs types.QuestionSet) error {
	if len(qs.Questions) == 0 {
		return errNoQuestions
	}
	if slices.ContainsFunc(qs.Questions, func(q string) bool { return strings.TrimSpace(q) == "" }) {
		return errBlankItem
	}
	if strings.TrimSpace(qs.Summary) == "" {
		return errBlankSummary
	}
	return nil
}

func needsWebSearch(info types.JobInfo) bool {
	return len([]rune(info.JobDescription)) < minDescription || strings.TrimSpace(info.ResumeText) == ""
}

func searchQuery(info types.JobInfo) string {
	q := info.JobRole + " interview questions"
	if info.CompanyName != "" && info.CompanyName != types.DefaultCompanyName {
		q += " at " + info.CompanyName
	}
	return q
}

func (g *QuestionGenerator) backgroundInfo(ctx context.Context, info types.JobInfo) string {
	if !needsWebSearch(info) {
		return internalContext
	}
	if g.web == nil {
		return noWebInfo
	}

	snippets, err := g.web.Search(ctx, searchQuery(info), webSearchResults)
	if err != nil {
		g.logger.Warn("web search failed", "error", err)
		return noWebInfo
	}
	text := strings.TrimSpace(strings.Join(snippets, "\n"))
	if text == "" {
		return noWebInfo
	}
	return text
}

func (g *QuestionGenerator) buildPrompt(info types.JobInfo, background string) string {
	desc := info.JobDescription
	if desc == types.DefaultJobDescription {
		desc = ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Job Role: %s\n", info.JobRole)
	fmt.Fprintf(&sb, "Company: %s\n", info.CompanyName)
	fmt.Fprintf(&sb, "Job Description: %s\n", desc)
	fmt.Fprintf(&sb, "Additional Info (Skills, Experience, Interview Type etc.): %s\n", info.OtherDetails)

	if resume := strings.TrimSpace(info.ResumeText); resume != "" {
		if r := []rune(info.ResumeText); len(r) > maxResumeRunes {
			resume = string(r[:maxResumeRunes])
		} else {
			resume = info.ResumeText
		}
		fmt.Fprintf(&sb, "Candidate's Resume Content:\n%s\n\n", resume)
		sb.WriteString("Please generate questions that are specifically tailored to the candidate's skills, projects, and experience.\n")
	}

	fmt.Fprintf(&sb, "Background Info from web:\n%s\n\n", background)
	sb.WriteString(`Please generate exactly 5 interview questions of these types:
- 2 easy theory questions (fundamental concepts)
- 1 medium theory question (deeper understanding)
- 1 advanced technical design/algorithm question
- 1 practical coding exercise (moderate difficulty)

Also provide a concise 2-3 sentence summary on the typical focus of interviews for this role.

Return your answer strictly in this JSON format:
` + "```json" + `
{
  "questions": ["question1", "question2", "question3", "question4", "question5"],
  "summary": "summary text"
}
` + "```")
	return sb.String()
}
