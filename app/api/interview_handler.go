package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"interview/app/middleware"
	"interview/session"
	"interview/textract"
	"interview/types"
)

type InterviewAgent interface {
	GenerateQuestions(ctx context.Context, info types.JobInfo) types.QuestionSet
	EvaluateAnswer(ctx context.Context, transcript string) types.TechnicalFeedback
	GenerateReport(ctx context.Context, snap types.SessionSnapshot) *types.Report
}

type InterviewHandler struct {
	sessions *session.Store
	agent    InterviewAgent
	logger   *slog.Logger
}

func NewInterviewHandler(sessions *session.Store, agent InterviewAgent) *InterviewHandler {
	return &InterviewHandler{
		sessions: sessions,
		agent:    agent,
		logger:   slog.Default(),
	}
}

// HandleStartInterview opens a new session from the setup form.
func (h *InterviewHandler) HandleStartInterview(c *fiber.Ctx) error {
	var params types.StartInterviewParams
	if err := c.BodyParser(&params); err != nil {
		return ErrBadRequest()
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	info := params.JobInfo(h.resumeText(c))

	sess := h.sessions.Create()
	sess.SetJobInfo(info)
	h.logger.Info("interview started", "session", sess.ID, "role", info.JobRole, "resume", info.ResumeText != "")

	c.Set(middleware.SessionHeader, sess.ID)
	return c.JSON(fiber.Map{
		"message":    "Interview setup details saved",
		"session_id": sess.ID,
		"data":       info,
	})
}

// resumeText extracts the optional resume; failures leave the resume empty.
func (h *InterviewHandler) resumeText(c *fiber.Ctx) string {
	if _, err := c.FormFile("resume_file"); err != nil {
		return ""
	}
	name, data, err := readFormFile(c, "resume_file")
	if err != nil {
		h.logger.Warn("resume upload unreadable", "error", err)
		return ""
	}

	text, err := textract.Extract(name, data)
	if errors.Is(err, textract.ErrUnsupportedFormat) {
		h.logger.Info("resume format ignored", "file", name)
		return ""
	}
	if err != nil {
		h.logger.Warn("resume extraction failed", "file", name, "error", err)
		return ""
	}
	return text
}

func (h *InterviewHandler) HandleGetJobInfo(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)
	info, ok := sess.JobInfo()
	if !ok {
		return c.JSON(fiber.Map{"message": "No job info saved yet."})
	}
	return c.JSON(fiber.Map{"job_info": info})
}

func (h *InterviewHandler) HandleGenerateProblems(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)
	info, ok := sess.JobInfo()
	if !ok {
		return ErrJobInfoNotSet()
	}

	qs := h.agent.GenerateQuestions(c.UserContext(), info)
	sess.SetQuestions(qs)
	return c.JSON(qs)
}

func (h *InterviewHandler) HandleDeleteSession(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)
	h.sessions.Delete(sess.ID)
	return c.JSON(fiber.Map{"message": "Session deleted", "session_id": sess.ID})
}
