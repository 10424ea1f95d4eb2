package api

import (
	"github.com/gofiber/fiber/v2"

	"interview/app/middleware"
)

type ReportHandler struct {
	agent InterviewAgent
}

func NewReportHandler(agent InterviewAgent) *ReportHandler {
	return &ReportHandler{agent: agent}
}

func (h *ReportHandler) HandleGenerateReport(c *fiber.Ctx) error {
	snap := middleware.CurrentSession(c).Snapshot()

	report := h.agent.GenerateReport(c.UserContext(), snap)
	if report == nil {
		return ErrReportFailed()
	}
	return c.JSON(fiber.Map{
		"message": "Report generated successfully",
		"report":  report,
	})
}
