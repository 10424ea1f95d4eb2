package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"interview/app/middleware"
)

type Transcriber interface {
	Upload(ctx context.Context, audio io.Reader) (string, error)
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

type AudioHandler struct {
	stt    Transcriber
	agent  InterviewAgent
	now    func() time.Time
	logger *slog.Logger
}

func NewAudioHandler(stt Transcriber, agent InterviewAgent) *AudioHandler {
	return &AudioHandler{
		stt:    stt,
		agent:  agent,
		now:    time.Now,
		logger: slog.Default(),
	}
}

// HandleUpload transcribes one spoken answer, evaluates it and records both.
func (h *AudioHandler) HandleUpload(c *fiber.Ctx) error {
	header, err := c.FormFile("audio")
	if err != nil {
		return ErrMissingFile("audio")
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	ctx := c.UserContext()
	audioURL, err := h.stt.Upload(ctx, file)
	if err != nil {
		return fmt.Errorf("upload audio: %w", err)
	}
	transcript, err := h.stt.Transcribe(ctx, audioURL)
	if err != nil {
		return fmt.Errorf("transcribe audio: %w", err)
	}
	analysis := h.agent.EvaluateAnswer(ctx, transcript)

	sess := middleware.CurrentSession(c)
	timestamp := h.now().UTC().Format(time.RFC3339Nano)
	sess.AppendAudioAnalysis(timestamp, transcript, analysis)
	h.logger.Info("answer recorded", "session", sess.ID, "timestamp", timestamp, "chars", len(transcript))

	var jobInfo any
	if info, ok := sess.JobInfo(); ok {
		jobInfo = info
	}
	return c.JSON(fiber.Map{
		"timestamp":     timestamp,
		"transcription": transcript,
		"analysis":      analysis,
		"job_info_used": jobInfo,
	})
}
