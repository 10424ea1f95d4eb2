package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"interview/app/middleware"
	"interview/types"
)

type EmotionAnalyzer interface {
	Analyze(ctx context.Context, video []byte, filename string) (types.VideoAnalysis, error)
}

type VideoHandler struct {
	emotion EmotionAnalyzer
}

func NewVideoHandler(emotion EmotionAnalyzer) *VideoHandler {
	return &VideoHandler{emotion: emotion}
}

func (h *VideoHandler) HandleAnalyzeVideo(c *fiber.Ctx) error {
	name, data, err := readFormFile(c, "video")
	if err != nil {
		return err
	}

	result, err := h.emotion.Analyze(c.UserContext(), data, name)
	if err != nil {
		return fmt.Errorf("analyze video: %w", err)
	}
	middleware.CurrentSession(c).SetVideoAnalysis(result)

	return c.JSON(fiber.Map{
		"message":         "Video processed successfully",
		"total_frames":    result.TotalFrames,
		"frames_analyzed": result.FramesAnalyzed,
		"emotions":        result.Emotions,
	})
}
