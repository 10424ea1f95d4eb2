package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"interview/app/middleware"
)

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

type TTSHandler struct {
	tts SpeechSynthesizer
}

func NewTTSHandler(tts SpeechSynthesizer) *TTSHandler {
	return &TTSHandler{tts: tts}
}

// HandleQuestionTTS speaks question :id (1-based) of the session's question set.
// The optional voice query overrides the configured voice id.
func (h *TTSHandler) HandleQuestionTTS(c *fiber.Ctx) error {
	qs, ok := middleware.CurrentSession(c).Questions()
	if !ok || len(qs.Questions) == 0 {
		return ErrNoQuestions()
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 1 || id > len(qs.Questions) {
		return ErrInvalidQuestionID()
	}

	audio, err := h.tts.Synthesize(c.UserContext(), qs.Questions[id-1], c.Query("voice"))
	if err != nil {
		return fmt.Errorf("TTS generation failed: %w", err)
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(audio)
}
