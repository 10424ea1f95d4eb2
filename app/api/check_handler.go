package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type CheckHandler struct {
	db Pinger
}

func NewCheckHandler(db Pinger) *CheckHandler {
	return &CheckHandler{db: db}
}

func (h CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"healthy": "API working"})
}

// HandleReady reports whether the vector store answers.
func (h CheckHandler) HandleReady(c *fiber.Ctx) error {
	if h.db == nil {
		return c.JSON(fiber.Map{"result": "ok"})
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		return ErrUnavailable("vector store unreachable: " + err.Error())
	}
	return c.JSON(fiber.Map{"result": "ok"})
}
