// Package api exposes the assistant core over HTTP: one POST endpoint
// drives the turn pipeline, plus a health probe.
package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/vaanihq/vaani/internal/assistant"
)

// ChatHandler serves conversational turns over the REST surface.
type ChatHandler struct {
	pipeline *assistant.Pipeline
	log      *slog.Logger
}

// NewChatHandler builds the handler around a wired pipeline.
func NewChatHandler(pipeline *assistant.Pipeline, log *slog.Logger) *ChatHandler {
	return &ChatHandler{pipeline: pipeline, log: log.With("component", "api")}
}

// HandleChat processes one turn. Guardrail refusals and specialist
// failures still answer 200 with success=false; the envelope is the
// contract, HTTP status codes report transport problems only.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req assistant.TurnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Message == "" || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message and userId are required"})
	}

	envelope := h.pipeline.ProcessTurn(c.Context(), req)
	return c.Status(fiber.StatusOK).JSON(envelope)
}
