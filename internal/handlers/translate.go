package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/feedback-analyzer-backend/internal/models"
	"github.com/developia-II/feedback-analyzer-backend/utils"
)

// Translate analyzes a text without storing it.
func (h *Handler) Translate(c *fiber.Ctx) error {
	var req models.AnalyzeRequest
	if err := utils.BindJSON(c, &req); err != nil {
		return err
	}

	result, err := h.Feedback.Analyze(c.UserContext(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
