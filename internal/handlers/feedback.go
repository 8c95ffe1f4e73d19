package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
	"github.com/developia-II/feedback-analyzer-backend/internal/services"
	"github.com/developia-II/feedback-analyzer-backend/utils"
)

func (h *Handler) SubmitFeedback(c *fiber.Ctx) error {
	var req models.FeedbackRequest
	if err := utils.BindJSON(c, &req); err != nil {
		return err
	}

	feedback, err := h.Feedback.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(feedback)
}

// GetAllFeedback lists feedback, newest first, with optional product,
// language and sentiment filters and skip/limit pagination.
func (h *Handler) GetAllFeedback(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", services.DefaultPageLimit)
	if err != nil {
		return err
	}

	page, err := h.Feedback.List(c.UserContext(), filter, skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) DeleteFeedback(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.Feedback.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "deleted", "id": id})
}

func (h *Handler) DeleteFeedbackBulk(c *fiber.Ctx) error {
	var req models.BulkDeleteRequest
	if err := utils.BindJSON(c, &req); err != nil {
		return err
	}

	resp, err := h.Feedback.DeleteMany(c.UserContext(), req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// DeleteAllFeedback removes every entry matching the query filters.
func (h *Handler) DeleteAllFeedback(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	n, err := h.Feedback.DeleteFiltered(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": n})
}

func (h *Handler) GetStats(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	stats, err := h.Feedback.Stats(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func parseFilter(c *fiber.Ctx) (models.FeedbackFilter, error) {
	var filter models.FeedbackFilter
	if err := c.QueryParser(&filter); err != nil {
		return filter, apperr.Wrap(apperr.KindBadRequest, err, "Invalid query parameters")
	}
	if filter.Sentiment != "" && !models.IsSentiment(filter.Sentiment) {
		return filter, apperr.New(apperr.KindBadRequest, "sentiment must be one of positive, negative or neutral")
	}
	return filter, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.New(apperr.KindBadRequest, key+" must be a non-negative integer")
	}
	return v, nil
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.KindBadRequest, "Invalid id")
	}
	return id, nil
}
