package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/feedback-analyzer-backend/internal/models"
	"github.com/developia-II/feedback-analyzer-backend/utils"
)

func (h *Handler) GetProducts(c *fiber.Ctx) error {
	products, err := h.Products.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

func (h *Handler) CreateProduct(c *fiber.Ctx) error {
	var req models.ProductRequest
	if err := utils.BindJSON(c, &req); err != nil {
		return err
	}
	p, err := h.Products.Create(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *Handler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.Products.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "deleted", "id": id})
}

// GetModels lists the provider's models, served from a short-lived cache.
func (h *Handler) GetModels(c *fiber.Ctx) error {
	list, err := h.Models.Models(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *Handler) GetCurrentModel(c *fiber.Ctx) error {
	name, err := h.Feedback.CurrentModel(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(models.CurrentModelResponse{CurrentModel: name})
}

func (h *Handler) SetCurrentModel(c *fiber.Ctx) error {
	var req models.CurrentModelRequest
	if err := utils.BindJSON(c, &req); err != nil {
		return err
	}
	name, err := h.Feedback.SetCurrentModel(c.UserContext(), req.ModelName)
	if err != nil {
		return err
	}
	return c.JSON(models.CurrentModelResponse{CurrentModel: name})
}
