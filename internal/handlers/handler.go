// Package handlers holds the fiber handlers and middleware of the HTTP API.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/auth"
	"github.com/developia-II/feedback-analyzer-backend/internal/metrics"
	"github.com/developia-II/feedback-analyzer-backend/internal/ratelimit"
	"github.com/developia-II/feedback-analyzer-backend/internal/services"
	"github.com/developia-II/feedback-analyzer-backend/utils"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Feedback *services.FeedbackService
	Products *services.ProductService
	Admin    *services.AdminService
	Models   *services.ModelCatalog
	Tokens   *auth.TokenService
	Limiter  *ratelimit.Limiter
	Store    Pinger
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func Welcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome to the Feedback Analyzer API!"})
}

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready reports whether the store answers a ping within two seconds.
func (h *Handler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		h.logger().Warn("readiness check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ready": false})
	}
	return c.JSON(fiber.Map{"ready": true})
}

// ErrorHandler renders every error returned by a handler as the standard
// error body with the status of its kind.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return utils.ErrorResponse(c, fe.Code, fe.Message)
		}

		var ae *apperr.Error
		if !errors.As(err, &ae) {
			ae = apperr.Wrap(apperr.KindInternal, err, "Internal server error")
		}
		status := ae.Status()
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(), "path", c.Path(), "kind", ae.Kind, "error", err)
		}
		if status == fiber.StatusUnauthorized {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}
		return utils.KindResponse(c, status, ae.Kind, ae.Error())
	}
}
