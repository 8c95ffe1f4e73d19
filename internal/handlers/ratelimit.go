package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
)

// Limit rejects a client with 429 once it has made limit calls to the named
// limiter within window. Clients are keyed by IP address.
func (h *Handler) Limit(name string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h.Limiter.Admit(c.IP(), name, limit, window) {
			return c.Next()
		}
		h.Metrics.RateLimited(name)
		h.logger().Warn("rate limit exceeded", "limiter", name, "client", c.IP())
		c.Set(fiber.HeaderRetryAfter, retryAfter(window))
		return apperr.New(apperr.KindRateLimited, "Rate limit exceeded")
	}
}

func retryAfter(window time.Duration) string {
	secs := int(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
