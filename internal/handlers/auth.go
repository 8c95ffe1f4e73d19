package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/auth"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
	"github.com/developia-II/feedback-analyzer-backend/utils"
)

// RefreshHeader carries a replacement token when the presented one is close
// to expiry.
const RefreshHeader = "X-Refreshed-Token"

const identityKey = "identity"

// Token exchanges admin credentials, sent as a form or as JSON, for a bearer
// token.
func (h *Handler) Token(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := utils.BindJSON(c, &req); err != nil {
		return err
	}

	resp, err := h.Admin.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var req models.ChangePasswordRequest
	if err := utils.BindJSON(c, &req); err != nil {
		return err
	}

	id := identityFrom(c)
	if err := h.Admin.ChangePassword(c.UserContext(), id.Subject, req); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// RequireAdmin admits only requests bearing a valid admin token.
func (h *Handler) RequireAdmin(c *fiber.Ctx) error {
	token, ok := bearerToken(c)
	if !ok {
		return apperr.New(apperr.KindUnauthorized, "Not authenticated")
	}

	id, err := h.Tokens.Authorize(token, models.RoleAdmin)
	if err != nil {
		return err
	}
	c.Locals(identityKey, id)
	return c.Next()
}

// RefreshMiddleware attaches a fresh token to successful responses when the
// request carried a valid bearer token with less than half of its lifetime
// left. Tokens not already verified by RequireAdmin are verified here; the
// expiry itself is read with the decode-only PeekExpiry. It never turns a
// response into an error.
func (h *Handler) RefreshMiddleware(c *fiber.Ctx) error {
	if err := c.Next(); err != nil {
		return err
	}

	status := c.Response().StatusCode()
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		return nil
	}
	token, ok := bearerToken(c)
	if !ok {
		return nil
	}
	if _, verified := c.Locals(identityKey).(*auth.Identity); !verified {
		if _, err := h.Tokens.Verify(token); err != nil {
			return nil
		}
	}

	peeked, err := h.Tokens.PeekExpiry(token)
	if err != nil || !h.Tokens.ShouldRefresh(peeked.ExpiresAt) {
		return nil
	}
	fresh, err := h.Tokens.IssueDefault(peeked.Subject, peeked.Role)
	if err != nil {
		h.logger().Warn("token refresh failed", "subject", peeked.Subject, "error", err)
		return nil
	}
	c.Set(RefreshHeader, fresh)
	return nil
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func identityFrom(c *fiber.Ctx) *auth.Identity {
	id, _ := c.Locals(identityKey).(*auth.Identity)
	if id == nil {
		return &auth.Identity{}
	}
	return id
}
