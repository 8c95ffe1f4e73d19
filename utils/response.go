package utils

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
)

var Validate = validator.New()

// RequestIDKey is the fiber Locals key the request id middleware writes to.
const RequestIDKey = "requestid"

func ErrorResponse(c *fiber.Ctx, status int, message string) error {
	return KindResponse(c, status, "", message)
}

// KindResponse writes the standard error body with an explicit kind.
func KindResponse(c *fiber.Ctx, status int, kind apperr.Kind, message string) error {
	body := fiber.Map{"error": message}
	if kind != "" {
		body["kind"] = kind
	}
	if id, ok := c.Locals(RequestIDKey).(string); ok && id != "" {
		body["request_id"] = id
	}
	return c.Status(status).JSON(body)
}

// ValidationError turns a validator failure into a 400 error.
func ValidationError(err error) error {
	return apperr.Wrap(apperr.KindBadRequest, err, err.Error())
}

// BindJSON parses the request body into out and validates it.
func BindJSON(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, err, "Invalid request body")
	}
	if err := Validate.Struct(out); err != nil {
		return ValidationError(err)
	}
	return nil
}
