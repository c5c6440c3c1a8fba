package middlewares

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

const MsgInternalServerError = "Internal server error"

type errorBody struct {
	Error string `json:"error"`
}

// ErrorHandler renders errors that escape the handlers as JSON. Client errors
// raised by fiber keep their status and message, anything else is a 500.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	if code >= fiber.StatusBadRequest && code < fiber.StatusInternalServerError {
		return ctx.Status(code).JSON(errorBody{Error: e.Message})
	}
	slog.Error("Unhandled error", "path", ctx.Path(), "code", code, "requestID", ctx.Locals(RequestIDKey), "error", err)
	return ctx.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: MsgInternalServerError})
}
