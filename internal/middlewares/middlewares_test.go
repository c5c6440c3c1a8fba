package middlewares

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(RequestID())
	app.Get("/bad", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad input")
	})
	app.Get("/boom", func(ctx *fiber.Ctx) error {
		return errors.New("boom")
	})
	app.Get("/ok", func(ctx *fiber.Ctx) error {
		return ctx.SendString(ctx.Locals(RequestIDKey).(string))
	})
	return app
}

func readResponse(t *testing.T, app *fiber.App, path string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestErrorHandler(t *testing.T) {
	app := newTestApp()

	resp, body := readResponse(t, app, "/bad")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"bad input"}`, body)

	resp, body = readResponse(t, app, "/boom")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Internal server error"}`, body)
}

func TestRequestID(t *testing.T) {
	resp, body := readResponse(t, newTestApp(), "/ok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := uuid.Parse(body)
	assert.NoError(t, err)
	assert.Equal(t, body, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestInjectGlobalVars(t *testing.T) {
	app := fiber.New()
	app.Use(InjectGlobalVars(fiber.Map{"serviceName": "naversign"}))
	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString(ctx.Locals("serviceName").(string))
	})

	resp, body := readResponse(t, app, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "naversign", body)
}
