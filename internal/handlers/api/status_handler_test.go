package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/naversign/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatusApp(t *testing.T) *fiber.App {
	app := fiber.New()
	handler := NewStatusHandler(newSignatureService(t, signature.ModeBase64Wrapped))
	app.Get("/", handler.GetHome)
	app.Get("/timestamp", handler.GetTimestamp)
	app.Post("/debug", handler.PostDebug)
	app.Use(handler.NotFound)
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return resp.StatusCode, body
}

func TestGetHome(t *testing.T) {
	status, body := doRequest(t, newStatusApp(t), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, MsgServiceRunning, body["message"])
	assert.Equal(t, "base64", body["signature_mode"])
	assert.Positive(t, body["current_timestamp_ms"])
	assert.True(t, strings.HasSuffix(body["timestamp"].(string), "Z"))
}

func TestGetTimestamp(t *testing.T) {
	status, body := doRequest(t, newStatusApp(t), httptest.NewRequest(http.MethodGet, "/timestamp", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Positive(t, body["timestamp_ms"])
	assert.Len(t, body["timestamp_readable"], len("2006-01-02T15:04:05.000Z"))
	assert.Equal(t, MsgTimestampUsage, body["note"])
}

func TestPostDebug(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/debug", strings.NewReader(`{"timestamp":1700000000000,"client_id":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trace", "t-1")

	status, body := doRequest(t, newStatusApp(t), req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"timestamp": float64(1700000000000), "client_id": "abc"}, body["received_body"])
	assert.Equal(t, "object", body["body_type"])
	assert.Equal(t, []any{"client_id", "timestamp"}, body["keys_received"])

	headers, _ := body["received_headers"].(map[string]any)
	assert.Equal(t, "t-1", headers["x-trace"])
	assert.Equal(t, "application/json", headers["content-type"])
}

func TestPostDebug_EmptyBody(t *testing.T) {
	status, body := doRequest(t, newStatusApp(t), httptest.NewRequest(http.MethodPost, "/debug", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{}, body["received_body"])
	assert.Equal(t, []any{}, body["keys_received"])
}

func TestBodyTypeAndKeys(t *testing.T) {
	assert.Equal(t, "string", bodyType("x"))
	assert.Equal(t, "number", bodyType(json.Number("1")))
	assert.Equal(t, "boolean", bodyType(true))
	assert.Equal(t, "object", bodyType([]any{1}))
	assert.Equal(t, []string{"0", "1"}, bodyKeys([]any{"a", "b"}))
	assert.Equal(t, []string{}, bodyKeys("abc"))
}

func TestNotFound(t *testing.T) {
	app := newStatusApp(t)
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/missing", nil),
		httptest.NewRequest(http.MethodDelete, "/timestamp", nil),
	} {
		status, body := doRequest(t, app, req)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, MsgEndpointNotFound, body["error"])
		assert.Len(t, body["available_endpoints"], len(AvailableEndpoints))
	}
}
