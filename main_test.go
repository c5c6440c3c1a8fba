package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/naversign/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleSecret = "$2b$10$abcdefghijklmnopqrstuv"

func newTestRouter(t *testing.T, mode string) *fiber.App {
	t.Helper()
	cfg := &config.Config{Signature: config.SignatureConfig{Mode: mode, Cost: 4, Workers: 2}}
	require.NoError(t, cfg.Sanitize())
	svc, err := initSignatureService(cfg)
	require.NoError(t, err)
	return newRouter(cfg, svc, io.Discard)
}

func send(t *testing.T, router *fiber.App, method, path, body string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := router.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestRouter_SignAndVerifyExample(t *testing.T) {
	router := newTestRouter(t, "direct-salt")

	resp, body := send(t, router, http.MethodPost, "/naver-signature",
		`{"client_id":"abc123","timestamp":"1700000000000","client_secret":"`+exampleSecret+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	var generated struct {
		Signature    string `json:"signature"`
		PasswordUsed string `json:"password_used"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &generated))
	assert.Equal(t, "abc123_1700000000000", generated.PasswordUsed)
	assert.True(t, strings.HasPrefix(generated.Signature, "$2b$10$"))

	resp, body = send(t, router, http.MethodPost, "/verify-signature",
		`{"client_id":"abc123","timestamp":"1700000000000","client_secret":"`+exampleSecret+`","signature":"`+generated.Signature+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"valid":true`)
}

func TestRouter_MissingSecret(t *testing.T) {
	router := newTestRouter(t, "generated-salt")

	resp, body := send(t, router, http.MethodPost, "/naver-signature", `{"client_id":"abc123","timestamp":"1700000000000"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &errBody))
	assert.Equal(t, "Missing required parameters", errBody["error"])
}

func TestRouter_NotFoundAndDocs(t *testing.T) {
	router := newTestRouter(t, "base64")

	resp, body := send(t, router, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "available_endpoints")

	resp, body = send(t, router, http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h1>naversign</h1>")
	assert.Contains(t, body, "bcrypt_base64")
	assert.Contains(t, body, "POST /verify-signature")
}

func TestRouter_CORS(t *testing.T) {
	router := newTestRouter(t, "base64")

	req := httptest.NewRequest(http.MethodOptions, "/naver-signature", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := router.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"naversign"}, args...))
	return strings.TrimSpace(out.String()), err
}

func TestCLI_SignVerifySalt(t *testing.T) {
	salt, err := runCLI(t, "salt", "--cost", "4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(salt, "$2b$04$"))
	assert.Len(t, salt, 29)

	sig, err := runCLI(t, "sign", "--client-id", "abc123", "--timestamp", "1700000000000",
		"--client-secret", salt, "--mode", "base64")
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	out, err := runCLI(t, "verify", "--client-id", "abc123", "--timestamp", "1700000000000",
		"--client-secret", salt, "--mode", "base64", "--signature", sig)
	require.NoError(t, err)
	assert.Equal(t, "valid", out)

	_, err = runCLI(t, "sign", "--client-id", "abc123", "--client-secret", salt, "--mode", "hmac")
	assert.Error(t, err)
}

func TestCLI_Version(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
