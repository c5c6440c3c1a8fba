package api

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// AvailableEndpoints is reported for unmatched routes.
var AvailableEndpoints = []string{
	"GET /",
	"GET /timestamp",
	"GET /docs",
	"POST /debug",
	"POST /naver-signature",
	"POST /verify-signature",
}

type StatusHandler struct {
	signatureService SignatureService
}

func (h *StatusHandler) GetHome(ctx *fiber.Ctx) error {
	now := time.Now()
	return ctx.JSON(statusResponse{
		Status:             "OK",
		Message:            MsgServiceRunning,
		SignatureMode:      h.signatureService.Mode().String(),
		CurrentTimestampMs: now.UnixMilli(),
		Timestamp:          formatTime(now),
	})
}

func (h *StatusHandler) GetTimestamp(ctx *fiber.Ctx) error {
	now := time.Now()
	return ctx.JSON(timestampResponse{
		TimestampMs:       now.UnixMilli(),
		TimestampReadable: formatTime(now),
		Note:              MsgTimestampUsage,
	})
}

// PostDebug echoes the request back. Only key names are logged since the
// body usually carries a client secret.
func (h *StatusHandler) PostDebug(ctx *fiber.Ctx) error {
	var body any
	if err := decodeBody(ctx.Body(), &body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: MsgInvalidRequestBody})
	}
	if body == nil {
		body = map[string]any{}
	}

	headers := make(map[string]string)
	for key, values := range ctx.GetReqHeaders() {
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}

	keys := bodyKeys(body)
	slog.Debug("Received debug request", "keys", keys, "contentType", ctx.Get(fiber.HeaderContentType))

	return ctx.JSON(debugResponse{
		ReceivedBody:    body,
		ReceivedHeaders: headers,
		BodyType:        bodyType(body),
		KeysReceived:    keys,
		Timestamp:       formatTime(time.Now()),
	})
}

func (h *StatusHandler) GetDocs(ctx *fiber.Ctx) error {
	return ctx.Render("docs", fiber.Map{
		"endpoints":     AvailableEndpoints,
		"signatureMode": h.signatureService.Mode().String(),
		"method":        h.signatureService.Mode().Method(),
	})
}

func (h *StatusHandler) NotFound(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusNotFound).JSON(notFoundResponse{
		Error:              MsgEndpointNotFound,
		AvailableEndpoints: AvailableEndpoints,
	})
}

// bodyType names the JSON value kind the way JavaScript's typeof does.
func bodyType(body any) string {
	switch body.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	default:
		return "object"
	}
}

func bodyKeys(body any) []string {
	keys := []string{}
	switch v := body.(type) {
	case map[string]any:
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	case []any:
		for i := range v {
			keys = append(keys, strconv.Itoa(i))
		}
	}
	return keys
}

func NewStatusHandler(signatureService SignatureService) *StatusHandler {
	return &StatusHandler{
		signatureService: signatureService,
	}
}
