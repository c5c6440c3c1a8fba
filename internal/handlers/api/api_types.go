package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/khanghh/naversign/internal/signature"
	"github.com/spf13/cast"
)

const isoMillisLayout = "2006-01-02T15:04:05.000Z"

const (
	MsgMissingParameters       = "Missing required parameters"
	MsgMissingVerifyParameters = "Missing required parameters for verification"
	MsgInvalidTimestamp        = "Invalid timestamp format"
	MsgTimestampRequirement    = "Numeric timestamp in milliseconds"
	MsgTimestampNote           = "timestamp should be milliseconds since Unix epoch"
	MsgInvalidRequestBody      = "Invalid request body"
	MsgUnknownMode             = "Unknown signature mode"
	MsgGenerateFailed          = "Failed to generate signature"
	MsgVerifyFailed            = "Failed to verify signature"
	MsgServiceBusy             = "Signature service busy"
	MsgEndpointNotFound        = "Endpoint not found"
	MsgTimestampUsage          = "Use timestamp_ms value for Naver signature generation"
	MsgServiceRunning          = "Naver SmartStore BCrypt Server is running"
)

var requiredGenerateParams = []string{"client_id", "timestamp", "client_secret"}

var errFieldType = errors.New("field must be a string, number or boolean")

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

type missingParametersResponse struct {
	Error    string          `json:"error"`
	Required []string        `json:"required"`
	Received map[string]bool `json:"received"`
	Note     string          `json:"note"`
}

type invalidTimestampResponse struct {
	Error    string `json:"error"`
	Required string `json:"required"`
	Received any    `json:"received"`
	Example  string `json:"example"`
}

type signatureResponse struct {
	Signature         string `json:"signature"`
	SignatureID       string `json:"signature_id"`
	ClientID          string `json:"client_id"`
	Timestamp         string `json:"timestamp"`
	TimestampMs       *int64 `json:"timestamp_ms,omitempty"`
	TimestampReadable string `json:"timestamp_readable,omitempty"`
	PasswordUsed      string `json:"password_used"`
	GeneratedAt       string `json:"generated_at"`
	Method            string `json:"method"`
}

type verificationResponse struct {
	Valid        bool   `json:"valid"`
	PasswordUsed string `json:"password_used"`
	VerifiedAt   string `json:"verified_at"`
	Method       string `json:"method"`
}

type statusResponse struct {
	Status             string `json:"status"`
	Message            string `json:"message"`
	SignatureMode      string `json:"signature_mode"`
	CurrentTimestampMs int64  `json:"current_timestamp_ms"`
	Timestamp          string `json:"timestamp"`
}

type timestampResponse struct {
	TimestampMs       int64  `json:"timestamp_ms"`
	TimestampReadable string `json:"timestamp_readable"`
	Note              string `json:"note"`
}

type debugResponse struct {
	ReceivedBody    any               `json:"received_body"`
	ReceivedHeaders map[string]string `json:"received_headers"`
	BodyType        string            `json:"body_type"`
	KeysReceived    []string          `json:"keys_received"`
	Timestamp       string            `json:"timestamp"`
}

type notFoundResponse struct {
	Error              string   `json:"error"`
	AvailableEndpoints []string `json:"available_endpoints"`
}

// signatureRequestBody accepts scalar fields of any JSON type, the timestamp
// in particular may arrive as a string or a number.
type signatureRequestBody struct {
	ClientID     any    `json:"client_id"`
	Timestamp    any    `json:"timestamp"`
	ClientSecret any    `json:"client_secret"`
	Signature    any    `json:"signature"`
	Mode         string `json:"mode"`
}

func (b *signatureRequestBody) toRequest() (signature.Request, error) {
	var (
		req signature.Request
		err error
	)
	if req.ClientID, err = fieldString(b.ClientID); err != nil {
		return req, err
	}
	if req.Timestamp, err = fieldString(b.Timestamp); err != nil {
		return req, err
	}
	if req.ClientSecret, err = fieldString(b.ClientSecret); err != nil {
		return req, err
	}
	return req, nil
}

func (b *signatureRequestBody) toVerificationRequest() (signature.VerificationRequest, error) {
	req, err := b.toRequest()
	if err != nil {
		return signature.VerificationRequest{}, err
	}
	sig, err := fieldString(b.Signature)
	if err != nil {
		return signature.VerificationRequest{}, err
	}
	return signature.VerificationRequest{Request: req, Signature: sig}, nil
}

func (b *signatureRequestBody) mode() (signature.Mode, error) {
	if b.Mode == "" {
		return "", nil
	}
	return signature.ParseMode(b.Mode)
}

func fieldString(val any) (string, error) {
	switch v := val.(type) {
	case nil:
		return "", nil
	case json.Number:
		return numberString(v), nil
	case map[string]any, []any:
		return "", errFieldType
	}
	s, err := cast.ToStringE(val)
	if err != nil {
		return "", errFieldType
	}
	return s, nil
}

// numberString renders a JSON number the way it prints as a JavaScript
// number, so 1.7e12 and 1700000000000.0 both become "1700000000000".
func numberString(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err != nil || math.Abs(f) >= 1e21 {
		return n.String()
	}
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// decodeBody decodes a JSON body keeping numbers verbatim. An empty body
// leaves val untouched.
func decodeBody(body []byte, val any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(val); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoMillisLayout)
}
