package api

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/naversign/internal/common"
	"github.com/khanghh/naversign/internal/signature"
)

type SignatureHandler struct {
	signatureService SignatureService
	development      bool
}

func (h *SignatureHandler) PostSignature(ctx *fiber.Ctx) error {
	var body signatureRequestBody
	if err := decodeBody(ctx.Body(), &body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: MsgInvalidRequestBody})
	}
	req, err := body.toRequest()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: MsgInvalidRequestBody, Message: err.Error()})
	}
	mode, err := body.mode()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: MsgUnknownMode, Message: err.Error()})
	}

	slog.Debug("Generating signature",
		"clientID", req.ClientID,
		"timestamp", req.Timestamp,
		"clientSecret", common.MaskSecret(req.ClientSecret),
	)

	sig, err := h.signatureService.Generate(ctx.UserContext(), req, mode)
	if err != nil {
		var missingErr *signature.MissingParameterError
		switch {
		case errors.As(err, &missingErr):
			return ctx.Status(fiber.StatusBadRequest).JSON(missingParametersResponse{
				Error:    MsgMissingParameters,
				Required: requiredGenerateParams,
				Received: missingErr.Received,
				Note:     MsgTimestampNote,
			})
		case errors.Is(err, signature.ErrInvalidTimestamp):
			return ctx.Status(fiber.StatusBadRequest).JSON(invalidTimestampResponse{
				Error:    MsgInvalidTimestamp,
				Required: MsgTimestampRequirement,
				Received: body.Timestamp,
				Example:  strconv.FormatInt(time.Now().UnixMilli(), 10),
			})
		case errors.Is(err, signature.ErrUnknownMode):
			return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: MsgUnknownMode})
		case errors.Is(err, signature.ErrServiceBusy):
			slog.Warn("Signature generation rejected", "error", err)
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{Error: MsgServiceBusy})
		default:
			slog.Error("Signature generation error", "clientID", req.ClientID, "error", err)
			resp := errorResponse{Error: MsgGenerateFailed, Message: err.Error()}
			if h.development {
				resp.Stack = string(debug.Stack())
			}
			return ctx.Status(fiber.StatusInternalServerError).JSON(resp)
		}
	}

	slog.Debug("Signature generated", "signatureID", sig.ID, "mode", sig.Mode, "password", sig.Password)
	if sig.Mode == signature.ModeBase64Wrapped {
		ctx.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return ctx.Status(fiber.StatusOK).SendString(sig.Value)
	}

	resp := signatureResponse{
		Signature:    sig.Value,
		SignatureID:  strconv.FormatInt(sig.ID, 10),
		ClientID:     sig.ClientID,
		Timestamp:    sig.Timestamp,
		TimestampMs:  sig.TimestampMs,
		PasswordUsed: sig.Password,
		GeneratedAt:  formatTime(sig.GeneratedAt),
		Method:       sig.Mode.Method(),
	}
	if sig.TimestampMs != nil {
		resp.TimestampReadable = formatTime(time.UnixMilli(*sig.TimestampMs))
	}
	return ctx.Status(fiber.StatusOK).JSON(resp)
}

func (h *SignatureHandler) PostVerifySignature(ctx *fiber.Ctx) error {
	var body signatureRequestBody
	if err := decodeBody(ctx.Body(), &body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: MsgInvalidRequestBody})
	}
	req, err := body.toVerificationRequest()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: MsgInvalidRequestBody, Message: err.Error()})
	}
	if req.Mode, err = body.mode(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: MsgUnknownMode, Message: err.Error()})
	}

	result, err := h.signatureService.Verify(ctx.UserContext(), req)
	if err != nil {
		switch {
		case errors.Is(err, signature.ErrMissingParameter):
			return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: MsgMissingVerifyParameters})
		case errors.Is(err, signature.ErrUnknownMode):
			return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: MsgUnknownMode})
		case errors.Is(err, signature.ErrServiceBusy):
			slog.Warn("Signature verification rejected", "error", err)
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{Error: MsgServiceBusy})
		default:
			slog.Error("Verification error", "clientID", req.ClientID, "error", err)
			return ctx.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: MsgVerifyFailed})
		}
	}

	return ctx.Status(fiber.StatusOK).JSON(verificationResponse{
		Valid:        result.Valid,
		PasswordUsed: result.Password,
		VerifiedAt:   formatTime(result.VerifiedAt),
		Method:       result.Mode.Method(),
	})
}

func NewSignatureHandler(signatureService SignatureService, development bool) *SignatureHandler {
	return &SignatureHandler{
		signatureService: signatureService,
		development:      development,
	}
}
