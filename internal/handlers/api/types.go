package api

import (
	"context"

	"github.com/khanghh/naversign/internal/signature"
)

type SignatureService interface {
	Mode() signature.Mode
	Generate(ctx context.Context, req signature.Request, mode signature.Mode) (*signature.Signature, error)
	Verify(ctx context.Context, req signature.VerificationRequest) (*signature.VerificationResult, error)
}
