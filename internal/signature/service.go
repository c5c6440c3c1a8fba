package signature

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// selfTestSalt is a fixed minimum-cost salt used by the readiness probe.
const selfTestSalt = "$2b$04$abcdefghijklmnopqrstuu"

type ServiceConfig struct {
	Options Options
	Workers int           // concurrent hash computations, defaults to NumCPU
	Timeout time.Duration // per call deadline, 0 disables it
	NodeID  int64         // snowflake node used for signature ids
}

// SignatureService runs the engine on a bounded number of workers. bcrypt is
// CPU bound, so callers beyond the pool size wait for a free slot.
type SignatureService struct {
	opts    Options
	timeout time.Duration
	sem     *semaphore.Weighted
	node    *snowflake.Node
}

func (s *SignatureService) Mode() Mode {
	return s.opts.Mode
}

func (s *SignatureService) Options() Options {
	return s.opts
}

// acquire waits for a worker slot, bounded by ctx and the configured timeout.
// A computation that already started is not interrupted.
func (s *SignatureService) acquire(ctx context.Context) (func(), error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceBusy, err)
	}
	return func() { s.sem.Release(1) }, nil
}

// Generate signs req. An empty mode falls back to the configured one.
func (s *SignatureService) Generate(ctx context.Context, req Request, mode Mode) (*Signature, error) {
	opts := s.opts
	if mode != "" {
		opts.Mode = mode
	}
	if !opts.Mode.Valid() {
		return nil, ErrUnknownMode
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	sig, err := Generate(req, opts)
	if err != nil {
		return nil, err
	}
	sig.ID = s.node.Generate().Int64()
	return sig, nil
}

func (s *SignatureService) Verify(ctx context.Context, req VerificationRequest) (*VerificationResult, error) {
	if req.Mode != "" && !req.Mode.Valid() {
		return nil, ErrUnknownMode
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return Verify(req, s.opts)
}

// Ready hashes and verifies a known value at minimum cost, proving a worker
// slot can be obtained and the hash primitive works.
func (s *SignatureService) Ready(ctx context.Context) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	req := Request{ClientID: "selftest", Timestamp: "0", ClientSecret: selfTestSalt}
	opts := Options{Mode: ModeDirectSalt, MaxCost: bcrypt.MinCost}
	sig, err := Generate(req, opts)
	if err != nil {
		return err
	}
	res, err := Verify(VerificationRequest{Request: req, Signature: sig.Value}, opts)
	if err != nil {
		return err
	}
	if !res.Valid {
		return errors.New("self test signature did not verify")
	}
	return nil
}

func NewSignatureService(cfg ServiceConfig) (*SignatureService, error) {
	if !cfg.Options.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Options.Mode)
	}
	if cfg.Options.Cost == 0 {
		cfg.Options.Cost = DefaultCost
	}
	if cfg.Options.Cost < bcrypt.MinCost || cfg.Options.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cfg.Options.Cost)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, err
	}
	return &SignatureService{
		opts:    cfg.Options,
		timeout: cfg.Timeout,
		sem:     semaphore.NewWeighted(int64(workers)),
		node:    node,
	}, nil
}
