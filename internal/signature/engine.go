package signature

import (
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the cost factor used for generated salts.
const DefaultCost = 10

// Generate derives the signature for req. DirectSalt and Base64Wrapped are
// deterministic, GeneratedSalt is not.
func Generate(req Request, opts Options) (*Signature, error) {
	err := checkRequired(map[string]string{
		"client_id":     req.ClientID,
		"timestamp":     req.Timestamp,
		"client_secret": req.ClientSecret,
	})
	if err != nil {
		return nil, err
	}

	tsMillis, tsErr := parseTimestamp(req.Timestamp)
	if opts.StrictTimestamp && tsErr != nil {
		return nil, tsErr
	}

	password := BuildPassword(req.ClientID, req.Timestamp)
	sig := &Signature{
		Mode:        opts.Mode,
		ClientID:    req.ClientID,
		Timestamp:   req.Timestamp,
		Password:    password,
		GeneratedAt: time.Now(),
	}
	if tsErr == nil {
		sig.TimestampMs = &tsMillis
	}

	switch opts.Mode {
	case ModeDirectSalt, ModeBase64Wrapped:
		salt, err := secretAsSalt(req.ClientSecret, opts.MaxCost)
		if err != nil {
			return nil, err
		}
		hash, err := salt.hash([]byte(password))
		if err != nil {
			return nil, &HashError{Err: err}
		}
		sig.Hash = hash
		sig.Value = hash
		if opts.Mode == ModeBase64Wrapped {
			sig.Value = base64.StdEncoding.EncodeToString([]byte(hash))
		}
	case ModeGeneratedSalt:
		cost := opts.Cost
		if cost == 0 {
			cost = DefaultCost
		}
		salt, err := newRandomSalt(cost)
		if err != nil {
			return nil, &HashError{Err: err}
		}
		hash, err := salt.hash([]byte(BuildPassword(req.ClientID, req.Timestamp, req.ClientSecret)))
		if err != nil {
			return nil, &HashError{Err: err}
		}
		sig.Hash = hash
		sig.Value = hash
	default:
		return nil, ErrUnknownMode
	}
	return sig, nil
}

// Verify checks req.Signature against the password rebuilt from req. The
// comparison follows the mode the signature was produced with.
func Verify(req VerificationRequest, opts Options) (*VerificationResult, error) {
	err := checkRequired(map[string]string{
		"client_id":     req.ClientID,
		"timestamp":     req.Timestamp,
		"client_secret": req.ClientSecret,
		"signature":     req.Signature,
	})
	if err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = opts.Mode
	}

	password := BuildPassword(req.ClientID, req.Timestamp)
	hashed, input := req.Signature, password
	switch mode {
	case ModeDirectSalt:
	case ModeBase64Wrapped:
		decoded, err := base64.StdEncoding.DecodeString(req.Signature)
		if err != nil {
			hashed = ""
		} else {
			hashed = string(decoded)
		}
	case ModeGeneratedSalt:
		input = BuildPassword(req.ClientID, req.Timestamp, req.ClientSecret)
	default:
		return nil, ErrUnknownMode
	}

	valid := false
	if hashed != "" {
		valid = compareHash(hashed, input)
	}
	return &VerificationResult{
		Valid:      valid,
		Password:   password,
		Mode:       mode,
		VerifiedAt: time.Now(),
	}, nil
}

func compareHash(hashed, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
	return err == nil
}

func secretAsSalt(secret string, maxCost int) (*bcryptSalt, error) {
	salt, err := parseSalt(secret)
	if err != nil {
		return nil, &HashError{Err: err}
	}
	if maxCost > 0 && salt.cost > maxCost {
		return nil, &HashError{Err: ErrCostTooHigh}
	}
	return salt, nil
}

func parseTimestamp(ts string) (int64, error) {
	if ts == "" || ts[0] < '0' || ts[0] > '9' {
		return 0, ErrInvalidTimestamp
	}
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || ms < 0 {
		return 0, ErrInvalidTimestamp
	}
	return ms, nil
}

// IsHashError reports whether err is a failure of the hash primitive.
func IsHashError(err error) bool {
	var hashErr *HashError
	return errors.As(err, &hashErr)
}
