package signature

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how a signature is produced and how it must be verified.
type Mode string

const (
	// ModeDirectSalt uses the client secret as the literal bcrypt salt and
	// returns the bcrypt hash string as the signature.
	ModeDirectSalt Mode = "direct-salt"
	// ModeGeneratedSalt hashes password_secret with a freshly generated salt.
	ModeGeneratedSalt Mode = "generated-salt"
	// ModeBase64Wrapped hashes like ModeDirectSalt and base64-encodes the hash.
	ModeBase64Wrapped Mode = "base64"
)

var modeAliases = map[string]Mode{
	"direct-salt":                ModeDirectSalt,
	"direct_salt":                ModeDirectSalt,
	"direct":                     ModeDirectSalt,
	"generated-salt":             ModeGeneratedSalt,
	"generated_salt":             ModeGeneratedSalt,
	"generated":                  ModeGeneratedSalt,
	"bcrypt_with_generated_salt": ModeGeneratedSalt,
	"base64":                     ModeBase64Wrapped,
	"base64-wrapped":             ModeBase64Wrapped,
	"base64_wrapped":             ModeBase64Wrapped,
}

// ParseMode resolves a mode name, accepting the dash and underscore spellings.
func ParseMode(s string) (Mode, error) {
	mode, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return mode, nil
}

func (m Mode) Valid() bool {
	switch m {
	case ModeDirectSalt, ModeGeneratedSalt, ModeBase64Wrapped:
		return true
	}
	return false
}

// Method is the tag reported to callers alongside a signature.
func (m Mode) Method() string {
	switch m {
	case ModeDirectSalt:
		return "bcrypt_direct_salt"
	case ModeGeneratedSalt:
		return "bcrypt_with_generated_salt"
	case ModeBase64Wrapped:
		return "bcrypt_base64"
	}
	return string(m)
}

func (m Mode) String() string {
	return string(m)
}

// Options is the per-call configuration of the engine.
type Options struct {
	Mode            Mode
	Cost            int // cost factor of generated salts
	MaxCost         int // highest cost accepted from a client supplied salt, 0 means bcrypt.MaxCost
	StrictTimestamp bool
}

type Request struct {
	ClientID     string
	Timestamp    string
	ClientSecret string
}

type VerificationRequest struct {
	Request
	Signature string
	Mode      Mode // empty means Options.Mode
}

type Signature struct {
	ID          int64
	Value       string // payload handed back to the caller
	Hash        string // underlying bcrypt hash
	Mode        Mode
	ClientID    string
	Timestamp   string
	TimestampMs *int64 // set when the timestamp is a valid integer
	Password    string
	GeneratedAt time.Time
}

type VerificationResult struct {
	Valid      bool
	Password   string
	Mode       Mode
	VerifiedAt time.Time
}
