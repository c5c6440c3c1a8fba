package signature

import (
	"errors"
	"strings"
)

var (
	ErrMissingParameter = errors.New("missing required parameters")
	ErrInvalidTimestamp = errors.New("invalid timestamp format")
	ErrInvalidSalt      = errors.New("client secret is not a valid bcrypt salt")
	ErrCostTooHigh      = errors.New("bcrypt cost exceeds the allowed maximum")
	ErrInvalidCost      = errors.New("invalid bcrypt cost")
	ErrUnknownMode      = errors.New("unknown signature mode")
	ErrServiceBusy      = errors.New("signature service busy")
)

// MissingParameterError reports which of the required fields were present.
type MissingParameterError struct {
	Received map[string]bool
}

func (e *MissingParameterError) Error() string {
	var missing []string
	for _, name := range requiredFields {
		if present, ok := e.Received[name]; ok && !present {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return ErrMissingParameter.Error()
	}
	return ErrMissingParameter.Error() + ": " + strings.Join(missing, ", ")
}

func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// HashError is a failure of the underlying hash computation.
type HashError struct {
	Err error
}

func (e *HashError) Error() string {
	return "hash computation failed: " + e.Err.Error()
}

func (e *HashError) Unwrap() error {
	return e.Err
}

var requiredFields = []string{"client_id", "timestamp", "client_secret", "signature"}

func checkRequired(fields map[string]string) error {
	received := make(map[string]bool, len(fields))
	ok := true
	for name, val := range fields {
		received[name] = val != ""
		ok = ok && val != ""
	}
	if !ok {
		return &MissingParameterError{Received: received}
	}
	return nil
}
