package services

import (
	"errors"
	"fmt"
)

// Error kinds shared across the lifecycle services. Conditional status
// updates that find an unexpected prior state are not errors at all — they
// are benign no-ops and simply report zero rows touched.
var (
	// ErrNotFound: a referenced session or profile does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation: malformed input, rejected before any state mutation.
	ErrValidation = errors.New("validation failed")
)

// SweepFailure records one session's failure inside a sweep. Sweeps never
// abort early: each session is processed in isolation and failures are
// collected for the caller.
type SweepFailure struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

func sweepFailure(sessionID string, err error) SweepFailure {
	return SweepFailure{SessionID: sessionID, Reason: err.Error()}
}

func notFoundErr(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func validationErr(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrValidation)
}
