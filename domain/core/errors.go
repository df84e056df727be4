package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Validation errors
	ErrInvalidConfig         = errors.New("invalid simulation configuration")
	ErrUnknownPayoffType     = fmt.Errorf("%w: unrecognized payoff type", ErrInvalidConfig)
	ErrUnknownBriberyPolicy  = fmt.Errorf("%w: unrecognized bribery policy", ErrInvalidConfig)
	ErrUnknownPeerEstimator  = fmt.Errorf("%w: unrecognized peer estimator", ErrInvalidConfig)
	ErrInvalidRunCount       = fmt.Errorf("%w: run count out of range", ErrInvalidConfig)
	ErrInvalidAppealSettings = fmt.Errorf("%w: appeal settings", ErrInvalidConfig)

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
)

// NewValidationError reports a rejected configuration field
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, field, reason)
}

// IsValidationError reports whether err is a rejected configuration
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsDeterminismError reports whether err signals a reproducibility failure
func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrNonDeterministic)
}
