package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a configuration rejected before any step runs.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and plant")

	// ErrUnknownParam indicates a SetParam call with an unsupported name.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")
)

// ConfigError describes a single rejected configuration field.
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s (%g): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Invalid builds a ConfigError for field.
func Invalid(field string, value float64, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

// RequirePositive rejects zero or negative values.
func RequirePositive(field string, value float64) error {
	if value <= 0 {
		return Invalid(field, value, "must be positive")
	}
	return nil
}

// RequireNonNegative rejects negative values.
func RequireNonNegative(field string, value float64) error {
	if value < 0 {
		return Invalid(field, value, "must not be negative")
	}
	return nil
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return ErrInvalidState
}
