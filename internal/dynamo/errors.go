package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for model configuration and simulation.
var (
	// ErrInvalidTimeStep indicates a time step that is not a finite positive number.
	ErrInvalidTimeStep = errors.New("dynamo: time step must be positive")

	// ErrInvalidDuration indicates a negative or non-finite simulation duration.
	ErrInvalidDuration = errors.New("dynamo: duration must be non-negative")

	// ErrDuplicateStock indicates two stocks declared with the same id.
	ErrDuplicateStock = errors.New("dynamo: duplicate stock id")

	// ErrDuplicateFlow indicates two flows declared with the same id.
	ErrDuplicateFlow = errors.New("dynamo: duplicate flow id")

	// ErrInvalidBounds indicates a stock whose minimum exceeds its maximum.
	ErrInvalidBounds = errors.New("dynamo: stock minimum exceeds maximum")

	// ErrUnknownStock indicates a reference to a stock id that does not exist.
	ErrUnknownStock = errors.New("dynamo: unknown stock")
)

// ConfigError ties a configuration problem to the entity that caused it.
type ConfigError struct {
	ID      string
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %q", e.Wrapped.Error(), e.ID)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}
