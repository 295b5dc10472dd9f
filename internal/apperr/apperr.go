// Package apperr holds the error taxonomy shared by the pricing, purchase and
// sweep components.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrOutOfStock is an expected business outcome, not a failure.
	ErrOutOfStock = errors.New("insufficient stock")
	// ErrStore marks transient persistence failures that may be retried.
	ErrStore = errors.New("store unavailable")
	// ErrTimeout is reported when a per-product computation exceeds its budget.
	ErrTimeout = errors.New("execution timeout")
)

// ConfigError reports a product whose stored fields cannot be priced.
type ConfigError struct {
	ProductID string
	Field     string
	Reason    string
}

func (e *ConfigError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("product %s: invalid %s: %s", e.ProductID, e.Field, e.Reason)
}

// ValidationError represents a rejected client input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Wrap annotates err with the operation name.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Transient wraps err so that errors.Is(err, ErrStore) holds while keeping the cause.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStore)
}

// IsConfig reports whether err is (or wraps) a *ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
