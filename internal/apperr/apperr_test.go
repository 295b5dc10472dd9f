package apperr

import (
	"context"
	"errors"
	"testing"
)

func TestTransientKeepsCause(t *testing.T) {
	err := Transient("repo.SetCurrentPrice", context.DeadlineExceeded)
	if !IsTransient(err) {
		t.Fatalf("expected transient, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cause to be preserved: %v", err)
	}
}

func TestBusinessErrorsAreNotTransient(t *testing.T) {
	for _, err := range []error{ErrNotFound, ErrOutOfStock, Wrap("op", ErrNotFound)} {
		if IsTransient(err) {
			t.Fatalf("%v should not be transient", err)
		}
	}
}

func TestIsConfig(t *testing.T) {
	err := Wrap("pricing", &ConfigError{ProductID: "p1", Field: "minPrice", Reason: "exceeds maxPrice"})
	if !IsConfig(err) {
		t.Fatalf("expected config error")
	}
	if got := err.Error(); got != "pricing: product p1: invalid minPrice: exceeds maxPrice" {
		t.Fatalf("unexpected message %q", got)
	}
	if IsConfig(ErrStore) {
		t.Fatalf("store error is not a config error")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap("op", nil) != nil || Transient("op", nil) != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
}
