package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"retail-catalog/internal/apperr"
	"retail-catalog/internal/retry"
)

// flakyStore fails the first n price writes with a transient error.
type flakyStore struct {
	*MemoryProductRepository
	failures int
	calls    int
}

func (f *flakyStore) SetCurrentPrice(ctx context.Context, id string, price float64) error {
	f.calls++
	if f.calls <= f.failures {
		return apperr.Transient("flaky", errors.New("connection reset by peer"))
	}
	return f.MemoryProductRepository.SetCurrentPrice(ctx, id, price)
}

func (f *flakyStore) ApplyPurchase(ctx context.Context, id string, qty int64, velocityDelta float64) error {
	f.calls++
	return f.MemoryProductRepository.ApplyPurchase(ctx, id, qty, velocityDelta)
}

var policy = retry.Policy{MaxAttempts: 3, Base: time.Millisecond, Max: 2 * time.Millisecond}

func TestRetryingStoreRecoversFromTransientFailure(t *testing.T) {
	mem := NewMemoryProductRepository()
	p := seed(t, mem, "Milk", 5, now.Add(time.Hour))
	flaky := &flakyStore{MemoryProductRepository: mem, failures: 2}
	s := NewRetryingStore(flaky, policy)

	if err := s.SetCurrentPrice(context.Background(), p.IDHex(), 11); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if flaky.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", flaky.calls)
	}
	got, _ := mem.FindByID(context.Background(), p.IDHex())
	if got.CurrentPrice != 11 {
		t.Fatalf("price not written: %v", got.CurrentPrice)
	}
}

func TestRetryingStoreGivesUp(t *testing.T) {
	mem := NewMemoryProductRepository()
	p := seed(t, mem, "Milk", 5, now.Add(time.Hour))
	flaky := &flakyStore{MemoryProductRepository: mem, failures: 10}
	s := NewRetryingStore(flaky, policy)

	err := s.SetCurrentPrice(context.Background(), p.IDHex(), 11)
	if !apperr.IsTransient(err) || flaky.calls != policy.MaxAttempts {
		t.Fatalf("expected transient error after %d attempts, got %v after %d", policy.MaxAttempts, err, flaky.calls)
	}
}

func TestRetryingStoreDoesNotRetryOutOfStock(t *testing.T) {
	mem := NewMemoryProductRepository()
	p := seed(t, mem, "Milk", 1, now.Add(time.Hour))
	flaky := &flakyStore{MemoryProductRepository: mem}
	s := NewRetryingStore(flaky, policy)

	err := s.ApplyPurchase(context.Background(), p.IDHex(), 2, 4)
	if !errors.Is(err, apperr.ErrOutOfStock) || flaky.calls != 1 {
		t.Fatalf("expected a single out of stock attempt, got %v after %d", err, flaky.calls)
	}
}
