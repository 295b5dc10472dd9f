package repository

import (
	"context"
	"time"

	"retail-catalog/internal/models"
	"retail-catalog/internal/retry"
)

// RetryingStore retries transient store failures of the wrapped store. Business
// outcomes (not found, out of stock) pass straight through.
type RetryingStore struct {
	next   ProductStore
	policy retry.Policy
}

func NewRetryingStore(next ProductStore, policy retry.Policy) *RetryingStore {
	return &RetryingStore{next: next, policy: policy}
}

func (s *RetryingStore) Create(ctx context.Context, product *models.Product) error {
	return retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.next.Create(ctx, product)
	})
}

func (s *RetryingStore) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var out *models.Product
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		p, err := s.next.FindByID(ctx, id)
		out = p
		return err
	})
	return out, err
}

func (s *RetryingStore) Snapshot(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		products, err := s.next.Snapshot(ctx)
		out = products
		return err
	})
	return out, err
}

func (s *RetryingStore) FindActive(ctx context.Context, now time.Time, category string) ([]models.Product, error) {
	var out []models.Product
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		products, err := s.next.FindActive(ctx, now, category)
		out = products
		return err
	})
	return out, err
}

func (s *RetryingStore) SetCurrentPrice(ctx context.Context, id string, price float64) error {
	return retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.next.SetCurrentPrice(ctx, id, price)
	})
}

// ApplyPurchase is retried as well. The stock guard still holds on a repeat, so
// a lost acknowledgement can at worst double count a sale, never oversell.
func (s *RetryingStore) ApplyPurchase(ctx context.Context, id string, qty int64, velocityDelta float64) error {
	return retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.next.ApplyPurchase(ctx, id, qty, velocityDelta)
	})
}

func (s *RetryingStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		removed, err := s.next.DeleteExpired(ctx, now)
		n += removed
		return err
	})
	return n, err
}

func (s *RetryingStore) DeleteOutOfStock(ctx context.Context) (int64, error) {
	var n int64
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		removed, err := s.next.DeleteOutOfStock(ctx)
		n += removed
		return err
	})
	return n, err
}

func (s *RetryingStore) Delete(ctx context.Context, id string) error {
	return retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.next.Delete(ctx, id)
	})
}
