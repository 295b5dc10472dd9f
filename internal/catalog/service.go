// Package catalog is the read side of the product store: it only ever shows
// products that have not yet expired.
package catalog

import (
	"context"
	"time"

	"retail-catalog/internal/apperr"
	"retail-catalog/internal/models"
)

type Store interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindActive(ctx context.Context, now time.Time, category string) ([]models.Product, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// ListActive returns products with expiryDate after now, sorted by name. An
// empty category means all categories.
func (s *Service) ListActive(ctx context.Context, category string) ([]models.Product, error) {
	products, err := s.store.FindActive(ctx, s.now(), category)
	if err != nil {
		return nil, apperr.Wrap("catalog.ListActive", err)
	}
	return products, nil
}

// GetActive returns a single product, treating expired ones as missing.
func (s *Service) GetActive(ctx context.Context, id string) (*models.Product, error) {
	const op = "catalog.GetActive"

	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	if p.IsExpired(s.now()) {
		return nil, apperr.Wrap(op, apperr.ErrNotFound)
	}
	return p, nil
}
