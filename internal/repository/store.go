package repository

import (
	"context"
	"time"

	"retail-catalog/internal/models"
)

// ProductStore is the persistent record store for products. Every mutation is
// scoped to the fields its writer owns and is applied atomically per record;
// no method rewrites a whole document.
//
// Ids are hex strings; an id that cannot name a record yields apperr.ErrNotFound.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Snapshot(ctx context.Context) ([]models.Product, error)
	FindActive(ctx context.Context, now time.Time, category string) ([]models.Product, error)

	// SetCurrentPrice touches currentPrice only. A missing record is reported as
	// apperr.ErrNotFound and is never recreated.
	SetCurrentPrice(ctx context.Context, id string, price float64) error

	// ApplyPurchase decrements stock by qty and bumps the sales counters only when
	// at least qty units are in stock; otherwise it returns apperr.ErrOutOfStock
	// and changes nothing.
	ApplyPurchase(ctx context.Context, id string, qty int64, velocityDelta float64) error

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteOutOfStock(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}
