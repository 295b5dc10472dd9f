package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"retail-catalog/internal/apperr"
	"retail-catalog/internal/models"
)

// MemoryProductRepository keeps products in process memory. It honours the same
// per-record atomicity as the Mongo repository and backs STORE_DRIVER=memory and
// the tests.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[primitive.ObjectID]models.Product),
	}
}

func (r *MemoryProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap("MemoryProductRepository.Create", err)
	}

	product.ID = primitive.NewObjectID()
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = clone(product)
	return nil
}

func (r *MemoryProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	const op = "MemoryProductRepository.FindByID"
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.ErrNotFound)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[objID]
	if !ok {
		return nil, apperr.Wrap(op, apperr.ErrNotFound)
	}
	out := clone(&p)
	return &out, nil
}

func (r *MemoryProductRepository) Snapshot(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, clone(&p))
	}
	sortByName(out)
	return out, nil
}

func (r *MemoryProductRepository) FindActive(ctx context.Context, now time.Time, category string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, 0)
	for _, p := range r.products {
		if p.IsExpired(now) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, clone(&p))
	}
	sortByName(out)
	return out, nil
}

func (r *MemoryProductRepository) SetCurrentPrice(ctx context.Context, id string, price float64) error {
	const op = "MemoryProductRepository.SetCurrentPrice"
	return r.update(op, id, func(p *models.Product) error {
		p.CurrentPrice = price
		return nil
	})
}

func (r *MemoryProductRepository) ApplyPurchase(ctx context.Context, id string, qty int64, velocityDelta float64) error {
	const op = "MemoryProductRepository.ApplyPurchase"
	return r.update(op, id, func(p *models.Product) error {
		if p.StockLevel < qty {
			return apperr.ErrOutOfStock
		}
		p.StockLevel -= qty
		p.UnitsSold += qty
		p.SalesVelocity += velocityDelta
		return nil
	})
}

// update applies fn to a single record under the write lock. fn mutates a copy
// that is only stored when it returns nil.
func (r *MemoryProductRepository) update(op, id string, fn func(p *models.Product) error) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Wrap(op, apperr.ErrNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[objID]
	if !ok {
		return apperr.Wrap(op, apperr.ErrNotFound)
	}
	if err := fn(&p); err != nil {
		return apperr.Wrap(op, err)
	}
	p.UpdatedAt = time.Now()
	r.products[objID] = p
	return nil
}

func (r *MemoryProductRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(func(p *models.Product) bool { return p.IsExpired(now) }), nil
}

func (r *MemoryProductRepository) DeleteOutOfStock(ctx context.Context) (int64, error) {
	return r.deleteWhere(func(p *models.Product) bool { return p.StockLevel <= 0 }), nil
}

func (r *MemoryProductRepository) deleteWhere(match func(p *models.Product) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, p := range r.products {
		if match(&p) {
			delete(r.products, id)
			n++
		}
	}
	return n
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	const op = "MemoryProductRepository.Delete"
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Wrap(op, apperr.ErrNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[objID]; !ok {
		return apperr.Wrap(op, apperr.ErrNotFound)
	}
	delete(r.products, objID)
	return nil
}

// clone copies p, including the festival end date it points at.
func clone(p *models.Product) models.Product {
	out := *p
	if p.FestivalEndDate != nil {
		end := *p.FestivalEndDate
		out.FestivalEndDate = &end
	}
	return out
}

func sortByName(products []models.Product) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].ID.Hex() < products[j].ID.Hex()
	})
}
