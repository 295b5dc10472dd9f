// Package purchase applies checkouts against stock. Every line item is its own
// atomic check-and-decrement; items never roll each other back.
package purchase

//go:generate mockgen -source=transactor.go -destination=mocks_test.go -package=purchase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"retail-catalog/internal/apperr"
	"retail-catalog/internal/events"
	"retail-catalog/internal/models"
)

// Store applies one line item atomically.
type Store interface {
	ApplyPurchase(ctx context.Context, id string, qty int64, velocityDelta float64) error
}

type Status string

const (
	StatusSuccess    Status = "Success"
	StatusOutOfStock Status = "OutOfStock"
	StatusNotFound   Status = "NotFound"
	StatusInvalid    Status = "Invalid"
	StatusFailed     Status = "Failed"
)

type ItemResult struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Status    Status `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

type Tally struct {
	Success    int `json:"success"`
	OutOfStock int `json:"outOfStock"`
	NotFound   int `json:"notFound"`
	Invalid    int `json:"invalid"`
	Failed     int `json:"failed"`
}

func (t *Tally) add(s Status) {
	switch s {
	case StatusSuccess:
		t.Success++
	case StatusOutOfStock:
		t.OutOfStock++
	case StatusNotFound:
		t.NotFound++
	case StatusInvalid:
		t.Invalid++
	case StatusFailed:
		t.Failed++
	}
}

// Result reports every line item in input order. Success holds only when every
// item succeeded.
type Result struct {
	Items   []ItemResult `json:"items"`
	Success bool         `json:"success"`
	Tally   Tally        `json:"tally"`
}

type Transactor struct {
	store           Store
	publisher       events.Publisher
	logger          *zap.Logger
	velocityPerUnit float64
}

func NewTransactor(store Store, publisher events.Publisher, logger *zap.Logger, velocityPerUnit float64) *Transactor {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Transactor{
		store:           store,
		publisher:       publisher,
		logger:          logger,
		velocityPerUnit: velocityPerUnit,
	}
}

// Checkout processes items sequentially in the given order.
func (t *Transactor) Checkout(ctx context.Context, items []models.LineItem) Result {
	result := Result{Items: make([]ItemResult, 0, len(items))}
	purchased := make([]events.PurchasedItem, 0, len(items))

	for _, item := range items {
		res := t.apply(ctx, item)
		result.Items = append(result.Items, res)
		result.Tally.add(res.Status)
		if res.Status == StatusSuccess {
			purchased = append(purchased, events.PurchasedItem{ProductID: item.ProductID, Quantity: item.Quantity})
		}
	}
	result.Success = len(items) > 0 && result.Tally.Success == len(items)

	if len(purchased) > 0 {
		if err := t.publisher.ItemsPurchased(context.WithoutCancel(ctx), events.ItemsPurchased{Items: purchased}); err != nil {
			t.logger.Warn("publish purchase failed", zap.Error(err))
		}
	}
	return result
}

func (t *Transactor) apply(ctx context.Context, item models.LineItem) ItemResult {
	res := ItemResult{ProductID: item.ProductID, Quantity: item.Quantity}
	log := t.logger.With(zap.String("productId", item.ProductID), zap.Int64("quantity", item.Quantity))

	if item.Quantity <= 0 {
		res.Status, res.Reason = StatusInvalid, "quantity must be positive"
		return res
	}

	err := t.store.ApplyPurchase(ctx, item.ProductID, item.Quantity, float64(item.Quantity)*t.velocityPerUnit)
	switch {
	case err == nil:
		res.Status = StatusSuccess
	case errors.Is(err, apperr.ErrOutOfStock):
		log.Debug("out of stock")
		res.Status, res.Reason = StatusOutOfStock, apperr.ErrOutOfStock.Error()
	case errors.Is(err, apperr.ErrNotFound):
		log.Debug("product not found")
		res.Status, res.Reason = StatusNotFound, apperr.ErrNotFound.Error()
	default:
		log.Warn("purchase failed", zap.Error(err))
		res.Status, res.Reason = StatusFailed, err.Error()
	}
	return res
}
