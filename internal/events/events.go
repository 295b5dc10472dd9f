// Package events publishes catalog change notifications for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypePriceChanged   Type = "PriceChanged"
	TypeItemsPurchased Type = "ItemsPurchased"
)

// Envelope is the JSON document written for every event.
type Envelope struct {
	EventID    string          `json:"eventId"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	ProductID  string          `json:"productId,omitempty"`
	Data       json.RawMessage `json:"data"`
}

type PriceChanged struct {
	OldPrice float64 `json:"oldPrice"`
	NewPrice float64 `json:"newPrice"`
}

type PurchasedItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type ItemsPurchased struct {
	Items []PurchasedItem `json:"items"`
}

// Publisher delivers events. Implementations must not block the caller on
// delivery and only report errors they detect synchronously.
type Publisher interface {
	PriceChanged(ctx context.Context, productID string, change PriceChanged) error
	ItemsPurchased(ctx context.Context, purchase ItemsPurchased) error
	Close() error
}

// NewEnvelope wraps data with a fresh event id and timestamp.
func NewEnvelope(typ Type, productID string, data any, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:    uuid.NewString(),
		Type:       typ,
		OccurredAt: at.UTC(),
		ProductID:  productID,
		Data:       raw,
	}, nil
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PriceChanged(context.Context, string, PriceChanged) error { return nil }
func (NopPublisher) ItemsPurchased(context.Context, ItemsPurchased) error     { return nil }
func (NopPublisher) Close() error                                             { return nil }
