package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog item together with its pricing, stock and demand state.
//
// Writers own disjoint fields: the recompute batch writes CurrentPrice only,
// checkout writes StockLevel, UnitsSold and SalesVelocity only, and the expiry
// sweep removes whole records.
type Product struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	Category        string             `json:"category" bson:"category"`
	WholesalePrice  float64            `json:"wholesalePrice" bson:"wholesalePrice"`
	BasePrice       float64            `json:"basePrice" bson:"basePrice"`
	CurrentPrice    float64            `json:"currentPrice" bson:"currentPrice"`
	StockLevel      int64              `json:"stockLevel" bson:"stockLevel"`
	UnitsSold       int64              `json:"unitsSold" bson:"unitsSold"`
	SalesVelocity   float64            `json:"salesVelocity" bson:"salesVelocity"`
	ExpiryDate      time.Time          `json:"expiryDate" bson:"expiryDate"`
	MinPrice        float64            `json:"minPrice" bson:"minPrice"`
	MaxPrice        float64            `json:"maxPrice" bson:"maxPrice"`
	IsFestive       bool               `json:"isFestive" bson:"isFestive"`
	FestivalEndDate *time.Time         `json:"festivalEndDate,omitempty" bson:"festivalEndDate,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// IDHex returns the hex form of the product id.
func (p *Product) IDHex() string {
	return p.ID.Hex()
}

// IsExpired reports whether the product must no longer be offered at now.
func (p *Product) IsExpired(now time.Time) bool {
	return !p.ExpiryDate.After(now)
}

// NewProductInput is the admin payload for adding a product.
type NewProductInput struct {
	Name            string     `json:"name" binding:"required"`
	Category        string     `json:"category"`
	WholesalePrice  float64    `json:"wholesalePrice" binding:"gte=0"`
	BasePrice       float64    `json:"basePrice" binding:"required,gt=0"`
	StockLevel      int64      `json:"stockLevel" binding:"gte=0"`
	SalesVelocity   float64    `json:"salesVelocity" binding:"gte=0"`
	ExpiryDate      time.Time  `json:"expiryDate" binding:"required"`
	MinPrice        float64    `json:"minPrice" binding:"gte=0"`
	MaxPrice        float64    `json:"maxPrice" binding:"required,gt=0"`
	IsFestive       bool       `json:"isFestive"`
	FestivalEndDate *time.Time `json:"festivalEndDate"`
}

// ToProduct builds a fresh record: the effective price starts at the list price
// and no units have been sold yet.
func (in *NewProductInput) ToProduct(now time.Time) *Product {
	return &Product{
		Name:            in.Name,
		Category:        in.Category,
		WholesalePrice:  in.WholesalePrice,
		BasePrice:       in.BasePrice,
		CurrentPrice:    in.BasePrice,
		StockLevel:      in.StockLevel,
		UnitsSold:       0,
		SalesVelocity:   in.SalesVelocity,
		ExpiryDate:      in.ExpiryDate,
		MinPrice:        in.MinPrice,
		MaxPrice:        in.MaxPrice,
		IsFestive:       in.IsFestive,
		FestivalEndDate: in.FestivalEndDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
