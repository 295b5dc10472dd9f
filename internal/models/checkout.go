package models

// LineItem is one (product, quantity) pair of a checkout.
type LineItem struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

// CheckoutRequest is the body of a purchase.
type CheckoutRequest struct {
	Items []LineItem `json:"items" binding:"required,min=1,dive"`
}
