package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retail-catalog/internal/cache"
	"retail-catalog/internal/models"
	"retail-catalog/internal/purchase"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	jsonContentType      = "application/json; charset=utf-8"
)

type Checkout interface {
	Checkout(ctx context.Context, items []models.LineItem) purchase.Result
}

type PurchaseHandler struct {
	checkout Checkout
	replay   *cache.Cache
	logger   *zap.Logger
}

// NewPurchaseHandler wires checkout with a replay cache for Idempotency-Key.
// replay may be nil to disable replays.
func NewPurchaseHandler(checkout Checkout, replay *cache.Cache, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		checkout: checkout,
		replay:   replay,
		logger:   logger,
	}
}

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type inFlight struct{}

// POST /v1/purchase
//
// 200 when every line item succeeded, 207 otherwise; the body carries the
// per-item statuses either way.
func (h *PurchaseHandler) Purchase(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	var (
		cacheKey string
		stored   bool
	)
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" && h.replay != nil {
		cacheKey = "purchase:" + key
		if !h.replay.SetIfAbsent(cacheKey, inFlight{}) {
			h.replayOrConflict(c, cacheKey)
			return
		}
		// Release the key on every path that leaves no response to replay,
		// panics included.
		defer func() {
			if !stored {
				h.replay.Delete(cacheKey)
			}
		}()
	}

	result := h.checkout.Checkout(c.Request.Context(), req.Items)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusMultiStatus
	}
	body, err := json.Marshal(result)
	if err != nil {
		writeError(c, err)
		return
	}

	if cacheKey != "" {
		if err := h.replay.Marshal(cacheKey, storedResponse{Status: status, Body: body}); err != nil {
			h.logger.Warn("store purchase response failed", zap.Error(err))
		} else {
			stored = true
		}
	}
	c.Data(status, jsonContentType, body)
}

func (h *PurchaseHandler) replayOrConflict(c *gin.Context, cacheKey string) {
	var prev storedResponse
	found, err := h.replay.Unmarshal(cacheKey, &prev)
	if err != nil {
		h.logger.Warn("stored purchase response unreadable", zap.Error(err))
	}
	if !found || err != nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "a purchase with this Idempotency-Key is in progress"})
		return
	}
	c.Header("Idempotent-Replayed", "true")
	c.Data(prev.Status, jsonContentType, prev.Body)
}
