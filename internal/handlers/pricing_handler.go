package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"retail-catalog/internal/recompute"
)

type Recomputer interface {
	Run(ctx context.Context, opts recompute.Options) (recompute.Summary, error)
}

type PricingHandler struct {
	recomputer Recomputer
}

func NewPricingHandler(recomputer Recomputer) *PricingHandler {
	return &PricingHandler{recomputer: recomputer}
}

// POST /v1/prices/recompute
//
// The body is optional: {"promotion": {"name": "...", "endsAt": "..."}}.
func (h *PricingHandler) Recompute(c *gin.Context) {
	var opts recompute.Options
	if err := c.ShouldBindJSON(&opts); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, bindError(err))
		return
	}

	// A run outlives its caller; half-priced catalogs help nobody.
	summary, err := h.recomputer.Run(context.WithoutCancel(c.Request.Context()), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /healthz
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
