package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retail-catalog/internal/models"
)

// Catalog is the read side served to shoppers.
type Catalog interface {
	ListActive(ctx context.Context, category string) ([]models.Product, error)
	GetActive(ctx context.Context, id string) (*models.Product, error)
}

// ProductAdmin holds the admin mutations.
type ProductAdmin interface {
	Create(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	DeleteOutOfStock(ctx context.Context) (int64, error)
}

type ProductHandler struct {
	catalog Catalog
	admin   ProductAdmin
	logger  *zap.Logger
}

func NewProductHandler(catalog Catalog, admin ProductAdmin, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		admin:   admin,
		logger:  logger,
	}
}

type ProductListResponse struct {
	Products []models.Product `json:"products"`
	Count    int              `json:"count"`
}

// GET /v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListActive(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProductListResponse{Products: products, Count: len(products)})
}

// GET /v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// POST /v1/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in models.NewProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, bindError(err))
		return
	}

	product := in.ToProduct(time.Now())
	if err := h.admin.Create(c.Request.Context(), product); err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("product created", zap.String("productId", product.IDHex()), zap.String("name", product.Name))
	c.JSON(http.StatusCreated, product)
}

// DELETE /v1/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.admin.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("product deleted", zap.String("productId", id))
	c.Status(http.StatusNoContent)
}

// DELETE /v1/products/out-of-stock
func (h *ProductHandler) DeleteOutOfStock(c *gin.Context) {
	removed, err := h.admin.DeleteOutOfStock(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("out of stock products removed", zap.Int64("removed", removed))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
