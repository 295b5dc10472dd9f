package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retail-catalog/internal/handlers"
)

type Handlers struct {
	Products  *handlers.ProductHandler
	Purchases *handlers.PurchaseHandler
	Pricing   *handlers.PricingHandler
}

// NewRouter builds the engine with recovery, request ids and access logs.
func NewRouter(logger *zap.Logger, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestID(), handlers.AccessLog(logger))
	RegisterRoutes(router, h)
	return router
}

func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/healthz", handlers.Health)

	v1 := router.Group("/v1")
	{
		v1.GET("/products", h.Products.ListProducts)
		v1.GET("/products/:id", h.Products.GetProduct)
		v1.POST("/products", h.Products.CreateProduct)
		v1.DELETE("/products/out-of-stock", h.Products.DeleteOutOfStock)
		v1.DELETE("/products/:id", h.Products.DeleteProduct)

		v1.POST("/purchase", h.Purchases.Purchase)
		v1.POST("/prices/recompute", h.Pricing.Recompute)
	}
}
