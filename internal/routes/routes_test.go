package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"retail-catalog/internal/cache"
	"retail-catalog/internal/catalog"
	"retail-catalog/internal/handlers"
	"retail-catalog/internal/models"
	"retail-catalog/internal/pricing"
	"retail-catalog/internal/purchase"
	"retail-catalog/internal/recompute"
	"retail-catalog/internal/repository"
)

func TestRouterWiresEveryEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	store := repository.NewMemoryProductRepository()

	p := &models.Product{Name: "Jam", BasePrice: 4, CurrentPrice: 4, MinPrice: 3, MaxPrice: 6, StockLevel: 9, ExpiryDate: time.Now().Add(time.Hour)}
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	router := NewRouter(log, Handlers{
		Products:  handlers.NewProductHandler(catalog.NewService(store), store, log),
		Purchases: handlers.NewPurchaseHandler(purchase.NewTransactor(store, nil, log, 2), cache.New(time.Minute), log),
		Pricing:   handlers.NewPricingHandler(recompute.NewOrchestrator(store, pricing.NewEngine(pricing.DefaultParams()), nil, log, recompute.Config{Concurrency: 1})),
	})

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/v1/products", "", http.StatusOK},
		{http.MethodGet, "/v1/products/" + p.IDHex(), "", http.StatusOK},
		{http.MethodPost, "/v1/prices/recompute", "", http.StatusOK},
		{http.MethodPost, "/v1/purchase", `{"items":[{"productId":"` + p.IDHex() + `","quantity":1}]}`, http.StatusOK},
		{http.MethodDelete, "/v1/products/out-of-stock", "", http.StatusOK},
		{http.MethodDelete, "/v1/products/" + p.IDHex(), "", http.StatusNoContent},
		{http.MethodPatch, "/v1/products/" + p.IDHex(), "", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d: %s", tc.method, tc.path, tc.want, rr.Code, rr.Body.String())
		}
	}
}
