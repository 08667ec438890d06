// Package handlers exposes the order lifecycle, catalog, customers and
// reports over HTTP with gin.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/ukegedo/fruver-orderflow/internal/catalog"
	"github.com/ukegedo/fruver-orderflow/internal/customers"
	"github.com/ukegedo/fruver-orderflow/internal/idempotency"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
	"github.com/ukegedo/fruver-orderflow/internal/metrics"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
	"github.com/ukegedo/fruver-orderflow/internal/reports"
	"github.com/ukegedo/fruver-orderflow/internal/validation"
)

// HandlerConfig groups dependencies for the HTTP handlers.
type HandlerConfig struct {
	Catalog     *catalog.Store
	Customers   *customers.Store
	Orders      *orders.Store
	Idempotency *idempotency.Store
	Lifecycle   *lifecycle.Manager
	Reports     *reports.Builder
	Metrics     *metrics.ServerMetrics // optional

	LowStockThreshold int
}

type api struct {
	cfg HandlerConfig
	v   *validatorv10.Validate
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	a := &api{cfg: cfg, v: validation.New()}
	a.registerCustomers(r)
	a.registerCatalog(r)
	a.registerOrders(r)
	a.registerReports(r)
	return r
}
