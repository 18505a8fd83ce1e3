package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"paybot/internal/handler"
	"paybot/internal/metrics"
	"paybot/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	PaymentHandler *handler.PaymentHandler
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer    prometheus.Gatherer
	NewRelicApp *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicErrorMiddleware())
	}

	router.Use(middleware.ObservabilityMiddleware(deps.Logger, deps.Metrics))

	// Liveness.
	router.GET("/", handler.Index)
	router.GET("/health", handler.Health)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	router.POST("/process-payment", deps.PaymentHandler.ProcessPayment)

	return router
}
