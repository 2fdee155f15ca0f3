package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lifesync-ledger/internal/api_gateway/handler"
	"github.com/lifesync-ledger/internal/api_gateway/middleware"
	"github.com/lifesync-ledger/internal/platform/metrics"
)

// routerDeps groups what the router needs beyond the handlers
type routerDeps struct {
	verifier    *middleware.TokenVerifier
	cookieName  string
	idempotency middleware.IdempotencyStore
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, deps routerDeps, contactHandler *handler.ContactHandler) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(deps.metrics))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(logger, deps.verifier, deps.cookieName))
	if deps.idempotency != nil {
		v1.Use(middleware.Idempotency(logger, deps.idempotency))
	}
	{
		contacts := v1.Group("/contacts")
		{
			contacts.POST("", contactHandler.Create)
			contacts.GET("", contactHandler.List)
			contacts.GET("/stats", contactHandler.Stats)
			contacts.GET("/:id", contactHandler.GetByID)
			contacts.PUT("/:id", contactHandler.Update)
			contacts.DELETE("/:id", contactHandler.Delete)
			contacts.GET("/:id/summary", contactHandler.Summary)
			contacts.GET("/:id/activity", contactHandler.Activity)
			contacts.POST("/:id/settle", contactHandler.Settle)

			// Ledger entries
			contacts.POST("/:id/transactions", contactHandler.AddTransaction)
			contacts.PUT("/:id/transactions/:txnId", contactHandler.EditTransaction)
			contacts.DELETE("/:id/transactions/:txnId", contactHandler.DeleteTransaction)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.gatherer, promhttp.HandlerOpts{})))
}
