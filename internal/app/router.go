package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"ridepool/internal/handler"
	"ridepool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RequestHandler  *handler.RequestHandler
	RouteHandler    *handler.RouteHandler
	DispatchHandler *handler.DispatchHandler
	Realtime        http.Handler
	RedisClient     *redis.Client
	IdempotencyTTL  time.Duration
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Realtime channel for drivers and riders.
	router.GET("/ws", gin.WrapH(deps.Realtime))

	// API v1 routes.
	v1 := router.Group("/v1")
	if deps.RedisClient != nil {
		v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.IdempotencyTTL))
	}
	{
		// Ride request intake.
		requests := v1.Group("/requests")
		{
			requests.POST("", deps.RequestHandler.CreateRequest)
			requests.GET("/:id", deps.RequestHandler.GetRequest)
		}

		// Stop completion.
		v1.PATCH("/stops/:id/complete", deps.RouteHandler.CompleteStop)

		// Driver and rider views.
		v1.GET("/drivers/:id/active-route", deps.RouteHandler.GetActiveRoute)
		v1.GET("/riders/:id/active-request", deps.RouteHandler.GetActiveRequest)

		// Operator trigger for one dispatch tick.
		v1.POST("/dispatch/run", deps.DispatchHandler.Run)
	}

	return router
}
