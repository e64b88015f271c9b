package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ridepool/internal/app"
	"ridepool/internal/config"
	"ridepool/internal/domain"
	"ridepool/internal/events"
	"ridepool/internal/handler"
	"ridepool/internal/logging"
	"ridepool/internal/matrix"
	"ridepool/internal/realtime"
	internalRedis "ridepool/internal/redis"
	"ridepool/internal/repository/postgres"
	"ridepool/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()
	logger := logging.New(cfg.Log)

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	nrApp := app.NewNewRelicApp(cfg.NewRelic, logger)

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	defer publisher.Close()

	// Wire dependencies.
	server, scheduler, err := wireServer(db, redisClient, nrApp, publisher, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to wire server")
	}

	runCtx, stopScheduler := context.WithCancel(context.Background())
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(runCtx)
	}()

	// Start server in goroutine.
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	stopScheduler()
	<-schedulerDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// dispatch scheduler.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	publisher events.Publisher,
	cfg *config.Config,
	logger *logrus.Logger,
) (*http.Server, *service.DispatchScheduler, error) {
	// Initialize Redis stores.
	positionStore := internalRedis.NewPositionStore(redisClient, cfg.Dispatch.PositionMaxAge)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	txManager := postgres.NewTxManager(db, cfg.Database.TxTimeout)
	repos := txManager.Repositories()

	// Duration oracle.
	oracle, err := newOracle(cfg.Matrix, cacheStore, logger)
	if err != nil {
		return nil, nil, err
	}

	// Realtime transport.
	registry := realtime.NewRegistry()
	gateway := realtime.NewGateway(registry, cfg.Database.TxTimeout, logger)

	depot := domain.Point{Lat: cfg.Dispatch.DepotLat, Lng: cfg.Dispatch.DepotLng}

	// Initialize services.
	notificationService := service.NewNotificationService(registry, gateway, logger)
	trackingService := service.NewTrackingService(registry, repos.Routes, repos.Stops, positionStore, notificationService, logger)
	gateway.OnDriverLocation(trackingService.OnLocation)

	requestService := service.NewRequestService(repos.Requests)
	routeService := service.NewRouteService(txManager, repos, depot, publisher, logger)

	var selector service.VehicleSelector = service.NewFirstIdleSelector(repos.Vehicles)
	if cfg.Dispatch.VehiclePolicy == config.VehiclePolicyNearestIdle {
		selector = service.NewNearestIdleSelector(repos.Vehicles, positionStore, cfg.Dispatch.NearestRadiusKm, logger)
	}

	var lock internalRedis.LockStoreInterface
	if cfg.Dispatch.LockEnabled {
		lock = lockStore
	}

	scheduler := service.NewDispatchScheduler(
		repos.Requests,
		oracle,
		selector,
		routeService,
		notificationService,
		lock,
		nrApp,
		depot,
		service.SchedulerConfig{
			Interval:    cfg.Dispatch.Interval,
			TickTimeout: cfg.Dispatch.TickTimeout,
			BatchSize:   cfg.Dispatch.BatchSize,
			LockTTL:     cfg.Dispatch.LockTTL,
		},
		logger,
	)

	// Initialize handlers.
	requestHandler := handler.NewRequestHandler(requestService)
	routeHandler := handler.NewRouteHandler(routeService)
	dispatchHandler := handler.NewDispatchHandler(scheduler)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RequestHandler:  requestHandler,
		RouteHandler:    routeHandler,
		DispatchHandler: dispatchHandler,
		Realtime:        gateway,
		RedisClient:     redisClient,
		IdempotencyTTL:  cfg.Redis.IdempotencyTTL,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, scheduler, nil
}

// newOracle builds the configured duration provider, wrapped in the Redis
// cache when a TTL is set.
func newOracle(cfg config.MatrixConfig, cache matrix.Cache, logger logrus.FieldLogger) (matrix.Oracle, error) {
	var oracle matrix.Oracle
	switch cfg.Provider {
	case config.MatrixProviderGoogle:
		client, err := matrix.NewGoogleClient(cfg.GoogleAPIKey, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		oracle = client
	default:
		oracle = matrix.NewOSRMClient(cfg.OSRMBaseURL, cfg.OSRMProfile, cfg.Timeout)
	}

	if cfg.CacheTTL > 0 {
		oracle = matrix.NewCachedOracle(oracle, cache, cfg.CacheTTL, logger)
	}
	return oracle, nil
}
