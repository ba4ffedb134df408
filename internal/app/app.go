package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carenest-app/bookingservice/internal/auth"
	"github.com/carenest-app/bookingservice/internal/billing"
	"github.com/carenest-app/bookingservice/internal/booking/repo"
	"github.com/carenest-app/bookingservice/internal/booking/repo/postgres"
	"github.com/carenest-app/bookingservice/internal/booking/usecase"
	"github.com/carenest-app/bookingservice/internal/cache"
	"github.com/carenest-app/bookingservice/internal/config"
	"github.com/carenest-app/bookingservice/internal/events"
	"github.com/carenest-app/bookingservice/internal/log"
	"github.com/carenest-app/bookingservice/internal/pricing"
	"github.com/carenest-app/bookingservice/internal/server"
	"github.com/carenest-app/bookingservice/internal/tracing"
)

// App represents the application
type App struct {
	config      *config.Config
	logger      *zap.Logger
	store       *postgres.Store
	configCache *cache.ConfigCache
	provider    billing.Provider
	publisher   events.Publisher
	httpServer  *http.Server
	stopTracing func()
}

// New creates a new application instance. Postgres is required unless the
// database host is left empty, in which case everything runs in memory.
// Redis, Kafka and tracing are optional; their absence degrades features,
// never boot.
func New(cfg *config.Config) (*App, error) {
	if err := log.Init(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := log.L(context.Background())

	logger.Info("Initializing booking service application",
		zap.String("app_name", cfg.AppName),
		zap.Int("http_port", cfg.Server.Port))

	var (
		requests    repo.RequestRepository
		configStore pricing.ConfigStore
		pgStore     *postgres.Store
	)
	if cfg.Database.Host != "" {
		store, err := initializeDatabase(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		pgStore = store
		requests = store
		configStore = store
	} else {
		logger.Warn("No database configured, running with in-memory stores")
		requests = repo.NewMemoryRequestStore()
		configStore = pricing.NewMemoryConfigStore()
	}

	var configCache *cache.ConfigCache
	if cfg.Redis.Addr != "" {
		c, err := cache.NewConfigCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis initialization failed, continuing without cache",
				zap.Error(err), zap.String("redis_addr", cfg.Redis.Addr))
		} else {
			configCache = c
		}
	}

	provider, err := initializeProvider(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize billing provider: %w", err)
	}

	publisher := initializePublisher(cfg, logger)

	var stopTracing func()
	if cfg.Tracing.Enabled {
		tracingCfg := tracing.DefaultConfig()
		tracingCfg.JaegerEndpoint = cfg.Tracing.JaegerEndpoint
		tracingCfg.SamplingRatio = cfg.Tracing.SamplingRatio
		shutdown, err := tracing.Init(tracingCfg, logger)
		if err != nil {
			logger.Warn("Tracing initialization failed, continuing without tracing", zap.Error(err))
		} else {
			stopTracing = shutdown
		}
	}

	var validator *auth.Validator
	if cfg.Auth.JWTSecret != "" {
		validator, err = auth.NewValidator(cfg.Auth.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize auth: %w", err)
		}
	} else {
		logger.Warn("No JWT secret configured, admin routes are disabled")
	}

	pricingUC := usecase.NewPricingUseCase(configStore, configCache, publisher)
	bookings := usecase.NewBookingUseCase(requests, pricingUC, publisher)
	payments := usecase.NewPaymentUseCase(requests, pricingUC, provider, publisher)

	gin.SetMode(cfg.Server.Mode)
	srv := server.New(pricingUC, bookings, payments, validator, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		config:      cfg,
		logger:      logger,
		store:       pgStore,
		configCache: configCache,
		provider:    provider,
		publisher:   publisher,
		httpServer:  httpServer,
		stopTracing: stopTracing,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting booking service application",
		zap.String("addr", a.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	}
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down booking service application")

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("Failed to close event publisher", zap.Error(err))
	}
	if err := a.configCache.Close(); err != nil {
		a.logger.Error("Failed to close config cache", zap.Error(err))
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("Failed to close billing provider", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("Failed to close database", zap.Error(err))
		}
	}
	if a.stopTracing != nil {
		a.stopTracing()
	}

	a.logger.Info("Application shutdown complete")
	return nil
}

func initializeDatabase(cfg *config.Config) (*postgres.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return postgres.NewStore(ctx, cfg.Database.DSN())
}

func initializeProvider(cfg *config.Config, logger *zap.Logger) (billing.Provider, error) {
	switch cfg.Stripe.Provider {
	case "stripe":
		return billing.NewStripeProvider(cfg.Stripe.SecretKey, logger)
	case "mock", "":
		logger.Warn("Using mock billing provider, no real charges will be made")
		return billing.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown billing provider %q", cfg.Stripe.Provider)
	}
}

func initializePublisher(cfg *config.Config, logger *zap.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("No Kafka brokers configured, events are not published")
		return events.NewNoopPublisher()
	}
	publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	if err != nil {
		logger.Warn("Kafka initialization failed, events are not published", zap.Error(err))
		return events.NewNoopPublisher()
	}
	return publisher
}
