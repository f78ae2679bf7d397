package bootstrap

import (
	"context"
	"errors"
	"net/http"

	"github.com/fielddb/fieldauth/internal/config"
	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/models"
	"github.com/fielddb/fieldauth/internal/oauth"
	"github.com/fielddb/fieldauth/internal/services"
	"github.com/fielddb/fieldauth/internal/store"
	"github.com/fielddb/fieldauth/internal/token"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config
	Logger *zap.Logger

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      core.Recorder
	Codec                *token.Codec
	ClientCache          core.Cache[models.Client]
	AuthCodeCache        core.Cache[models.AuthorizationCode]
	RateLimitRedisClient *redis.Client

	// Business layer
	UserService   *services.UserService
	ClientService *services.ClientService
	Provider      *oauth.Provider

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes the application and serves until ctx is cancelled or the
// process receives a termination signal
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	app, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown(ctx)
	return nil
}

// New builds every component without starting the HTTP server
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return nil, err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		_ = app.Close()
		return nil, err
	}

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		_ = app.Close()
		return nil, err
	}

	return app, nil
}

// initializeInfrastructure sets up keys, database, metrics, caches and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Signing keys
	app.Codec, err = initializeCodec(app.Config)
	if err != nil {
		return err
	}

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config, app.Logger)

	// Caches
	app.ClientCache, err = initializeClientCache(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}
	app.AuthCodeCache, err = initializeAuthCodeCache(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services and the OAuth provider
func (app *Application) initializeBusinessLayer() error {
	var err error

	app.UserService, app.ClientService = initializeServices(
		app.DB,
		app.MetricsRecorder,
		app.Logger,
	)

	app.Provider, err = initializeProvider(
		app.Config,
		app.DB,
		app.Codec,
		app.UserService,
		app.ClientCache,
		app.AuthCodeCache,
		app.MetricsRecorder,
		app.Logger,
	)
	return err
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.Codec,
		app.UserService,
		app.ClientService,
		app.Provider,
		app.MetricsRecorder,
		app.Logger,
	)

	rateLimiters, err := setupRateLimiting(app.Config, app.RateLimitRedisClient, app.Logger)
	if err != nil {
		return err
	}

	app.Router = setupRouter(
		app.Config,
		app.Codec,
		app.HandlerSet,
		app.MetricsRecorder,
		rateLimiters,
		app.healthChecks(),
		app.Logger,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// Close releases every infrastructure component that was initialized
func (app *Application) Close() error {
	var errs []error
	if app.RateLimitRedisClient != nil {
		errs = append(errs, app.RateLimitRedisClient.Close())
	}
	if app.AuthCodeCache != nil {
		errs = append(errs, app.AuthCodeCache.Close())
	}
	if app.ClientCache != nil {
		errs = append(errs, app.ClientCache.Close())
	}
	if app.DB != nil {
		errs = append(errs, app.DB.Close())
	}
	return errors.Join(errs...)
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown(ctx context.Context) {
	m := graceful.NewManager(
		graceful.WithContext(ctx),
		graceful.WithLogger(app.Logger.Sugar()),
	)

	// Add jobs
	addServerRunningJob(m, app.Server, app.Logger)
	addServerShutdownJob(m, app.Server, app.Config, app.Logger)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient, app.Logger)
	addCacheShutdownJob(m, "client", app.ClientCache, app.Logger)
	addCacheShutdownJob(m, "authorization code", app.AuthCodeCache, app.Logger)
	addDatabaseShutdownJob(m, app.DB, app.Logger)

	// Wait for graceful shutdown
	<-m.Done()
}
