package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fielddb/fieldauth/internal/config"
	"github.com/fielddb/fieldauth/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server, logger *zap.Logger) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			logger.Info("http server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("failed to start server", zap.Error(err))
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(
	m *graceful.Manager,
	srv *http.Server,
	cfg *config.Config,
	logger *zap.Logger,
) {
	m.AddShutdownJob(func() error {
		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
			return err
		}

		logger.Info("server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client, logger *zap.Logger) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := redisClient.Close(); err != nil {
			logger.Error("error closing rate limit redis client", zap.Error(err))
			return err
		}
		logger.Info("rate limit redis connection closed")
		return nil
	})
}

// closer is satisfied by every cache backend
type closer interface {
	Close() error
}

// addCacheShutdownJob closes a cache on shutdown
func addCacheShutdownJob(m *graceful.Manager, name string, c closer, logger *zap.Logger) {
	if c == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := c.Close(); err != nil {
			logger.Error("error closing cache", zap.String("cache", name), zap.Error(err))
			return err
		}
		logger.Info("cache closed", zap.String("cache", name))
		return nil
	})
}

// addDatabaseShutdownJob closes the connection pool on shutdown
func addDatabaseShutdownJob(m *graceful.Manager, db *store.Store, logger *zap.Logger) {
	if db == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", zap.Error(err))
			return err
		}
		logger.Info("database connection closed")
		return nil
	})
}
