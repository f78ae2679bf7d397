package bootstrap

import (
	"context"
	"fmt"

	"github.com/fielddb/fieldauth/internal/cache"
	"github.com/fielddb/fieldauth/internal/config"
	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/metrics"
	"github.com/fielddb/fieldauth/internal/models"

	"go.uber.org/zap"
)

// Redis key prefixes for the shared caches
const (
	clientCachePrefix   = "fieldauth:clients:"
	authCodeCachePrefix = "fieldauth:authcode:"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config, logger *zap.Logger) core.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		logger.Info("prometheus metrics initialized")
	} else {
		logger.Info("metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeClientCache builds the client lookup cache. It lives next to the
// authorization codes: shared through Redis when codes are, in process otherwise.
func initializeClientCache(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
) (core.Cache[models.Client], error) {
	return newCache[models.Client](ctx, cfg, logger, "client", clientCachePrefix)
}

// initializeAuthCodeCache builds the backing cache of the authorization code store
func initializeAuthCodeCache(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
) (core.Cache[models.AuthorizationCode], error) {
	return newCache[models.AuthorizationCode](ctx, cfg, logger, "authorization code", authCodeCachePrefix)
}

func newCache[T any](
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	name, prefix string,
) (core.Cache[T], error) {
	switch cfg.AuthCodeStore {
	case config.AuthCodeStoreRedis:
		ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
		defer cancel()

		c, err := cache.NewRueidisCache[T](ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis %s cache: %w", name, err)
		}
		logger.Info("cache initialized",
			zap.String("cache", name),
			zap.String("store", "redis"),
			zap.String("addr", cfg.RedisAddr),
			zap.Int("db", cfg.RedisDB),
		)
		return c, nil

	default: // memory
		logger.Info("cache initialized",
			zap.String("cache", name),
			zap.String("store", "memory"),
		)
		return cache.NewMemoryCache[T](), nil
	}
}
