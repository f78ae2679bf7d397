package bootstrap

import (
	"fmt"

	"github.com/fielddb/fieldauth/internal/config"
	"github.com/fielddb/fieldauth/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	login     gin.HandlerFunc
	register  gin.HandlerFunc
	token     gin.HandlerFunc
	authorize gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration.
// redisClient is only consulted for the redis store.
func setupRateLimiting(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) (rateLimitMiddlewares, error) {
	if !cfg.EnableRateLimit {
		noOpMiddleware := func(c *gin.Context) { c.Next() }
		logger.Info("rate limiting disabled")
		return rateLimitMiddlewares{
			login:     noOpMiddleware,
			register:  noOpMiddleware,
			token:     noOpMiddleware,
			authorize: noOpMiddleware,
		}, nil
	}
	return createRateLimiters(cfg, redisClient, logger)
}

// createRateLimiters creates rate limiting middlewares for all endpoints
func createRateLimiters(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) (rateLimitMiddlewares, error) {
	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	logger.Info("rate limiting enabled", zap.String("store", cfg.RateLimitStore))

	var limiters rateLimitMiddlewares
	endpoints := []struct {
		target            *gin.HandlerFunc
		requestsPerMinute int
		endpoint          string
	}{
		{&limiters.login, cfg.LoginRateLimit, "/login"},
		{&limiters.register, cfg.RegisterRateLimit, "/register"},
		{&limiters.token, cfg.TokenRateLimit, "/oauth2/token"},
		{&limiters.authorize, cfg.AuthorizeRateLimit, "/oauth2/authorize"},
	}
	for _, ep := range endpoints {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: ep.requestsPerMinute,
			Endpoint:          ep.endpoint,
			StoreType:         storeType,
			RedisClient:       redisClient,
			Logger:            logger,
		})
		if err != nil {
			return rateLimitMiddlewares{}, fmt.Errorf(
				"failed to create rate limiter for %s: %w", ep.endpoint, err,
			)
		}
		*ep.target = limiter
	}
	return limiters, nil
}
