package handlers

import (
	"context"
	"net/http"

	"github.com/fielddb/fieldauth/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/go-jose/go-jose/v4"
	"go.uber.org/zap"
)

// KeySetProvider publishes the verification keys
type KeySetProvider interface {
	JWKS() jose.JSONWebKeySet
}

// JWKS serves /.well-known/jwks.json
func JWKS(keys KeySetProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=3600")
		c.JSON(http.StatusOK, keys.JWKS())
	}
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Health serves /health. Every checker is probed; any failure yields 503.
func Health(logger *zap.Logger, checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Health(c.Request.Context()); err != nil {
				logger.Warn("health check failed", zap.String("component", name), zap.Error(err))
				results[name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":  overall,
			"checks":  results,
			"version": version.String(),
		})
	}
}
