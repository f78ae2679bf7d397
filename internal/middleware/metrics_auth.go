package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsAuthMiddleware guards the metrics endpoint with a static bearer token.
// An empty token leaves the endpoint open.
func MetricsAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if len(header) < len(bearerPrefix) || header[:len(bearerPrefix)] != bearerPrefix {
			rejectMetrics(c, "Bearer token required")
			return
		}

		provided := header[len(bearerPrefix):]
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			rejectMetrics(c, "Invalid token")
			return
		}

		c.Next()
	}
}

func rejectMetrics(c *gin.Context, description string) {
	c.Header("WWW-Authenticate", `Bearer realm="metrics"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":            http.StatusUnauthorized,
		"error":             "invalid_token",
		"error_description": description,
	})
}
