package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testMetricsToken = "metrics-secret-123"

func metricsRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MetricsAuthMiddleware(token))
	r.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, "metrics")
	})
	return r
}

func TestMetricsAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"open when unconfigured", "", "", http.StatusOK, "metrics"},
		{"valid token", testMetricsToken, "Bearer " + testMetricsToken, http.StatusOK, "metrics"},
		{"wrong token", testMetricsToken, "Bearer wrong-token", http.StatusUnauthorized, "Invalid token"},
		{"missing header", testMetricsToken, "", http.StatusUnauthorized, "Bearer token required"},
		{"basic scheme", testMetricsToken, "Basic dGVzdDp0ZXN0", http.StatusUnauthorized, "Bearer token required"},
		{"empty bearer", testMetricsToken, "Bearer ", http.StatusUnauthorized, "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := metricsRouter(tt.configured)

			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, `Bearer realm="metrics"`, w.Header().Get("WWW-Authenticate"))
				assert.Contains(t, w.Body.String(), `"error":"invalid_token"`)
			}
		})
	}
}
