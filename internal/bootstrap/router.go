package bootstrap

import (
	"github.com/fielddb/fieldauth/internal/config"
	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/handlers"
	"github.com/fielddb/fieldauth/internal/metrics"
	"github.com/fielddb/fieldauth/internal/middleware"
	"github.com/fielddb/fieldauth/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	codec *token.Codec,
	h handlerSet,
	recorder core.Recorder,
	rateLimiters rateLimitMiddlewares,
	checks map[string]handlers.HealthChecker,
	logger *zap.Logger,
) *gin.Engine {
	setupGinMode(cfg, logger)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger.Named("http")),
		gin.Recovery(),
		metrics.HTTPMetricsMiddleware(recorder),
	)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.Authenticate(codec, logger.Named("session"), middleware.WithCookieName(cfg.CookieName)))

	// Infrastructure endpoints
	r.GET("/health", handlers.Health(logger, checks))
	r.GET("/.well-known/jwks.json", handlers.JWKS(codec))
	setupMetricsEndpoint(r, cfg, logger)

	setupAllRoutes(r, cfg, h, rateLimiters)

	logger.Info("fieldauth server configured",
		zap.String("addr", cfg.ServerAddr),
		zap.String("base_url", cfg.BaseURL),
		zap.String("environment", cfg.Environment),
		zap.String("auth_code_store", cfg.AuthCodeStore),
		zap.String("scope_policy", cfg.ScopePolicy),
	)
	return r
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config, logger *zap.Logger) {
	switch {
	case !cfg.MetricsEnabled:
		logger.Info("prometheus metrics endpoint disabled")
	case cfg.MetricsToken != "":
		logger.Info("prometheus metrics enabled at /metrics with bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		logger.Info("prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	cfg *config.Config,
	h handlerSet,
	rateLimiters rateLimitMiddlewares,
) {
	// Account routes
	r.POST("/register", rateLimiters.register, h.auth.Register)
	r.GET(handlers.LoginPath,
		middleware.RedirectAuthenticatedUser(cfg.DefaultRedirectURL),
		h.auth.LoginPrompt,
	)
	r.POST(handlers.LoginPath, rateLimiters.login, h.auth.Login)
	r.GET("/logout", h.auth.Logout)
	r.POST("/logout", h.auth.Logout)

	// OAuth2 endpoints
	oauth2 := r.Group("/oauth2")
	{
		oauth2.GET("/authorize", rateLimiters.authorize, h.oauth.Authorize)
		oauth2.POST("/token", rateLimiters.token, h.oauth.Token)
		oauth2.GET("/tokeninfo", h.oauth.TokenInfo)
	}

	// Authenticated API
	protected := r.Group("")
	protected.Use(middleware.RequireAuthentication())
	{
		protected.POST("/oauth2/clients", h.client.CreateClient)
		protected.GET("/oauth2/clients", h.client.ListClients)
		protected.GET("/oauth2/clients/:id", h.client.GetClient)
		protected.DELETE("/oauth2/clients/:id", h.client.DeleteClient)
		protected.GET("/users/:username", h.user.GetUser)
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config, logger *zap.Logger) {
	production := cfg.IsProduction()
	gin.SetMode(ginModeMap[production])
	logger.Info("gin mode", zap.String("mode", ginModeMap[production]))
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

// healthChecks lists the dependencies probed by /health
func (app *Application) healthChecks() map[string]handlers.HealthChecker {
	checks := map[string]handlers.HealthChecker{
		"database": app.DB,
	}
	if app.Config.AuthCodeStore == config.AuthCodeStoreRedis {
		checks["authcode_cache"] = app.AuthCodeCache
		checks["client_cache"] = app.ClientCache
	}
	return checks
}
