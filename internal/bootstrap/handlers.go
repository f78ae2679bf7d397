package bootstrap

import (
	"github.com/fielddb/fieldauth/internal/config"
	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/handlers"
	"github.com/fielddb/fieldauth/internal/oauth"
	"github.com/fielddb/fieldauth/internal/services"

	"go.uber.org/zap"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	auth   *handlers.AuthHandler
	oauth  *handlers.OAuthHandler
	client *handlers.ClientHandler
	user   *handlers.UserHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	codec core.Codec,
	userService *services.UserService,
	clientService *services.ClientService,
	provider *oauth.Provider,
	recorder core.Recorder,
	logger *zap.Logger,
) handlerSet {
	production := cfg.IsProduction()
	return handlerSet{
		auth: handlers.NewAuthHandler(
			userService,
			codec,
			recorder,
			logger.Named("auth"),
			handlers.AuthConfig{
				BaseURL:           cfg.BaseURL,
				CookieName:        cfg.CookieName,
				CookieSecure:      cfg.CookieSecure,
				SessionExpiration: cfg.SessionExpiration,
				Production:        production,
			},
		),
		oauth:  handlers.NewOAuthHandler(provider, userService, logger.Named("oauth"), production),
		client: handlers.NewClientHandler(clientService, logger.Named("clients"), production),
		user:   handlers.NewUserHandler(userService, production),
	}
}
