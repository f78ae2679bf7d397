package bootstrap

import (
	"fmt"

	"github.com/fielddb/fieldauth/internal/authcode"
	"github.com/fielddb/fieldauth/internal/config"
	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/models"
	"github.com/fielddb/fieldauth/internal/oauth"
	"github.com/fielddb/fieldauth/internal/services"
	"github.com/fielddb/fieldauth/internal/store"
	"github.com/fielddb/fieldauth/internal/token"

	"go.uber.org/zap"
)

// initializeServices creates the account and client services
func initializeServices(
	db *store.Store,
	recorder core.Recorder,
	logger *zap.Logger,
) (*services.UserService, *services.ClientService) {
	userService := services.NewUserService(db, recorder, logger.Named("users"))
	clientService := services.NewClientService(db, logger.Named("clients"))
	return userService, clientService
}

// initializeProvider composes the OAuth2 provider from the registries,
// the code store and the codec
func initializeProvider(
	cfg *config.Config,
	db *store.Store,
	codec *token.Codec,
	users core.UserDirectory,
	clientCache core.Cache[models.Client],
	authCodeCache core.Cache[models.AuthorizationCode],
	recorder core.Recorder,
	logger *zap.Logger,
) (*oauth.Provider, error) {
	provider, err := oauth.NewProvider(oauth.Options{
		Clients:     db,
		Tokens:      db,
		Codes:       authcode.NewCacheStore(authCodeCache),
		Codec:       codec,
		Users:       users,
		Scopes:      selectScopePolicy(cfg, db, logger),
		ClientCache: clientCache,
		Metrics:     recorder,
		Logger:      logger.Named("oauth"),
		Config: oauth.Config{
			JWTExpiration:          cfg.JWTExpiration,
			AccessTokenExpiration:  cfg.AccessTokenExpiration,
			RefreshTokenExpiration: cfg.RefreshTokenExpiration,
			AuthCodeExpiration:     cfg.AuthCodeExpiration,
			ClientCacheTTL:         cfg.ClientCacheTTL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth provider: %w", err)
	}
	return provider, nil
}

// selectScopePolicy maps SCOPE_POLICY to a policy. Config.Validate has
// already refused "allow" in production.
func selectScopePolicy(cfg *config.Config, db *store.Store, logger *zap.Logger) oauth.ScopePolicy {
	if cfg.ScopePolicy == config.ScopePolicyAllow {
		logger.Warn("scope policy allows every requested scope; do not use outside development")
		return oauth.AllowAllScopes
	}
	return oauth.ClientScopePolicy(db)
}
