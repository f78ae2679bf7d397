package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fielddb/fieldauth/internal/authcode"
	"github.com/fielddb/fieldauth/internal/cache"
	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/metrics"
	"github.com/fielddb/fieldauth/internal/models"
	"github.com/fielddb/fieldauth/internal/store"
	"github.com/fielddb/fieldauth/internal/token"

	"go.uber.org/zap"
)

// Grant types advertised for every registered client
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// Default lifetimes used when Config leaves a field zero
const (
	DefaultJWTExpiration          = 24 * time.Hour
	DefaultAccessTokenExpiration  = time.Hour
	DefaultRefreshTokenExpiration = 14 * 24 * time.Hour
	DefaultAuthCodeExpiration     = 10 * time.Minute
	DefaultClientCacheTTL         = time.Minute
)

// ClientRegistry is the read side of the client store
type ClientRegistry interface {
	ReadClient(ctx context.Context, filter store.ClientFilter) (*models.Client, error)
}

// TokenRegistry persists and looks up issued token pairs
type TokenRegistry interface {
	CreateToken(ctx context.Context, token *models.Token) (*models.Token, error)
	ReadToken(ctx context.Context, filter store.TokenFilter) (*models.Token, error)
}

// Config holds token lifetimes
type Config struct {
	JWTExpiration          time.Duration // lifetime of the signed JWT, independent of the registry record
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	AuthCodeExpiration     time.Duration
	ClientCacheTTL         time.Duration
}

func (c Config) withDefaults() Config {
	if c.JWTExpiration <= 0 {
		c.JWTExpiration = DefaultJWTExpiration
	}
	if c.AccessTokenExpiration <= 0 {
		c.AccessTokenExpiration = DefaultAccessTokenExpiration
	}
	if c.RefreshTokenExpiration <= 0 {
		c.RefreshTokenExpiration = DefaultRefreshTokenExpiration
	}
	if c.AuthCodeExpiration <= 0 {
		c.AuthCodeExpiration = DefaultAuthCodeExpiration
	}
	if c.ClientCacheTTL <= 0 {
		c.ClientCacheTTL = DefaultClientCacheTTL
	}
	return c
}

// Options are the collaborators a Provider is composed from.
// Clients, Tokens, Codes, Codec, Users and Scopes are required.
type Options struct {
	Clients     ClientRegistry
	Tokens      TokenRegistry
	Codes       authcode.Store
	Codec       core.Codec
	Users       core.UserDirectory
	Scopes      ScopePolicy
	ClientCache core.Cache[models.Client] // defaults to a process-local cache
	Metrics     core.Recorder             // defaults to no-op
	Logger      *zap.Logger               // defaults to no-op
	Config      Config
}

// Provider implements the OAuth2 provider model on top of the registries,
// the authorization code store and the token codec.
type Provider struct {
	clients     ClientRegistry
	tokens      TokenRegistry
	codes       authcode.Store
	codec       core.Codec
	users       core.UserDirectory
	scopes      ScopePolicy
	clientCache core.Cache[models.Client]
	metrics     core.Recorder
	logger      *zap.Logger
	cfg         Config
	now         func() time.Time
}

// NewProvider validates opts and builds a Provider. A scope policy must be
// supplied explicitly; there is no permissive default.
func NewProvider(opts Options) (*Provider, error) {
	switch {
	case opts.Clients == nil:
		return nil, errors.New("oauth: client registry is required")
	case opts.Tokens == nil:
		return nil, errors.New("oauth: token registry is required")
	case opts.Codes == nil:
		return nil, errors.New("oauth: authorization code store is required")
	case opts.Codec == nil:
		return nil, errors.New("oauth: token codec is required")
	case opts.Users == nil:
		return nil, errors.New("oauth: user directory is required")
	case opts.Scopes == nil:
		return nil, errors.New("oauth: scope policy is required")
	}

	p := &Provider{
		clients:     opts.Clients,
		tokens:      opts.Tokens,
		codes:       opts.Codes,
		codec:       opts.Codec,
		users:       opts.Users,
		scopes:      opts.Scopes,
		clientCache: opts.ClientCache,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		cfg:         opts.Config.withDefaults(),
		now:         time.Now,
	}
	if p.clientCache == nil {
		p.clientCache = cache.NewMemoryCache[models.Client]()
	}
	if p.metrics == nil {
		p.metrics = metrics.NewNoopMetrics()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p, nil
}

// ClientInfo is the secret-free view of a client handed to grant flows
type ClientInfo struct {
	Client       models.Client `json:"client"`
	ID           string        `json:"id"`
	Grants       []string      `json:"grants"`
	RedirectURIs []string      `json:"redirectUris"`
}

// GetClient returns the client projection without its secret. Missing,
// soft-deleted and expired clients yield ErrClientInvalid.
func (p *Provider) GetClient(ctx context.Context, clientID string) (*ClientInfo, error) {
	if clientID == "" {
		return nil, ErrClientInvalid
	}

	client, err := p.clientCache.GetWithFetch(
		ctx,
		"client:"+clientID,
		p.cfg.ClientCacheTTL,
		func(ctx context.Context, _ string) (models.Client, error) {
			c, err := p.clients.ReadClient(ctx, store.ClientFilter{ClientID: clientID})
			if err != nil {
				p.metrics.RecordDatabaseQueryError("read_client")
				return models.Client{}, err
			}
			if c == nil {
				return models.Client{}, ErrClientInvalid
			}
			return c.Redacted(), nil
		},
	)
	if err != nil {
		return nil, err
	}
	if client.IsDeleted() || client.IsExpired(p.now()) {
		return nil, ErrClientInvalid
	}

	return &ClientInfo{
		Client:       client,
		ID:           client.ClientID,
		Grants:       []string{GrantAuthorizationCode, GrantRefreshToken},
		RedirectURIs: client.RedirectURIs(),
	}, nil
}

// GetUser verifies a username/password pair; errors pass through unchanged
func (p *Provider) GetUser(ctx context.Context, username, password string) (*models.User, error) {
	return p.users.VerifyPassword(ctx, username, password)
}

// SaveAuthorizationCode binds code to client and user and stores it
func (p *Provider) SaveAuthorizationCode(
	ctx context.Context,
	code *models.AuthorizationCode,
	client *models.Client,
	user *models.User,
) (*models.AuthorizationCode, error) {
	if code == nil || client == nil || user == nil {
		return nil, core.ErrInvalidOptions
	}
	stored := *code
	stored.Client = client.Ref()
	stored.User = user.Ref()

	saved, err := p.codes.Save(ctx, &stored)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordAuthorizationCode(metrics.CodeIssued)
	return saved, nil
}

// GetAuthorizationCode reads a code without consuming it
func (p *Provider) GetAuthorizationCode(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	return p.codes.Get(ctx, code)
}

// RevokeAuthorizationCode invalidates a code; revoking an unknown code is not an error
func (p *Provider) RevokeAuthorizationCode(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	revoked, err := p.codes.Revoke(ctx, code)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordAuthorizationCode(metrics.CodeRevoked)
	return revoked, nil
}

// ConsumeAuthorizationCode reads and invalidates a code in one step.
// Of concurrent callers presenting the same code at most one succeeds.
func (p *Provider) ConsumeAuthorizationCode(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	consumed, err := p.codes.Consume(ctx, code)
	if err != nil {
		p.metrics.RecordAuthorizationCode(metrics.CodeRejected)
		return nil, err
	}
	p.metrics.RecordAuthorizationCode(metrics.CodeConsumed)
	return consumed, nil
}

// IssuedToken is the result of SaveToken. AccessToken carries the signed JWT,
// not the raw registry token.
type IssuedToken struct {
	JWT                   string           `json:"jwt"`
	AccessToken           string           `json:"accessToken"`
	AccessTokenExpiresAt  time.Time        `json:"accessTokenExpiresAt"`
	RefreshToken          string           `json:"refreshToken,omitempty"`
	RefreshTokenExpiresOn *time.Time       `json:"refreshTokenExpiresOn,omitempty"`
	Scope                 string           `json:"scope,omitempty"`
	Client                models.ClientRef `json:"client"`
	User                  models.User      `json:"user"`
}

// jwtClaims is the body signed into every issued access token
type jwtClaims struct {
	AccessToken           string           `json:"accessToken"`
	AccessTokenExpiresAt  time.Time        `json:"accessTokenExpiresAt"`
	RefreshToken          string           `json:"refreshToken,omitempty"`
	RefreshTokenExpiresOn *time.Time       `json:"refreshTokenExpiresOn,omitempty"`
	Scope                 string           `json:"scope,omitempty"`
	Client                models.ClientRef `json:"client"`
	User                  models.User      `json:"user"`
}

// SaveToken persists token for client and user, then signs it into a JWT
// with the fixed JWT lifetime.
func (p *Provider) SaveToken(
	ctx context.Context,
	tok *models.Token,
	client *models.Client,
	user *models.User,
) (*IssuedToken, error) {
	if tok == nil || tok.AccessToken == "" || client == nil || client.ClientID == "" ||
		user == nil || user.ID == "" {
		return nil, core.ErrInvalidOptions
	}

	record := *tok
	record.ClientID = client.ClientID
	record.UserID = user.ID
	if record.AccessTokenExpiresAt.IsZero() {
		record.AccessTokenExpiresAt = p.now().Add(p.cfg.AccessTokenExpiration)
	}

	saved, err := p.tokens.CreateToken(ctx, &record)
	if err != nil {
		p.metrics.RecordDatabaseQueryError("create_token")
		return nil, err
	}

	clientRef := models.ClientRef{ID: client.ClientID, Scope: client.Scope}
	redactedUser := user.Redacted()

	signed, err := p.codec.Sign(jwtClaims{
		AccessToken:           saved.AccessToken,
		AccessTokenExpiresAt:  saved.AccessTokenExpiresAt,
		RefreshToken:          saved.RefreshToken,
		RefreshTokenExpiresOn: saved.RefreshTokenExpiresOn,
		Scope:                 saved.Scope,
		Client:                clientRef,
		User:                  redactedUser,
	}, p.cfg.JWTExpiration)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &IssuedToken{
		JWT:                   signed,
		AccessToken:           signed,
		AccessTokenExpiresAt:  saved.AccessTokenExpiresAt,
		RefreshToken:          saved.RefreshToken,
		RefreshTokenExpiresOn: saved.RefreshTokenExpiresOn,
		Scope:                 saved.Scope,
		Client:                clientRef,
		User:                  redactedUser,
	}, nil
}

// IDRef is an {"id": ...} reference
type IDRef struct {
	ID string `json:"id"`
}

// AccessTokenInfo describes a live access token
type AccessTokenInfo struct {
	AccessToken          string    `json:"accessToken"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt"`
	Scope                string    `json:"scope,omitempty"`
	Client               IDRef     `json:"client"`
	User                 IDRef     `json:"user"`
}

// GetAccessToken verifies a bearer JWT and resolves the access token it
// wraps. The registry record decides whether the token is still live: a
// missing, soft-deleted or expired record yields ErrAccessTokenNotFound
// even while the JWT itself verifies.
func (p *Provider) GetAccessToken(ctx context.Context, bearer string) (*AccessTokenInfo, error) {
	start := p.now()

	claims, err := p.codec.Verify(bearer)
	if err != nil {
		p.metrics.RecordTokenValidation(validationResult(err), time.Since(start))
		return nil, err
	}

	raw, _ := claims["accessToken"].(string)
	if raw == "" {
		p.metrics.RecordTokenValidation(metrics.ValidationInvalid, time.Since(start))
		return nil, ErrAccessTokenNotFound
	}

	record, err := p.tokens.ReadToken(ctx, store.TokenFilter{AccessToken: raw})
	if err != nil {
		p.metrics.RecordDatabaseQueryError("read_token")
		return nil, err
	}
	if record == nil || record.IsDeleted() || record.IsAccessTokenExpired(p.now()) {
		p.metrics.RecordTokenValidation(metrics.ValidationRevoked, time.Since(start))
		return nil, ErrAccessTokenNotFound
	}

	p.metrics.RecordTokenValidation(metrics.ValidationValid, time.Since(start))
	return &AccessTokenInfo{
		AccessToken:          record.AccessToken,
		AccessTokenExpiresAt: record.AccessTokenExpiresAt,
		Scope:                record.Scope,
		Client:               IDRef{ID: record.ClientID},
		User:                 IDRef{ID: record.UserID},
	}, nil
}

// RefreshTokenInfo describes a live refresh token
type RefreshTokenInfo struct {
	RefreshToken          string     `json:"refreshToken"`
	RefreshTokenExpiresOn *time.Time `json:"refreshTokenExpiresOn,omitempty"`
	AccessToken           string     `json:"accessToken"`
	AccessTokenExpiresAt  time.Time  `json:"accessTokenExpiresAt"`
	Scope                 string     `json:"scope,omitempty"`
	ClientID              string     `json:"clientId"`
	UserID                string     `json:"userId"`
}

// GetRefreshToken looks a refresh token up in the registry. Unknown and
// expired refresh tokens return (nil, nil).
func (p *Provider) GetRefreshToken(ctx context.Context, refreshToken string) (*RefreshTokenInfo, error) {
	record, err := p.tokens.ReadToken(ctx, store.TokenFilter{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	if record == nil || record.IsRefreshTokenExpired(p.now()) {
		return nil, nil
	}
	return &RefreshTokenInfo{
		RefreshToken:          record.RefreshToken,
		RefreshTokenExpiresOn: record.RefreshTokenExpiresOn,
		AccessToken:           record.AccessToken,
		AccessTokenExpiresAt:  record.AccessTokenExpiresAt,
		Scope:                 record.Scope,
		ClientID:              record.ClientID,
		UserID:                record.UserID,
	}, nil
}

// VerifyScope asks the scope policy whether the token's client may use scope
func (p *Provider) VerifyScope(ctx context.Context, info *AccessTokenInfo, scope string) (bool, error) {
	if info == nil {
		return false, core.ErrInvalidOptions
	}
	return p.scopes.Allowed(ctx, info.Client.ID, models.SplitScope(scope))
}

// Codec exposes the token codec so handlers can sign session tokens with the same keys
func (p *Provider) Codec() core.Codec {
	return p.codec
}

func validationResult(err error) string {
	if errors.Is(err, token.ErrExpiredToken) {
		return metrics.ValidationExpired
	}
	return metrics.ValidationInvalid
}
