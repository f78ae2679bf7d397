package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/fielddb/fieldauth/internal/models"
	"github.com/fielddb/fieldauth/internal/store"
	"github.com/fielddb/fieldauth/internal/util"

	"go.uber.org/zap"
)

// Random bytes behind each opaque credential; hex encoding doubles the length
const (
	codeBytes  = 32
	tokenBytes = 32
)

// AuthorizeRequest carries the /oauth2/authorize query parameters
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	State        string
}

// AuthorizeResult tells the handler where to send the user agent.
// On errors raised after the redirect URI was validated the result is still
// returned so the error can be delivered to the client via redirect.
type AuthorizeResult struct {
	RedirectURI string
	State       string
	Code        *models.AuthorizationCode
}

// Authorize validates an authorization request for an authenticated user
// and issues a code bound to the client, the user and the redirect URI.
func (p *Provider) Authorize(
	ctx context.Context,
	req AuthorizeRequest,
	user *models.User,
) (*AuthorizeResult, error) {
	if user == nil {
		return nil, ErrInvalidRequest
	}

	info, err := p.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	redirectURI, ok := util.MatchRedirectURI(info.RedirectURIs, req.RedirectURI)
	if !ok {
		return nil, ErrRedirectURIMismatch
	}
	result := &AuthorizeResult{RedirectURI: redirectURI, State: req.State}

	if req.ResponseType != "code" {
		return result, ErrUnsupportedResponse
	}

	scope := normalizeScope(req.Scope)
	if scope == "" {
		scope = normalizeScope(info.Client.Scope)
	}
	allowed, err := p.scopes.Allowed(ctx, info.ID, models.SplitScope(scope))
	if err != nil {
		return result, err
	}
	if !allowed {
		return result, ErrInvalidScope
	}

	code, err := util.RandomToken(codeBytes)
	if err != nil {
		return result, err
	}
	saved, err := p.SaveAuthorizationCode(ctx, &models.AuthorizationCode{
		Code:        code,
		ExpiresAt:   p.now().Add(p.cfg.AuthCodeExpiration),
		RedirectURI: redirectURI,
		Scope:       scope,
	}, &info.Client, user)
	if err != nil {
		return result, err
	}

	p.logger.Debug("authorization code issued",
		zap.String("client_id", info.ID),
		zap.String("user_id", user.ID),
		zap.String("code", util.Fingerprint(code)),
	)
	result.Code = saved
	return result, nil
}

// AuthenticateClient resolves a client for the token endpoint. Confidential
// clients must present their secret; public clients present none.
func (p *Provider) AuthenticateClient(ctx context.Context, clientID, secret string) (*models.Client, error) {
	if clientID == "" {
		return nil, ErrClientInvalid
	}
	client, err := p.clients.ReadClient(ctx, store.ClientFilter{ClientID: clientID})
	if err != nil {
		p.metrics.RecordDatabaseQueryError("read_client")
		return nil, err
	}
	if client == nil || client.IsDeleted() || client.IsExpired(p.now()) {
		return nil, ErrClientInvalid
	}
	if client.IsConfidential() && !client.ValidateClientSecret(secret) {
		return nil, ErrClientInvalid
	}
	return client, nil
}

// ExchangeRequest carries the authorization_code grant parameters
type ExchangeRequest struct {
	Code         string
	RedirectURI  string
	ClientID     string
	ClientSecret string
}

// ExchangeAuthorizationCode redeems a code for a token pair. The code is
// consumed before it is matched against the client and redirect URI, so a
// mismatched attempt still burns it.
func (p *Provider) ExchangeAuthorizationCode(ctx context.Context, req ExchangeRequest) (*IssuedToken, error) {
	if req.Code == "" {
		return nil, ErrInvalidRequest
	}
	client, err := p.AuthenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}

	code, err := p.ConsumeAuthorizationCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if code.Client.ID != client.ClientID {
		p.logger.Warn("authorization code presented by another client",
			zap.String("client_id", client.ClientID),
			zap.String("code_client_id", code.Client.ID),
		)
		return nil, fmt.Errorf("%w: code was issued to another client", ErrInvalidGrant)
	}
	if code.RedirectURI != "" && req.RedirectURI != code.RedirectURI {
		return nil, fmt.Errorf("%w: redirect_uri does not match the authorization request", ErrInvalidGrant)
	}

	user, err := p.users.GetUserByID(ctx, code.User.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: resource owner is no longer active", ErrInvalidGrant)
	}

	return p.issue(ctx, GrantAuthorizationCode, client, user, code.Scope)
}

// RefreshRequest carries the refresh_token grant parameters
type RefreshRequest struct {
	RefreshToken string
	Scope        string
	ClientID     string
	ClientSecret string
}

// RefreshAccessToken issues a fresh token pair for a live refresh token.
// The requested scope may narrow but never widen the original grant.
// The presented refresh token is not invalidated, so it can be replayed
// until its RefreshTokenExpiresOn and each replay mints another access token.
func (p *Provider) RefreshAccessToken(ctx context.Context, req RefreshRequest) (*IssuedToken, error) {
	issued, err := p.refresh(ctx, req)
	p.metrics.RecordTokenRefresh(err == nil)
	return issued, err
}

func (p *Provider) refresh(ctx context.Context, req RefreshRequest) (*IssuedToken, error) {
	if req.RefreshToken == "" {
		return nil, ErrInvalidRequest
	}
	client, err := p.AuthenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}

	info, err := p.GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		p.metrics.RecordDatabaseQueryError("read_token")
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: refresh token is invalid or expired", ErrInvalidGrant)
	}
	if info.ClientID != client.ClientID {
		return nil, fmt.Errorf("%w: refresh token was issued to another client", ErrInvalidGrant)
	}

	scope := info.Scope
	if requested := normalizeScope(req.Scope); requested != "" {
		if !scopeSubset(models.SplitScope(requested), models.SplitScope(info.Scope)) {
			return nil, ErrInvalidScope
		}
		scope = requested
	}

	user, err := p.users.GetUserByID(ctx, info.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: resource owner is no longer active", ErrInvalidGrant)
	}

	return p.issue(ctx, GrantRefreshToken, client, user, scope)
}

// issue mints a raw access/refresh pair and hands it to SaveToken
func (p *Provider) issue(
	ctx context.Context,
	grantType string,
	client *models.Client,
	user *models.User,
	scope string,
) (*IssuedToken, error) {
	start := p.now()

	access, err := util.RandomToken(tokenBytes)
	if err != nil {
		return nil, err
	}
	refresh, err := util.RandomToken(tokenBytes)
	if err != nil {
		return nil, err
	}
	refreshExpiresOn := start.Add(p.cfg.RefreshTokenExpiration)

	issued, err := p.SaveToken(ctx, &models.Token{
		AccessToken:           access,
		AccessTokenExpiresAt:  start.Add(p.cfg.AccessTokenExpiration),
		RefreshToken:          refresh,
		RefreshTokenExpiresOn: &refreshExpiresOn,
		Scope:                 scope,
	}, client, user)
	if err != nil {
		p.logger.Error("failed to issue token",
			zap.String("grant_type", grantType),
			zap.String("client_id", client.ClientID),
			zap.Error(err),
		)
		return nil, err
	}

	p.metrics.RecordTokenIssued(grantType, time.Since(start))
	p.logger.Info("token issued",
		zap.String("grant_type", grantType),
		zap.String("client_id", client.ClientID),
		zap.String("user_id", user.ID),
	)
	return issued, nil
}
