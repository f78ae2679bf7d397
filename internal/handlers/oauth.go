package handlers

import (
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/middleware"
	"github.com/fielddb/fieldauth/internal/oauth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoginPath is where unauthenticated users are sent from /oauth2/authorize
const LoginPath = "/login"

type OAuthHandler struct {
	provider *oauth.Provider
	users    core.UserDirectory
	logger   *zap.Logger
	now      func() time.Time
	errorResponder
}

func NewOAuthHandler(
	provider *oauth.Provider,
	users core.UserDirectory,
	logger *zap.Logger,
	production bool,
) *OAuthHandler {
	return &OAuthHandler{
		provider:       provider,
		users:          users,
		logger:         logger,
		now:            time.Now,
		errorResponder: errorResponder{production: production},
	}
}

// Authorize handles GET /oauth2/authorize for the authorization code grant.
// Callers without a live session are sent to the login page first.
func (h *OAuthHandler) Authorize(c *gin.Context) {
	session := middleware.CurrentUser(c)
	if session == nil || session.Expired {
		h.redirectToLogin(c)
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), session.UserID())
	if err != nil {
		h.logger.Info("session user no longer active", zap.String("user_id", session.UserID()), zap.Error(err))
		h.redirectToLogin(c)
		return
	}

	result, err := h.provider.Authorize(c.Request.Context(), oauth.AuthorizeRequest{
		ResponseType: c.Query("response_type"),
		ClientID:     c.Query("client_id"),
		RedirectURI:  c.Query("redirect_uri"),
		Scope:        c.Query("scope"),
		State:        c.Query("state"),
	}, user)
	if err != nil {
		if result == nil {
			// client or redirect URI not trusted: never redirect
			h.respond(c, err)
			return
		}
		h.redirectWithParams(c, result.RedirectURI, url.Values{
			"error":             {oauth.ErrorCode(err)},
			"error_description": {h.describe(err)},
		}, result.State)
		return
	}

	h.redirectWithParams(c, result.RedirectURI, url.Values{"code": {result.Code.Code}}, result.State)
}

func (h *OAuthHandler) redirectToLogin(c *gin.Context) {
	target := LoginPath + "?redirect=" + url.QueryEscape(c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, target)
}

func (h *OAuthHandler) redirectWithParams(c *gin.Context, redirectURI string, params url.Values, state string) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		h.respond(c, oauth.ErrRedirectURIMismatch)
		return
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, u.String())
}

// TokenResponse is the RFC 6749 section 5.1 success body
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Token handles POST /oauth2/token. Client credentials are accepted through
// HTTP Basic auth or the client_id / client_secret form fields.
func (h *OAuthHandler) Token(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	clientID, clientSecret, basic := c.Request.BasicAuth()
	if !basic {
		clientID = c.PostForm("client_id")
		clientSecret = c.PostForm("client_secret")
	}

	var (
		issued *oauth.IssuedToken
		err    error
	)
	switch grantType := c.PostForm("grant_type"); grantType {
	case oauth.GrantAuthorizationCode:
		issued, err = h.provider.ExchangeAuthorizationCode(c.Request.Context(), oauth.ExchangeRequest{
			Code:         c.PostForm("code"),
			RedirectURI:  c.PostForm("redirect_uri"),
			ClientID:     clientID,
			ClientSecret: clientSecret,
		})
	case oauth.GrantRefreshToken:
		issued, err = h.provider.RefreshAccessToken(c.Request.Context(), oauth.RefreshRequest{
			RefreshToken: c.PostForm("refresh_token"),
			Scope:        c.PostForm("scope"),
			ClientID:     clientID,
			ClientSecret: clientSecret,
		})
	case "":
		err = oauth.ErrInvalidRequest
	default:
		err = oauth.ErrUnsupportedGrantType
	}
	if err != nil {
		h.tokenError(c, err, basic)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  issued.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    h.expiresIn(issued.AccessTokenExpiresAt),
		RefreshToken: issued.RefreshToken,
		Scope:        issued.Scope,
	})
}

// expiresIn reports the registry lifetime; the record, not the JWT, decides validity
func (h *OAuthHandler) expiresIn(expiresAt time.Time) int64 {
	return int64(math.Max(0, math.Round(expiresAt.Sub(h.now()).Seconds())))
}

// tokenError applies the RFC 6749 section 5.2 status rules
func (h *OAuthHandler) tokenError(c *gin.Context, err error, basic bool) {
	status := http.StatusBadRequest
	switch code := oauth.ErrorCode(err); code {
	case oauth.CodeInvalidClient:
		status = http.StatusUnauthorized
		if basic {
			c.Header("WWW-Authenticate", `Basic realm="fieldauth"`)
		}
	case oauth.CodeServerError:
		status = http.StatusInternalServerError
		h.logger.Error("token request failed", zap.Error(err))
	}
	h.respondStatus(c, status, err)
}

// TokenInfo handles GET /oauth2/tokeninfo for the bearer token in the Authorization header
func (h *OAuthHandler) TokenInfo(c *gin.Context) {
	bearer := c.GetHeader("Authorization")
	if bearer == "" {
		c.Header("WWW-Authenticate", `Bearer realm="fieldauth"`)
		h.respondStatus(c, http.StatusUnauthorized, oauth.ErrAccessTokenNotFound)
		return
	}

	info, err := h.provider.GetAccessToken(c.Request.Context(), bearer)
	if err != nil {
		status := http.StatusUnauthorized
		if oauth.ErrorCode(err) == oauth.CodeServerError {
			status = http.StatusInternalServerError
		}
		c.Header("WWW-Authenticate", `Bearer realm="fieldauth", error="invalid_token"`)
		h.respondStatus(c, status, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active":               true,
		"client_id":            info.Client.ID,
		"user_id":              info.User.ID,
		"scope":                info.Scope,
		"accessTokenExpiresAt": info.AccessTokenExpiresAt,
		"expires_in":           h.expiresIn(info.AccessTokenExpiresAt),
	})
}
