package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/fielddb/fieldauth/internal/core"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ContextUserKey is the gin context key holding the *AuthUser
	ContextUserKey = "user"

	// DefaultCookieName is the cookie carrying "Bearer <token>" for browser sessions
	DefaultCookieName = "Authorization"

	// UsernamePlaceholder is substituted in redirect targets
	UsernamePlaceholder = "{{username}}"

	bearerPrefix = "Bearer "
)

var (
	// ErrAuthenticationRequired is returned when no token was presented
	ErrAuthenticationRequired = core.NewError(http.StatusForbidden, "Authentication required")

	// ErrSessionExpired is returned when the presented token has expired
	ErrSessionExpired = core.NewError(http.StatusForbidden, "Session has expired, please log in again")
)

// AuthUser is what Authenticate attaches to the request
type AuthUser struct {
	Claims   core.Claims
	User     map[string]any // the "user" claim, or the whole claim set when absent
	Username string
	Token    string // the raw token as presented, without "Bearer "
	Expired  bool   // set when the token decodes but did not verify; its claims are untrusted
}

type authOptions struct {
	cookieName string
}

// AuthOption configures Authenticate
type AuthOption func(*authOptions)

// WithCookieName reads the session token from a cookie other than "Authorization"
func WithCookieName(name string) AuthOption {
	return func(o *authOptions) {
		if name != "" {
			o.cookieName = name
		}
	}
}

// Authenticate resolves the caller from an Authorization header or cookie.
// It never rejects a request: handlers and the gates below decide what an
// anonymous or expired caller may do.
func Authenticate(codec core.Codec, logger *zap.Logger, opts ...AuthOption) gin.HandlerFunc {
	o := authOptions{cookieName: DefaultCookieName}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		raw := extractToken(c, o.cookieName)
		if raw == "" {
			c.Next()
			return
		}

		claims, err := codec.Verify(raw)
		if err == nil {
			c.Set(ContextUserKey, newAuthUser(claims, raw, false))
			c.Header("Authorization", bearerPrefix+raw)
			c.Next()
			return
		}

		// The signature may be fine and only exp has passed: keep enough
		// context for the caller to be redirected to login.
		claims, decodeErr := codec.Decode(raw)
		if decodeErr != nil {
			logger.Debug("ignoring undecodable token",
				zap.String("path", c.Request.URL.Path),
				zap.NamedError("verify_error", err),
				zap.NamedError("decode_error", decodeErr),
			)
			c.Next()
			return
		}

		c.Set(ContextUserKey, newAuthUser(claims, raw, true))
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return trimBearer(header)
	}
	// gin unescapes the cookie value, so "Bearer%20<t>" arrives as "Bearer <t>"
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return trimBearer(cookie)
	}
	return ""
}

func trimBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= len(bearerPrefix) && strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		v = v[len(bearerPrefix):]
	}
	return strings.TrimSpace(v)
}

func newAuthUser(claims core.Claims, raw string, expired bool) *AuthUser {
	user, ok := claims["user"].(map[string]any)
	if !ok {
		user = claims
	}
	username, _ := user["username"].(string)
	return &AuthUser{
		Claims:   claims,
		User:     user,
		Username: username,
		Token:    raw,
		Expired:  expired,
	}
}

// CurrentUser returns the caller attached by Authenticate, or nil
func CurrentUser(c *gin.Context) *AuthUser {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*AuthUser)
	return user
}

// UserID returns the "id" of the authenticated user, or ""
func (u *AuthUser) UserID() string {
	if u == nil {
		return ""
	}
	id, _ := u.User["id"].(string)
	return id
}

// RequireAuthentication rejects anonymous and expired callers with 403
func RequireAuthentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		switch {
		case user == nil:
			abortWithError(c, ErrAuthenticationRequired)
		case user.Expired:
			abortWithError(c, ErrSessionExpired)
		default:
			c.Next()
		}
	}
}

// RedirectAuthenticatedUser sends callers holding a live session to target,
// with {{username}} replaced by their username. Everyone else passes through.
func RedirectAuthenticatedUser(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Expired {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, ExpandRedirect(target, user.Username))
		c.Abort()
	}
}

// ExpandRedirect substitutes the username placeholder in target
func ExpandRedirect(target, username string) string {
	return strings.ReplaceAll(target, UsernamePlaceholder, url.PathEscape(username))
}

func abortWithError(c *gin.Context, err error) {
	status := core.StatusCode(err)
	msg, _ := core.Message(err)
	c.AbortWithStatusJSON(status, gin.H{
		"status":            status,
		"error":             "access_denied",
		"error_description": msg,
	})
}
