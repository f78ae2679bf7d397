package middleware

import (
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/fielddb/fieldauth/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func newTestCodec(t *testing.T, opts ...token.Option) *token.Codec {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		testKey, err = token.GenerateKeyPair(2048)
		if err != nil {
			panic(err)
		}
	})
	codec, err := token.NewCodec(testKey, nil, opts...)
	require.NoError(t, err)
	return codec
}

func sessionToken(t *testing.T, codec *token.Codec, ttl time.Duration) string {
	t.Helper()
	signed, err := codec.Sign(map[string]any{
		"user": map[string]any{"id": "u1", "username": "alice"},
	}, ttl)
	require.NoError(t, err)
	return signed
}

// setupAuthRouter exposes what Authenticate attached to the request
func setupAuthRouter(codec *token.Codec, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(codec, zap.NewNop()))
	handlers := append(extra, func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusOK, gin.H{"authenticated": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"authenticated": true,
			"username":      user.Username,
			"id":            user.UserID(),
			"expired":       user.Expired,
		})
	})
	r.GET("/whoami", handlers...)
	return r
}

func TestAuthenticate_NoToken(t *testing.T) {
	r := setupAuthRouter(newTestCodec(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
	assert.Empty(t, w.Header().Get("Authorization"))
}

func TestAuthenticate_ValidHeader(t *testing.T) {
	codec := newTestCodec(t)
	r := setupAuthRouter(codec)
	signed := sessionToken(t, codec, time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true,"username":"alice","id":"u1","expired":false}`, w.Body.String())
	assert.Equal(t, "Bearer "+signed, w.Header().Get("Authorization"))
}

func TestAuthenticate_ValidCookie(t *testing.T) {
	codec := newTestCodec(t)
	r := setupAuthRouter(codec)
	signed := sessionToken(t, codec, time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Cookie", "theme=dark; Authorization="+url.QueryEscape("Bearer "+signed))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.Equal(t, "Bearer "+signed, w.Header().Get("Authorization"))
}

func TestAuthenticate_HeaderWinsOverCookie(t *testing.T) {
	codec := newTestCodec(t)
	r := setupAuthRouter(codec)
	signed := sessionToken(t, codec, time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	req.Header.Set("Cookie", "Authorization="+url.QueryEscape("Bearer garbage"))
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), `"authenticated":true`)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, token.WithClock(func() time.Time { return now }))
	signed := sessionToken(t, codec, time.Minute)
	now = now.Add(2 * time.Minute)

	r := setupAuthRouter(codec)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true,"username":"alice","id":"u1","expired":true}`, w.Body.String())
	assert.Empty(t, w.Header().Get("Authorization"), "expired tokens are not echoed")
}

func TestAuthenticate_GarbageContinuesAnonymous(t *testing.T) {
	r := setupAuthRouter(newTestCodec(t))

	for _, raw := range []string{"Bearer v1/not-a-jwt", "Bearer ", "v1/a.b"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", raw)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, raw)
		assert.JSONEq(t, `{"authenticated":false}`, w.Body.String(), raw)
	}
}

func TestAuthenticate_ForeignKeyTreatedAsExpiredContext(t *testing.T) {
	// Decode does not check signatures, so a token signed by another key is
	// attached with Expired set and is still refused by RequireAuthentication.
	other, err := token.GenerateKeyPair(2048)
	require.NoError(t, err)
	foreign, err := token.NewCodec(other, nil)
	require.NoError(t, err)
	signed := sessionToken(t, foreign, time.Hour)

	r := setupAuthRouter(newTestCodec(t), RequireAuthentication())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	// without the gate the claims are attached but flagged as untrusted
	r = setupAuthRouter(newTestCodec(t))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["expired"])
}

func TestRequireAuthentication(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, token.WithClock(func() time.Time { return now }))
	valid := sessionToken(t, codec, time.Hour)
	expired := sessionToken(t, codec, time.Minute)
	now = now.Add(2 * time.Minute)

	r := setupAuthRouter(codec, RequireAuthentication())

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"anonymous", "", http.StatusForbidden, "Authentication required"},
		{"expired", "Bearer " + expired, http.StatusForbidden, "Session has expired"},
		{"valid", "Bearer " + valid, http.StatusOK, `"username":"alice"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			if tt.wantStatus == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), `"status":403`)
				assert.Contains(t, w.Body.String(), `"error":"access_denied"`)
			}
		})
	}
}

func TestRedirectAuthenticatedUser(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, token.WithClock(func() time.Time { return now }))
	valid := sessionToken(t, codec, time.Hour)
	expired := sessionToken(t, codec, time.Minute)
	now = now.Add(2 * time.Minute)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(codec, zap.NewNop()))
	r.GET("/login", RedirectAuthenticatedUser("/users/{{username}}"), func(c *gin.Context) {
		c.String(http.StatusOK, "login form")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/users/alice", w.Header().Get("Location"))

	for _, header := range []string{"", "Bearer " + expired} {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/login", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "login form", w.Body.String())
	}
}

func TestExpandRedirect(t *testing.T) {
	assert.Equal(t, "/users/alice", ExpandRedirect("/users/{{username}}", "alice"))
	assert.Equal(t, "/users/a%2Fb", ExpandRedirect("/users/{{username}}", "a/b"))
	assert.Equal(t, "/home", ExpandRedirect("/home", "alice"))
}

func TestAuthenticate_CustomCookieName(t *testing.T) {
	codec := newTestCodec(t)
	signed := sessionToken(t, codec, time.Hour)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(codec, nil, WithCookieName("fa_session")))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "fa_session", Value: url.QueryEscape("Bearer " + signed)})
	r.ServeHTTP(w, req)

	assert.Equal(t, "alice", w.Body.String())
}
