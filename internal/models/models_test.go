package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ApplyDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Client{
		Title:     "Spreadsheet",
		HourLimit: 1_000_000,
		DayLimit:  1,
		Throttle:  0,
		ExpiresAt: now.Add(100 * 365 * 24 * time.Hour),
	}

	c.ApplyDefaults(now)

	assert.Len(t, c.ClientID, 36)
	assert.Equal(t, 600, c.HourLimit)
	assert.Equal(t, 6000, c.DayLimit)
	assert.Equal(t, 500, c.Throttle)
	assert.Equal(t, now.Add(5*365*24*time.Hour), c.ExpiresAt)

	id := c.ClientID
	c.ApplyDefaults(now)
	assert.Equal(t, id, c.ClientID, "existing id is kept")
}

func TestClient_Secret(t *testing.T) {
	c := &Client{}
	assert.False(t, c.IsConfidential())
	assert.False(t, c.ValidateClientSecret(""))

	secret, err := c.GenerateClientSecret()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret, ClientSecretPrefix))
	assert.NotEqual(t, secret, c.ClientSecret)
	assert.True(t, c.IsConfidential())

	assert.True(t, c.ValidateClientSecret(secret))
	assert.False(t, c.ValidateClientSecret(secret+"x"))
}

func TestClient_JSONNeverExposesSecret(t *testing.T) {
	c := Client{ClientID: "c1", ClientSecret: "$2a$10$hash", Scope: "read"}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hash")
	assert.NotContains(t, string(data), "client_secret")

	assert.Empty(t, c.Redacted().ClientSecret)
	assert.Equal(t, "$2a$10$hash", c.ClientSecret, "Redacted returns a copy")
}

func TestClient_Helpers(t *testing.T) {
	now := time.Now()
	c := &Client{
		ClientID:    "c1",
		Scope:       "corpus:read, corpus:write",
		RedirectURI: "https://a.example/cb  http://localhost:3000/cb",
		ExpiresAt:   now.Add(time.Hour),
	}

	assert.Equal(t, []string{"corpus:read", "corpus:write"}, c.Scopes())
	assert.Equal(t, []string{"https://a.example/cb", "http://localhost:3000/cb"}, c.RedirectURIs())
	assert.False(t, c.IsExpired(now))
	assert.True(t, c.IsExpired(now.Add(time.Hour)))
	assert.Equal(t, ClientRef{ID: "c1", Scope: "corpus:read, corpus:write"}, c.Ref())
}

func TestUser_Redacted(t *testing.T) {
	deleted := time.Now()
	u := User{
		ID:            "u1",
		Username:      "alice",
		Hash:          "$2a$10$hash",
		DeletedAt:     &deleted,
		DeletedReason: "spam",
	}

	r := u.Redacted()
	assert.Empty(t, r.Hash)
	assert.Nil(t, r.DeletedAt)
	assert.Empty(t, r.DeletedReason)
	assert.Equal(t, "alice", r.Username)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hash")
	assert.NotContains(t, string(data), "deletedAt")
	assert.NotContains(t, string(data), "deletedReason")
}

func TestToken_Expiry(t *testing.T) {
	now := time.Now()
	refreshExp := now.Add(time.Hour)
	tok := &Token{AccessTokenExpiresAt: now.Add(time.Minute), RefreshTokenExpiresOn: &refreshExp}

	assert.False(t, tok.IsAccessTokenExpired(now))
	assert.True(t, tok.IsAccessTokenExpired(now.Add(time.Minute)))
	assert.False(t, tok.IsRefreshTokenExpired(now.Add(30*time.Minute)))
	assert.True(t, tok.IsRefreshTokenExpired(now.Add(2*time.Hour)))

	tok.RefreshTokenExpiresOn = nil
	assert.False(t, tok.IsRefreshTokenExpired(now.Add(1000*time.Hour)))
}

func TestAuthorizationCode_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"not expired", time.Now().Add(time.Hour), false},
		{"already expired", time.Now().Add(-time.Second), true},
		{"zero time is expired", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := &AuthorizationCode{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, code.IsExpired(time.Now()))
		})
	}
}
