package models

import "time"

// ClientRef identifies the client an authorization code or token was issued to
type ClientRef struct {
	ID    string `json:"client_id"`
	Scope string `json:"scope,omitempty"`
}

// UserRef identifies the resource owner who approved an authorization code
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// AuthorizationCode is a short-lived grant awaiting exchange for a token.
// It lives only in the authorization code store, never in the database.
type AuthorizationCode struct {
	Code        string    `json:"authorizationCode"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RedirectURI string    `json:"redirectUri,omitempty"`
	Scope       string    `json:"scope,omitempty"`
	Client      ClientRef `json:"client"`
	User        UserRef   `json:"user"`
}

func (a *AuthorizationCode) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}
