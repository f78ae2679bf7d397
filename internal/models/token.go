package models

import (
	"time"
)

// Token is an issued access/refresh token pair
type Token struct {
	ID                    string     `gorm:"primaryKey;size:36" json:"id"`
	AccessToken           string     `gorm:"uniqueIndex;not null" json:"accessToken"`
	AccessTokenExpiresAt  time.Time  `gorm:"not null" json:"accessTokenExpiresAt"`
	ClientID              string     `gorm:"not null;index" json:"client_id"`
	RefreshToken          string     `gorm:"index" json:"refresh_token,omitempty"`
	RefreshTokenExpiresOn *time.Time `json:"refresh_token_expires_on,omitempty"`
	UserID                string     `gorm:"not null;index" json:"user_id"`
	Scope                 string     `gorm:"not null;default:''" json:"scope,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
	DeletedAt             *time.Time `gorm:"index" json:"deletedAt,omitempty"`
	DeletedReason         string     `json:"deletedReason,omitempty"`
}

// TableName overrides the table name used by Token to `oauth_tokens`
func (Token) TableName() string {
	return "oauth_tokens"
}

// IsAccessTokenExpired reports whether the access token has lapsed at now
func (t *Token) IsAccessTokenExpired(now time.Time) bool {
	return !now.Before(t.AccessTokenExpiresAt)
}

// IsRefreshTokenExpired reports whether the refresh token has lapsed at now.
// A token without a refresh expiry never expires by time.
func (t *Token) IsRefreshTokenExpired(now time.Time) bool {
	return t.RefreshTokenExpiresOn != nil && !now.Before(*t.RefreshTokenExpiresOn)
}

// IsDeleted reports whether the record was soft-deleted
func (t *Token) IsDeleted() bool {
	return t.DeletedAt != nil
}
