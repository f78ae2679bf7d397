package models

import (
	"encoding/base32"
	"strings"
	"time"

	"github.com/fielddb/fieldauth/internal/util"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Fixed client defaults. Callers cannot override them at registration.
const (
	DefaultHourLimit  = 600
	DefaultDayLimit   = 6000
	DefaultThrottleMS = 500
	ClientLifetime    = 5 * 365 * 24 * time.Hour
)

// ClientSecretPrefix marks generated secrets so code scanners can find leaked ones
const ClientSecretPrefix = "fda_"

// Base32 characters, but lowercased.
const lowerBase32Chars = "abcdefghijklmnopqrstuvwxyz234567"

// base32 encoder that uses lowered characters without padding.
var base32Lower = base32.NewEncoding(lowerBase32Chars).WithPadding(base32.NoPadding)

// Client is a registered OAuth2 client application
type Client struct {
	ClientID      string     `gorm:"primaryKey;size:36" json:"client_id"`
	ClientSecret  string     `gorm:"not null;default:''" json:"-"` // bcrypt hash, empty for public clients
	Title         string     `gorm:"not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	Scope         string     `gorm:"not null;default:''" json:"scope"` // space-separated
	Contact       string     `json:"contact,omitempty"`
	RedirectURI   string     `gorm:"type:text" json:"redirect_uri"` // space-separated
	HourLimit     int        `gorm:"not null" json:"hour_limit"`
	DayLimit      int        `gorm:"not null" json:"day_limit"`
	Throttle      int        `gorm:"not null" json:"throttle"` // milliseconds
	ExpiresAt     time.Time  `gorm:"not null" json:"expiresAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `gorm:"index" json:"deletedAt,omitempty"`
	DeletedReason string     `json:"deletedReason,omitempty"`
}

// TableName overrides the table name used by Client to `oauth_clients`
func (Client) TableName() string {
	return "oauth_clients"
}

// ApplyDefaults assigns an id when missing and forces the fixed rate limits and expiry
func (c *Client) ApplyDefaults(now time.Time) {
	if c.ClientID == "" {
		c.ClientID = uuid.New().String()
	}
	c.HourLimit = DefaultHourLimit
	c.DayLimit = DefaultDayLimit
	c.Throttle = DefaultThrottleMS
	c.ExpiresAt = now.Add(ClientLifetime)
}

// IsDeleted reports whether the client was soft-deleted
func (c *Client) IsDeleted() bool {
	return c.DeletedAt != nil
}

// IsExpired reports whether the registration has lapsed at now
func (c *Client) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// IsConfidential reports whether the client authenticates with a secret
func (c *Client) IsConfidential() bool {
	return c.ClientSecret != ""
}

// RedirectURIs returns the registered redirect URIs
func (c *Client) RedirectURIs() []string {
	return strings.Fields(c.RedirectURI)
}

// Scopes returns the registered scopes
func (c *Client) Scopes() []string {
	return SplitScope(c.Scope)
}

// Redacted returns a copy without the secret hash
func (c Client) Redacted() Client {
	c.ClientSecret = ""
	return c
}

// Ref returns the minimal reference embedded in codes and tokens
func (c *Client) Ref() ClientRef {
	return ClientRef{ID: c.ClientID, Scope: c.Scope}
}

// GenerateClientSecret will generate the client secret and returns the plaintext and saves the hash at the database
func (c *Client) GenerateClientSecret() (string, error) {
	rBytes, err := util.CryptoRandomBytes(32)
	if err != nil {
		return "", err
	}
	// Add a prefix to the base32, this is in order to make it easier
	// for code scanners to grab sensitive tokens.
	clientSecret := ClientSecretPrefix + base32Lower.EncodeToString(rBytes)

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(clientSecret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	c.ClientSecret = string(hashedSecret)
	return clientSecret, nil
}

// ValidateClientSecret validates the given secret by the hash saved in database
func (c *Client) ValidateClientSecret(secret string) bool {
	if c.ClientSecret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.ClientSecret), []byte(secret)) == nil
}

// SplitScope splits a space- or comma-separated scope string
func SplitScope(scope string) []string {
	return strings.FieldsFunc(scope, func(r rune) bool {
		return r == ' ' || r == ','
	})
}
