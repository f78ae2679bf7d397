package token

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fielddb/fieldauth/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultPrefix is prepended to every signed token
	DefaultPrefix = "v1/"

	// DefaultExpiration applies when Sign is called with a zero lifetime
	DefaultExpiration = 60 * time.Minute

	bearerScheme = "bearer "
)

// Compile-time interface check.
var _ core.Codec = (*Codec)(nil)

// Codec signs, verifies and decodes prefixed RS256 bearer tokens
type Codec struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	keyID      string
	prefix     string
	expiration time.Duration
	now        func() time.Time
}

// Option configures a Codec
type Option func(*Codec)

// WithPrefix overrides the token prefix
func WithPrefix(prefix string) Option {
	return func(c *Codec) { c.prefix = prefix }
}

// WithDefaultExpiration overrides the lifetime used when Sign receives zero
func WithDefaultExpiration(d time.Duration) Option {
	return func(c *Codec) { c.expiration = d }
}

// WithKeyID sets the "kid" header written on every token
func WithKeyID(kid string) Option {
	return func(c *Codec) { c.keyID = kid }
}

// WithClock replaces time.Now, used by tests to move across expiry
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a codec for the given key pair. A nil public key is
// derived from the private key.
func NewCodec(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, opts ...Option) (*Codec, error) {
	if privateKey == nil {
		return nil, ErrMissingKey
	}
	if publicKey == nil {
		publicKey = &privateKey.PublicKey
	}

	c := &Codec{
		privateKey: privateKey,
		publicKey:  publicKey,
		prefix:     DefaultPrefix,
		expiration: DefaultExpiration,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Prefix returns the prefix prepended to signed tokens
func (c *Codec) Prefix() string {
	return c.prefix
}

// PublicKey returns the verification key
func (c *Codec) PublicKey() *rsa.PublicKey {
	return c.publicKey
}

// KeyID returns the "kid" written on signed tokens
func (c *Codec) KeyID() string {
	return c.keyID
}

// Sign serialises payload, adds iat and exp (unix seconds) and signs it with
// RS256. The returned token carries the codec prefix.
func (c *Codec) Sign(payload any, expiresIn time.Duration) (string, error) {
	if expiresIn < 0 {
		return "", fmt.Errorf("%w: negative lifetime %s", ErrInvalidPayload, expiresIn)
	}
	if expiresIn == 0 {
		expiresIn = c.expiration
	}

	claims, err := toClaims(payload)
	if err != nil {
		return "", err
	}

	iat := c.now().Unix()
	claims["iat"] = iat
	claims["exp"] = iat + int64(expiresIn/time.Second)

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if c.keyID != "" {
		tok.Header["kid"] = c.keyID
	}

	signed, err := tok.SignedString(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return c.prefix + signed, nil
}

// Verify checks the signature, algorithm and expiry and returns the claims.
// Only the result of Verify may be used to grant access.
func (c *Codec) Verify(token string) (core.Claims, error) {
	raw := c.strip(token)
	if raw == "" {
		return nil, ErrMalformedToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithStrictDecoding(),
	)
	parsed, err := parser.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.publicKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			// non-canonical base64 that still decodes leniently was altered after signing
			if _, _, lenientErr := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{}); lenientErr == nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	return core.Claims(claims), nil
}

// Decode returns the claims without checking signature or expiry.
// Never use the result to authorise a request.
func (c *Codec) Decode(token string) (core.Claims, error) {
	raw := c.strip(token)
	if raw == "" {
		return nil, ErrMalformedToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return core.Claims(claims), nil
}

// strip removes an optional case-insensitive "bearer " marker and then the
// optional prefix. Both steps are no-ops when the part is absent.
func (c *Codec) strip(token string) string {
	token = strings.TrimSpace(token)
	if len(token) >= len(bearerScheme) && strings.EqualFold(token[:len(bearerScheme)], bearerScheme) {
		token = strings.TrimSpace(token[len(bearerScheme):])
	}
	if c.prefix != "" {
		token = strings.TrimPrefix(token, c.prefix)
	}
	return token
}

// toClaims normalises any JSON-object-serialisable value into a fresh claim map
func toClaims(payload any) (jwt.MapClaims, error) {
	if payload == nil {
		return nil, ErrEmptyPayload
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if string(data) == "null" {
		return nil, ErrEmptyPayload
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(claims) == 0 {
		return nil, ErrEmptyPayload
	}
	return claims, nil
}
