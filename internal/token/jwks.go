package token

import (
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// JSONWebKey returns the public verification key in JWK form
func JSONWebKey(pub *rsa.PublicKey, kid string) jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       pub,
		KeyID:     kid,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}
}

// JWKS returns the public JSON Web Key Set resource servers use to verify tokens
func (c *Codec) JWKS() jose.JSONWebKeySet {
	return jose.JSONWebKeySet{Keys: []jose.JSONWebKey{JSONWebKey(c.publicKey, c.keyID)}}
}

// Thumbprint returns the RFC 7638 SHA-256 thumbprint of pub, base64url encoded.
// It is a stable default for the "kid" header.
func Thumbprint(pub *rsa.PublicKey) (string, error) {
	jwk := jose.JSONWebKey{Key: pub}
	sum, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("jwk thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}
