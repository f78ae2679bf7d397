package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// RandomToken returns n random bytes hex encoded (2n characters).
// Used for authorization codes and opaque access/refresh tokens.
func RandomToken(n int) (string, error) {
	b, err := CryptoRandomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SHA256Hex returns the SHA-256 hash of s as a lowercase hex string.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a short, non-reversible label for a secret so it can be
// correlated in logs without being written out.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	return SHA256Hex(secret)[:12]
}
