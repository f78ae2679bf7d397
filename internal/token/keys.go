package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBits is the smallest RSA modulus accepted for signing
const MinKeyBits = 2048

// LoadKeyPair reads a PEM private key and an optional PEM public key.
// When publicPath is empty the public half of the private key is used.
func LoadKeyPair(privatePath, publicPath string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("read private key: %w", err)
	}

	var publicPEM []byte
	if publicPath != "" {
		publicPEM, err = os.ReadFile(publicPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read public key: %w", err)
		}
	}

	return ParseKeyPair(privatePEM, publicPEM)
}

// ParseKeyPair parses PKCS#1 or PKCS#8 private key PEM and optional PKIX public key PEM
func ParseKeyPair(privatePEM, publicPEM []byte) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, nil, fmt.Errorf("parse private key: %w", err)
	}
	if privateKey.N.BitLen() < MinKeyBits {
		return nil, nil, fmt.Errorf("private key is %d bits, need at least %d", privateKey.N.BitLen(), MinKeyBits)
	}

	if len(publicPEM) == 0 {
		return privateKey, &privateKey.PublicKey, nil
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("parse public key: %w", err)
	}
	if !privateKey.PublicKey.Equal(publicKey) {
		return nil, nil, fmt.Errorf("public key does not match private key")
	}
	return privateKey, publicKey, nil
}

// GenerateKeyPair creates a new RSA signing key
func GenerateKeyPair(bits int) (*rsa.PrivateKey, error) {
	if bits < MinKeyBits {
		return nil, fmt.Errorf("key size %d is below the minimum of %d", bits, MinKeyBits)
	}
	return rsa.GenerateKey(rand.Reader, bits)
}

// EncodePrivateKeyPEM returns the key as a PKCS#8 PEM block
func EncodePrivateKeyPEM(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// EncodePublicKeyPEM returns the key as a PKIX PEM block
func EncodePublicKeyPEM(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// WriteKeyPair generates a key and writes private.pem and public.pem into dir
func WriteKeyPair(dir string, bits int) (privatePath, publicPath string, err error) {
	key, err := GenerateKeyPair(bits)
	if err != nil {
		return "", "", err
	}

	privatePEM, err := EncodePrivateKeyPEM(key)
	if err != nil {
		return "", "", err
	}
	publicPEM, err := EncodePublicKeyPEM(&key.PublicKey)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", fmt.Errorf("create key directory: %w", err)
	}

	privatePath = filepath.Join(dir, "private.pem")
	publicPath = filepath.Join(dir, "public.pem")
	if err := os.WriteFile(privatePath, privatePEM, 0o600); err != nil {
		return "", "", fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(publicPath, publicPEM, 0o644); err != nil {
		return "", "", fmt.Errorf("write public key: %w", err)
	}
	return privatePath, publicPath, nil
}
