package bootstrap

import (
	"errors"
	"fmt"

	"github.com/fielddb/fieldauth/internal/config"
	"github.com/fielddb/fieldauth/internal/token"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateKeyConfig(cfg); err != nil {
		return fmt.Errorf("invalid signing key configuration: %w", err)
	}
	return nil
}

// validateKeyConfig checks the key paths. An empty PUBLIC_KEY_PATH derives
// the public key from the private one.
func validateKeyConfig(cfg *config.Config) error {
	if cfg.PublicKeyPath != "" && cfg.PublicKeyPath == cfg.PrivateKeyPath {
		return errors.New("PUBLIC_KEY_PATH and PRIVATE_KEY_PATH must point to different files")
	}
	return nil
}

// initializeCodec loads the RSA key pair and builds the token codec
func initializeCodec(cfg *config.Config) (*token.Codec, error) {
	priv, pub, err := token.LoadKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing keys (run `fieldauth keygen`): %w", err)
	}

	codec, err := token.NewCodec(priv, pub,
		token.WithPrefix(cfg.TokenPrefix),
		token.WithKeyID(cfg.KeyID),
		token.WithDefaultExpiration(cfg.JWTExpiration),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}
	return codec, nil
}
