package store

import (
	"context"
	"fmt"

	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/models"

	"github.com/google/uuid"
)

// TokenFilter selects a token by exactly one of its token strings
type TokenFilter struct {
	AccessToken  string
	RefreshToken string
}

// tokenListColumns is the projection used by ListTokens; token strings are never listed
var tokenListColumns = []string{
	"id", "access_token_expires_at", "client_id", "refresh_token_expires_on",
	"user_id", "scope", "created_at", "updated_at", "deleted_at", "deleted_reason",
}

// CreateToken persists an issued token pair
func (s *Store) CreateToken(ctx context.Context, token *models.Token) (*models.Token, error) {
	if token == nil || token.AccessToken == "" || token.ClientID == "" || token.UserID == "" {
		return nil, core.ErrInvalidOptions
	}
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return token, nil
}

// ReadToken looks a non-deleted token up by access or refresh token.
// Exactly one of the filter fields must be set.
func (s *Store) ReadToken(ctx context.Context, filter TokenFilter) (*models.Token, error) {
	q := s.db.WithContext(ctx).Where("deleted_at IS NULL")
	switch {
	case filter.AccessToken != "" && filter.RefreshToken == "":
		q = q.Where("access_token = ?", filter.AccessToken)
	case filter.RefreshToken != "" && filter.AccessToken == "":
		q = q.Where("refresh_token = ?", filter.RefreshToken)
	default:
		return nil, core.ErrInvalidOptions
	}
	return first[models.Token](q)
}

// ListTokens returns a page of token records without the token strings
func (s *Store) ListTokens(ctx context.Context, opts ListOptions) ([]models.Token, error) {
	var tokens []models.Token
	q := page(s.db.WithContext(ctx).Model(&models.Token{}).Select(tokenListColumns), opts)
	if err := q.Order("created_at DESC").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// FlagTokenAsDeleted is reserved for soft deletion and is not available yet
func (s *Store) FlagTokenAsDeleted(ctx context.Context, accessToken, reason string) error {
	return core.ErrNotImplemented
}
