package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateUser inserts a new account. The username must be unique.
func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil || user.Username == "" || user.Hash == "" {
		return nil, core.ErrInvalidOptions
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetUserByUsername returns the active user with the given username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.activeUser(ctx, "username = ?", username)
}

// GetUserByID returns the active user with the given id
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.activeUser(ctx, "id = ?", id)
}

func (s *Store) activeUser(ctx context.Context, query string, arg string) (*models.User, error) {
	if arg == "" {
		return nil, ErrUserNotFound
	}
	user, err := first[models.User](
		s.db.WithContext(ctx).Where(query, arg).Where("deleted_at IS NULL"),
	)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
