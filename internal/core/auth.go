package core

import (
	"context"

	"github.com/fielddb/fieldauth/internal/models"
)

// UserVerifier checks a username/password pair and returns the matching profile.
// Implementations report unknown users and wrong passwords as distinct errors.
type UserVerifier interface {
	VerifyPassword(ctx context.Context, username, password string) (*models.User, error)
}

// UserDirectory verifies credentials and resolves accounts by id
type UserDirectory interface {
	UserVerifier
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
