package services

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/models"
	"github.com/fielddb/fieldauth/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 8

var (
	// ErrUserNotFound and ErrInvalidPassword render identically; only errors.Is tells them apart.
	ErrUserNotFound    = core.NewError(http.StatusUnauthorized, "Username or password is invalid")
	ErrInvalidPassword = core.NewError(http.StatusUnauthorized, "Username or password is invalid")

	ErrInvalidUsername = core.NewError(
		http.StatusBadRequest,
		"Username must be 3-32 characters of lowercase letters, digits, '.', '_' or '-'",
	)
	ErrWeakPassword = core.NewError(http.StatusBadRequest, "Password must be at least 8 characters")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,31}$`)

// Ensure UserService satisfies the directory used by the OAuth provider
var _ core.UserDirectory = (*UserService)(nil)

type UserService struct {
	store   *store.Store
	metrics core.Recorder
	logger  *zap.Logger
}

func NewUserService(s *store.Store, m core.Recorder, logger *zap.Logger) *UserService {
	return &UserService{store: s, metrics: m, logger: logger}
}

// RegisterUserRequest holds the fields accepted at sign-up
type RegisterUserRequest struct {
	Username   string
	Password   string
	Email      string
	GivenName  string
	FamilyName string
}

// Register creates an account with a bcrypt password hash
func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	user, err := s.register(ctx, req)
	s.metrics.RecordRegistration(err == nil)
	return user, err
}

func (s *UserService) register(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, &models.User{
		Username:   username,
		Email:      strings.TrimSpace(req.Email),
		Hash:       string(hash),
		GivenName:  strings.TrimSpace(req.GivenName),
		FamilyName: strings.TrimSpace(req.FamilyName),
	})
	if err != nil {
		if !errors.Is(err, store.ErrUsernameConflict) {
			s.metrics.RecordDatabaseQueryError("create_user")
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("username", user.Username), zap.String("user_id", user.ID))
	return user, nil
}

// VerifyPassword checks credentials and returns the matching account.
// Unknown users yield ErrUserNotFound and wrong passwords ErrInvalidPassword.
func (s *UserService) VerifyPassword(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.metrics.RecordDatabaseQueryError("read_user")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", zap.String("username", user.Username))
		return nil, ErrInvalidPassword
	}
	return user, nil
}

// GetUserByID returns the active account with the given id
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// GetUserByUsername returns the active account with the given username
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}
