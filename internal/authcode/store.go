package authcode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fielddb/fieldauth/internal/cache"
	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/models"
)

// ErrCodeNotAuthorized indicates the code is unknown, expired, revoked or already consumed
var ErrCodeNotAuthorized = core.NewError(http.StatusForbidden, "Code is not authorized")

// Store holds authorization codes between /authorize and /token.
//
// Get does not consume the code. Consume reads and invalidates it in one
// step and is what the token endpoint uses.
type Store interface {
	Save(ctx context.Context, code *models.AuthorizationCode) (*models.AuthorizationCode, error)
	Get(ctx context.Context, code string) (*models.AuthorizationCode, error)
	Revoke(ctx context.Context, code string) (*models.AuthorizationCode, error)
	Consume(ctx context.Context, code string) (*models.AuthorizationCode, error)
}

// Compile-time interface check.
var _ Store = (*CacheStore)(nil)

// CacheStore keeps codes in a TTL cache. With a MemoryCache it is process
// local; with a RueidisCache it is shared by every instance.
type CacheStore struct {
	cache core.Cache[models.AuthorizationCode]
	now   func() time.Time
}

// NewCacheStore creates a code store backed by c
func NewCacheStore(c core.Cache[models.AuthorizationCode]) *CacheStore {
	return &CacheStore{cache: c, now: time.Now}
}

// NewMemoryStore creates a process-local code store
func NewMemoryStore() *CacheStore {
	return NewCacheStore(cache.NewMemoryCache[models.AuthorizationCode]())
}

// Save stores code under code.Code, replacing any previous entry
func (s *CacheStore) Save(
	ctx context.Context,
	code *models.AuthorizationCode,
) (*models.AuthorizationCode, error) {
	if code == nil || code.Code == "" {
		return nil, core.ErrInvalidOptions
	}

	ttl := code.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		// Already expired: drop any previous entry so the code reads as absent.
		if err := s.cache.Delete(ctx, code.Code); err != nil {
			return nil, fmt.Errorf("save authorization code: %w", err)
		}
		saved := *code
		return &saved, nil
	}

	if err := s.cache.Set(ctx, code.Code, *code, ttl); err != nil {
		return nil, fmt.Errorf("save authorization code: %w", err)
	}
	saved := *code
	return &saved, nil
}

// Get returns the code without consuming it
func (s *CacheStore) Get(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	if code == "" {
		return nil, ErrCodeNotAuthorized
	}
	value, err := s.cache.Get(ctx, code)
	return s.result(value, err)
}

// Consume returns the code and removes it atomically
func (s *CacheStore) Consume(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	if code == "" {
		return nil, ErrCodeNotAuthorized
	}
	value, err := s.cache.Take(ctx, code)
	return s.result(value, err)
}

// Revoke removes the code and returns a copy whose ExpiresAt is in the past.
// Revoking an absent code is not an error.
func (s *CacheStore) Revoke(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	revoked := models.AuthorizationCode{Code: code}
	if code != "" {
		value, err := s.cache.Take(ctx, code)
		switch {
		case err == nil:
			revoked = value
		case errors.Is(err, cache.ErrCacheMiss):
		default:
			return nil, fmt.Errorf("revoke authorization code: %w", err)
		}
	}

	revoked.ExpiresAt = s.now().Add(-time.Second)
	return &revoked, nil
}

func (s *CacheStore) result(
	value models.AuthorizationCode,
	err error,
) (*models.AuthorizationCode, error) {
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrCodeNotAuthorized
		}
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	// Redis may outlive ExpiresAt by up to a second
	if value.IsExpired(s.now()) {
		return nil, ErrCodeNotAuthorized
	}
	return &value, nil
}
