package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fielddb/fieldauth/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the relational registry for clients, tokens and users
type Store struct {
	db *gorm.DB
}

// New opens the database, applies migrations and returns a ready Store
func New(ctx context.Context, driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite allows a single writer and keeps :memory: databases per connection
	if normalizeDriver(driver) == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Auto migrate
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Client{},
		&models.Token{},
		&models.User{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Health pings the underlying connection pool
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying GORM database connection (used for metrics and tests)
func (s *Store) DB() *gorm.DB {
	return s.db
}

// first runs a single-row query and maps "no rows" to a nil result
func first[T any](q *gorm.DB) (*T, error) {
	var out T
	if err := q.First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// page applies list options to a query
func page(q *gorm.DB, opts ListOptions) *gorm.DB {
	opts = opts.normalize()
	if len(opts.Where) > 0 {
		q = q.Where(opts.Where)
	} else {
		q = q.Where("deleted_at IS NULL")
	}
	return q.Limit(opts.Limit).Offset(opts.Offset)
}
