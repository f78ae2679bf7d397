package store

import (
	"context"
	"fmt"
	"time"

	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/models"
)

// ClientFilter selects a client by exact match on every non-empty field
type ClientFilter struct {
	ClientID string
	Title    string
	Contact  string
}

func (f ClientFilter) conditions() map[string]any {
	cond := map[string]any{}
	if f.ClientID != "" {
		cond["client_id"] = f.ClientID
	}
	if f.Title != "" {
		cond["title"] = f.Title
	}
	if f.Contact != "" {
		cond["contact"] = f.Contact
	}
	return cond
}

// clientListColumns is the projection used by ListClients; it never includes the secret
var clientListColumns = []string{
	"client_id", "title", "description", "scope", "contact", "redirect_uri",
	"hour_limit", "day_limit", "throttle", "expires_at",
	"created_at", "updated_at", "deleted_at", "deleted_reason",
}

// CreateClient inserts a client after forcing the fixed defaults
func (s *Store) CreateClient(ctx context.Context, client *models.Client) (*models.Client, error) {
	if client == nil || *client == (models.Client{}) {
		return nil, core.ErrInvalidOptions
	}
	client.ApplyDefaults(time.Now())
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// ReadClient returns the single non-deleted client matching filter, or nil
func (s *Store) ReadClient(ctx context.Context, filter ClientFilter) (*models.Client, error) {
	cond := filter.conditions()
	if len(cond) == 0 {
		return nil, core.ErrInvalidOptions
	}
	return first[models.Client](
		s.db.WithContext(ctx).Where(cond).Where("deleted_at IS NULL"),
	)
}

// ListClients returns a page of clients without their secrets
func (s *Store) ListClients(ctx context.Context, opts ListOptions) ([]models.Client, error) {
	var clients []models.Client
	q := page(s.db.WithContext(ctx).Model(&models.Client{}).Select(clientListColumns), opts)
	if err := q.Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// FlagClientAsDeleted is reserved for soft deletion and is not available yet
func (s *Store) FlagClientAsDeleted(ctx context.Context, clientID, reason string) error {
	return core.ErrNotImplemented
}
