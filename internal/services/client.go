package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/models"
	"github.com/fielddb/fieldauth/internal/store"

	"go.uber.org/zap"
)

var (
	ErrClientNotFound      = core.NewError(http.StatusNotFound, "Client not found")
	ErrClientTitleRequired = core.NewError(http.StatusBadRequest, "Client title is required")
	ErrInvalidRedirectURI  = core.NewError(
		http.StatusBadRequest,
		"Redirect URIs must be absolute http or https URLs without a fragment",
	)
)

type ClientService struct {
	store  *store.Store
	logger *zap.Logger
}

func NewClientService(s *store.Store, logger *zap.Logger) *ClientService {
	return &ClientService{store: s, logger: logger}
}

// CreateClientRequest holds the caller-controlled client fields. Rate limits
// and expiry are fixed by the registry.
type CreateClientRequest struct {
	Title        string
	Description  string
	Scope        string
	Contact      string
	RedirectURIs []string
	Public       bool // public clients get no secret
}

// ClientResponse carries the stored client and, on creation only, the plaintext secret
type ClientResponse struct {
	*models.Client
	ClientSecretPlain string
}

func (s *ClientService) CreateClient(ctx context.Context, req CreateClientRequest) (*ClientResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrClientTitleRequired
	}

	redirectURIs := make([]string, 0, len(req.RedirectURIs))
	for _, raw := range req.RedirectURIs {
		for _, uri := range strings.Fields(raw) {
			if !validRedirectURI(uri) {
				return nil, ErrInvalidRedirectURI
			}
			redirectURIs = append(redirectURIs, uri)
		}
	}

	client := &models.Client{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Scope:       strings.Join(models.SplitScope(req.Scope), " "),
		Contact:     strings.TrimSpace(req.Contact),
		RedirectURI: strings.Join(redirectURIs, " "),
	}

	var plain string
	if !req.Public {
		var err error
		if plain, err = client.GenerateClientSecret(); err != nil {
			return nil, err
		}
	}

	created, err := s.store.CreateClient(ctx, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info("client registered",
		zap.String("client_id", created.ClientID),
		zap.String("title", created.Title),
		zap.Bool("confidential", created.IsConfidential()),
	)
	return &ClientResponse{Client: created, ClientSecretPlain: plain}, nil
}

// GetClient returns the active client without its secret hash
func (s *ClientService) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	if clientID == "" {
		return nil, ErrClientNotFound
	}
	client, err := s.store.ReadClient(ctx, store.ClientFilter{ClientID: clientID})
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrClientNotFound
	}
	redacted := client.Redacted()
	return &redacted, nil
}

func (s *ClientService) ListClients(ctx context.Context, opts store.ListOptions) ([]models.Client, error) {
	return s.store.ListClients(ctx, opts)
}

func (s *ClientService) DeleteClient(ctx context.Context, clientID, reason string) error {
	return s.store.FlagClientAsDeleted(ctx, clientID, reason)
}

func validRedirectURI(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Fragment != "" {
		return false
	}
	return u.Scheme == "https" || u.Scheme == "http"
}
