package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/models"
	"github.com/fielddb/fieldauth/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClientService(t *testing.T) *ClientService {
	t.Helper()
	return NewClientService(setupTestStore(t), zap.NewNop())
}

func TestCreateClient_Confidential(t *testing.T) {
	svc := newTestClientService(t)
	ctx := context.Background()

	resp, err := svc.CreateClient(ctx, CreateClientRequest{
		Title:        "Spreadsheet",
		Scope:        "corpus:read,corpus:write",
		RedirectURIs: []string{"https://app.example.com/cb http://localhost:3000/cb"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.ClientSecretPlain, models.ClientSecretPrefix))
	assert.Equal(t, "corpus:read corpus:write", resp.Scope)
	assert.Equal(t, []string{"https://app.example.com/cb", "http://localhost:3000/cb"}, resp.RedirectURIs())
	assert.True(t, resp.ValidateClientSecret(resp.ClientSecretPlain))
	assert.Equal(t, models.DefaultHourLimit, resp.HourLimit)

	got, err := svc.GetClient(ctx, resp.ClientID)
	require.NoError(t, err)
	assert.Empty(t, got.ClientSecret)
	assert.Equal(t, "Spreadsheet", got.Title)
}

func TestCreateClient_Public(t *testing.T) {
	svc := newTestClientService(t)

	resp, err := svc.CreateClient(context.Background(), CreateClientRequest{
		Title:  "CLI",
		Public: true,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.ClientSecretPlain)
	assert.False(t, resp.IsConfidential())
}

func TestCreateClient_Validation(t *testing.T) {
	svc := newTestClientService(t)
	ctx := context.Background()

	_, err := svc.CreateClient(ctx, CreateClientRequest{Title: "  "})
	assert.ErrorIs(t, err, ErrClientTitleRequired)

	for _, uri := range []string{"/relative", "ftp://example.com/cb", "https://example.com/cb#frag", "://"} {
		_, err = svc.CreateClient(ctx, CreateClientRequest{Title: "x", RedirectURIs: []string{uri}})
		assert.ErrorIs(t, err, ErrInvalidRedirectURI, uri)
		assert.Equal(t, http.StatusBadRequest, core.StatusCode(err))
	}
}

func TestGetClient_NotFound(t *testing.T) {
	svc := newTestClientService(t)

	_, err := svc.GetClient(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrClientNotFound)
	_, err = svc.GetClient(context.Background(), "")
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestListAndDeleteClients(t *testing.T) {
	svc := newTestClientService(t)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.CreateClient(ctx, CreateClientRequest{Title: title})
		require.NoError(t, err)
	}

	clients, err := svc.ListClients(ctx, store.ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, clients, 2)
	for _, c := range clients {
		assert.Empty(t, c.ClientSecret)
	}

	err = svc.DeleteClient(ctx, clients[0].ClientID, "no longer used")
	assert.ErrorIs(t, err, core.ErrNotImplemented)
}
