package services

import (
	"context"
	"testing"

	"github.com/fielddb/fieldauth/internal/metrics"
	"github.com/fielddb/fieldauth/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(setupTestStore(t), metrics.NewNoopMetrics(), zap.NewNop())
}
