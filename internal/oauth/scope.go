package oauth

import (
	"context"
	"slices"
	"strings"

	"github.com/fielddb/fieldauth/internal/models"
	"github.com/fielddb/fieldauth/internal/store"
)

// ScopePolicy decides whether a client may use the requested scopes
type ScopePolicy interface {
	Allowed(ctx context.Context, clientID string, requested []string) (bool, error)
}

// ScopePolicyFunc adapts a function to ScopePolicy
type ScopePolicyFunc func(ctx context.Context, clientID string, requested []string) (bool, error)

func (f ScopePolicyFunc) Allowed(ctx context.Context, clientID string, requested []string) (bool, error) {
	return f(ctx, clientID, requested)
}

// AllowAllScopes permits every request. Only for tests and explicit development setups.
var AllowAllScopes ScopePolicy = ScopePolicyFunc(
	func(context.Context, string, []string) (bool, error) { return true, nil },
)

// ClientScopePolicy permits a request when every requested scope is registered on the client
func ClientScopePolicy(clients ClientRegistry) ScopePolicy {
	return ScopePolicyFunc(func(ctx context.Context, clientID string, requested []string) (bool, error) {
		client, err := clients.ReadClient(ctx, store.ClientFilter{ClientID: clientID})
		if err != nil {
			return false, err
		}
		if client == nil {
			return false, nil
		}
		return scopeSubset(requested, client.Scopes()), nil
	})
}

// scopeSubset reports whether every requested scope is in granted
func scopeSubset(requested, granted []string) bool {
	for _, s := range requested {
		if !slices.Contains(granted, s) {
			return false
		}
	}
	return true
}

// normalizeScope collapses separators to single spaces and drops duplicates
func normalizeScope(scope string) string {
	parts := models.SplitScope(scope)
	out := parts[:0]
	for _, p := range parts {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
