package util

import (
	"net/url"
	"strings"
)

// IsRedirectSafe reports whether a post-login redirect target stays on this
// service: a relative path (not protocol-relative) or an http(s) URL on the
// same host as baseURL. An empty target is safe and means "use the default".
func IsRedirectSafe(target, baseURL string) bool {
	if target == "" {
		return true
	}
	if strings.ContainsAny(target, "\r\n\\") {
		return false
	}
	if strings.HasPrefix(target, "/") {
		return !strings.HasPrefix(target, "//")
	}

	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return u.Host == base.Host
}

// MatchRedirectURI reports whether requested exactly equals one of the
// registered URIs. An empty request matches when exactly one URI is registered.
func MatchRedirectURI(registered []string, requested string) (string, bool) {
	if requested == "" {
		if len(registered) == 1 {
			return registered[0], true
		}
		return "", false
	}
	for _, uri := range registered {
		if uri == requested {
			return uri, true
		}
	}
	return "", false
}
