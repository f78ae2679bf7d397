package core

import "time"

// Claims is the decoded body of a signed bearer token.
type Claims = map[string]any

// Codec signs and reads bearer tokens.
//
// Verify is the only method whose result may be used to grant access.
// Decode skips signature and expiry checks and exists so callers can
// recognise a stale session.
type Codec interface {
	// Sign embeds iat/exp and returns the prefixed token. A zero expiresIn
	// selects the codec default.
	Sign(payload any, expiresIn time.Duration) (string, error)
	Verify(token string) (Claims, error)
	Decode(token string) (Claims, error)
}
