package token

import (
	"net/http"

	"github.com/fielddb/fieldauth/internal/core"
)

var (
	// ErrEmptyPayload indicates Sign was called with a nil or empty payload
	ErrEmptyPayload = core.NewError(http.StatusBadRequest, "Payload must not be empty")

	// ErrInvalidPayload indicates the payload does not serialise to a JSON object
	ErrInvalidPayload = core.NewError(http.StatusBadRequest, "Payload must be a JSON object")

	// ErrMalformedToken indicates the token is not a well-formed three-part JWS
	ErrMalformedToken = core.NewError(http.StatusUnauthorized, "Token is malformed")

	// ErrExpiredToken indicates the token's exp claim has passed
	ErrExpiredToken = core.NewError(http.StatusUnauthorized, "Token has expired")

	// ErrInvalidSignature indicates the signature or algorithm does not match the key pair
	ErrInvalidSignature = core.NewError(http.StatusUnauthorized, "Token signature is invalid")

	// ErrMissingKey indicates the codec was built without signing key material
	ErrMissingKey = core.NewError(http.StatusInternalServerError, "Signing key is not configured")
)
