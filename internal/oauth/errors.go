package oauth

import (
	"errors"
	"net/http"

	"github.com/fielddb/fieldauth/internal/authcode"
	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/token"
)

var (
	ErrClientInvalid        = core.NewError(http.StatusUnauthorized, "Client is invalid")
	ErrAccessTokenNotFound  = core.NewError(http.StatusUnauthorized, "Access token not found")
	ErrInvalidGrant         = core.NewError(http.StatusBadRequest, "Invalid grant")
	ErrInvalidScope         = core.NewError(http.StatusBadRequest, "Requested scope is not allowed")
	ErrRedirectURIMismatch  = core.NewError(http.StatusBadRequest, "Redirect URI is not registered for this client")
	ErrUnsupportedGrantType = core.NewError(http.StatusBadRequest, "Grant type is not supported")
	ErrUnsupportedResponse  = core.NewError(http.StatusBadRequest, "Response type is not supported")
	ErrInvalidRequest       = core.NewError(http.StatusBadRequest, "Request is missing a required parameter")
)

// RFC 6749 error codes
const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidClient           = "invalid_client"
	CodeInvalidGrant            = "invalid_grant"
	CodeInvalidScope            = "invalid_scope"
	CodeUnsupportedGrantType    = "unsupported_grant_type"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeInvalidToken            = "invalid_token"
	CodeAccessDenied            = "access_denied"
	CodeServerError             = "server_error"
)

// Codes for non-OAuth endpoints sharing the error body
const (
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeNotImplemented = "not_implemented"
)

// ErrorCode maps an error to its RFC 6749 / RFC 6750 error code
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrClientInvalid):
		return CodeInvalidClient
	case errors.Is(err, ErrInvalidGrant),
		errors.Is(err, authcode.ErrCodeNotAuthorized),
		errors.Is(err, ErrRedirectURIMismatch):
		return CodeInvalidGrant
	case errors.Is(err, ErrInvalidScope):
		return CodeInvalidScope
	case errors.Is(err, ErrUnsupportedGrantType):
		return CodeUnsupportedGrantType
	case errors.Is(err, ErrUnsupportedResponse):
		return CodeUnsupportedResponseType
	case errors.Is(err, ErrAccessTokenNotFound),
		errors.Is(err, token.ErrExpiredToken),
		errors.Is(err, token.ErrInvalidSignature),
		errors.Is(err, token.ErrMalformedToken):
		return CodeInvalidToken
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, core.ErrInvalidOptions):
		return CodeInvalidRequest
	}
	switch status := core.StatusCode(err); {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return CodeAccessDenied
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusNotImplemented:
		return CodeNotImplemented
	case status >= 400 && status < 500:
		return CodeInvalidRequest
	}
	return CodeServerError
}
