package handlers

import (
	"net/http"

	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/oauth"

	"github.com/gin-gonic/gin"
)

// genericErrorDescription replaces internal error text in production
const genericErrorDescription = "An internal error occurred"

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Status           int    `json:"status"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// errorResponder renders domain errors. In production, errors that do not
// carry a user-facing message are reduced to a generic description.
type errorResponder struct {
	production bool
}

func (r errorResponder) describe(err error) string {
	if !r.production {
		return err.Error()
	}
	if msg, ok := core.Message(err); ok {
		return msg
	}
	return genericErrorDescription
}

// respond writes err with the status it carries
func (r errorResponder) respond(c *gin.Context, err error) {
	r.respondStatus(c, core.StatusCode(err), err)
}

// respondStatus writes err with an explicit status
func (r errorResponder) respondStatus(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:           status,
		Error:            oauth.ErrorCode(err),
		ErrorDescription: r.describe(err),
	})
}

// badRequest reports a malformed request body or query
func (r errorResponder) badRequest(c *gin.Context, description string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Status:           http.StatusBadRequest,
		Error:            oauth.CodeInvalidRequest,
		ErrorDescription: description,
	})
}
