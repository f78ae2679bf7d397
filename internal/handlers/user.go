package handlers

import (
	"net/http"
	"strings"

	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/middleware"
	"github.com/fielddb/fieldauth/internal/services"

	"github.com/gin-gonic/gin"
)

// ErrForeignProfile is returned when a user asks for someone else's profile
var ErrForeignProfile = core.NewError(http.StatusForbidden, "Profiles are only visible to their owner")

type UserHandler struct {
	users *services.UserService
	errorResponder
}

func NewUserHandler(users *services.UserService, production bool) *UserHandler {
	return &UserHandler{users: users, errorResponder: errorResponder{production: production}}
}

// GetUser echoes the caller's own profile
func (h *UserHandler) GetUser(c *gin.Context) {
	username := strings.ToLower(c.Param("username"))
	session := middleware.CurrentUser(c)
	if session == nil || session.Username != username {
		h.respond(c, ErrForeignProfile)
		return
	}

	user, err := h.users.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		h.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Redacted()})
}
