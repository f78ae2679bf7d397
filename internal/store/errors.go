package store

import (
	"net/http"

	"github.com/fielddb/fieldauth/internal/core"
)

var (
	// ErrUsernameConflict is returned when a username already exists
	ErrUsernameConflict = core.NewError(http.StatusConflict, "Username already exists")

	// ErrUserNotFound is returned when no active user matches
	ErrUserNotFound = core.NewError(http.StatusNotFound, "User not found")
)
