package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/fielddb/fieldauth/internal/core"
	"github.com/fielddb/fieldauth/internal/middleware"
	"github.com/fielddb/fieldauth/internal/models"
	"github.com/fielddb/fieldauth/internal/services"
	"github.com/fielddb/fieldauth/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthConfig holds the session cookie settings
type AuthConfig struct {
	BaseURL           string
	CookieName        string
	CookieSecure      bool
	SessionExpiration time.Duration
	Production        bool
}

type AuthHandler struct {
	users   *services.UserService
	codec   core.Codec
	metrics core.Recorder
	logger  *zap.Logger
	cfg     AuthConfig
	errorResponder
}

func NewAuthHandler(
	users *services.UserService,
	codec core.Codec,
	m core.Recorder,
	logger *zap.Logger,
	cfg AuthConfig,
) *AuthHandler {
	if cfg.CookieName == "" {
		cfg.CookieName = middleware.DefaultCookieName
	}
	return &AuthHandler{
		users:          users,
		codec:          codec,
		metrics:        m,
		logger:         logger,
		cfg:            cfg,
		errorResponder: errorResponder{production: cfg.Production},
	}
}

type registerRequest struct {
	Username   string `json:"username"   form:"username"`
	Password   string `json:"password"   form:"password"`
	Email      string `json:"email"      form:"email"`
	GivenName  string `json:"givenName"  form:"givenName"`
	FamilyName string `json:"familyName" form:"familyName"`
}

// Register creates an account and replies with the redacted user
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "Request body must contain username and password")
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterUserRequest{
		Username:   req.Username,
		Password:   req.Password,
		Email:      req.Email,
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
	})
	if err != nil {
		h.respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.Redacted()})
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Redirect string `json:"redirect" form:"redirect"`
}

// Login verifies the password, signs a session token and sets it as a cookie.
// A safe "redirect" parameter turns the reply into a 303 so browser forms
// land back where /oauth2/authorize sent them from.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil || req.Username == "" || req.Password == "" {
		h.badRequest(c, "Request body must contain username and password")
		return
	}
	if req.Redirect == "" {
		req.Redirect = c.Query("redirect")
	}

	user, err := h.users.VerifyPassword(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.metrics.RecordLogin(false)
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrInvalidPassword) {
			h.logger.Info("login failed", zap.String("username", req.Username))
		} else {
			h.logger.Error("login lookup failed", zap.String("username", req.Username), zap.Error(err))
		}
		h.respond(c, err)
		return
	}

	signed, err := h.signSession(user)
	if err != nil {
		h.metrics.RecordLogin(false)
		h.logger.Error("failed to sign session token", zap.String("user_id", user.ID), zap.Error(err))
		h.respond(c, err)
		return
	}
	h.metrics.RecordLogin(true)
	h.setSessionCookie(c, signed, int(h.cfg.SessionExpiration.Seconds()))

	if req.Redirect != "" && util.IsRedirectSafe(req.Redirect, h.cfg.BaseURL) {
		c.Redirect(http.StatusSeeOther, req.Redirect)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user.Redacted(),
		"token": signed,
	})
}

// LoginPrompt handles GET /login for callers without a live session. It
// tells the client where to post credentials and echoes a safe redirect.
func (h *AuthHandler) LoginPrompt(c *gin.Context) {
	redirect := c.Query("redirect")
	if redirect != "" && !util.IsRedirectSafe(redirect, h.cfg.BaseURL) {
		redirect = ""
	}
	c.JSON(http.StatusUnauthorized, gin.H{
		"status":            http.StatusUnauthorized,
		"error":             "login_required",
		"error_description": "POST username and password to " + c.Request.URL.Path,
		"redirect":          redirect,
	})
}

func (h *AuthHandler) signSession(user *models.User) (string, error) {
	return h.codec.Sign(map[string]any{"user": user.Redacted()}, h.cfg.SessionExpiration)
}

// Logout clears the session cookie. The token itself stays valid until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	h.metrics.RecordLogout()

	if target := c.Query("redirect"); target != "" && util.IsRedirectSafe(target, h.cfg.BaseURL) {
		c.Redirect(http.StatusFound, target)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, signed string, maxAge int) {
	value := ""
	if signed != "" {
		value = "Bearer " + signed
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, value, maxAge, "/", "", h.cfg.CookieSecure, true)
}
