package handlers

import (
	"net/http"
	"strconv"

	"github.com/fielddb/fieldauth/internal/middleware"
	"github.com/fielddb/fieldauth/internal/models"
	"github.com/fielddb/fieldauth/internal/services"
	"github.com/fielddb/fieldauth/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clients *services.ClientService
	logger  *zap.Logger
	errorResponder
}

func NewClientHandler(clients *services.ClientService, logger *zap.Logger, production bool) *ClientHandler {
	return &ClientHandler{
		clients:        clients,
		logger:         logger,
		errorResponder: errorResponder{production: production},
	}
}

type createClientRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Scope        string   `json:"scope"`
	Contact      string   `json:"contact"`
	RedirectURIs []string `json:"redirect_uris"`
	Public       bool     `json:"public"`
}

// clientCreatedResponse shows the plaintext secret exactly once
type clientCreatedResponse struct {
	*models.Client
	ClientSecret string `json:"client_secret,omitempty"`
}

// CreateClient registers a client on behalf of the signed-in user
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Request body must be a JSON client description")
		return
	}

	contact := req.Contact
	if contact == "" {
		if user := middleware.CurrentUser(c); user != nil {
			contact, _ = user.User["email"].(string)
		}
	}

	created, err := h.clients.CreateClient(c.Request.Context(), services.CreateClientRequest{
		Title:        req.Title,
		Description:  req.Description,
		Scope:        req.Scope,
		Contact:      contact,
		RedirectURIs: req.RedirectURIs,
		Public:       req.Public,
	})
	if err != nil {
		h.respond(c, err)
		return
	}

	redacted := created.Redacted()
	c.JSON(http.StatusCreated, clientCreatedResponse{
		Client:       &redacted,
		ClientSecret: created.ClientSecretPlain,
	})
}

// ListClients returns a page of clients without secrets
func (h *ClientHandler) ListClients(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultListLimit)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	clients, err := h.clients.ListClients(c.Request.Context(), store.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients": clients,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetClient returns the secret-free projection of one client
func (h *ClientHandler) GetClient(c *gin.Context) {
	client, err := h.clients.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient is routed but soft deletion is not available yet
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	err := h.clients.DeleteClient(c.Request.Context(), c.Param("id"), c.Query("reason"))
	if err != nil {
		h.respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
