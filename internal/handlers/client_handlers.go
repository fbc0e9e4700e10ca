package handlers

import (
	"errors"
	"net/http"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	repo *repository.ClientRepository
}

func NewClientHandler(repo *repository.ClientRepository) *ClientHandler {
	return &ClientHandler{repo: repo}
}

// GetClientList returns client accounts, paginated
// GET /api/v1/clients
func (h *ClientHandler) GetClientList(c *gin.Context) {
	page, limit := pagination(c, 20, 100)

	clients, total, err := h.repo.List(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list clients"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    clients,
		"pagination": models.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	})
}

// GetClient gets a client account by username
// GET /api/v1/clients/:username
func (h *ClientHandler) GetClient(c *gin.Context) {
	client, err := h.repo.GetByUsername(c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "CLIENT_NOT_FOUND",
					Message: "Client not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get client"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": client})
}
