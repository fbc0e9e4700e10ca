package handlers

import (
	"errors"
	"net/http"

	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CategoryHandler struct {
	repo            *repository.CategoryRepository
	eventsPublisher *events.Publisher
}

func NewCategoryHandler(repo *repository.CategoryRepository, eventsPublisher *events.Publisher) *CategoryHandler {
	return &CategoryHandler{
		repo:            repo,
		eventsPublisher: eventsPublisher,
	}
}

func parseCategoryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Category ID must be a UUID",
			},
		})
		return uuid.Nil, false
	}
	return id, true
}

// CreateCategory creates a new category
// POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_REQUEST",
				Message: "Invalid request: " + err.Error(),
			},
		})
		return
	}

	category := &models.Category{
		ID:       uuid.New(),
		Name:     req.Name,
		ParentID: req.ParentID,
		IsActive: true,
	}
	if req.Slug != nil {
		category.Slug = *req.Slug
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := h.repo.Create(category); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "PARENT_NOT_FOUND",
					Message: "Parent category does not exist",
					Field:   "parentId",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	if h.eventsPublisher != nil {
		_ = h.eventsPublisher.PublishCategoryCreated(c.Request.Context(), category)
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": category})
}

// GetCategoryList returns the flat category list
// GET /api/v1/categories
func (h *CategoryHandler) GetCategoryList(c *gin.Context) {
	categories, err := h.repo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": categories})
}

// GetCategoryTree returns the full category forest as nested nodes
// GET /api/v1/categories/tree
func (h *CategoryHandler) GetCategoryTree(c *gin.Context) {
	tree, err := h.repo.Tree()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build category tree"})
		return
	}
	if tree == nil {
		tree = []*models.CategoryNode{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": tree})
}

// GetCategory gets a category by ID
// GET /api/v1/categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseCategoryID(c)
	if !ok {
		return
	}

	category, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "CATEGORY_NOT_FOUND",
					Message: "Category not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
}

// GetCategoryAncestors returns the chain from the root down to the category
// GET /api/v1/categories/:id/ancestors
func (h *CategoryHandler) GetCategoryAncestors(c *gin.Context) {
	id, ok := parseCategoryID(c)
	if !ok {
		return
	}

	ancestors, err := h.repo.Ancestors(id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "CATEGORY_NOT_FOUND",
					Message: "Category not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get ancestors"})
		return
	}
	if ancestors == nil {
		ancestors = []models.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ancestors})
}

// UpdateCategory applies a partial update to a category
// PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseCategoryID(c)
	if !ok {
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_REQUEST",
				Message: "Invalid request: " + err.Error(),
			},
		})
		return
	}

	category, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "CATEGORY_NOT_FOUND",
					Message: "Category not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get category"})
		return
	}

	if req.Name != nil {
		category.Name = *req.Name
		// Rename re-derives the slug unless one was supplied explicitly.
		if req.Slug == nil {
			category.Slug = ""
		}
	}
	if req.Slug != nil {
		category.Slug = *req.Slug
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := h.repo.Update(category); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to update category",
			},
		})
		return
	}

	if h.eventsPublisher != nil {
		_ = h.eventsPublisher.PublishCategoryUpdated(c.Request.Context(), category)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
}

// MoveCategory reparents a category. A null parentId moves it to the root
// level. A move that would make the node its own ancestor is rejected and
// leaves the tree unchanged.
// PUT /api/v1/categories/:id/move
func (h *CategoryHandler) MoveCategory(c *gin.Context) {
	id, ok := parseCategoryID(c)
	if !ok {
		return
	}

	var req models.MoveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_REQUEST",
				Message: "Invalid request: " + err.Error(),
			},
		})
		return
	}

	if err := h.repo.SetParent(id, req.ParentID); err != nil {
		switch {
		case errors.Is(err, repository.ErrTreeCycle):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "TREE_CYCLE",
					Message: "Cannot move a category under itself or one of its descendants",
					Field:   "parentId",
				},
			})
		case errors.Is(err, repository.ErrCategoryNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "CATEGORY_NOT_FOUND",
					Message: "Category or target parent not found",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move category"})
		}
		return
	}

	category, _ := h.repo.GetByID(id)
	if h.eventsPublisher != nil && category != nil {
		_ = h.eventsPublisher.PublishCategoryUpdated(c.Request.Context(), category)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
}

// DeleteCategory deletes a category and its whole subtree
// DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseCategoryID(c)
	if !ok {
		return
	}

	// Load before the delete for the event payload.
	category, _ := h.repo.GetByID(id)

	if err := h.repo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "CATEGORY_NOT_FOUND",
					Message: "Category not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	if h.eventsPublisher != nil && category != nil {
		_ = h.eventsPublisher.PublishCategoryDeleted(c.Request.Context(), category)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted"})
}
