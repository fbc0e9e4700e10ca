package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductHandler struct {
	products   *repository.ProductRepository
	categories *repository.CategoryRepository
}

func NewProductHandler(products *repository.ProductRepository, categories *repository.CategoryRepository) *ProductHandler {
	return &ProductHandler{products: products, categories: categories}
}

func pagination(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// GetProductList returns active products matching the filters. A category
// filter matches the named category and its whole subtree.
// GET /api/v1/products
func (h *ProductHandler) GetProductList(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_QUERY",
				Message: "Invalid query parameters: " + err.Error(),
			},
		})
		return
	}
	page, limit := pagination(c, 20, 100)

	var categoryIDs []uuid.UUID
	if filters.Category != "" {
		category, err := h.categories.GetBySlug(filters.Category)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				c.JSON(http.StatusNotFound, models.ErrorResponse{
					Success: false,
					Error: models.Error{
						Code:    "CATEGORY_NOT_FOUND",
						Message: "Category not found",
						Field:   "category",
					},
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve category"})
			return
		}
		categoryIDs, err = h.categories.DescendantIDs(category.ID, true)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve category"})
			return
		}
	}

	products, total, err := h.products.List(filters, categoryIDs, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
		"pagination": models.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	})
}

// GetProductBySKU gets a product by its SKU
// GET /api/v1/products/:sku
func (h *ProductHandler) GetProductBySKU(c *gin.Context) {
	product, err := h.products.GetBySKU(c.Param("sku"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "PRODUCT_NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

// AssignCategories attaches categories to products in bulk. Existing links
// are kept untouched.
// POST /api/v1/products/assign-categories
func (h *ProductHandler) AssignCategories(c *gin.Context) {
	var req models.AssignCategoriesRequest
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

	for _, id := range req.CategoryIDs {
		if _, err := h.categories.GetByID(id); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				c.JSON(http.StatusNotFound, models.ErrorResponse{
					Success: false,
					Error: models.Error{
						Code:    "CATEGORY_NOT_FOUND",
						Message: "Category " + id.String() + " not found",
						Field:   "categoryIds",
					},
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify categories"})
			return
		}
	}

	assigned, err := h.products.AssignCategories(req.ProductIDs, req.CategoryIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "ASSIGN_FAILED",
				Message: "Failed to assign categories",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "assigned": assigned})
}
