package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog item. SKU is the sole upsert key for imports.
type Product struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	SKU         string    `json:"sku" gorm:"not null;uniqueIndex:idx_product_sku"`
	Name        string    `json:"name" gorm:"not null;index"`
	Description string    `json:"description"`
	BasePrice   float64   `json:"basePrice" gorm:"not null;default:0"`
	Stock       int       `json:"stock" gorm:"not null;default:0"`
	Brand       string    `json:"brand" gorm:"index"`
	IsActive    bool      `json:"isActive" gorm:"default:true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// CategoryOld keeps the flat "Parent > Child" text the legacy system
	// stored before the tree existed. Written for compatibility, never read
	// by new logic.
	CategoryOld string `json:"categoryOld,omitempty"`

	// CategoryID is the legacy single-category link. New logic uses the
	// Categories relation.
	CategoryID *uuid.UUID `json:"categoryId,omitempty"`

	Categories []Category `json:"categories,omitempty" gorm:"many2many:product_categories"`
}

// ProductFilters represents filters for product list queries
type ProductFilters struct {
	Search   string `form:"search"`
	Category string `form:"category"` // slug; matches the category and its whole subtree
	Brand    string `form:"brand"`
	MinPrice *float64 `form:"minPrice"`
	MaxPrice *float64 `form:"maxPrice"`
}

// AssignCategoriesRequest attaches categories to a set of products in bulk.
type AssignCategoriesRequest struct {
	ProductIDs  []uuid.UUID `json:"productIds" binding:"required,min=1"`
	CategoryIDs []uuid.UUID `json:"categoryIds" binding:"required,min=1"`
}

// PaginationInfo represents pagination information
type PaginationInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
