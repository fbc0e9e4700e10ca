package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the catalog's category tree. The parent link forms a
// forest: no node may appear among its own descendants.
type Category struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	Name      string     `json:"name" gorm:"not null;uniqueIndex:idx_category_name_parent"`
	Slug      string     `json:"slug" gorm:"not null;uniqueIndex:idx_category_slug"`
	ParentID  *uuid.UUID `json:"parentId,omitempty" gorm:"uniqueIndex:idx_category_name_parent;index"`
	SortOrder int        `json:"sortOrder" gorm:"not null;default:0"`
	IsActive  bool       `json:"isActive" gorm:"default:true"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Relationships
	Parent   *Category  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []Category `json:"children,omitempty" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

// CategoryNode is a category with its resolved children, used by the tree
// endpoint.
type CategoryNode struct {
	Category
	Depth    int             `json:"depth"`
	Children []*CategoryNode `json:"children"`
}

// CreateCategoryRequest represents a request to create a new category
type CreateCategoryRequest struct {
	Name      string     `json:"name" binding:"required"`
	Slug      *string    `json:"slug,omitempty"`
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
	SortOrder *int       `json:"sortOrder,omitempty"`
	IsActive  *bool      `json:"isActive,omitempty"`
}

// UpdateCategoryRequest represents a partial update to a category
type UpdateCategoryRequest struct {
	Name      *string `json:"name,omitempty"`
	Slug      *string `json:"slug,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

// MoveCategoryRequest reparents a category. A nil parent moves the node to
// the root level.
type MoveCategoryRequest struct {
	ParentID *uuid.UUID `json:"parentId"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

// Error represents error details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}
