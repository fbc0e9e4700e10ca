package importer

import (
	"errors"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
)

// pathSeparator is the separator the legacy system used in its flat
// category text ("Tools > Electric").
const pathSeparator = ">"

// Resolver maps category text from import rows to tree nodes. Matching is
// scoped per (name, parent), so sibling names in different branches stay
// distinct nodes.
type Resolver struct {
	categories *repository.CategoryRepository
}

func NewResolver(categories *repository.CategoryRepository) *Resolver {
	return &Resolver{categories: categories}
}

// splitPath breaks a legacy flat path into trimmed segments, dropping empty
// ones.
func splitPath(path string) []string {
	var segments []string
	for _, part := range strings.Split(path, pathSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

func pathSegments(category, subcategory string) []string {
	segments := splitPath(category)
	if sub := strings.TrimSpace(subcategory); sub != "" {
		segments = append(segments, sub)
	}
	return segments
}

// Resolve returns the leaf node for a (category, subcategory) pair, creating
// missing levels parent-first. The category text may itself be a legacy
// "A > B" path. Returns nil for empty input.
func (r *Resolver) Resolve(category, subcategory string) (*models.Category, error) {
	segments := pathSegments(category, subcategory)
	if len(segments) == 0 {
		return nil, nil
	}

	var node *models.Category
	var parentID *uuid.UUID
	for _, name := range segments {
		created, err := r.categories.CreateOrGet(name, parentID)
		if err != nil {
			return nil, err
		}
		node = created
		id := node.ID
		parentID = &id
	}
	return node, nil
}

// ResolvePath resolves a legacy flat path, creating missing levels.
// Re-importing the same path is idempotent: no duplicate branches.
func (r *Resolver) ResolvePath(path string) (*models.Category, error) {
	return r.Resolve(path, "")
}

// Lookup finds the leaf node for a (category, subcategory) pair without
// creating anything; dry runs must not mutate the tree. A missing level
// yields (nil, nil).
func (r *Resolver) Lookup(category, subcategory string) (*models.Category, error) {
	segments := pathSegments(category, subcategory)
	if len(segments) == 0 {
		return nil, nil
	}

	var node *models.Category
	var parentID *uuid.UUID
	for _, name := range segments {
		found, err := r.categories.LookupByName(name, parentID)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, nil
			}
			return nil, err
		}
		node = found
		id := node.ID
		parentID = &id
	}
	return node, nil
}
