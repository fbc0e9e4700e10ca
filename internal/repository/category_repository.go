package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// Cache TTL constants
const (
	CategoryCacheTTL     = 30 * time.Minute // Categories rarely change
	CategoryTreeCacheTTL = 15 * time.Minute
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	// ErrTreeCycle is returned when a reparent would make a node its own
	// ancestor, directly or through a descendant.
	ErrTreeCycle = errors.New("move would create a cycle in the category tree")
)

type CategoryRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCategoryRepository(db *gorm.DB, redisClient *redis.Client) *CategoryRepository {
	return &CategoryRepository{
		db:    db,
		redis: redisClient,
	}
}

// DB exposes the underlying handle for callers that scope their own
// transactions (the import apply phase).
func (r *CategoryRepository) DB() *gorm.DB {
	return r.db
}

// invalidateCaches drops all category caches after a write.
func (r *CategoryRepository) invalidateCaches(ctx context.Context, categoryID *string) {
	if r.redis == nil {
		return
	}
	if categoryID != nil {
		r.redis.Del(ctx, fmt.Sprintf("catalog:categories:category:%s", *categoryID))
	}
	r.redis.Del(ctx, "catalog:categories:tree")
}

// Slugify derives a URL-safe slug candidate from a name: lowercase,
// diacritics folded to ASCII, runs of non-alphanumerics collapsed to hyphens.
func Slugify(name string) string {
	decomposed := norm.NFD.String(strings.ToLower(name))
	var b strings.Builder
	lastHyphen := true // swallow leading hyphens
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from NFD, drop it
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 50 {
		slug = strings.Trim(slug[:50], "-")
	}
	return slug
}

// uniqueSlug returns the candidate itself or the candidate with the smallest
// positive integer suffix that is free. excludeID ignores the node being
// renamed so a rename to the same name is a no-op.
func uniqueSlug(tx *gorm.DB, candidate string, excludeID *uuid.UUID) (string, error) {
	if candidate == "" {
		candidate = "category"
	}
	slug := candidate
	for i := 0; ; i++ {
		if i > 0 {
			slug = fmt.Sprintf("%s-%d", candidate, i)
		}
		var count int64
		q := tx.Model(&models.Category{}).Where("slug = ?", slug)
		if excludeID != nil {
			q = q.Where("id <> ?", *excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
	}
}

// CreateOrGet returns the category named name under parentID, creating it if
// absent. Sibling names are unique per parent, so two branches may each hold
// an "Accessories" without colliding.
func (r *CategoryRepository) CreateOrGet(name string, parentID *uuid.UUID) (*models.Category, error) {
	var category *models.Category
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		category, err = createOrGetTx(tx, name, parentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.invalidateCaches(context.Background(), nil)
	return category, nil
}

// LookupByName finds the category named name under parentID without creating
// it. Used by dry-run imports, which must not mutate the tree.
func (r *CategoryRepository) LookupByName(name string, parentID *uuid.UUID) (*models.Category, error) {
	var category models.Category
	q := r.db.Where("name = ?", strings.TrimSpace(name))
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if err := q.First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func createOrGetTx(tx *gorm.DB, name string, parentID *uuid.UUID) (*models.Category, error) {
	name = strings.TrimSpace(name)
	var existing models.Category
	q := tx.Where("name = ?", name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	err := q.First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	slug, err := uniqueSlug(tx, Slugify(name), nil)
	if err != nil {
		return nil, err
	}
	category := &models.Category{
		ID:       uuid.New(),
		Name:     name,
		Slug:     slug,
		ParentID: parentID,
		IsActive: true,
	}
	if err := tx.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// Create inserts an explicitly configured category. A blank slug is derived
// from the name; derived and explicit slugs both get collision suffixing.
func (r *CategoryRepository) Create(category *models.Category) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if category.ParentID != nil {
			var count int64
			if err := tx.Model(&models.Category{}).Where("id = ?", *category.ParentID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrCategoryNotFound
			}
		}
		if category.Slug == "" {
			category.Slug = Slugify(category.Name)
		}
		slug, err := uniqueSlug(tx, category.Slug, nil)
		if err != nil {
			return err
		}
		category.Slug = slug
		return tx.Create(category).Error
	})
	if err == nil {
		r.invalidateCaches(context.Background(), nil)
	}
	return err
}

func categoryCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("catalog:categories:category:%s", id)
}

// GetByID retrieves a category by ID, read through the cache.
func (r *CategoryRepository) GetByID(id uuid.UUID) (*models.Category, error) {
	ctx := context.Background()
	cacheKey := categoryCacheKey(id)

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var category models.Category
			if err := json.Unmarshal([]byte(val), &category); err == nil {
				return &category, nil
			}
		}
	}

	var category models.Category
	if err := r.db.Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(category); err == nil {
			r.redis.Set(ctx, cacheKey, data, CategoryCacheTTL)
		}
	}
	return &category, nil
}

// GetBySlug retrieves a category by slug
func (r *CategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// GetAll lists categories ordered for display.
func (r *CategoryRepository) GetAll() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Order("sort_order, name").Find(&categories).Error
	return categories, err
}

// Update saves field changes on a category. A rename with a blank slug
// re-derives the slug from the new name. Explicit slugs get the same
// collision suffixing as derived ones, so a taken slug never surfaces as a
// constraint error.
func (r *CategoryRepository) Update(category *models.Category) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if category.Slug == "" {
			category.Slug = Slugify(category.Name)
		}
		slug, err := uniqueSlug(tx, category.Slug, &category.ID)
		if err != nil {
			return err
		}
		category.Slug = slug
		return tx.Save(category).Error
	})
	if err == nil {
		id := category.ID.String()
		r.invalidateCaches(context.Background(), &id)
	}
	return err
}

// SetParent moves a category under a new parent (nil for root level). The
// move is rejected with ErrTreeCycle when newParentID is the node itself or
// any of its current descendants; a rejected move leaves the tree unchanged.
func (r *CategoryRepository) SetParent(id uuid.UUID, newParentID *uuid.UUID) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Where("id = ?", id).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}

		if newParentID != nil {
			if *newParentID == id {
				return ErrTreeCycle
			}
			var count int64
			if err := tx.Model(&models.Category{}).Where("id = ?", *newParentID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrCategoryNotFound
			}
			descendants, err := descendantIDsTx(tx, id, true)
			if err != nil {
				return err
			}
			for _, d := range descendants {
				if d == *newParentID {
					return ErrTreeCycle
				}
			}
		}

		return tx.Model(&models.Category{}).Where("id = ?", id).Update("parent_id", newParentID).Error
	})
	if err == nil {
		idStr := id.String()
		r.invalidateCaches(context.Background(), &idStr)
	}
	return err
}

// categoryLink is the projection used for in-memory tree traversal.
type categoryLink struct {
	ID       uuid.UUID
	ParentID *uuid.UUID
}

func loadLinks(tx *gorm.DB) ([]categoryLink, error) {
	var links []categoryLink
	err := tx.Model(&models.Category{}).Select("id", "parent_id").Find(&links).Error
	return links, err
}

// descendantIDsTx walks the child adjacency loaded in a single query, so the
// closure costs one round trip regardless of tree depth.
func descendantIDsTx(tx *gorm.DB, id uuid.UUID, includeSelf bool) ([]uuid.UUID, error) {
	links, err := loadLinks(tx)
	if err != nil {
		return nil, err
	}
	children := make(map[uuid.UUID][]uuid.UUID, len(links))
	found := false
	for _, l := range links {
		if l.ID == id {
			found = true
		}
		if l.ParentID != nil {
			children[*l.ParentID] = append(children[*l.ParentID], l.ID)
		}
	}
	if !found {
		return nil, ErrCategoryNotFound
	}

	var result []uuid.UUID
	if includeSelf {
		result = append(result, id)
	}
	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result, nil
}

// DescendantIDs returns the transitive closure of child links from id,
// optionally including id itself. Scopes "category and everything under it"
// queries.
func (r *CategoryRepository) DescendantIDs(id uuid.UUID, includeSelf bool) ([]uuid.UUID, error) {
	return descendantIDsTx(r.db, id, includeSelf)
}

// Ancestors returns the chain from the root down to (excluding) id.
func (r *CategoryRepository) Ancestors(id uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Find(&categories).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	node, ok := byID[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}

	var chain []models.Category
	for node.ParentID != nil {
		parent, ok := byID[*node.ParentID]
		if !ok {
			break
		}
		chain = append([]models.Category{parent}, chain...)
		node = parent
	}
	return chain, nil
}

// Depth is the number of ancestors above id; roots have depth 0.
func (r *CategoryRepository) Depth(id uuid.UUID) (int, error) {
	ancestors, err := r.Ancestors(id)
	if err != nil {
		return 0, err
	}
	return len(ancestors), nil
}

// Tree returns the full category forest as nested nodes, cached.
func (r *CategoryRepository) Tree() ([]*models.CategoryNode, error) {
	ctx := context.Background()
	cacheKey := "catalog:categories:tree"

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var tree []*models.CategoryNode
			if err := json.Unmarshal([]byte(val), &tree); err == nil {
				return tree, nil
			}
		}
	}

	var categories []models.Category
	if err := r.db.Order("sort_order, name").Find(&categories).Error; err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*models.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &models.CategoryNode{Category: c, Children: []*models.CategoryNode{}}
	}
	var roots []*models.CategoryNode
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				node.Depth = parent.Depth + 1
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	// Parents always precede children in the map fill above only when the
	// select order cooperates, so fix depths with a walk.
	var setDepth func(n *models.CategoryNode, depth int)
	setDepth = func(n *models.CategoryNode, depth int) {
		n.Depth = depth
		for _, c := range n.Children {
			setDepth(c, depth+1)
		}
	}
	for _, root := range roots {
		setDepth(root, 0)
	}

	if r.redis != nil {
		if data, err := json.Marshal(roots); err == nil {
			r.redis.Set(ctx, cacheKey, data, CategoryTreeCacheTTL)
		}
	}
	return roots, nil
}

// categoryCacheKeys lists the per-category cache keys for ids plus the tree
// key, so a subtree write can drop every affected entry in one call.
func categoryCacheKeys(ids []uuid.UUID) []string {
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, categoryCacheKey(id))
	}
	return append(keys, "catalog:categories:tree")
}

// Delete removes a category and its whole subtree, detaching any product
// links first.
func (r *CategoryRepository) Delete(id uuid.UUID) error {
	var ids []uuid.UUID
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		ids, err = descendantIDsTx(tx, id, true)
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM product_categories WHERE category_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Product{}).Where("category_id IN ?", ids).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Category{}).Error
	})
	if err == nil && r.redis != nil {
		// Deleted descendants had their own per-category entries; dropping
		// only the root would keep them readable until the TTL expires.
		r.redis.Del(context.Background(), categoryCacheKeys(ids)...)
	}
	return err
}
