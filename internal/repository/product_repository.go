package repository

import (
	"errors"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// importBatchSize bounds the rows per INSERT in the apply phase.
	importBatchSize = 200
	// assignChunkSize bounds the join rows written per statement by the
	// bulk category-assignment action. Tunable, not behavior-relevant.
	assignChunkSize = 500
)

var ErrProductNotFound = errors.New("product not found")

// productUpdateColumns is the field set an import may touch on an existing
// product. Everything else (activation, audit timestamps managed by gorm
// hooks aside) stays as the admin left it.
var productUpdateColumns = []string{"name", "description", "base_price", "stock", "brand", "category_old", "category_id", "updated_at"}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) DB() *gorm.DB {
	return r.db
}

// LoadSKUIndex reads every existing SKU once so import classification does
// O(1) lookups instead of one query per row.
func (r *ProductRepository) LoadSKUIndex() (map[string]uuid.UUID, error) {
	var rows []struct {
		ID  uuid.UUID
		SKU string
	}
	if err := r.db.Model(&models.Product{}).Select("id", "sku").Find(&rows).Error; err != nil {
		return nil, err
	}
	index := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		index[row.SKU] = row.ID
	}
	return index, nil
}

// ApplyImport persists a classified import run: all creates as one bulk
// insert, all updates as one field-limited bulk upsert, in a single
// transaction. Update rows that resolved a category replace the product's
// links with that set. A transient failure is retried once; any other
// failure rolls the whole run back.
func (r *ProductRepository) ApplyImport(creates, updates []*models.Product) error {
	return withTransientRetry(func() error {
		return r.db.Transaction(func(tx *gorm.DB) error {
			if len(creates) > 0 {
				if err := tx.Omit("Categories.*").CreateInBatches(creates, importBatchSize).Error; err != nil {
					return err
				}
			}
			if len(updates) > 0 {
				if err := tx.Omit("Categories").Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "sku"}},
					DoUpdates: clause.AssignmentColumns(productUpdateColumns),
				}).CreateInBatches(updates, importBatchSize).Error; err != nil {
					return err
				}
				for _, p := range updates {
					if len(p.Categories) == 0 {
						continue
					}
					if err := replaceProductCategories(tx, p.ID, p.Categories); err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
}

// productCategory mirrors the many2many join table so bulk assignment can
// write it directly.
type productCategory struct {
	ProductID  uuid.UUID `gorm:"primaryKey"`
	CategoryID uuid.UUID `gorm:"primaryKey"`
}

func (productCategory) TableName() string {
	return "product_categories"
}

func linkProductCategories(tx *gorm.DB, productID uuid.UUID, categories []models.Category) error {
	links := make([]productCategory, 0, len(categories))
	for _, c := range categories {
		links = append(links, productCategory{ProductID: productID, CategoryID: c.ID})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

// replaceProductCategories makes the product's join rows match exactly the
// given set. An import row that names a category moves the product there; it
// does not keep the product under its previous branch as well.
func replaceProductCategories(tx *gorm.DB, productID uuid.UUID, categories []models.Category) error {
	ids := make([]uuid.UUID, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	if err := tx.Where("product_id = ? AND category_id NOT IN ?", productID, ids).Delete(&productCategory{}).Error; err != nil {
		return err
	}
	return linkProductCategories(tx, productID, categories)
}

// AssignCategories attaches every category to every product, writing the
// join table in fixed-size chunks.
func (r *ProductRepository) AssignCategories(productIDs, categoryIDs []uuid.UUID) (int, error) {
	links := make([]productCategory, 0, len(productIDs)*len(categoryIDs))
	for _, p := range productIDs {
		for _, c := range categoryIDs {
			links = append(links, productCategory{ProductID: p, CategoryID: c})
		}
	}

	assigned := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(links); start += assignChunkSize {
			end := start + assignChunkSize
			if end > len(links) {
				end = len(links)
			}
			chunk := links[start:end]
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&chunk)
			if result.Error != nil {
				return result.Error
			}
			assigned += int(result.RowsAffected)
		}
		return nil
	})
	return assigned, err
}

// GetBySKU retrieves a product by its SKU
func (r *ProductRepository) GetBySKU(sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Categories").Where("sku = ?", sku).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// List returns active products matching the filters. When categoryIDs is
// non-empty the match covers the whole descendant closure the caller
// resolved.
func (r *ProductRepository) List(filters models.ProductFilters, categoryIDs []uuid.UUID, page, limit int) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).Where("is_active = ?", true)

	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ? OR brand LIKE ?", pattern, pattern, pattern)
	}
	if filters.Brand != "" {
		query = query.Where("brand LIKE ?", "%"+filters.Brand+"%")
	}
	if filters.MinPrice != nil {
		query = query.Where("base_price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("base_price <= ?", *filters.MaxPrice)
	}
	if len(categoryIDs) > 0 {
		query = query.Where("id IN (?)",
			r.db.Table("product_categories").Select("product_id").Where("category_id IN ?", categoryIDs))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := query.Preload("Categories").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&products).Error
	return products, total, err
}

// Count returns the number of product records.
func (r *ProductRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Count(&count).Error
	return count, err
}

// AllForExport loads every product with its categories for spreadsheet
// export.
func (r *ProductRepository) AllForExport() ([]models.Product, error) {
	var products []models.Product
	err := r.db.Preload("Categories").Order("sku").Find(&products).Error
	return products, err
}
