package repository

import (
	"testing"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repo *ProductRepository, sku, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{ID: uuid.New(), SKU: sku, Name: name, BasePrice: price, IsActive: true}
	require.NoError(t, repo.ApplyImport([]*models.Product{p}, nil))
	return p
}

func TestLoadSKUIndex(t *testing.T) {
	repo := NewProductRepository(newTestDB(t))
	a := seedProduct(t, repo, "SKU-A", "A", 10)
	b := seedProduct(t, repo, "SKU-B", "B", 20)

	index, err := repo.LoadSKUIndex()
	require.NoError(t, err)
	assert.Equal(t, map[string]uuid.UUID{"SKU-A": a.ID, "SKU-B": b.ID}, index)
}

func TestApplyImportUpsert(t *testing.T) {
	repo := NewProductRepository(newTestDB(t))
	existing := seedProduct(t, repo, "SKU-A", "Old Name", 10)

	update := &models.Product{
		ID: existing.ID, SKU: "SKU-A", Name: "New Name", BasePrice: 99.5, Stock: 7, Brand: "Acme",
	}
	created := &models.Product{ID: uuid.New(), SKU: "SKU-B", Name: "Fresh", BasePrice: 5, IsActive: true}

	require.NoError(t, repo.ApplyImport([]*models.Product{created}, []*models.Product{update}))

	got, err := repo.GetBySKU("SKU-A")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, 99.5, got.BasePrice)
	assert.Equal(t, 7, got.Stock)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestApplyImportUpdateLeavesActivationAlone(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	existing := seedProduct(t, repo, "SKU-A", "Widget", 10)

	// Admin deactivated the product after the first import.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", existing.ID).Update("is_active", false).Error)

	update := &models.Product{ID: existing.ID, SKU: "SKU-A", Name: "Widget v2", BasePrice: 12, IsActive: true}
	require.NoError(t, repo.ApplyImport(nil, []*models.Product{update}))

	got, err := repo.GetBySKU("SKU-A")
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", got.Name)
	assert.False(t, got.IsActive, "an import update must not flip activation")
}

func TestApplyImportLinksCategories(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	categories := NewCategoryRepository(db, nil)

	leaf, err := categories.CreateOrGet("Tools", nil)
	require.NoError(t, err)

	existing := seedProduct(t, repo, "SKU-A", "Drill", 10)
	update := &models.Product{
		ID: existing.ID, SKU: "SKU-A", Name: "Drill", BasePrice: 10,
		CategoryID: &leaf.ID,
		Categories: []models.Category{{ID: leaf.ID}},
	}
	require.NoError(t, repo.ApplyImport(nil, []*models.Product{update}))
	// Linking twice keeps a single join row.
	require.NoError(t, repo.ApplyImport(nil, []*models.Product{update}))

	got, err := repo.GetBySKU("SKU-A")
	require.NoError(t, err)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, leaf.ID, got.Categories[0].ID)
}

func TestApplyImportMovesCategoryLinks(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	categories := NewCategoryRepository(db, nil)

	tools, err := categories.CreateOrGet("Tools", nil)
	require.NoError(t, err)
	paint, err := categories.CreateOrGet("Paint", nil)
	require.NoError(t, err)

	existing := seedProduct(t, repo, "SKU-A", "Roller", 10)
	underTools := &models.Product{
		ID: existing.ID, SKU: "SKU-A", Name: "Roller", BasePrice: 10,
		CategoryID: &tools.ID,
		Categories: []models.Category{{ID: tools.ID}},
	}
	require.NoError(t, repo.ApplyImport(nil, []*models.Product{underTools}))

	// A re-import under a different category replaces the link, it does not
	// leave the product in both branches.
	underPaint := &models.Product{
		ID: existing.ID, SKU: "SKU-A", Name: "Roller", BasePrice: 10,
		CategoryID: &paint.ID,
		Categories: []models.Category{{ID: paint.ID}},
	}
	require.NoError(t, repo.ApplyImport(nil, []*models.Product{underPaint}))

	got, err := repo.GetBySKU("SKU-A")
	require.NoError(t, err)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, paint.ID, got.Categories[0].ID)

	// The old branch no longer lists the product.
	closure, err := categories.DescendantIDs(tools.ID, true)
	require.NoError(t, err)
	_, total, err := repo.List(models.ProductFilters{}, closure, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAssignCategories(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	categories := NewCategoryRepository(db, nil)

	tools, err := categories.CreateOrGet("Tools", nil)
	require.NoError(t, err)
	offers, err := categories.CreateOrGet("Offers", nil)
	require.NoError(t, err)

	a := seedProduct(t, repo, "SKU-A", "A", 1)
	b := seedProduct(t, repo, "SKU-B", "B", 2)

	assigned, err := repo.AssignCategories([]uuid.UUID{a.ID, b.ID}, []uuid.UUID{tools.ID, offers.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, assigned)

	// Re-assigning is a no-op, existing links survive.
	assigned, err = repo.AssignCategories([]uuid.UUID{a.ID}, []uuid.UUID{tools.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, assigned)
}

func TestListWithCategoryClosure(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	categories := NewCategoryRepository(db, nil)

	tools, err := categories.CreateOrGet("Tools", nil)
	require.NoError(t, err)
	electric, err := categories.CreateOrGet("Electric", &tools.ID)
	require.NoError(t, err)

	drill := seedProduct(t, repo, "SKU-DRILL", "Drill", 100)
	hammer := seedProduct(t, repo, "SKU-HAMMER", "Hammer", 20)
	_ = seedProduct(t, repo, "SKU-PAINT", "Paint", 5)

	_, err = repo.AssignCategories([]uuid.UUID{drill.ID}, []uuid.UUID{electric.ID})
	require.NoError(t, err)
	_, err = repo.AssignCategories([]uuid.UUID{hammer.ID}, []uuid.UUID{tools.ID})
	require.NoError(t, err)

	// Filtering by the parent covers products linked anywhere in its subtree.
	closure, err := categories.DescendantIDs(tools.ID, true)
	require.NoError(t, err)

	products, total, err := repo.List(models.ProductFilters{}, closure, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	skus := []string{products[0].SKU, products[1].SKU}
	assert.ElementsMatch(t, []string{"SKU-DRILL", "SKU-HAMMER"}, skus)

	// Leaf filter narrows to the leaf's own products.
	leafOnly, err := categories.DescendantIDs(electric.ID, true)
	require.NoError(t, err)
	products, total, err = repo.List(models.ProductFilters{}, leafOnly, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "SKU-DRILL", products[0].SKU)
}

func TestListFilters(t *testing.T) {
	repo := NewProductRepository(newTestDB(t))
	seedProduct(t, repo, "SKU-A", "Percussion Drill", 100)
	seedProduct(t, repo, "SKU-B", "Paint Roller", 5)

	minPrice := 50.0
	_, total, err := repo.List(models.ProductFilters{MinPrice: &minPrice}, nil, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = repo.List(models.ProductFilters{Search: "Roller"}, nil, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
