package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{"SKU", "sku"},
		{"sku *", "sku"},
		{"Categoría", "categoria"},
		{"Sub Categoría", "subcategoria"},
		{"  Descripción  ", "descripcion"},
		{"Precio", "precio"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeHeader(tt.header), "normalizeHeader(%q)", tt.header)
	}
}

func TestMapHeadersSynonyms(t *testing.T) {
	spanish := mapHeaders([]string{"SKU", "Nombre", "Precio", "Stock", "Marca", "Descripción", "Categoría", "Sub Categoría"})
	english := mapHeaders([]string{"sku", "name", "price", "stock", "brand", "description", "category", "subcategory"})
	assert.Equal(t, english, spanish)
	assert.Equal(t, 0, spanish[fieldSKU])
	assert.Equal(t, 7, spanish[fieldSubcategory])
}

func productHeaders() []string {
	return []string{"sku", "name", "price", "stock", "brand", "description", "category", "subcategory"}
}

func TestProductImportRequiresSKUColumn(t *testing.T) {
	im, _, _ := newProductImporter(t)

	_, err := im.Process([]string{"name", "price"}, [][]string{{"Widget", "10"}}, ProductImportOptions{}, nil)
	var structural *StructuralError
	require.ErrorAs(t, err, &structural)
	assert.Contains(t, structural.Reason, "SKU")
}

func TestProductImportCreatesWithCategories(t *testing.T) {
	im, products, categories := newProductImporter(t)

	rows := [][]string{
		{"TAL-0042", "Taladro 650W", "45999,90", "12", "Bosch", "Con maletin", "Herramientas", "Electricas"},
		{"PIN-0101", "Latex 20L", "$28999.00", "30", "Alba", "", "Pinturas", ""},
	}
	result, err := im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.ToCreate)
	assert.Equal(t, 0, result.Stats.Errors)

	drill, err := products.GetBySKU("TAL-0042")
	require.NoError(t, err)
	assert.Equal(t, 45999.90, drill.BasePrice)
	assert.Equal(t, 12, drill.Stock)
	assert.Equal(t, "Herramientas > Electricas", drill.CategoryOld)
	require.Len(t, drill.Categories, 1)

	leaf, err := categories.GetByID(drill.Categories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Electricas", leaf.Name)
	require.NotNil(t, leaf.ParentID)
	parent, err := categories.GetByID(*leaf.ParentID)
	require.NoError(t, err)
	assert.Equal(t, "Herramientas", parent.Name)

	paint, err := products.GetBySKU("PIN-0101")
	require.NoError(t, err)
	assert.Equal(t, 28999.00, paint.BasePrice)
	assert.Equal(t, "Pinturas", paint.CategoryOld)
}

func TestProductImportReimportIdempotent(t *testing.T) {
	im, products, categories := newProductImporter(t)
	rows := [][]string{
		{"TAL-0042", "Taladro", "100", "5", "Bosch", "", "Herramientas", "Electricas"},
	}

	first, err := im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Stats.ToCreate)

	second, err := im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Stats.ToCreate)
	assert.Equal(t, 1, second.Stats.ToUpdate)

	// No duplicate branches and a single product.
	all, err := categories.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	count, err := products.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestProductImportReimportChangesCategory(t *testing.T) {
	im, products, categories := newProductImporter(t)

	rows := [][]string{{"MOV-1", "Roller", "10", "1", "", "", "Herramientas", ""}}
	_, err := im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)

	rows[0][6] = "Pinturas"
	_, err = im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)

	got, err := products.GetBySKU("MOV-1")
	require.NoError(t, err)
	assert.Equal(t, "Pinturas", got.CategoryOld)
	require.Len(t, got.Categories, 1)
	leaf, err := categories.GetByID(got.Categories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Pinturas", leaf.Name)
}

func TestProductImportDryRunDoesNotTouchTree(t *testing.T) {
	im, products, categories := newProductImporter(t)
	rows := [][]string{
		{"TAL-0042", "Taladro", "100", "5", "Bosch", "", "Herramientas", "Electricas"},
	}

	dry, err := im.Process(productHeaders(), rows, ProductImportOptions{DryRun: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, dry.Stats.ToCreate)

	all, err := categories.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all, "dry run must not create categories")

	count, err := products.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	commit, err := im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, dry.Stats, commit.Stats)
}

func TestProductImportDuplicateSKU(t *testing.T) {
	im, products, _ := newProductImporter(t)
	rows := [][]string{
		{"DUP-1", "First", "10", "1", "", "", "", ""},
		{"DUP-1", "Second", "20", "2", "", "", "", ""},
	}

	result, err := im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.ToCreate)
	assert.Equal(t, 1, result.Stats.Errors)
	assert.Contains(t, result.Errors[0], "Row 3")

	got, err := products.GetBySKU("DUP-1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Name)
}

func TestProductImportMissingSKUCell(t *testing.T) {
	im, _, _ := newProductImporter(t)
	rows := [][]string{
		{"", "No SKU", "10", "1", "", "", "", ""},
		{"OK-1", "Fine", "10", "1", "", "", "", ""},
	}

	result, err := im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.ToCreate)
	assert.Equal(t, 1, result.Stats.Errors)
	assert.Contains(t, result.Errors[0], "Row 2")
}

func TestProductImportUnparsableNumbers(t *testing.T) {
	im, products, _ := newProductImporter(t)
	rows := [][]string{
		{"NUM-1", "Widget", "consultar", "muchos", "", "", "", ""},
	}

	result, err := im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.ToCreate)
	assert.Equal(t, 0, result.Stats.Errors)

	got, err := products.GetBySKU("NUM-1")
	require.NoError(t, err)
	assert.Zero(t, got.BasePrice)
	assert.Zero(t, got.Stock)
}

func TestProductImportLegacyPathInCategoryColumn(t *testing.T) {
	im, products, categories := newProductImporter(t)
	rows := [][]string{
		{"LEG-1", "Legacy", "10", "1", "", "", "Herramientas > Manuales", ""},
	}

	_, err := im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)

	got, err := products.GetBySKU("LEG-1")
	require.NoError(t, err)
	require.Len(t, got.Categories, 1)
	leaf, err := categories.GetByID(got.Categories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Manuales", leaf.Name)
	require.NotNil(t, leaf.ParentID)
}

func TestProductImportUpdatePreservesExistingID(t *testing.T) {
	im, products, _ := newProductImporter(t)
	rows := [][]string{{"KEEP-1", "Original", "10", "1", "", "", "", ""}}

	_, err := im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)
	before, err := products.GetBySKU("KEEP-1")
	require.NoError(t, err)

	rows[0][1] = "Renamed"
	_, err = im.Process(productHeaders(), rows, ProductImportOptions{}, nil)
	require.NoError(t, err)

	after, err := products.GetBySKU("KEEP-1")
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "Renamed", after.Name)
}
