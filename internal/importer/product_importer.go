package importer

import (
	"fmt"
	"strings"
	"unicode"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
)

// Canonical column names of the product pipeline. Files may use the legacy
// Spanish headers; headerSynonyms maps both spellings here.
const (
	fieldSKU         = "sku"
	fieldName        = "name"
	fieldPrice       = "price"
	fieldStock       = "stock"
	fieldBrand       = "brand"
	fieldDescription = "description"
	fieldCategory    = "category"
	fieldSubcategory = "subcategory"
)

var headerSynonyms = map[string]string{
	"sku":          fieldSKU,
	"codigo":       fieldSKU,
	"name":         fieldName,
	"nombre":       fieldName,
	"price":        fieldPrice,
	"precio":       fieldPrice,
	"stock":        fieldStock,
	"brand":        fieldBrand,
	"marca":        fieldBrand,
	"description":  fieldDescription,
	"descripcion":  fieldDescription,
	"category":     fieldCategory,
	"categoria":    fieldCategory,
	"subcategory":  fieldSubcategory,
	"subcategoria": fieldSubcategory,
}

// normalizeHeader folds a header cell for synonym matching: lowercase,
// diacritics stripped, everything but letters and digits removed, the
// template's " *" required marker dropped.
func normalizeHeader(header string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(header)))
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// mapHeaders resolves each header cell to its canonical field index. Unknown
// headers are ignored; the first occurrence of a field wins.
func mapHeaders(headers []string) map[string]int {
	mapped := make(map[string]int, len(headers))
	for i, h := range headers {
		if field, ok := headerSynonyms[normalizeHeader(h)]; ok {
			if _, taken := mapped[field]; !taken {
				mapped[field] = i
			}
		}
	}
	return mapped
}

// ProductImportOptions configure one product import run.
type ProductImportOptions struct {
	// DryRun classifies every row but persists nothing, and never creates
	// categories as a side effect.
	DryRun bool
}

// ProductImporter upserts catalog items keyed by SKU from a header-named
// spreadsheet, resolving category text through the Resolver.
type ProductImporter struct {
	repo     *repository.ProductRepository
	resolver *Resolver
	log      *logrus.Entry
}

func NewProductImporter(repo *repository.ProductRepository, resolver *Resolver, logger *logrus.Logger) *ProductImporter {
	return &ProductImporter{
		repo:     repo,
		resolver: resolver,
		log:      logger.WithField("component", "importer.products"),
	}
}

// Process classifies every data row against the header mapping and, unless
// DryRun, applies all creates and updates in one transaction. Categories
// named by rows are created on demand in commit mode only; each resolver
// call is its own small transaction, guarded by the tree's cycle and
// uniqueness checks.
func (im *ProductImporter) Process(headers []string, rows [][]string, opts ProductImportOptions, emit ProgressFunc) (*ImportResult, error) {
	columns := mapHeaders(headers)
	if _, ok := columns[fieldSKU]; !ok {
		return nil, &StructuralError{Reason: "missing required column: SKU"}
	}

	index, err := im.repo.LoadSKUIndex()
	if err != nil {
		return nil, fmt.Errorf("loading SKU index: %w", err)
	}

	result := newImportResult(len(rows))
	emitStart(emit, len(rows))

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok {
			return ""
		}
		return cleanCell(cell(row, idx))
	}

	var creates []*models.Product
	var updates []*models.Product
	seen := make(map[string]int, len(rows))

	for i, row := range rows {
		rowNum := i + 2
		emitRowProgress(emit, i+1, len(rows))

		if isBlankRow(row) {
			result.Stats.Skipped++
			continue
		}

		sku := field(row, fieldSKU)
		if sku == "" {
			result.addRowError(rowNum, "SKU is empty")
			continue
		}
		if firstRow, dup := seen[sku]; dup {
			result.addRowError(rowNum, "duplicate SKU %q (first seen at row %d)", sku, firstRow)
			continue
		}
		seen[sku] = rowNum

		categoryText := field(row, fieldCategory)
		subcategoryText := field(row, fieldSubcategory)

		var leaf *models.Category
		if opts.DryRun {
			leaf, err = im.resolver.Lookup(categoryText, subcategoryText)
		} else {
			leaf, err = im.resolver.Resolve(categoryText, subcategoryText)
		}
		if err != nil {
			result.addRowError(rowNum, "resolving category %q: %v", categoryText, err)
			continue
		}

		product := &models.Product{
			SKU:         sku,
			Name:        field(row, fieldName),
			Description: field(row, fieldDescription),
			BasePrice:   parseFloatSafe(field(row, fieldPrice)),
			Stock:       parseIntSafe(field(row, fieldStock)),
			Brand:       field(row, fieldBrand),
			IsActive:    true,
			CategoryOld: legacyCategoryText(categoryText, subcategoryText),
		}
		if leaf != nil {
			leafID := leaf.ID
			product.CategoryID = &leafID
			product.Categories = []models.Category{{ID: leaf.ID}}
		}

		if existingID, exists := index[sku]; exists {
			product.ID = existingID
			updates = append(updates, product)
			result.Stats.ToUpdate++
			result.addPreview("Update product %q (%s)", sku, product.Name)
			continue
		}

		product.ID = uuid.New()
		creates = append(creates, product)
		result.Stats.ToCreate++
		result.addPreview("Create product %q (%s)", sku, product.Name)
	}

	if !opts.DryRun {
		if err := im.repo.ApplyImport(creates, updates); err != nil {
			im.log.WithError(err).Error("product import apply failed, nothing persisted")
			return nil, fmt.Errorf("applying product import: %w", err)
		}
	}

	im.log.WithFields(logrus.Fields{
		"total":   result.Stats.TotalRows,
		"created": result.Stats.ToCreate,
		"updated": result.Stats.ToUpdate,
		"errors":  result.Stats.Errors,
		"dryRun":  opts.DryRun,
	}).Info("product import finished")

	emitResult(emit, result)
	return result, nil
}

// legacyCategoryText reproduces the flat "Parent > Child" text the legacy
// system stored, for the compatibility column.
func legacyCategoryText(category, subcategory string) string {
	if category == "" {
		return ""
	}
	if subcategory == "" {
		return category
	}
	return category + " > " + subcategory
}
