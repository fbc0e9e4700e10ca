package handlers

import (
	"fmt"
	"net/http"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ExportHandler writes the catalog back out as spreadsheets in the same
// column layout the importers accept, so an export can be edited and
// re-imported.
type ExportHandler struct {
	products   *repository.ProductRepository
	clients    *repository.ClientRepository
	categories *repository.CategoryRepository
}

func NewExportHandler(products *repository.ProductRepository, clients *repository.ClientRepository, categories *repository.CategoryRepository) *ExportHandler {
	return &ExportHandler{products: products, clients: clients, categories: categories}
}

// ExportProducts downloads every product as XLSX
// GET /api/v1/products/export
func (h *ExportHandler) ExportProducts(c *gin.Context) {
	products, err := h.products.AllForExport()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load products"})
		return
	}
	parents, err := h.categoryParents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load categories"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Products"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"sku", "name", "price", "stock", "brand", "description", "category", "subcategory"}
	writeHeaderRow(f, sheet, headers)

	for i, p := range products {
		category, subcategory := exportCategoryCells(p, parents)
		writeRow(f, sheet, i+2, []interface{}{
			p.SKU, p.Name, p.BasePrice, p.Stock, p.Brand, p.Description, category, subcategory,
		})
	}

	sendXLSX(c, f, "products_export.xlsx")
}

// ExportClients downloads every client account as XLSX, in the positional
// layout the client importer expects.
// GET /api/v1/clients/export
func (h *ExportHandler) ExportClients(c *gin.Context) {
	clients, err := h.clients.AllForExport()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load clients"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Clients"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"number", "companyName", "contactName", "clientType", "province", "address",
		"phone", "email", "taxId", "discount", "vatCondition", "password", "username",
	}
	writeHeaderRow(f, sheet, headers)

	for i, cl := range clients {
		writeRow(f, sheet, i+2, []interface{}{
			"", cl.CompanyName, cl.ContactName, "", cl.Province, cl.Address,
			cl.Phone, cl.Email, cl.TaxID, cl.DiscountRate, cl.VATCondition,
			cl.PlainPassword, cl.Username,
		})
	}

	sendXLSX(c, f, "clients_export.xlsx")
}

// categoryParents loads the whole tree once and maps each category to its
// parent, so export rows resolve paths without per-row queries.
func (h *ExportHandler) categoryParents() (map[uuid.UUID]models.Category, error) {
	categories, err := h.categories.GetAll()
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Category, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = cat
	}
	return byID, nil
}

// exportCategoryCells renders a product's first linked category as the
// (category, subcategory) pair the importer reads back. Deeper nesting folds
// into the category cell as a "A > B" path.
func exportCategoryCells(p models.Product, byID map[uuid.UUID]models.Category) (string, string) {
	if len(p.Categories) == 0 {
		return p.CategoryOld, ""
	}
	leaf := p.Categories[0]

	var path []string
	node, ok := byID[leaf.ID]
	if !ok {
		node = leaf
	}
	path = append(path, node.Name)
	for node.ParentID != nil {
		parent, ok := byID[*node.ParentID]
		if !ok {
			break
		}
		path = append([]string{parent.Name}, path...)
		node = parent
	}

	if len(path) == 1 {
		return path[0], ""
	}
	category := path[0]
	for _, segment := range path[1 : len(path)-1] {
		category += " > " + segment
	}
	return category, path[len(path)-1]
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) {
	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	for i, name := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, name)
		f.SetCellStyle(sheet, cell, cell, style)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, colName, colName, 20)
	}
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []interface{}) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
		f.SetCellValue(sheet, cell, v)
	}
}

func sendXLSX(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	f.Write(c.Writer)
}
