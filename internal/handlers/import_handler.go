package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"catalog-service/internal/events"
	"catalog-service/internal/importer"
	"catalog-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

type ImportHandler struct {
	clients         *importer.ClientImporter
	products        *importer.ProductImporter
	eventsPublisher *events.Publisher
	log             *logrus.Entry
}

func NewImportHandler(clients *importer.ClientImporter, products *importer.ProductImporter, eventsPublisher *events.Publisher, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		clients:         clients,
		products:        products,
		eventsPublisher: eventsPublisher,
		log:             logger.WithField("component", "handlers.import"),
	}
}

// ClientImportTemplate returns the template definition for client accounts.
// The columns are positional: order matters, header names do not.
func ClientImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "clients",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "number", Description: "Back-office account number (informational)", Required: false, Type: "string", Example: "1042"},
			{Name: "companyName", Description: "Company legal name", Required: false, Type: "string", Example: "Ferreteria El Tornillo"},
			{Name: "contactName", Description: "Contact person", Required: false, Type: "string", Example: "Maria Lopez"},
			{Name: "clientType", Description: "Back-office client type (informational)", Required: false, Type: "string", Example: "MAYORISTA"},
			{Name: "province", Description: "Province", Required: false, Type: "string", Example: "Cordoba"},
			{Name: "address", Description: "Street address", Required: false, Type: "string", Example: "Av. Colon 1234"},
			{Name: "phone", Description: "Phone number", Required: false, Type: "string", Example: "+54 351 555 0000"},
			{Name: "email", Description: "Email address", Required: false, Type: "string", Example: "compras@tornillo.example"},
			{Name: "taxId", Description: "Tax identification number", Required: false, Type: "string", Example: "30-12345678-9"},
			{Name: "discount", Description: "Discount as percent (10) or fraction (0.10)", Required: false, Type: "number", Example: "10"},
			{Name: "vatCondition", Description: "VAT condition", Required: false, Type: "string", Example: "Responsable Inscripto"},
			{Name: "password", Description: "Initial password (required for new accounts)", Required: false, Type: "string", Example: "changeme123"},
			{Name: "username", Description: "Login username, the upsert key", Required: true, Type: "string", Example: "tornillo"},
		},
		SampleData: []map[string]string{
			{
				"number": "1042", "companyName": "Ferreteria El Tornillo", "contactName": "Maria Lopez",
				"clientType": "MAYORISTA", "province": "Cordoba", "address": "Av. Colon 1234",
				"phone": "+54 351 555 0000", "email": "compras@tornillo.example", "taxId": "30-12345678-9",
				"discount": "10", "vatCondition": "Responsable Inscripto", "password": "changeme123",
				"username": "tornillo",
			},
		},
	}
}

// ProductImportTemplate returns the template definition for products. Columns
// are matched by header name; Spanish headers from the legacy back office are
// accepted as synonyms.
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "sku", Description: "Stock keeping unit, the upsert key", Required: true, Type: "string", Example: "TAL-0042"},
			{Name: "name", Description: "Product name (Nombre)", Required: false, Type: "string", Example: "Taladro Percutor 650W"},
			{Name: "price", Description: "Base price (Precio)", Required: false, Type: "number", Example: "45999.90"},
			{Name: "stock", Description: "Units in stock", Required: false, Type: "number", Example: "12"},
			{Name: "brand", Description: "Brand (Marca)", Required: false, Type: "string", Example: "Bosch"},
			{Name: "description", Description: "Long description (Descripcion)", Required: false, Type: "string", Example: "Taladro percutor con maletin"},
			{Name: "category", Description: "Category name or 'Parent > Child' path (Categoria)", Required: false, Type: "string", Example: "Herramientas"},
			{Name: "subcategory", Description: "Subcategory under category (Subcategoria)", Required: false, Type: "string", Example: "Electricas"},
		},
		SampleData: []map[string]string{
			{
				"sku": "TAL-0042", "name": "Taladro Percutor 650W", "price": "45999.90", "stock": "12",
				"brand": "Bosch", "description": "Taladro percutor con maletin",
				"category": "Herramientas", "subcategory": "Electricas",
			},
			{
				"sku": "PIN-0101", "name": "Pintura Latex 20L", "price": "28999.00", "stock": "30",
				"brand": "Alba", "description": "Latex interior blanco mate",
				"category": "Pinturas", "subcategory": "",
			},
		},
	}
}

// GetClientImportTemplate returns the client template definition or file
// GET /api/v1/clients/import/template
func (h *ImportHandler) GetClientImportTemplate(c *gin.Context) {
	h.serveTemplate(c, ClientImportTemplate(), "clients_import_template", "Clients")
}

// GetProductImportTemplate returns the product template definition or file
// GET /api/v1/products/import/template
func (h *ImportHandler) GetProductImportTemplate(c *gin.Context) {
	h.serveTemplate(c, ProductImportTemplate(), "products_import_template", "Products")
}

func (h *ImportHandler) serveTemplate(c *gin.Context, template ImportTemplate, filename, sheetName string) {
	switch c.DefaultQuery("format", "json") {
	case "csv":
		h.generateCSVTemplate(c, template, filename)
	case "xlsx":
		h.generateXLSXTemplate(c, template, filename, sheetName)
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "template": template})
	}
}

func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template ImportTemplate, filename string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)

	for _, sample := range template.SampleData {
		row := make([]string, len(template.Columns))
		for i, col := range template.Columns {
			row[i] = sample[col.Name]
		}
		writer.Write(row)
	}
}

func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template ImportTemplate, filename, sheetName string) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	for rowIdx, sample := range template.SampleData {
		for colIdx, col := range template.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, sample[col.Name])
		}
	}

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))

	f.Write(c.Writer)
}

// ImportClients imports client accounts from a CSV or Excel file.
// Form fields: file, dry_run, update_passwords, stream.
// POST /api/v1/clients/import
func (h *ImportHandler) ImportClients(c *gin.Context) {
	headers, rows, ok := h.readUpload(c)
	if !ok {
		return
	}

	opts := importer.ClientImportOptions{
		DryRun:          c.DefaultPostForm("dry_run", "false") == "true",
		UpdatePasswords: c.DefaultPostForm("update_passwords", "false") == "true",
	}

	run := func(emit importer.ProgressFunc) (*importer.ImportResult, error) {
		return h.clients.Process(headers, rows, opts, emit)
	}
	h.respond(c, "clients", opts.DryRun, run)
}

// ImportProducts imports products from a CSV or Excel file.
// Form fields: file, dry_run, stream.
// POST /api/v1/products/import
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	headers, rows, ok := h.readUpload(c)
	if !ok {
		return
	}

	opts := importer.ProductImportOptions{
		DryRun: c.DefaultPostForm("dry_run", "false") == "true",
	}

	run := func(emit importer.ProgressFunc) (*importer.ImportResult, error) {
		return h.products.Process(headers, rows, opts, emit)
	}
	h.respond(c, "products", opts.DryRun, run)
}

// readUpload extracts the uploaded spreadsheet into a header row plus data
// rows. On failure it writes the error response itself.
func (h *ImportHandler) readUpload(c *gin.Context) ([]string, [][]string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV or Excel file",
			},
		})
		return nil, nil, false
	}
	defer file.Close()

	format, ok := detectFormat(header)
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only CSV and XLSX files are supported",
			},
		})
		return nil, nil, false
	}

	var headers []string
	var rows [][]string
	var parseErr error
	if format == ImportFormatCSV {
		headers, rows, parseErr = parseCSV(file)
	} else {
		headers, rows, parseErr = parseXLSX(file)
	}
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PARSE_ERROR",
				Message: parseErr.Error(),
			},
		})
		return nil, nil, false
	}
	return headers, rows, true
}

func detectFormat(header *multipart.FileHeader) (ImportFormat, bool) {
	name := strings.ToLower(header.Filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return ImportFormatCSV, true
	case strings.HasSuffix(name, ".xlsx"):
		return ImportFormatXLSX, true
	default:
		return "", false
	}
}

// respond runs an import either as a plain JSON request or as an NDJSON
// progress stream, depending on the stream form flag.
func (h *ImportHandler) respond(c *gin.Context, entity string, dryRun bool, run func(importer.ProgressFunc) (*importer.ImportResult, error)) {
	stream := c.DefaultPostForm("stream", "false") == "true"

	if !stream {
		result, err := run(nil)
		if err != nil {
			h.writeImportError(c, err)
			return
		}
		h.publishCompleted(c, entity, dryRun, result)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	flusher, _ := c.Writer.(http.Flusher)
	emit := func(ev importer.Event) {
		if err := enc.Encode(ev); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	result, err := run(emit)
	if err != nil {
		// Status and headers are already on the wire; the stream terminates
		// with its error event instead of an HTTP error.
		importer.EmitError(emit, err.Error())
		return
	}
	h.publishCompleted(c, entity, dryRun, result)
}

func (h *ImportHandler) writeImportError(c *gin.Context, err error) {
	var structural *importer.StructuralError
	if errors.As(err, &structural) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "STRUCTURAL_ERROR",
				Message: structural.Reason,
			},
		})
		return
	}
	h.log.WithError(err).Error("import run failed")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "IMPORT_FAILED",
			Message: "Import failed, no changes were applied",
		},
	})
}

func (h *ImportHandler) publishCompleted(c *gin.Context, entity string, dryRun bool, result *importer.ImportResult) {
	if h.eventsPublisher == nil || dryRun {
		return
	}
	_ = h.eventsPublisher.PublishImportCompleted(c.Request.Context(), entity, dryRun, result.Stats)
}

// parseCSV reads a CSV upload into a header row plus data rows. Ragged rows
// are allowed; the importers handle short rows per cell.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error reading line %d: %w", len(rows)+2, err)
		}
		rows = append(rows, record)
	}
	return headers, rows, nil
}

// parseXLSX reads the first sheet of an Excel upload into a header row plus
// data rows.
func parseXLSX(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("no sheets found in Excel file")
	}

	excelRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) == 0 {
		return nil, nil, fmt.Errorf("the file is empty")
	}
	return excelRows[0], excelRows[1:], nil
}
