package importer

import (
	"fmt"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// The legacy back-office spreadsheet is positional. At least these 13
// columns must be present, in this order.
const clientMinColumns = 13

const (
	colNumber = iota
	colCompany
	colContact
	colClientType
	colProvince
	colAddress
	colPhone
	colEmail
	colTaxID
	colDiscount
	colVATCondition
	colPassword
	colUsername
)

// ClientImportOptions configure one client import run.
type ClientImportOptions struct {
	// DryRun classifies every row but persists nothing.
	DryRun bool
	// UpdatePasswords lets rows that carry a credential overwrite the stored
	// one for existing accounts. Without it existing credentials are never
	// touched.
	UpdatePasswords bool
}

// HashFunc hashes a plaintext credential for storage.
type HashFunc func(password string) (string, error)

// ClientImporter upserts customer accounts keyed by username from a
// positional spreadsheet.
type ClientImporter struct {
	repo *repository.ClientRepository
	hash HashFunc
	log  *logrus.Entry
}

func NewClientImporter(repo *repository.ClientRepository, hash HashFunc, logger *logrus.Logger) *ClientImporter {
	return &ClientImporter{
		repo: repo,
		hash: hash,
		log:  logger.WithField("component", "importer.clients"),
	}
}

// Process classifies every data row (header excluded) and, unless DryRun,
// applies all creates and updates in one transaction. Row numbers in error
// messages are 1-based sheet rows, counting the header as row 1.
func (im *ClientImporter) Process(headers []string, rows [][]string, opts ClientImportOptions, emit ProgressFunc) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, &StructuralError{Reason: "the file contains no data rows"}
	}
	// Excel parsing drops trailing blank cells, so a row whose password and
	// username are empty arrives short of 13 cells. The layout gate measures
	// the header and the widest row; short individual rows fail per row.
	width := len(headers)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width < clientMinColumns {
		return nil, &StructuralError{
			Reason: fmt.Sprintf("expected at least %d columns, found %d", clientMinColumns, width),
		}
	}

	index, err := im.repo.LoadUsernameIndex()
	if err != nil {
		return nil, fmt.Errorf("loading username index: %w", err)
	}

	result := newImportResult(len(rows))
	emitStart(emit, len(rows))

	var creates []*models.Client
	var updates []*models.Client
	seen := make(map[string]int, len(rows))

	for i, row := range rows {
		rowNum := i + 2
		emitRowProgress(emit, i+1, len(rows))

		if isBlankRow(row) {
			result.Stats.Skipped++
			continue
		}

		username := cleanCell(cell(row, colUsername))
		if username == "" {
			result.addRowError(rowNum, "username is empty")
			continue
		}
		if firstRow, dup := seen[username]; dup {
			result.addRowError(rowNum, "duplicate username %q (first seen at row %d)", username, firstRow)
			continue
		}
		seen[username] = rowNum

		password := cleanCell(cell(row, colPassword))
		existingID, exists := index[username]
		if !exists && password == "" {
			result.addRowError(rowNum, "new account %q has no password", username)
			continue
		}

		client := &models.Client{
			Username:     username,
			Role:         models.RoleClient,
			CompanyName:  cleanCell(cell(row, colCompany)),
			ContactName:  cleanCell(cell(row, colContact)),
			Province:     cleanCell(cell(row, colProvince)),
			Address:      cleanCell(cell(row, colAddress)),
			Phone:        cleanCell(cell(row, colPhone)),
			Email:        cleanCell(cell(row, colEmail)),
			TaxID:        cleanCell(cell(row, colTaxID)),
			VATCondition: cleanCell(cell(row, colVATCondition)),
			DiscountRate: normalizeDiscount(cell(row, colDiscount)),
		}

		if exists {
			client.ID = existingID
			if opts.UpdatePasswords && password != "" {
				hash, err := im.hash(password)
				if err != nil {
					result.addRowError(rowNum, "hashing password for %q: %v", username, err)
					continue
				}
				client.PlainPassword = password
				client.PasswordHash = hash
			}
			updates = append(updates, client)
			result.Stats.ToUpdate++
			result.addPreview("Update client %q (%s)", username, client.CompanyName)
			continue
		}

		hash, err := im.hash(password)
		if err != nil {
			result.addRowError(rowNum, "hashing password for %q: %v", username, err)
			continue
		}
		client.ID = uuid.New()
		client.PlainPassword = password
		client.PasswordHash = hash
		creates = append(creates, client)
		result.Stats.ToCreate++
		result.addPreview("Create client %q (%s)", username, client.CompanyName)
	}

	if !opts.DryRun {
		if err := im.repo.ApplyImport(creates, updates, opts.UpdatePasswords); err != nil {
			im.log.WithError(err).Error("client import apply failed, nothing persisted")
			return nil, fmt.Errorf("applying client import: %w", err)
		}
	}

	im.log.WithFields(logrus.Fields{
		"total":   result.Stats.TotalRows,
		"created": result.Stats.ToCreate,
		"updated": result.Stats.ToUpdate,
		"errors":  result.Stats.Errors,
		"dryRun":  opts.DryRun,
	}).Info("client import finished")

	emitResult(emit, result)
	return result, nil
}
