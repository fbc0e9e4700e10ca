package repository

import (
	"errors"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrClientNotFound = errors.New("client not found")

// clientUpdateColumns is the field set an import may touch on an existing
// account. Credentials are appended only when the caller opted in.
var clientUpdateColumns = []string{
	"company_name", "contact_name", "address", "province", "phone",
	"email", "tax_id", "vat_condition", "discount_rate", "updated_at",
}

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) DB() *gorm.DB {
	return r.db
}

// LoadUsernameIndex reads every existing username once so import
// classification does O(1) lookups instead of one query per row.
func (r *ClientRepository) LoadUsernameIndex() (map[string]uuid.UUID, error) {
	var rows []struct {
		ID       uuid.UUID
		Username string
	}
	if err := r.db.Model(&models.Client{}).Select("id", "username").Find(&rows).Error; err != nil {
		return nil, err
	}
	index := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		index[row.Username] = row.ID
	}
	return index, nil
}

// ApplyImport persists a classified client import run in one transaction:
// one bulk insert for creates, one field-limited bulk upsert for updates.
// Password columns join the update set only when updatePasswords is true;
// rows without a supplied credential keep their stored hash either way
// (the importer leaves those fields empty and they are filtered out by the
// pipeline before reaching here).
func (r *ClientRepository) ApplyImport(creates, updates []*models.Client, updatePasswords bool) error {
	assignCols := clientUpdateColumns
	if updatePasswords {
		assignCols = append(append([]string{}, clientUpdateColumns...), "plain_password", "password_hash")
	}

	return withTransientRetry(func() error {
		return r.db.Transaction(func(tx *gorm.DB) error {
			if len(creates) > 0 {
				if err := tx.CreateInBatches(creates, importBatchSize).Error; err != nil {
					return err
				}
			}
			if len(updates) > 0 {
				// Split rows that carry a new credential from those that do
				// not, so a blank credential never overwrites a stored hash.
				withCred := make([]*models.Client, 0, len(updates))
				withoutCred := make([]*models.Client, 0, len(updates))
				for _, c := range updates {
					if updatePasswords && c.PasswordHash != "" {
						withCred = append(withCred, c)
					} else {
						withoutCred = append(withoutCred, c)
					}
				}
				if len(withCred) > 0 {
					if err := tx.Clauses(clause.OnConflict{
						Columns:   []clause.Column{{Name: "username"}},
						DoUpdates: clause.AssignmentColumns(assignCols),
					}).CreateInBatches(withCred, importBatchSize).Error; err != nil {
						return err
					}
				}
				if len(withoutCred) > 0 {
					// PasswordHash is NOT NULL; carry a placeholder for the
					// insert half of the upsert, which never runs because the
					// username exists.
					for _, c := range withoutCred {
						if c.PasswordHash == "" {
							c.PasswordHash = "-"
						}
					}
					if err := tx.Clauses(clause.OnConflict{
						Columns:   []clause.Column{{Name: "username"}},
						DoUpdates: clause.AssignmentColumns(clientUpdateColumns),
					}).CreateInBatches(withoutCred, importBatchSize).Error; err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
}

// GetByUsername retrieves a client account by username
func (r *ClientRepository) GetByUsername(username string) (*models.Client, error) {
	var client models.Client
	err := r.db.Where("username = ?", username).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}

// List returns client accounts ordered by company name.
func (r *ClientRepository) List(page, limit int) ([]models.Client, int64, error) {
	var total int64
	if err := r.db.Model(&models.Client{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var clients []models.Client
	err := r.db.Order("company_name, username").
		Limit(limit).Offset((page - 1) * limit).
		Find(&clients).Error
	return clients, total, err
}

// AllForExport loads every client account for spreadsheet export.
func (r *ClientRepository) AllForExport() ([]models.Client, error) {
	var clients []models.Client
	err := r.db.Order("username").Find(&clients).Error
	return clients, err
}
