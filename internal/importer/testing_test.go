package importer

import (
	"io"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Client{}))
	return db
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testHash(password string) (string, error) {
	return "hashed:" + password, nil
}

func newClientImporter(t *testing.T) (*ClientImporter, *repository.ClientRepository) {
	t.Helper()
	repo := repository.NewClientRepository(newTestDB(t))
	return NewClientImporter(repo, testHash, quietLogger()), repo
}

func newProductImporter(t *testing.T) (*ProductImporter, *repository.ProductRepository, *repository.CategoryRepository) {
	t.Helper()
	db := newTestDB(t)
	products := repository.NewProductRepository(db)
	categories := repository.NewCategoryRepository(db, nil)
	im := NewProductImporter(products, NewResolver(categories), quietLogger())
	return im, products, categories
}

// clientHeaders is the 13-column header row of the positional client sheet.
func clientHeaders() []string {
	return []string{
		"number", "company", "contact", "type", "province", "address",
		"phone", "email", "taxid", "discount", "vat", "password", "username",
	}
}

// clientRow builds one positional client row.
func clientRow(company, discount, password, username string) []string {
	return []string{
		"1001", company, "Contact Person", "MAYORISTA", "Cordoba", "Av. Colon 1234",
		"+54 351 555 0000", "compras@example.test", "30-12345678-9", discount,
		"Responsable Inscripto", password, username,
	}
}
