package repository

import (
	"testing"

	"catalog-service/internal/models"

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

func newTestCategoryRepo(t *testing.T) *CategoryRepository {
	t.Helper()
	return NewCategoryRepository(newTestDB(t), nil)
}
