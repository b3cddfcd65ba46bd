package service

import (
	"fmt"
	"testing"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/db"
	"github.com/milanenterprises/cleancare-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB
}

func createTestCategory(t *testing.T, testDB *gorm.DB, slug string) *model.Category {
	category := &model.Category{Name: slug, Slug: slug}
	require.NoError(t, testDB.Create(category).Error)
	return category
}

func createTestProduct(t *testing.T, testDB *gorm.DB, categoryID uint, name string, price float64, stock int) *model.Product {
	slug := fmt.Sprintf("%s-%d", util.Slugify(name), categoryID)
	product := &model.Product{
		Name:          name,
		Slug:          slug,
		SKU:           "SKU-" + slug,
		Price:         price,
		CategoryID:    categoryID,
		StockQuantity: stock,
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}

func createTestUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	user := &model.User{Email: email, PasswordHash: "hash", FirstName: "Test", LastName: "User"}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func deactivateProduct(t *testing.T, testDB *gorm.DB, id uint) {
	require.NoError(t, testDB.Model(&model.Product{}).Where("id = ?", id).Update("is_active", false).Error)
}

func stockOf(t *testing.T, testDB *gorm.DB, id uint) int {
	var product model.Product
	require.NoError(t, testDB.First(&product, id).Error)
	return product.StockQuantity
}

func testAddress() AddressInput {
	return AddressInput{
		FirstName: "Asha",
		LastName:  "Patil",
		Address1:  "12 MG Road",
		City:      "Pune",
		State:     "MH",
		ZipCode:   "411001",
	}
}
