package repository

import (
	"fmt"
	"testing"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestCategory(t *testing.T, testDB *gorm.DB, slug string) *model.Category {
	category := &model.Category{Name: slug, Slug: slug}
	require.NoError(t, testDB.Create(category).Error)
	return category
}

func createTestProduct(t *testing.T, testDB *gorm.DB, categoryID uint, name string, price float64, stock int) *model.Product {
	slug := fmt.Sprintf("%s-%d", name, categoryID)
	product := &model.Product{
		Name:          name,
		Slug:          slug,
		SKU:           "SKU-" + slug,
		Description:   name + " description",
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
