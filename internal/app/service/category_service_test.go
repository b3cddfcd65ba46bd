package service

import (
	"testing"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCategoryServiceTest(t *testing.T) (CategoryService, *gorm.DB) {
	testDB := setupTestDB(t)
	categoryRepo := repository.NewCategoryRepository(testDB)
	productService := NewProductService(repository.NewProductRepository(testDB), categoryRepo)
	return NewCategoryService(categoryRepo, productService), testDB
}

func strPtr(s string) *string { return &s }

func TestCategoryService_CreateCategory(t *testing.T) {
	categoryService, _ := setupCategoryServiceTest(t)

	parent, err := categoryService.CreateCategory(CategoryInput{Name: strPtr("Storage & Organization")})
	require.NoError(t, err)
	assert.Equal(t, "storage-organization", parent.Slug)

	child, err := categoryService.CreateCategory(CategoryInput{Name: strPtr("Bins"), ParentID: &parent.ID})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *child.ParentID)

	_, err = categoryService.CreateCategory(CategoryInput{Name: strPtr("Storage and more"), Slug: strPtr("storage-organization")})
	assert.ErrorIs(t, err, ErrCategorySlugExists)

	missing := uint(9999)
	_, err = categoryService.CreateCategory(CategoryInput{Name: strPtr("Lost"), ParentID: &missing})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	found, err := categoryService.GetCategoryBySlug("storage-organization")
	require.NoError(t, err)
	require.Len(t, found.Children, 1)
	assert.Equal(t, "Bins", found.Children[0].Name)
}

func TestCategoryService_UpdateCategory(t *testing.T) {
	categoryService, _ := setupCategoryServiceTest(t)
	a, err := categoryService.CreateCategory(CategoryInput{Name: strPtr("Bathroom")})
	require.NoError(t, err)
	b, err := categoryService.CreateCategory(CategoryInput{Name: strPtr("Kitchen")})
	require.NoError(t, err)

	_, err = categoryService.UpdateCategory(a.ID, CategoryInput{ParentID: &a.ID})
	assert.ErrorIs(t, err, ErrCategoryOwnParent)

	_, err = categoryService.UpdateCategory(a.ID, CategoryInput{Slug: strPtr(b.Slug)})
	assert.ErrorIs(t, err, ErrCategorySlugExists)

	updated, err := categoryService.UpdateCategory(a.ID, CategoryInput{Name: strPtr("Bath"), ParentID: &b.ID})
	require.NoError(t, err)
	assert.Equal(t, "Bath", updated.Name)
	assert.Equal(t, b.ID, *updated.ParentID)

	updated, err = categoryService.UpdateCategory(a.ID, CategoryInput{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)

	_, err = categoryService.UpdateCategory(9999, CategoryInput{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryService_DeleteCategory(t *testing.T) {
	categoryService, testDB := setupCategoryServiceTest(t)

	withProduct := createTestCategory(t, testDB, "laundry")
	product := createTestProduct(t, testDB, withProduct.ID, "Detergent", 10, 5)

	err := categoryService.DeleteCategory(withProduct.ID)
	assert.ErrorIs(t, err, ErrCategoryHasProducts)
	assert.Contains(t, err.Error(), "(1)")

	// an inactive product no longer blocks deletion
	deactivateProduct(t, testDB, product.ID)
	require.NoError(t, categoryService.DeleteCategory(withProduct.ID))

	var stored model.Category
	require.NoError(t, testDB.First(&stored, withProduct.ID).Error)
	assert.False(t, stored.IsActive)

	parent := createTestCategory(t, testDB, "parent")
	child := &model.Category{Name: "child", Slug: "child", ParentID: &parent.ID}
	require.NoError(t, testDB.Create(child).Error)
	assert.ErrorIs(t, categoryService.DeleteCategory(parent.ID), ErrCategoryHasChildren)

	assert.ErrorIs(t, categoryService.DeleteCategory(9999), ErrCategoryNotFound)
}

func TestCategoryService_GetCategoryProducts(t *testing.T) {
	categoryService, testDB := setupCategoryServiceTest(t)
	kitchen := createTestCategory(t, testDB, "kitchen")
	bath := createTestCategory(t, testDB, "bath")
	createTestProduct(t, testDB, kitchen.ID, "Dish Soap", 3, 10)
	createTestProduct(t, testDB, bath.ID, "Tile Spray", 5, 10)
	createTestProduct(t, testDB, kitchen.ID, "Rinse Aid", 4, 0)

	page, err := categoryService.GetCategoryProducts(kitchen.ID, ProductListParams{}, 0)
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)

	inStock := true
	page, err = categoryService.GetCategoryProducts(kitchen.ID, ProductListParams{InStock: &inStock}, 0)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Dish Soap", page.Products[0].Name)

	_, err = categoryService.GetCategoryProducts(9999, ProductListParams{}, 0)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	categories, err := categoryService.ListCategories(nil)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}
