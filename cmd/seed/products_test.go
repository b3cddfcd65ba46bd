package main

import (
	"path/filepath"
	"testing"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	"github.com/milanenterprises/cleancare-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []string{"name", "slug", "sku", "category", "price", "original_price", "stock", "eco", "tags"}

func TestParseProductRows(t *testing.T) {
	rows := [][]string{
		header,
		{"Lemon Floor Cleaner", "", "FC-001", "floor-care", "12.50", "15", "40", "yes", "Lemon, Floor"},
		{},
		{"Short Row", "", "X-1"},
		{"No Price", "", "FC-002", "floor-care", "abc", "", "4"},
		{"Dup", "", "FC-001", "floor-care", "3", "", "4"},
		{"Bad Stock", "", "FC-003", "floor-care", "3", "", "-2"},
		{"Dish Gel", "dish-gel", "KC-001", "kitchen-cleaners", "4.99", "", "10"},
	}

	products, rowErrors := parseProductRows(rows)

	require.Len(t, products, 2)
	first := products[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "floor-care", first.CategorySlug)
	assert.Equal(t, 12.5, first.Input.Price)
	require.NotNil(t, first.Input.OriginalPrice)
	assert.Equal(t, 15.0, *first.Input.OriginalPrice)
	assert.Equal(t, 40, first.Input.StockQuantity)
	assert.True(t, first.Input.IsEcoFriendly)
	assert.Equal(t, []string{"lemon", "floor"}, first.Input.Tags)

	assert.Equal(t, "dish-gel", products[1].Input.Slug)
	assert.False(t, products[1].Input.IsEcoFriendly)
	assert.Nil(t, products[1].Input.OriginalPrice)

	lines := make([]int, 0, len(rowErrors))
	for _, e := range rowErrors {
		lines = append(lines, e.Line)
	}
	assert.Equal(t, []int{4, 5, 6, 7}, lines)
}

func TestReadProductsFromXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	data := [][]interface{}{
		{"name", "slug", "sku", "category", "price", "original_price", "stock", "eco", "tags"},
		{"Glass Spray", "", "MS-001", "multi-surface", 6.25, "", 12, "no", "glass"},
	}
	for i, row := range data {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	path := filepath.Join(t.TempDir(), "products.xlsx")
	require.NoError(t, f.SaveAs(path))

	products, rowErrors, err := readProductsFromXLSX(path, "")
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, products, 1)
	assert.Equal(t, "MS-001", products[0].Input.SKU)
	assert.Equal(t, 6.25, products[0].Input.Price)

	_, _, err = readProductsFromXLSX(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.Error(t, err)
}

func TestImportRows(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.SeedCategories(testDB))

	categoryRepo := repository.NewCategoryRepository(testDB)
	productService := service.NewProductService(repository.NewProductRepository(testDB), categoryRepo)

	rows, _ := parseProductRows([][]string{
		header,
		{"Lemon Floor Cleaner", "", "FC-001", "floor-care", "12.50", "", "40"},
		{"Mystery", "", "ZZ-001", "no-such-category", "1", "", "1"},
		{"Laundry Pods", "", "LC-001", "laundry-care", "9", "", "5", "1"},
	})

	imported, failed := importRows(rows, categoryRepo, productService)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 1, failed)

	var count int64
	require.NoError(t, testDB.Model(&model.Product{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	// re-running reports the existing SKUs as failures
	imported, failed = importRows(rows, categoryRepo, productService)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 3, failed)
}
