package repository

import (
	"testing"

	"github.com/lib/pq"
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductTest(t *testing.T) (*gorm.DB, ProductRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewProductRepository(testDB)
	return testDB, repo
}

func productNames(products []model.Product) []string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}

func TestParseProductSort(t *testing.T) {
	tests := []struct {
		key  string
		want ProductSort
		ok   bool
	}{
		{"", ProductSortCreatedAt, true},
		{"createdAt", ProductSortCreatedAt, true},
		{"stockQuantity", ProductSortStock, true},
		{"eco_score", ProductSortEcoScore, true},
		{"price", ProductSortPrice, true},
		{"price; DROP TABLE products", "", false},
		{"rating", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := ParseProductSort(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProductRepository_FindWithFilter(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	floor := createTestCategory(t, testDB, "floor-care")
	kitchen := createTestCategory(t, testDB, "kitchen-cleaners")

	mop := createTestProduct(t, testDB, floor.ID, "Floor Shine", 12.5, 10)
	createTestProduct(t, testDB, floor.ID, "Tile Guard", 30, 0)
	degreaser := createTestProduct(t, testDB, kitchen.ID, "Kitchen Degreaser", 8, 4)
	hidden := createTestProduct(t, testDB, kitchen.ID, "Old Formula", 5, 7)
	require.NoError(t, repo.Deactivate(hidden.ID))

	require.NoError(t, testDB.Model(mop).Updates(map[string]interface{}{
		"is_eco_friendly": true,
		"tags":            pq.StringArray{"eco", "floor"},
	}).Error)
	require.NoError(t, testDB.Model(degreaser).Update("is_featured", true).Error)

	yes := true
	minPrice := 10.0

	tests := []struct {
		name      string
		filter    ProductFilter
		wantNames []string
		wantTotal int64
	}{
		{
			name:      "in stock sorted by price",
			filter:    ProductFilter{InStock: true, SortBy: ProductSortPrice, SortAscending: true},
			wantNames: []string{"Kitchen Degreaser", "Floor Shine"},
			wantTotal: 2,
		},
		{
			name:      "including out of stock",
			filter:    ProductFilter{SortBy: ProductSortPrice},
			wantNames: []string{"Tile Guard", "Floor Shine", "Kitchen Degreaser"},
			wantTotal: 3,
		},
		{
			name:      "category slug",
			filter:    ProductFilter{CategorySlug: "floor-care", SortBy: ProductSortName, SortAscending: true},
			wantNames: []string{"Floor Shine", "Tile Guard"},
			wantTotal: 2,
		},
		{
			name:      "category id and min price",
			filter:    ProductFilter{CategoryID: &floor.ID, MinPrice: &minPrice, SortBy: ProductSortPrice, SortAscending: true},
			wantNames: []string{"Floor Shine", "Tile Guard"},
			wantTotal: 2,
		},
		{
			name:      "eco friendly",
			filter:    ProductFilter{IsEcoFriendly: &yes},
			wantNames: []string{"Floor Shine"},
			wantTotal: 1,
		},
		{
			name:      "featured",
			filter:    ProductFilter{IsFeatured: &yes},
			wantNames: []string{"Kitchen Degreaser"},
			wantTotal: 1,
		},
		{
			name:      "case insensitive search",
			filter:    ProductFilter{Search: "DEGREASER"},
			wantNames: []string{"Kitchen Degreaser"},
			wantTotal: 1,
		},
		{
			name:      "exact tag search",
			filter:    ProductFilter{Search: "eco"},
			wantNames: []string{"Floor Shine"},
			wantTotal: 1,
		},
		{
			name:      "pagination keeps total",
			filter:    ProductFilter{SortBy: ProductSortPrice, SortAscending: true, Limit: 1, Offset: 1},
			wantNames: []string{"Floor Shine"},
			wantTotal: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, total, err := repo.FindWithFilter(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, productNames(products))
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestProductRepository_Ratings(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	category := createTestCategory(t, testDB, "laundry")
	rated := createTestProduct(t, testDB, category.ID, "Liquid Detergent", 9, 5)
	unrated := createTestProduct(t, testDB, category.ID, "Fabric Softener", 7, 5)

	for i, rating := range []int{5, 4, 4} {
		user := createTestUser(t, testDB, string(rune('a'+i))+"@example.com")
		require.NoError(t, testDB.Create(&model.Review{ProductID: rated.ID, UserID: user.ID, Rating: rating}).Error)
	}

	products, _, err := repo.FindWithFilter(ProductFilter{SortBy: ProductSortName, SortAscending: true})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, unrated.ID, products[0].ID)
	assert.Equal(t, 0.0, products[0].AverageRating)
	assert.Equal(t, int64(0), products[0].ReviewCount)

	// 13/3 = 4.333...
	assert.Equal(t, 4.3, products[1].AverageRating)
	assert.Equal(t, int64(3), products[1].ReviewCount)

	detail, err := repo.FindByID(rated.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.3, detail.AverageRating)
	assert.Len(t, detail.Reviews, 3)
	assert.NotNil(t, detail.Reviews[0].User)
}

func TestProductRepository_FindBySlugSkipsInactive(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	category := createTestCategory(t, testDB, "bathroom")
	product := createTestProduct(t, testDB, category.ID, "Tile Cleaner", 6, 3)
	require.NoError(t, repo.AddImages(product.ID, []model.ProductImage{
		{URL: "/uploads/products/b.png", SortOrder: 1},
		{URL: "/uploads/products/a.png", SortOrder: 0, IsMain: true},
	}))

	found, err := repo.FindBySlug(product.Slug)
	require.NoError(t, err)
	require.Len(t, found.Images, 2)
	assert.Equal(t, "/uploads/products/a.png", found.Images[0].URL)
	assert.Equal(t, "/uploads/products/a.png", found.MainImage())
	assert.NotNil(t, found.Category)

	require.NoError(t, repo.Deactivate(product.ID))
	_, err = repo.FindBySlug(product.Slug)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	stillThere, err := repo.FindAnyByID(product.ID)
	require.NoError(t, err)
	assert.False(t, stillThere.IsActive)
}

func TestProductRepository_Uniqueness(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	category := createTestCategory(t, testDB, "multi-surface")
	product := createTestProduct(t, testDB, category.ID, "Spray", 4, 3)

	exists, err := repo.ExistsBySlug(product.Slug, 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsBySlug(product.Slug, product.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsBySKU(product.SKU, 0)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProductRepository_RelatedAndLowStock(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	floor := createTestCategory(t, testDB, "floor")
	kitchen := createTestCategory(t, testDB, "kitchen")

	base := createTestProduct(t, testDB, floor.ID, "Base", 10, 50)
	sameCategory := createTestProduct(t, testDB, floor.ID, "Sibling", 10, 50)
	sharedTag := createTestProduct(t, testDB, kitchen.ID, "Tagged", 10, 3)
	createTestProduct(t, testDB, kitchen.ID, "Unrelated", 10, 50)

	require.NoError(t, testDB.Model(base).Update("tags", pq.StringArray{"citrus"}).Error)
	require.NoError(t, testDB.Model(sharedTag).Update("tags", pq.StringArray{"citrus", "kitchen"}).Error)

	fresh, err := repo.FindAnyByID(base.ID)
	require.NoError(t, err)

	related, err := repo.FindRelated(fresh, 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{sameCategory.Name, sharedTag.Name}, productNames(related))

	low, err := repo.FindLowStock()
	require.NoError(t, err)
	assert.Equal(t, []string{"Tagged"}, productNames(low))

	count, err := repo.CountActive()
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestProductRepository_MarkWishlisted(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	category := createTestCategory(t, testDB, "storage")
	a := createTestProduct(t, testDB, category.ID, "Box", 3, 3)
	b := createTestProduct(t, testDB, category.ID, "Bin", 3, 3)
	user := createTestUser(t, testDB, "w@example.com")
	require.NoError(t, NewWishlistRepository(testDB).Create(&model.WishlistItem{UserID: user.ID, ProductID: b.ID}))

	products := []model.Product{*a, *b}
	require.NoError(t, repo.MarkWishlisted(user.ID, products))
	assert.False(t, products[0].IsWishlisted)
	assert.True(t, products[1].IsWishlisted)
}

func TestProductRepository_UpdateWritesOnlyGivenColumns(t *testing.T) {
	testDB, repo := setupProductTest(t)
	category := createTestCategory(t, testDB, "floor-care")
	product := createTestProduct(t, testDB, category.ID, "Pine Cleaner", 9, 10)

	stale, err := repo.FindAnyByID(product.ID)
	require.NoError(t, err)
	require.Equal(t, 10, stale.StockQuantity)

	require.NoError(t, testDB.Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", product.ID, 3).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", 3)).Error)

	require.NoError(t, repo.Update(stale.ID, map[string]interface{}{"name": "Pine Cleaner 2L"}))

	found, err := repo.FindAnyByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pine Cleaner 2L", found.Name)
	assert.Equal(t, 7, found.StockQuantity)

	assert.NoError(t, repo.Update(product.ID, map[string]interface{}{}))
	assert.ErrorIs(t, repo.Update(9999, map[string]interface{}{"name": "Ghost"}), gorm.ErrRecordNotFound)
}
