package repository

import (
	"math"
	"strings"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductSort string

const (
	ProductSortCreatedAt ProductSort = "created_at"
	ProductSortPrice     ProductSort = "price"
	ProductSortName      ProductSort = "name"
	ProductSortStock     ProductSort = "stock_quantity"
	ProductSortEcoScore  ProductSort = "eco_score"
)

var productSortAliases = map[string]ProductSort{
	"createdAt":      ProductSortCreatedAt,
	"created_at":     ProductSortCreatedAt,
	"price":          ProductSortPrice,
	"name":           ProductSortName,
	"stockQuantity":  ProductSortStock,
	"stock_quantity": ProductSortStock,
	"ecoScore":       ProductSortEcoScore,
	"eco_score":      ProductSortEcoScore,
}

// ParseProductSort accepts camelCase and snake_case keys; empty means newest first
func ParseProductSort(key string) (ProductSort, bool) {
	if key == "" {
		return ProductSortCreatedAt, true
	}
	sort, ok := productSortAliases[key]
	return sort, ok
}

type ProductFilter struct {
	CategoryID    *uint
	CategorySlug  string
	MinPrice      *float64
	MaxPrice      *float64
	IsEcoFriendly *bool
	IsFeatured    *bool
	InStock       bool
	Search        string
	SortBy        ProductSort
	SortAscending bool
	Limit         int
	Offset        int
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindWithFilter(filter ProductFilter) ([]model.Product, int64, error)
	FindByID(id uint) (*model.Product, error)
	FindBySlug(slug string) (*model.Product, error)
	FindAnyByID(id uint) (*model.Product, error)
	FindActiveByIDs(ids []uint) (map[uint]model.Product, error)
	FindFeatured(limit int) ([]model.Product, error)
	FindRelated(product *model.Product, limit int) ([]model.Product, error)
	ExistsBySlug(slug string, excludeID uint) (bool, error)
	ExistsBySKU(sku string, excludeID uint) (bool, error)
	Update(id uint, updates map[string]interface{}) error
	AddImages(productID uint, images []model.ProductImage) error
	Deactivate(id uint) error
	AttachRatings(products []model.Product) error
	MarkWishlisted(userID uint, products []model.Product) error
	CountActive() (int64, error)
	FindLowStock() ([]model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":        product.Name,
		"sku":         product.SKU,
		"category_id": product.CategoryID,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
			"sku":  product.SKU,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return nil
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, id ASC")
}

func (r *productRepository) baseQuery() *gorm.DB {
	return r.db.Model(&model.Product{}).
		Preload("Images", orderedImages).
		Preload("Category").
		Where("products.is_active = ?", true)
}

func (r *productRepository) applyFilter(query *gorm.DB, filter ProductFilter) *gorm.DB {
	if filter.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filter.CategoryID)
	}
	if filter.CategorySlug != "" {
		query = query.Where("products.category_id IN (?)",
			r.db.Model(&model.Category{}).Select("id").Where("slug = ?", filter.CategorySlug))
	}
	if filter.MinPrice != nil {
		query = query.Where("products.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("products.price <= ?", *filter.MaxPrice)
	}
	if filter.IsEcoFriendly != nil {
		query = query.Where("products.is_eco_friendly = ?", *filter.IsEcoFriendly)
	}
	if filter.IsFeatured != nil {
		query = query.Where("products.is_featured = ?", *filter.IsFeatured)
	}
	if filter.InStock {
		query = query.Where("products.stock_quantity > 0")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR products.tags LIKE ?",
			like, like, tagPattern(search),
		)
	}
	return query
}

// tagPattern matches one element of a text-encoded array literal such as {"eco","floor"}
func tagPattern(tag string) string {
	return `%"` + strings.ReplaceAll(tag, `"`, `\"`) + `"%`
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category_id":   filter.CategoryID,
		"category_slug": filter.CategorySlug,
		"search":        filter.Search,
		"in_stock":      filter.InStock,
		"sort_by":       filter.SortBy,
		"ascending":     filter.SortAscending,
		"limit":         filter.Limit,
		"offset":        filter.Offset,
	})

	var total int64
	countQuery := r.applyFilter(r.db.Model(&model.Product{}).Where("products.is_active = ?", true), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		logger.Error("Failed to count products with filter", err)
		return nil, 0, err
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = ProductSortCreatedAt
	}
	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}

	query := r.applyFilter(r.baseQuery(), filter).
		Order("products." + string(sortBy) + " " + direction).
		Order("products.id " + direction)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err)
		return nil, 0, err
	}

	if err := r.AttachRatings(products); err != nil {
		return nil, 0, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) detailQuery() *gorm.DB {
	return r.baseQuery().
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload("Reviews.User")
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.detailQuery().Where("products.id = ?", id).First(&product).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	withRatings(&product)
	return &product, nil
}

func (r *productRepository) FindBySlug(slug string) (*model.Product, error) {
	logger.Debug("Finding product by slug in database", map[string]interface{}{
		"slug": slug,
	})

	var product model.Product
	if err := r.detailQuery().Where("products.slug = ?", slug).First(&product).Error; err != nil {
		logger.Error("Failed to find product by slug in database", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	withRatings(&product)
	return &product, nil
}

// FindAnyByID loads a product regardless of is_active, for admin edits
func (r *productRepository) FindAnyByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Images", orderedImages).First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return &product, nil
}

// FindActiveByIDs returns active products keyed by id; missing or inactive ids are absent
func (r *productRepository) FindActiveByIDs(ids []uint) (map[uint]model.Product, error) {
	result := make(map[uint]model.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []model.Product
	err := r.db.Preload("Images", orderedImages).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find products by IDs in database", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (r *productRepository) FindFeatured(limit int) ([]model.Product, error) {
	logger.Debug("Finding featured products", map[string]interface{}{
		"limit": limit,
	})

	var products []model.Product
	err := r.baseQuery().
		Where("products.is_featured = ?", true).
		Order("products.created_at DESC, products.id DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find featured products", err)
		return nil, err
	}
	if err := r.AttachRatings(products); err != nil {
		return nil, err
	}
	return products, nil
}

// FindRelated returns active products from the same category or sharing a tag
func (r *productRepository) FindRelated(product *model.Product, limit int) ([]model.Product, error) {
	logger.Debug("Finding related products", map[string]interface{}{
		"product_id": product.ID,
		"limit":      limit,
	})

	conditions := []string{"products.category_id = ?"}
	args := []interface{}{product.CategoryID}
	for _, tag := range product.Tags {
		conditions = append(conditions, "products.tags LIKE ?")
		args = append(args, tagPattern(tag))
	}

	var products []model.Product
	err := r.baseQuery().
		Where("products.id <> ?", product.ID).
		Where(strings.Join(conditions, " OR "), args...).
		Order("products.created_at DESC, products.id DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find related products", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return nil, err
	}
	if err := r.AttachRatings(products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) exists(column, value string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&model.Product{}).Where(column+" = ?", value)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		logger.Error("Failed to check product uniqueness in database", err, map[string]interface{}{
			"column": column,
			"value":  value,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *productRepository) ExistsBySlug(slug string, excludeID uint) (bool, error) {
	return r.exists("slug", slug, excludeID)
}

func (r *productRepository) ExistsBySKU(sku string, excludeID uint) (bool, error) {
	return r.exists("sku", sku, excludeID)
}

// Update writes only the given columns so concurrent stock changes are not overwritten
func (r *productRepository) Update(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": id,
		"columns":    len(updates),
	})

	result := r.db.Model(&model.Product{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to update product in database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Product updated in database", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (r *productRepository) AddImages(productID uint, images []model.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ProductID = productID
	}
	if err := r.db.Create(&images).Error; err != nil {
		logger.Error("Failed to add product images in database", err, map[string]interface{}{
			"product_id": productID,
			"count":      len(images),
		})
		return err
	}
	return nil
}

func (r *productRepository) Deactivate(id uint) error {
	logger.Debug("Deactivating product in database", map[string]interface{}{
		"product_id": id,
	})

	result := r.db.Model(&model.Product{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		logger.Error("Failed to deactivate product in database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// withRatings derives the rating fields from preloaded reviews
func withRatings(product *model.Product) {
	product.ReviewCount = int64(len(product.Reviews))
	if product.ReviewCount == 0 {
		product.AverageRating = 0
		return
	}
	sum := 0
	for _, review := range product.Reviews {
		sum += review.Rating
	}
	product.AverageRating = roundRating(float64(sum) / float64(product.ReviewCount))
}

type ratingRow struct {
	ProductID uint
	Average   float64
	Count     int64
}

// AttachRatings computes average_rating and review_count for a page of products in one query
func (r *productRepository) AttachRatings(products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uint, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	var rows []ratingRow
	err := r.db.Model(&model.Review{}).
		Select("product_id, AVG(rating) AS average, COUNT(*) AS count").
		Where("product_id IN ?", ids).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to aggregate product ratings", err)
		return err
	}

	byProduct := make(map[uint]ratingRow, len(rows))
	for _, row := range rows {
		byProduct[row.ProductID] = row
	}
	for i := range products {
		row := byProduct[products[i].ID]
		products[i].ReviewCount = row.Count
		products[i].AverageRating = roundRating(row.Average)
	}
	return nil
}

func (r *productRepository) MarkWishlisted(userID uint, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uint, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	var wished []uint
	err := r.db.Model(&model.WishlistItem{}).
		Where("user_id = ? AND product_id IN ?", userID, ids).
		Pluck("product_id", &wished).Error
	if err != nil {
		logger.Error("Failed to load wishlist flags", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	set := make(map[uint]bool, len(wished))
	for _, id := range wished {
		set[id] = true
	}
	for i := range products {
		products[i].IsWishlisted = set[products[i].ID]
	}
	return nil
}

func (r *productRepository) CountActive() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Product{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
		logger.Error("Failed to count active products", err)
		return 0, err
	}
	return count, nil
}

// FindLowStock returns active products at or below their own low-stock threshold
func (r *productRepository) FindLowStock() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("is_active = ? AND stock_quantity <= low_stock_threshold", true).
		Order("stock_quantity ASC, id ASC").
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find low stock products", err)
		return nil, err
	}
	return products, nil
}
