package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"github.com/milanenterprises/cleancare-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductSlugExists = errors.New("product slug already exists")
	ErrProductSKUExists  = errors.New("SKU already exists")
	ErrInvalidSort       = errors.New("invalid sort")
	ErrSearchRequired    = errors.New("search query is required")
	ErrInvalidPrice      = errors.New("price must be greater than zero")
)

const (
	defaultProductLimit  = 12
	defaultSearchLimit   = 10
	defaultFeaturedLimit = 8
	defaultRelatedLimit  = 4
)

// ProductListParams carries the raw listing query; sort keys are validated by ListProducts
type ProductListParams struct {
	CategorySlug  string
	CategoryID    *uint
	MinPrice      *float64
	MaxPrice      *float64
	IsEcoFriendly *bool
	IsFeatured    *bool
	InStock       *bool
	Search        string
	SortBy        string
	SortOrder     string
	Page          int
	Limit         int
}

type ProductPage struct {
	Products   []model.Product `json:"products"`
	Pagination Pagination      `json:"pagination"`
}

type CreateProductInput struct {
	Name              string
	Slug              string
	Description       string
	ShortDescription  string
	Price             float64
	OriginalPrice     *float64
	SKU               string
	Brand             string
	CategoryID        uint
	IsEcoFriendly     bool
	EcoScore          int
	IsFeatured        bool
	StockQuantity     int
	LowStockThreshold *int
	Size              string
	Fragrance         string
	Tags              []string
	Features          []string
	Images            []string
}

type UpdateProductInput struct {
	Name              *string
	Slug              *string
	Description       *string
	ShortDescription  *string
	Price             *float64
	OriginalPrice     *float64
	SKU               *string
	Brand             *string
	CategoryID        *uint
	IsEcoFriendly     *bool
	EcoScore          *int
	IsFeatured        *bool
	IsActive          *bool
	StockQuantity     *int
	LowStockThreshold *int
	Size              *string
	Fragrance         *string
	Tags              []string
	Features          []string
	Images            []string
}

type ProductService interface {
	ListProducts(params ProductListParams, viewerID uint) (*ProductPage, error)
	GetProductByID(id, viewerID uint) (*model.Product, error)
	GetProductBySlug(slug string, viewerID uint) (*model.Product, error)
	SearchProducts(query string, limit int, viewerID uint) ([]model.Product, error)
	GetFeaturedProducts(limit int, viewerID uint) ([]model.Product, error)
	GetRelatedProducts(id uint, limit int) ([]model.Product, error)
	CreateProduct(input CreateProductInput) (*model.Product, error)
	UpdateProduct(id uint, input UpdateProductInput) (*model.Product, error)
	DeleteProduct(id uint) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// buildFilter validates sort and pagination and converts params into a repository filter
func buildFilter(params ProductListParams) (repository.ProductFilter, int, int, error) {
	sortBy, ok := repository.ParseProductSort(params.SortBy)
	if !ok {
		return repository.ProductFilter{}, 0, 0, fmt.Errorf("%w: unknown sort key %q", ErrInvalidSort, params.SortBy)
	}

	ascending := false
	switch strings.ToLower(params.SortOrder) {
	case "", "desc":
	case "asc":
		ascending = true
	default:
		return repository.ProductFilter{}, 0, 0, fmt.Errorf("%w: sort order must be asc or desc", ErrInvalidSort)
	}

	inStock := params.InStock != nil && *params.InStock

	page, limit := normalizePage(params.Page, params.Limit, defaultProductLimit)
	return repository.ProductFilter{
		CategoryID:    params.CategoryID,
		CategorySlug:  params.CategorySlug,
		MinPrice:      params.MinPrice,
		MaxPrice:      params.MaxPrice,
		IsEcoFriendly: params.IsEcoFriendly,
		IsFeatured:    params.IsFeatured,
		InStock:       inStock,
		Search:        params.Search,
		SortBy:        sortBy,
		SortAscending: ascending,
		Limit:         limit,
		Offset:        offsetOf(page, limit),
	}, page, limit, nil
}

func (s *productService) ListProducts(params ProductListParams, viewerID uint) (*ProductPage, error) {
	filter, page, limit, err := buildFilter(params)
	if err != nil {
		logger.Warn("Rejected product listing", map[string]interface{}{
			"sort_by":    params.SortBy,
			"sort_order": params.SortOrder,
		})
		return nil, err
	}

	products, total, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		return nil, err
	}
	if err := s.markWishlisted(viewerID, products); err != nil {
		return nil, err
	}

	return &ProductPage{
		Products:   products,
		Pagination: newPagination(page, limit, total),
	}, nil
}

func (s *productService) markWishlisted(viewerID uint, products []model.Product) error {
	if viewerID == 0 {
		return nil
	}
	return s.productRepo.MarkWishlisted(viewerID, products)
}

func (s *productService) withViewer(product *model.Product, viewerID uint) (*model.Product, error) {
	if viewerID == 0 {
		return product, nil
	}
	list := []model.Product{*product}
	if err := s.productRepo.MarkWishlisted(viewerID, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *productService) GetProductByID(id, viewerID uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return s.withViewer(product, viewerID)
}

func (s *productService) GetProductBySlug(slug string, viewerID uint) (*model.Product, error) {
	product, err := s.productRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return s.withViewer(product, viewerID)
}

func (s *productService) SearchProducts(query string, limit int, viewerID uint) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrSearchRequired
	}
	_, limit = normalizePage(1, limit, defaultSearchLimit)

	// no stock filter: search also surfaces sold-out items
	products, _, err := s.productRepo.FindWithFilter(repository.ProductFilter{
		Search:        query,
		SortBy:        repository.ProductSortName,
		SortAscending: true,
		Limit:         limit,
	})
	if err != nil {
		return nil, err
	}
	if err := s.markWishlisted(viewerID, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *productService) GetFeaturedProducts(limit int, viewerID uint) ([]model.Product, error) {
	_, limit = normalizePage(1, limit, defaultFeaturedLimit)
	products, err := s.productRepo.FindFeatured(limit)
	if err != nil {
		return nil, err
	}
	if err := s.markWishlisted(viewerID, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *productService) GetRelatedProducts(id uint, limit int) ([]model.Product, error) {
	product, err := s.productRepo.FindAnyByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}
	_, limit = normalizePage(1, limit, defaultRelatedLimit)
	return s.productRepo.FindRelated(product, limit)
}

func (s *productService) ensureCategory(id uint) error {
	if _, err := s.categoryRepo.FindAnyByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (s *productService) ensureUnique(slug, sku string, excludeID uint) error {
	if slug != "" {
		exists, err := s.productRepo.ExistsBySlug(slug, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return ErrProductSlugExists
		}
	}
	if sku != "" {
		exists, err := s.productRepo.ExistsBySKU(sku, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return ErrProductSKUExists
		}
	}
	return nil
}

func cleanList(values []string) pq.StringArray {
	out := pq.StringArray{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// imageRows turns uploaded URLs into ordered images starting at offset; the first becomes main when markMain is set
func imageRows(name string, urls []string, offset int, markMain bool) []model.ProductImage {
	rows := make([]model.ProductImage, 0, len(urls))
	for i, url := range urls {
		rows = append(rows, model.ProductImage{
			URL:       url,
			AltText:   fmt.Sprintf("%s - Image %d", name, offset+i+1),
			SortOrder: offset + i,
			IsMain:    markMain && i == 0,
		})
	}
	return rows
}

func (s *productService) CreateProduct(input CreateProductInput) (*model.Product, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = util.Slugify(input.Name)
	}
	sku := strings.TrimSpace(input.SKU)

	logger.Info("Creating product", map[string]interface{}{
		"name":        input.Name,
		"slug":        slug,
		"sku":         sku,
		"category_id": input.CategoryID,
	})

	if input.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if err := s.ensureUnique(slug, sku, 0); err != nil {
		logger.Warn("Product creation rejected", map[string]interface{}{
			"slug":  slug,
			"sku":   sku,
			"error": err.Error(),
		})
		return nil, err
	}
	if err := s.ensureCategory(input.CategoryID); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:              strings.TrimSpace(input.Name),
		Slug:              slug,
		Description:       input.Description,
		ShortDescription:  input.ShortDescription,
		Price:             input.Price,
		OriginalPrice:     input.OriginalPrice,
		SKU:               sku,
		Brand:             input.Brand,
		CategoryID:        input.CategoryID,
		IsEcoFriendly:     input.IsEcoFriendly,
		EcoScore:          input.EcoScore,
		IsFeatured:        input.IsFeatured,
		StockQuantity:     input.StockQuantity,
		LowStockThreshold: 10,
		Size:              input.Size,
		Fragrance:         input.Fragrance,
		Tags:              cleanList(input.Tags),
		Features:          cleanList(input.Features),
	}
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = *input.LowStockThreshold
	}

	if err := s.productRepo.Create(product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProductSlugExists
		}
		return nil, err
	}
	if err := s.productRepo.AddImages(product.ID, imageRows(product.Name, input.Images, 0, true)); err != nil {
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return s.productRepo.FindAnyByID(product.ID)
}

func (s *productService) UpdateProduct(id uint, input UpdateProductInput) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.productRepo.FindAnyByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	var newSlug, newSKU string
	if input.Slug != nil && strings.TrimSpace(*input.Slug) != product.Slug {
		newSlug = strings.TrimSpace(*input.Slug)
	}
	if input.SKU != nil && strings.TrimSpace(*input.SKU) != product.SKU {
		newSKU = strings.TrimSpace(*input.SKU)
	}
	if err := s.ensureUnique(newSlug, newSKU, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
		if err := s.ensureCategory(*input.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, ErrInvalidPrice
		}
		updates["price"] = *input.Price
	}
	if input.StockQuantity != nil {
		updates["stock_quantity"] = *input.StockQuantity
	}

	if newSlug != "" {
		updates["slug"] = newSlug
	}
	if newSKU != "" {
		updates["sku"] = newSKU
	}
	name := product.Name
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
	}
	setString(updates, "name", input.Name)
	setString(updates, "description", input.Description)
	setString(updates, "short_description", input.ShortDescription)
	setString(updates, "brand", input.Brand)
	setString(updates, "size", input.Size)
	setString(updates, "fragrance", input.Fragrance)
	if input.OriginalPrice != nil {
		updates["original_price"] = *input.OriginalPrice
	}
	if input.IsEcoFriendly != nil {
		updates["is_eco_friendly"] = *input.IsEcoFriendly
	}
	if input.EcoScore != nil {
		updates["eco_score"] = *input.EcoScore
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.LowStockThreshold != nil {
		updates["low_stock_threshold"] = *input.LowStockThreshold
	}
	if input.Tags != nil {
		updates["tags"] = cleanList(input.Tags)
	}
	if input.Features != nil {
		updates["features"] = cleanList(input.Features)
	}

	if err := s.productRepo.Update(id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	existingImages := len(product.Images)
	rows := imageRows(name, input.Images, existingImages, existingImages == 0)
	if err := s.productRepo.AddImages(id, rows); err != nil {
		return nil, err
	}

	return s.productRepo.FindAnyByID(id)
}

func setString(updates map[string]interface{}, column string, src *string) {
	if src != nil {
		updates[column] = strings.TrimSpace(*src)
	}
}

// DeleteProduct deactivates the product so past orders keep their references
func (s *productService) DeleteProduct(id uint) error {
	logger.Info("Deleting product", map[string]interface{}{
		"product_id": id,
	})

	if err := s.productRepo.Deactivate(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return nil
}
