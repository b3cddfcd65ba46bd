package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ProductListQuery accepts the storefront's camelCase query parameters
type ProductListQuery struct {
	Category      string   `form:"category"`
	CategoryID    *uint    `form:"categoryId"`
	MinPrice      *float64 `form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice      *float64 `form:"maxPrice" binding:"omitempty,gte=0"`
	IsEcoFriendly *bool    `form:"isEcoFriendly"`
	IsFeatured    *bool    `form:"isFeatured"`
	InStock       *bool    `form:"inStock"`
	Search        string   `form:"search"`
	SortBy        string   `form:"sortBy"`
	SortOrder     string   `form:"sortOrder"`
	Page          int      `form:"page" binding:"omitempty,min=1"`
	Limit         int      `form:"limit" binding:"omitempty,min=1"`
}

func (q ProductListQuery) params() service.ProductListParams {
	return service.ProductListParams{
		CategorySlug:  q.Category,
		CategoryID:    q.CategoryID,
		MinPrice:      q.MinPrice,
		MaxPrice:      q.MaxPrice,
		IsEcoFriendly: q.IsEcoFriendly,
		IsFeatured:    q.IsFeatured,
		InStock:       q.InStock,
		Search:        q.Search,
		SortBy:        q.SortBy,
		SortOrder:     q.SortOrder,
		Page:          q.Page,
		Limit:         q.Limit,
	}
}

type ProductRequest struct {
	Name              string   `json:"name" binding:"required,max=255"`
	Slug              string   `json:"slug" binding:"omitempty,max=255"`
	Description       string   `json:"description"`
	ShortDescription  string   `json:"short_description" binding:"omitempty,max=500"`
	Price             float64  `json:"price" binding:"required,gt=0"`
	OriginalPrice     *float64 `json:"original_price" binding:"omitempty,gt=0"`
	SKU               string   `json:"sku" binding:"required,max=100"`
	Brand             string   `json:"brand" binding:"omitempty,max=100"`
	CategoryID        uint     `json:"category_id" binding:"required"`
	IsEcoFriendly     bool     `json:"is_eco_friendly"`
	EcoScore          int      `json:"eco_score" binding:"gte=0,lte=100"`
	IsFeatured        bool     `json:"is_featured"`
	StockQuantity     int      `json:"stock_quantity" binding:"gte=0"`
	LowStockThreshold *int     `json:"low_stock_threshold" binding:"omitempty,gte=0"`
	Size              string   `json:"size" binding:"omitempty,max=50"`
	Fragrance         string   `json:"fragrance" binding:"omitempty,max=100"`
	Tags              []string `json:"tags"`
	Features          []string `json:"features"`
	Images            []string `json:"images" binding:"omitempty,dive,url"`
}

type UpdateProductRequest struct {
	Name              *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Slug              *string  `json:"slug" binding:"omitempty,min=1,max=255"`
	Description       *string  `json:"description"`
	ShortDescription  *string  `json:"short_description" binding:"omitempty,max=500"`
	Price             *float64 `json:"price" binding:"omitempty,gt=0"`
	OriginalPrice     *float64 `json:"original_price" binding:"omitempty,gt=0"`
	SKU               *string  `json:"sku" binding:"omitempty,min=1,max=100"`
	Brand             *string  `json:"brand" binding:"omitempty,max=100"`
	CategoryID        *uint    `json:"category_id"`
	IsEcoFriendly     *bool    `json:"is_eco_friendly"`
	EcoScore          *int     `json:"eco_score" binding:"omitempty,gte=0,lte=100"`
	IsFeatured        *bool    `json:"is_featured"`
	IsActive          *bool    `json:"is_active"`
	StockQuantity     *int     `json:"stock_quantity" binding:"omitempty,gte=0"`
	LowStockThreshold *int     `json:"low_stock_threshold" binding:"omitempty,gte=0"`
	Size              *string  `json:"size" binding:"omitempty,max=50"`
	Fragrance         *string  `json:"fragrance" binding:"omitempty,max=100"`
	Tags              []string `json:"tags"`
	Features          []string `json:"features"`
	Images            []string `json:"images" binding:"omitempty,dive,url"`
}

// ListProducts
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	var query ProductListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	page, err := ctrl.productService.ListProducts(query.params(), viewerID(c))
	if err != nil {
		respondError(c, err, "fetch products")
		return
	}

	middleware.GetLoggerFromContext(c).Debug("Products listed", map[string]interface{}{
		"count": len(page.Products),
		"total": page.Pagination.Total,
	})
	apperrors.OK(c, page)
}

// GetProduct
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(id, viewerID(c))
	if err != nil {
		respondError(c, err, "fetch product")
		return
	}
	apperrors.OK(c, gin.H{"product": product})
}

// GetProductBySlug
// GET /api/v1/products/slug/:slug
func (ctrl *ProductController) GetProductBySlug(c *gin.Context) {
	product, err := ctrl.productService.GetProductBySlug(c.Param("slug"), viewerID(c))
	if err != nil {
		respondError(c, err, "fetch product")
		return
	}
	apperrors.OK(c, gin.H{"product": product})
}

// SearchProducts
// GET /api/v1/products/search?q=
func (ctrl *ProductController) SearchProducts(c *gin.Context) {
	products, err := ctrl.productService.SearchProducts(c.Query("q"), queryInt(c, "limit", 0), viewerID(c))
	if err != nil {
		respondError(c, err, "search products")
		return
	}
	apperrors.OK(c, gin.H{"products": products, "count": len(products)})
}

// GetFeaturedProducts
// GET /api/v1/products/featured
func (ctrl *ProductController) GetFeaturedProducts(c *gin.Context) {
	products, err := ctrl.productService.GetFeaturedProducts(queryInt(c, "limit", 0), viewerID(c))
	if err != nil {
		respondError(c, err, "fetch featured products")
		return
	}
	apperrors.OK(c, gin.H{"products": products})
}

// GetRelatedProducts
// GET /api/v1/products/:id/related
func (ctrl *ProductController) GetRelatedProducts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	products, err := ctrl.productService.GetRelatedProducts(id, queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err, "fetch related products")
		return
	}
	apperrors.OK(c, gin.H{"products": products})
}

// CreateProduct (admin)
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	product, err := ctrl.productService.CreateProduct(service.CreateProductInput{
		Name:              req.Name,
		Slug:              req.Slug,
		Description:       req.Description,
		ShortDescription:  req.ShortDescription,
		Price:             req.Price,
		OriginalPrice:     req.OriginalPrice,
		SKU:               req.SKU,
		Brand:             req.Brand,
		CategoryID:        req.CategoryID,
		IsEcoFriendly:     req.IsEcoFriendly,
		EcoScore:          req.EcoScore,
		IsFeatured:        req.IsFeatured,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		Size:              req.Size,
		Fragrance:         req.Fragrance,
		Tags:              req.Tags,
		Features:          req.Features,
		Images:            req.Images,
	})
	if err != nil {
		respondError(c, err, "create product")
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
	})
	apperrors.Created(c, "Product created successfully", gin.H{"product": product})
}

// UpdateProduct (admin)
// PUT /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	product, err := ctrl.productService.UpdateProduct(id, service.UpdateProductInput{
		Name:              req.Name,
		Slug:              req.Slug,
		Description:       req.Description,
		ShortDescription:  req.ShortDescription,
		Price:             req.Price,
		OriginalPrice:     req.OriginalPrice,
		SKU:               req.SKU,
		Brand:             req.Brand,
		CategoryID:        req.CategoryID,
		IsEcoFriendly:     req.IsEcoFriendly,
		EcoScore:          req.EcoScore,
		IsFeatured:        req.IsFeatured,
		IsActive:          req.IsActive,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		Size:              req.Size,
		Fragrance:         req.Fragrance,
		Tags:              req.Tags,
		Features:          req.Features,
		Images:            req.Images,
	})
	if err != nil {
		respondError(c, err, "update product")
		return
	}
	apperrors.OKWithMessage(c, "Product updated successfully", gin.H{"product": product})
}

// DeleteProduct deactivates the product (admin)
// DELETE /api/v1/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(id); err != nil {
		respondError(c, err, "delete product")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Product deactivated", map[string]interface{}{
		"product_id": id,
	})
	apperrors.OKWithMessage(c, "Product deleted successfully", nil)
}
