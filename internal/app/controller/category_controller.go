package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{
		categoryService: categoryService,
	}
}

type CategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	Image       *string `json:"image" binding:"omitempty,max=500"`
	ParentID    *uint   `json:"parent_id"`
	ClearParent bool    `json:"clear_parent"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

func (r CategoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Image:       r.Image,
		ParentID:    r.ParentID,
		ClearParent: r.ClearParent,
		SortOrder:   r.SortOrder,
		IsActive:    r.IsActive,
	}
}

// ListCategories returns top-level categories, or the children of parentId
// GET /api/v1/categories
func (ctrl *CategoryController) ListCategories(c *gin.Context) {
	var query struct {
		ParentID *uint `form:"parentId"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	categories, err := ctrl.categoryService.ListCategories(query.ParentID)
	if err != nil {
		respondError(c, err, "fetch categories")
		return
	}
	apperrors.OK(c, gin.H{"categories": categories})
}

// GET /api/v1/categories/:id
func (ctrl *CategoryController) GetCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	category, err := ctrl.categoryService.GetCategoryByID(id)
	if err != nil {
		respondError(c, err, "fetch category")
		return
	}
	apperrors.OK(c, gin.H{"category": category})
}

// GET /api/v1/categories/slug/:slug
func (ctrl *CategoryController) GetCategoryBySlug(c *gin.Context) {
	category, err := ctrl.categoryService.GetCategoryBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, err, "fetch category")
		return
	}
	apperrors.OK(c, gin.H{"category": category})
}

// GetCategoryProducts accepts the same filters as the product listing
// GET /api/v1/categories/:id/products
func (ctrl *CategoryController) GetCategoryProducts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var query ProductListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	page, err := ctrl.categoryService.GetCategoryProducts(id, query.params(), viewerID(c))
	if err != nil {
		respondError(c, err, "fetch category products")
		return
	}
	apperrors.OK(c, page)
}

// POST /api/v1/categories
func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}
	if req.Name == nil {
		apperrors.RespondWithValidationError(c, []apperrors.FieldError{{Field: "name", Message: "name is required"}})
		return
	}

	category, err := ctrl.categoryService.CreateCategory(req.input())
	if err != nil {
		respondError(c, err, "create category")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Category created", map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	})
	apperrors.Created(c, "Category created successfully", gin.H{"category": category})
}

// PUT /api/v1/categories/:id
func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	category, err := ctrl.categoryService.UpdateCategory(id, req.input())
	if err != nil {
		respondError(c, err, "update category")
		return
	}
	apperrors.OKWithMessage(c, "Category updated successfully", gin.H{"category": category})
}

// DELETE /api/v1/categories/:id
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.categoryService.DeleteCategory(id); err != nil {
		respondError(c, err, "delete category")
		return
	}
	apperrors.OKWithMessage(c, "Category deleted successfully", nil)
}
