package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"github.com/milanenterprises/cleancare-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategorySlugExists  = errors.New("category slug already exists")
	ErrCategoryHasProducts = errors.New("category has active products")
	ErrCategoryHasChildren = errors.New("category has active subcategories")
	ErrCategoryOwnParent   = errors.New("category cannot be its own parent")
)

type CategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
	Image       *string
	ParentID    *uint
	// ClearParent moves the category to the top level
	ClearParent bool
	SortOrder   *int
	IsActive    *bool
}

type CategoryService interface {
	ListCategories(parentID *uint) ([]model.Category, error)
	GetCategoryByID(id uint) (*model.Category, error)
	GetCategoryBySlug(slug string) (*model.Category, error)
	GetCategoryProducts(id uint, params ProductListParams, viewerID uint) (*ProductPage, error)
	CreateCategory(input CategoryInput) (*model.Category, error)
	UpdateCategory(id uint, input CategoryInput) (*model.Category, error)
	DeleteCategory(id uint) error
}

type categoryService struct {
	categoryRepo   repository.CategoryRepository
	productService ProductService
}

func NewCategoryService(categoryRepo repository.CategoryRepository, productService ProductService) CategoryService {
	return &categoryService{
		categoryRepo:   categoryRepo,
		productService: productService,
	}
}

func (s *categoryService) ListCategories(parentID *uint) ([]model.Category, error) {
	return s.categoryRepo.FindActive(parentID)
}

func (s *categoryService) GetCategoryByID(id uint) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) GetCategoryBySlug(slug string) (*model.Category, error) {
	category, err := s.categoryRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) GetCategoryProducts(id uint, params ProductListParams, viewerID uint) (*ProductPage, error) {
	if _, err := s.GetCategoryByID(id); err != nil {
		return nil, err
	}
	params.CategoryID = &id
	params.CategorySlug = ""
	return s.productService.ListProducts(params, viewerID)
}

func (s *categoryService) ensureSlugFree(slug string, excludeID uint) error {
	exists, err := s.categoryRepo.ExistsBySlug(slug, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrCategorySlugExists
	}
	return nil
}

func (s *categoryService) ensureParent(parentID uint) error {
	if _, err := s.categoryRepo.FindAnyByID(parentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: parent %d", ErrCategoryNotFound, parentID)
		}
		return err
	}
	return nil
}

func (s *categoryService) CreateCategory(input CategoryInput) (*model.Category, error) {
	name := ""
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
	}
	slug := util.Slugify(name)
	if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
		slug = strings.TrimSpace(*input.Slug)
	}

	logger.Info("Creating category", map[string]interface{}{
		"name":      name,
		"slug":      slug,
		"parent_id": input.ParentID,
	})

	if err := s.ensureSlugFree(slug, 0); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if err := s.ensureParent(*input.ParentID); err != nil {
			return nil, err
		}
	}

	category := &model.Category{
		Name:     name,
		Slug:     slug,
		ParentID: input.ParentID,
	}
	applyString(&category.Description, input.Description)
	applyString(&category.Image, input.Image)
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}

	if err := s.categoryRepo.Create(category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategorySlugExists
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(id uint, input CategoryInput) (*model.Category, error) {
	logger.Info("Updating category", map[string]interface{}{
		"category_id": id,
	})

	category, err := s.categoryRepo.FindAnyByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	if input.Slug != nil {
		slug := strings.TrimSpace(*input.Slug)
		if slug != "" && slug != category.Slug {
			if err := s.ensureSlugFree(slug, id); err != nil {
				return nil, err
			}
			category.Slug = slug
		}
	}
	switch {
	case input.ClearParent:
		category.ParentID = nil
	case input.ParentID != nil:
		if *input.ParentID == id {
			return nil, ErrCategoryOwnParent
		}
		if err := s.ensureParent(*input.ParentID); err != nil {
			return nil, err
		}
		category.ParentID = input.ParentID
	}

	applyString(&category.Name, input.Name)
	applyString(&category.Description, input.Description)
	applyString(&category.Image, input.Image)
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory deactivates a category that no longer owns active products or subcategories
func (s *categoryService) DeleteCategory(id uint) error {
	logger.Info("Deleting category", map[string]interface{}{
		"category_id": id,
	})

	if _, err := s.categoryRepo.FindAnyByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	products, err := s.categoryRepo.CountActiveProducts(id)
	if err != nil {
		return err
	}
	if products > 0 {
		logger.Warn("Category deletion rejected: active products", map[string]interface{}{
			"category_id":   id,
			"product_count": products,
		})
		return fmt.Errorf("%w (%d)", ErrCategoryHasProducts, products)
	}

	children, err := s.categoryRepo.CountActiveChildren(id)
	if err != nil {
		return err
	}
	if children > 0 {
		logger.Warn("Category deletion rejected: active subcategories", map[string]interface{}{
			"category_id": id,
			"child_count": children,
		})
		return fmt.Errorf("%w (%d)", ErrCategoryHasChildren, children)
	}

	return s.categoryRepo.Deactivate(id)
}
