package repository

import (
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(category *model.Category) error
	FindActive(parentID *uint) ([]model.Category, error)
	FindByID(id uint) (*model.Category, error)
	FindBySlug(slug string) (*model.Category, error)
	FindAnyByID(id uint) (*model.Category, error)
	ExistsBySlug(slug string, excludeID uint) (bool, error)
	CountActiveProducts(categoryID uint) (int64, error)
	CountActiveChildren(categoryID uint) (int64, error)
	Update(category *model.Category) error
	Deactivate(id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(category *model.Category) error {
	logger.Debug("Creating category in database", map[string]interface{}{
		"name":      category.Name,
		"slug":      category.Slug,
		"parent_id": category.ParentID,
	})

	if err := r.db.Create(category).Error; err != nil {
		logger.Error("Failed to create category in database", err, map[string]interface{}{
			"slug": category.Slug,
		})
		return err
	}

	logger.Debug("Category created in database", map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	})
	return nil
}

func (r *categoryRepository) activeChildren(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true).Order("sort_order ASC, name ASC")
}

// FindActive lists active categories under parentID; nil lists the top level
func (r *categoryRepository) FindActive(parentID *uint) ([]model.Category, error) {
	logger.Debug("Finding active categories in database", map[string]interface{}{
		"parent_id": parentID,
	})

	query := r.db.Model(&model.Category{}).
		Preload("Children", r.activeChildren).
		Where("is_active = ?", true)
	if parentID != nil {
		query = query.Where("parent_id = ?", *parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	var categories []model.Category
	if err := query.Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		logger.Error("Failed to find active categories in database", err, map[string]interface{}{
			"parent_id": parentID,
		})
		return nil, err
	}

	if err := r.attachProductCounts(categories); err != nil {
		return nil, err
	}

	logger.Debug("Active categories found in database", map[string]interface{}{
		"count": len(categories),
	})
	return categories, nil
}

func (r *categoryRepository) findOne(where string, arg interface{}) (*model.Category, error) {
	var category model.Category
	err := r.db.Preload("Parent").
		Preload("Children", r.activeChildren).
		Where("is_active = ?", true).
		Where(where, arg).
		First(&category).Error
	if err != nil {
		return nil, err
	}

	list := []model.Category{category}
	if err := r.attachProductCounts(list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *categoryRepository) FindByID(id uint) (*model.Category, error) {
	logger.Debug("Finding category by ID in database", map[string]interface{}{
		"category_id": id,
	})

	category, err := r.findOne("id = ?", id)
	if err != nil {
		logger.Error("Failed to find category by ID in database", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}
	return category, nil
}

func (r *categoryRepository) FindBySlug(slug string) (*model.Category, error) {
	logger.Debug("Finding category by slug in database", map[string]interface{}{
		"slug": slug,
	})

	category, err := r.findOne("slug = ?", slug)
	if err != nil {
		logger.Error("Failed to find category by slug in database", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return category, nil
}

// FindAnyByID ignores is_active, for admin edits
func (r *categoryRepository) FindAnyByID(id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.First(&category, id).Error; err != nil {
		logger.Error("Failed to find category by ID in database", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ExistsBySlug(slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&model.Category{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		logger.Error("Failed to check category slug in database", err, map[string]interface{}{
			"slug": slug,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *categoryRepository) CountActiveProducts(categoryID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to count category products in database", err, map[string]interface{}{
			"category_id": categoryID,
		})
		return 0, err
	}
	return count, nil
}

func (r *categoryRepository) CountActiveChildren(categoryID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Category{}).
		Where("parent_id = ? AND is_active = ?", categoryID, true).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to count child categories in database", err, map[string]interface{}{
			"category_id": categoryID,
		})
		return 0, err
	}
	return count, nil
}

type categoryCount struct {
	CategoryID uint
	Count      int64
}

// attachProductCounts fills ProductCount for the given categories and their loaded children
func (r *categoryRepository) attachProductCounts(categories []model.Category) error {
	ids := make([]uint, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
		for _, child := range c.Children {
			ids = append(ids, child.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var rows []categoryCount
	err := r.db.Model(&model.Product{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IN ? AND is_active = ?", ids, true).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count products per category in database", err)
		return err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	for i := range categories {
		categories[i].ProductCount = counts[categories[i].ID]
		for j := range categories[i].Children {
			categories[i].Children[j].ProductCount = counts[categories[i].Children[j].ID]
		}
	}
	return nil
}

func (r *categoryRepository) Update(category *model.Category) error {
	logger.Debug("Updating category in database", map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	})

	err := r.db.Model(category).
		Select("name", "slug", "description", "image", "parent_id", "sort_order", "is_active").
		Updates(category).Error
	if err != nil {
		logger.Error("Failed to update category in database", err, map[string]interface{}{
			"category_id": category.ID,
		})
		return err
	}
	return nil
}

func (r *categoryRepository) Deactivate(id uint) error {
	logger.Debug("Deactivating category in database", map[string]interface{}{
		"category_id": id,
	})

	result := r.db.Model(&model.Category{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		logger.Error("Failed to deactivate category in database", result.Error, map[string]interface{}{
			"category_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
