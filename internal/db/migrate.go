package db

import (
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, parents before children.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Address{},
		&model.Category{},
		&model.Product{},
		&model.ProductImage{},
		&model.Review{},
		&model.CartItem{},
		&model.WishlistItem{},
		&model.Coupon{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderCoupon{},
	}
}

// Migrate runs AutoMigrate against the global connection and seeds base data
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds the base category tree when the table is empty
func Seed() error {
	return SeedCategories(DB)
}

type categorySeed struct {
	name        string
	slug        string
	description string
	children    []categorySeed
}

var baseCategories = []categorySeed{
	{
		name:        "Cleaning Products",
		slug:        "cleaning-products",
		description: "Professional-grade cleaning solutions for every surface and need",
		children: []categorySeed{
			{name: "Floor Care", slug: "floor-care", description: "Specialized cleaners for all types of flooring"},
			{name: "Kitchen Cleaners", slug: "kitchen-cleaners", description: "Powerful degreasers and dishwashing solutions"},
			{name: "Bathroom Cleaners", slug: "bathroom-cleaners", description: "Disinfectants and specialized bathroom cleaning products"},
			{name: "Laundry Care", slug: "laundry-care", description: "Detergents, fabric softeners, and stain removers"},
			{name: "Multi-Surface", slug: "multi-surface", description: "Versatile cleaners for multiple surfaces"},
			{name: "Eco Refills", slug: "eco-refills", description: "Sustainable refill packs to reduce plastic waste"},
		},
	},
	{
		name:        "Household Products",
		slug:        "household-products",
		description: "Essential household items and accessories for daily living",
		children: []categorySeed{
			{name: "Cleaning Accessories", slug: "cleaning-accessories", description: "Tools and accessories to enhance your cleaning routine"},
			{name: "Storage & Organization", slug: "storage-organization", description: "Solutions to keep your home organized and tidy"},
		},
	},
}

func SeedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Categories already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding category tree...")

	inserted := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for i, root := range baseCategories {
			parent := model.Category{
				Name:        root.name,
				Slug:        root.slug,
				Description: root.description,
				SortOrder:   i + 1,
			}
			if err := tx.Create(&parent).Error; err != nil {
				return err
			}
			inserted++

			for j, child := range root.children {
				c := model.Category{
					Name:        child.name,
					Slug:        child.slug,
					Description: child.description,
					ParentID:    &parent.ID,
					SortOrder:   j + 1,
				}
				if err := tx.Create(&c).Error; err != nil {
					return err
				}
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to seed categories", err)
		return err
	}

	logger.Info("Categories seeded successfully", map[string]interface{}{
		"total_records": inserted,
	})
	return nil
}
