package model

import (
	"time"

	"github.com/lib/pq"
)

type Product struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	Name              string         `gorm:"size:255;not null" json:"name"`
	Slug              string         `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Description       string         `gorm:"type:text" json:"description"`
	ShortDescription  string         `gorm:"type:text" json:"short_description,omitempty"`
	Price             float64        `gorm:"not null" json:"price"`
	OriginalPrice     *float64       `json:"original_price,omitempty"`
	SKU               string         `gorm:"column:sku;uniqueIndex;size:100;not null" json:"sku"`
	Brand             string         `gorm:"size:100" json:"brand,omitempty"`
	CategoryID        uint           `gorm:"not null;index" json:"category_id"`
	IsEcoFriendly     bool           `gorm:"default:false;index" json:"is_eco_friendly"`
	EcoScore          int            `gorm:"default:0" json:"eco_score"`
	IsFeatured        bool           `gorm:"default:false;index" json:"is_featured"`
	IsActive          bool           `gorm:"default:true;index" json:"is_active"`
	StockQuantity     int            `gorm:"not null;default:0;check:chk_products_stock,stock_quantity >= 0" json:"stock_quantity"`
	LowStockThreshold int            `gorm:"default:10" json:"low_stock_threshold"`
	Size              string         `gorm:"size:50" json:"size,omitempty"`
	Fragrance         string         `gorm:"size:100" json:"fragrance,omitempty"`
	Tags              pq.StringArray `gorm:"type:text" json:"tags"`
	Features          pq.StringArray `gorm:"type:text" json:"features"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	Category *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images   []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Reviews  []Review       `gorm:"foreignKey:ProductID" json:"reviews,omitempty"`

	AverageRating float64 `gorm:"-" json:"average_rating"`
	ReviewCount   int64   `gorm:"-" json:"review_count"`
	IsWishlisted  bool    `gorm:"-" json:"is_wishlisted"`
}

func (Product) TableName() string {
	return "products"
}

// MainImage returns the image flagged as main, falling back to the first one
func (p Product) MainImage() string {
	for _, img := range p.Images {
		if img.IsMain {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

type ProductImage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null" json:"url"`
	AltText   string    `json:"alt_text,omitempty"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	IsMain    bool      `gorm:"default:false" json:"is_main"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProductImage) TableName() string {
	return "product_images"
}
