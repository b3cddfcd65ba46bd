package model

import (
	"time"
)

// CartItem is unique per (user, product, variant); an empty variant means the base product.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product_variant" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product_variant;index" json:"product_id"`
	Variant   string    `gorm:"size:100;not null;default:'';uniqueIndex:idx_cart_user_product_variant" json:"variant"`
	Quantity  int       `gorm:"not null;default:1;check:chk_cart_items_quantity,quantity >= 1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type CartSummary struct {
	Subtotal   float64 `json:"subtotal"`
	TotalItems int     `json:"total_items"`
	ItemCount  int     `json:"item_count"`
}

type Cart struct {
	Items   []CartItem  `json:"items"`
	Summary CartSummary `json:"summary"`
}
