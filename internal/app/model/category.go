package model

import (
	"time"
)

type Category struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:180;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	ParentID    *uint     `gorm:"index" json:"parent_id,omitempty"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`

	// ProductCount is the number of active products, filled by the repository
	ProductCount int64 `gorm:"-" json:"product_count"`
}

func (Category) TableName() string {
	return "categories"
}
