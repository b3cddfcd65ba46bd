package model

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Cancellable reports whether a customer may still cancel
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

type Order struct {
	ID                uint        `gorm:"primarykey" json:"id"`
	OrderNumber       string      `gorm:"uniqueIndex;size:64;not null" json:"order_number"`
	UserID            uint        `gorm:"not null;index" json:"user_id"`
	Status            OrderStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`
	Subtotal          float64     `gorm:"not null" json:"subtotal"`
	Tax               float64     `gorm:"not null" json:"tax"`
	Shipping          float64     `gorm:"not null" json:"shipping"`
	Discount          float64     `gorm:"not null;default:0" json:"discount"`
	Total             float64     `gorm:"not null" json:"total"`
	PaymentMethod     string      `gorm:"size:50;default:'whatsapp'" json:"payment_method"`
	ShippingAddressID uint        `gorm:"not null" json:"shipping_address_id"`
	BillingAddressID  *uint       `json:"billing_address_id,omitempty"`
	TrackingNumber    string      `gorm:"size:100" json:"tracking_number,omitempty"`
	ShippedAt         *time.Time  `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time  `json:"delivered_at,omitempty"`
	Notes             string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	User            *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ShippingAddress *Address      `gorm:"foreignKey:ShippingAddressID" json:"shipping_address,omitempty"`
	BillingAddress  *Address      `gorm:"foreignKey:BillingAddressID" json:"billing_address,omitempty"`
	OrderItems      []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
	Coupons         []OrderCoupon `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"coupons,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots the unit price at purchase time
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Price     float64   `gorm:"not null" json:"price"`
	Variant   string    `gorm:"size:100;default:''" json:"variant,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

type OrderCoupon struct {
	ID       uint    `gorm:"primarykey" json:"id"`
	OrderID  uint    `gorm:"not null;index" json:"order_id"`
	CouponID uint    `gorm:"not null;index" json:"coupon_id"`
	Discount float64 `gorm:"not null" json:"discount"`

	Coupon *Coupon `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
}

func (OrderCoupon) TableName() string {
	return "order_coupons"
}

type OrderStats struct {
	CountsByStatus   map[OrderStatus]int64 `json:"counts_by_status"`
	TotalOrders      int64                 `json:"total_orders"`
	DeliveredRevenue float64               `json:"delivered_revenue"`
	ActiveProducts   int64                 `json:"active_products"`
	LowStockProducts int64                 `json:"low_stock_products"`
}
