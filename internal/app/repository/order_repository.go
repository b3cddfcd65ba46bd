package repository

import (
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderListFilter struct {
	UserID *uint
	Status model.OrderStatus
	Limit  int
	Offset int
}

type OrderRepository interface {
	FindByID(id uint) (*model.Order, error)
	FindByIDAndUserID(id, userID uint) (*model.Order, error)
	FindWithFilter(filter OrderListFilter) ([]model.Order, int64, error)
	CountByStatus() (map[model.OrderStatus]int64, error)
	DeliveredRevenue() (float64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).
		Preload("OrderItems.Product").
		Preload("OrderItems.Product.Images", orderedImages).
		Preload("ShippingAddress").
		Preload("BillingAddress").
		Preload("Coupons").
		Preload("Coupons.Coupon")
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder(r.db).Preload("User").First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})
	return &order, nil
}

func (r *orderRepository) FindByIDAndUserID(id, userID uint) (*model.Order, error) {
	logger.Debug("Finding order by ID for user in database", map[string]interface{}{
		"order_id": id,
		"user_id":  userID,
	})

	var order model.Order
	err := r.preloadOrder(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		logger.Error("Failed to find order by ID for user in database", err, map[string]interface{}{
			"order_id": id,
			"user_id":  userID,
		})
		return nil, err
	}
	return &order, nil
}

// FindWithFilter returns a page of orders, newest first, and the unpaged total
func (r *orderRepository) FindWithFilter(filter OrderListFilter) ([]model.Order, int64, error) {
	logger.Debug("Finding orders with filter", map[string]interface{}{
		"user_id": filter.UserID,
		"status":  filter.Status,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})

	query := r.db.Model(&model.Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count orders", err)
		return nil, 0, err
	}

	page := r.preloadOrder(query.Session(&gorm.Session{})).Order("created_at DESC, id DESC")
	if filter.UserID == nil {
		page = page.Preload("User")
	}
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		page = page.Offset(filter.Offset)
	}

	var orders []model.Order
	if err := page.Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders with filter", err)
		return nil, 0, err
	}

	logger.Debug("Orders found with filter", map[string]interface{}{
		"count": len(orders),
		"total": total,
	})
	return orders, total, nil
}

type statusCount struct {
	Status model.OrderStatus
	Count  int64
}

func (r *orderRepository) CountByStatus() (map[model.OrderStatus]int64, error) {
	var rows []statusCount
	err := r.db.Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count orders by status", err)
		return nil, err
	}

	counts := make(map[model.OrderStatus]int64, len(model.OrderStatuses))
	for _, status := range model.OrderStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *orderRepository) DeliveredRevenue() (float64, error) {
	var revenue float64
	err := r.db.Model(&model.Order{}).
		Where("status = ?", model.OrderStatusDelivered).
		Select("COALESCE(SUM(total), 0)").
		Scan(&revenue).Error
	if err != nil {
		logger.Error("Failed to sum delivered revenue", err)
		return 0, err
	}
	return revenue, nil
}
