package model

import "time"

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventCancelled     OrderEventType = "order.cancelled"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
)

// OrderEvent is pushed to the admin live feed after a committed order change
type OrderEvent struct {
	Type        OrderEventType `json:"type"`
	OrderID     uint           `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	UserID      uint           `json:"user_id"`
	Status      OrderStatus    `json:"status"`
	Total       float64        `json:"total"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func NewOrderEvent(t OrderEventType, order *Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:        t,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      order.Status,
		Total:       order.Total,
		OccurredAt:  at,
	}
}
