package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
	ws "github.com/milanenterprises/cleancare-backend/internal/websocket"
)

type AdminController struct {
	orderService service.OrderService
	hub          *ws.Hub
	upgrader     websocket.Upgrader
}

// NewAdminController accepts feed connections only from allowedOrigins; an empty Origin header
// (non-browser clients) is allowed
func NewAdminController(orderService service.OrderService, hub *ws.Hub, allowedOrigins []string) *AdminController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = true
	}
	return &AdminController{
		orderService: orderService,
		hub:          hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
	}
}

type UpdateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number" binding:"omitempty,max=100"`
}

// GET /api/v1/admin/orders
func (ctrl *AdminController) ListOrders(c *gin.Context) {
	var query pageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	page, err := ctrl.orderService.ListAllOrders(query.Page, query.Limit, query.Status)
	if err != nil {
		respondError(c, err, "fetch orders")
		return
	}
	apperrors.OK(c, page)
}

// PUT /api/v1/admin/orders/:id/status
func (ctrl *AdminController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(id, model.OrderStatus(req.Status), req.TrackingNumber)
	if err != nil {
		respondError(c, err, "update order status")
		return
	}

	adminID, _ := middleware.GetUserID(c)
	log.Info("Order status updated", map[string]interface{}{
		"order_id": id,
		"status":   order.Status,
		"admin_id": adminID,
	})
	apperrors.OKWithMessage(c, "Order status updated", gin.H{"order": order})
}

// GET /api/v1/admin/stats
func (ctrl *AdminController) GetStats(c *gin.Context) {
	stats, err := ctrl.orderService.GetOrderStats()
	if err != nil {
		respondError(c, err, "fetch stats")
		return
	}
	apperrors.OK(c, stats)
}

// OrderFeed streams order events to an admin over a websocket
// GET /api/v1/admin/orders/feed?token=
func (ctrl *AdminController) OrderFeed(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		log.Warn("Failed to upgrade order feed connection", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, userID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("Order feed connection established", map[string]interface{}{
		"user_id": userID,
	})
}
