package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	ws "github.com/milanenterprises/cleancare-backend/internal/websocket"
	"github.com/milanenterprises/cleancare-backend/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderFixture struct {
	router        *gin.Engine
	db            *gorm.DB
	hub           *ws.Hub
	customer      *model.User
	customerToken string
	otherToken    string
	adminToken    string
	product       *model.Product
}

func setupOrderControllerTest(t *testing.T) *orderFixture {
	testDB := newTestDB(t)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	productRepo := repository.NewProductRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	orderService := service.NewOrderService(testDB, repository.NewOrderRepository(testDB), cartRepo, productRepo, service.OrderServiceConfig{
		Rules:        pricing.DefaultRules(),
		NumberPrefix: "CC",
		Publisher:    hub,
	})
	cartService := service.NewCartService(cartRepo, productRepo)

	orders := NewOrderController(orderService)
	cart := NewCartController(cartService, nil)
	admin := NewAdminController(orderService, hub, []string{"http://localhost:3000"})
	auth := newAuthMiddleware()

	router := gin.New()
	router.POST("/cart", auth.Authenticate(), cart.AddToCart)
	group := router.Group("/orders", auth.Authenticate())
	group.GET("", orders.GetMyOrders)
	group.POST("", orders.CreateOrder)
	group.GET("/:id", orders.GetOrder)
	group.PUT("/:id/cancel", orders.CancelOrder)

	adminGroup := router.Group("/admin", auth.Authenticate(), auth.RequireStaff())
	adminGroup.GET("/orders", admin.ListOrders)
	adminGroup.GET("/orders/feed", admin.OrderFeed)
	adminGroup.PUT("/orders/:id/status", admin.UpdateOrderStatus)
	adminGroup.GET("/stats", admin.GetStats)

	customer, customerToken := seedUser(t, testDB, "buyer@example.com", model.RoleCustomer)
	_, otherToken := seedUser(t, testDB, "other@example.com", model.RoleCustomer)
	_, adminToken := seedUser(t, testDB, "admin@example.com", model.RoleAdmin)
	category := seedCategory(t, testDB, "laundry-care")
	product := seedProduct(t, testDB, category.ID, "Laundry Pods", 9.5, 5)

	return &orderFixture{
		router:        router,
		db:            testDB,
		hub:           hub,
		customer:      customer,
		customerToken: customerToken,
		otherToken:    otherToken,
		adminToken:    adminToken,
		product:       product,
	}
}

func shippingAddress() AddressRequest {
	return AddressRequest{
		FirstName: "Asha",
		LastName:  "Patil",
		Address1:  "12 MG Road",
		City:      "Pune",
		State:     "MH",
		ZipCode:   "411001",
		Phone:     "9876543210",
	}
}

func placeOrder(t *testing.T, f *orderFixture, quantity int) model.Order {
	w := performJSON(f.router, http.MethodPost, "/orders", CreateOrderRequest{
		Items:           []OrderItemRequest{{ProductID: f.product.ID, Quantity: quantity}},
		ShippingAddress: shippingAddress(),
	}, withToken(f.customerToken))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Order model.Order `json:"order"`
	}
	decodeData(t, w, &resp)
	return resp.Order
}

func stockOf(t *testing.T, testDB *gorm.DB, id uint) int {
	var product model.Product
	require.NoError(t, testDB.First(&product, id).Error)
	return product.StockQuantity
}

func TestOrderController_CreateFromItems(t *testing.T) {
	f := setupOrderControllerTest(t)

	order := placeOrder(t, f, 2)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "CC-"), order.OrderNumber)
	assert.InDelta(t, 19.0, order.Subtotal, 0.001)
	assert.InDelta(t, 5.99, order.Shipping, 0.001)
	assert.InDelta(t, 1.52, order.Tax, 0.001)
	assert.InDelta(t, 26.51, order.Total, 0.001)
	assert.Equal(t, 3, stockOf(t, f.db, f.product.ID))

	w := performJSON(f.router, http.MethodPost, "/orders", CreateOrderRequest{
		Items:           []OrderItemRequest{{ProductID: f.product.ID, Quantity: 10}},
		ShippingAddress: shippingAddress(),
	}, withToken(f.customerToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 3, stockOf(t, f.db, f.product.ID), "failed orders leave stock untouched")
}

func TestOrderController_CreateFromCart(t *testing.T) {
	f := setupOrderControllerTest(t)

	w := performJSON(f.router, http.MethodPost, "/orders", CreateOrderRequest{ShippingAddress: shippingAddress()}, withToken(f.customerToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CartEmpty, decode(t, w).Code)

	w = performJSON(f.router, http.MethodPost, "/cart", AddToCartRequest{ProductID: f.product.ID, Quantity: 1}, withToken(f.customerToken))
	require.Equal(t, http.StatusCreated, w.Code)

	w = performJSON(f.router, http.MethodPost, "/orders", CreateOrderRequest{ShippingAddress: shippingAddress()}, withToken(f.customerToken))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var count int64
	require.NoError(t, f.db.Model(&model.CartItem{}).Where("user_id = ?", f.customer.ID).Count(&count).Error)
	assert.Zero(t, count, "cart is emptied by checkout")
}

func TestOrderController_ValidatesAddress(t *testing.T) {
	f := setupOrderControllerTest(t)

	w := performJSON(f.router, http.MethodPost, "/orders", gin.H{
		"items": []gin.H{{"product_id": f.product.ID, "quantity": 1}},
	}, withToken(f.customerToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidInput, decode(t, w).Code)
}

func TestOrderController_GetAndCancel(t *testing.T) {
	f := setupOrderControllerTest(t)
	order := placeOrder(t, f, 2)
	path := fmt.Sprintf("/orders/%d", order.ID)

	w := performJSON(f.router, http.MethodGet, path, nil, withToken(f.otherToken))
	assert.Equal(t, http.StatusNotFound, w.Code, "orders are private to their owner")

	w = performJSON(f.router, http.MethodGet, path, nil, withToken(f.customerToken))
	require.Equal(t, http.StatusOK, w.Code)

	var page service.OrderPage
	w = performJSON(f.router, http.MethodGet, "/orders", nil, withToken(f.customerToken))
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &page)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, int64(1), page.Pagination.Total)

	w = performJSON(f.router, http.MethodPut, path+"/cancel", nil, withToken(f.customerToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 5, stockOf(t, f.db, f.product.ID), "cancelling restores stock")

	w = performJSON(f.router, http.MethodPut, path+"/cancel", nil, withToken(f.customerToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminController_Orders(t *testing.T) {
	f := setupOrderControllerTest(t)
	order := placeOrder(t, f, 1)

	w := performJSON(f.router, http.MethodGet, "/admin/orders", nil, withToken(f.customerToken))
	assert.Equal(t, http.StatusForbidden, w.Code)

	var page service.OrderPage
	w = performJSON(f.router, http.MethodGet, "/admin/orders?status=PENDING", nil, withToken(f.adminToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &page)
	require.Len(t, page.Orders, 1)

	statusPath := fmt.Sprintf("/admin/orders/%d/status", order.ID)
	w = performJSON(f.router, http.MethodPut, statusPath, UpdateOrderStatusRequest{Status: "LOST"}, withToken(f.adminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.OrderInvalidStatus, decode(t, w).Code)

	w = performJSON(f.router, http.MethodPut, statusPath, UpdateOrderStatusRequest{Status: "SHIPPED", TrackingNumber: "TRK123"}, withToken(f.adminToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		Order model.Order `json:"order"`
	}
	decodeData(t, w, &updated)
	assert.Equal(t, model.OrderStatusShipped, updated.Order.Status)
	assert.Equal(t, "TRK123", updated.Order.TrackingNumber)
	assert.NotNil(t, updated.Order.ShippedAt)

	var stats model.OrderStats
	w = performJSON(f.router, http.MethodGet, "/admin/stats", nil, withToken(f.adminToken))
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &stats)
	assert.Equal(t, int64(1), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.CountsByStatus[model.OrderStatusShipped])
}

func TestAdminController_OrderFeed(t *testing.T) {
	f := setupOrderControllerTest(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	feedURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/admin/orders/feed?token=" + f.adminToken

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := gorillaws.DefaultDialer.Dial(feedURL, header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}

	conn, _, err := gorillaws.DefaultDialer.Dial(feedURL, http.Header{"Origin": []string{"http://localhost:3000"}})
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	order := placeOrder(t, f, 1)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event model.OrderEvent
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, model.OrderEventCreated, event.Type)
	assert.Equal(t, order.ID, event.OrderID)
	assert.Equal(t, order.OrderNumber, event.OrderNumber)
}
