package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"github.com/milanenterprises/cleancare-backend/pkg/pricing"
	"github.com/milanenterprises/cleancare-backend/pkg/whatsapp"
	"gorm.io/gorm"
)

var ErrCustomerDetailsRequired = errors.New("customer name and phone are required")

type CheckoutInput struct {
	Customer whatsapp.Customer
	Items    []CartLine
}

type CheckoutLine struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Variant   string  `json:"variant,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type CheckoutSummary struct {
	Items []CheckoutLine `json:"items"`
	pricing.Breakdown
}

type CheckoutResult struct {
	Message string          `json:"message"`
	URL     string          `json:"url"`
	Summary CheckoutSummary `json:"summary"`
}

// CheckoutService hands an order off to the shop's WhatsApp line instead of persisting it
type CheckoutService interface {
	PrepareWhatsAppOrder(userID *uint, input CheckoutInput) (*CheckoutResult, error)
}

type checkoutService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	rules       pricing.Rules
	builder     *whatsapp.Builder
}

func NewCheckoutService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	rules pricing.Rules,
	builder *whatsapp.Builder,
) CheckoutService {
	return &checkoutService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		rules:       rules,
		builder:     builder,
	}
}

// PrepareWhatsAppOrder prices the lines from the catalog; without explicit items the caller's server cart is used
func (s *checkoutService) PrepareWhatsAppOrder(userID *uint, input CheckoutInput) (*CheckoutResult, error) {
	input.Customer.Name = strings.TrimSpace(input.Customer.Name)
	input.Customer.Phone = strings.TrimSpace(input.Customer.Phone)
	if input.Customer.Name == "" || input.Customer.Phone == "" {
		return nil, ErrCustomerDetailsRequired
	}

	lines := input.Items
	if len(lines) == 0 && userID != nil {
		cartItems, err := s.cartRepo.FindByUserID(*userID)
		if err != nil {
			logger.Error("Failed to load cart for checkout", err, map[string]interface{}{
				"user_id": *userID,
			})
			return nil, err
		}
		lines = checkoutLinesFromCart(cartItems)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	summary := CheckoutSummary{Items: make([]CheckoutLine, 0, len(lines))}
	priced := make([]pricing.Line, 0, len(lines))
	messageItems := make([]whatsapp.Item, 0, len(lines))

	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		product, err := s.productRepo.FindByID(line.ProductID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err != nil || !product.IsActive {
			logger.Warn("Checkout references unavailable product", map[string]interface{}{
				"product_id": line.ProductID,
			})
			return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, line.ProductID)
		}
		if product.StockQuantity < line.Quantity {
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, product.Name)
		}

		variant := strings.TrimSpace(line.Variant)
		priced = append(priced, pricing.Line{UnitPrice: product.Price, Quantity: line.Quantity})
		summary.Items = append(summary.Items, CheckoutLine{
			ProductID: product.ID,
			Name:      product.Name,
			Variant:   variant,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			LineTotal: pricing.Subtotal([]pricing.Line{{UnitPrice: product.Price, Quantity: line.Quantity}}),
		})
		messageItems = append(messageItems, whatsapp.Item{
			Name:      product.Name,
			Variant:   variant,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}

	summary.Breakdown = s.rules.Calculate(priced, nil)

	message := s.builder.Message(whatsapp.Order{
		Customer: input.Customer,
		Items:    messageItems,
		Totals: whatsapp.Totals{
			Subtotal: summary.Subtotal,
			Shipping: summary.Shipping,
			Discount: summary.Discount,
			Tax:      summary.Tax,
			Total:    summary.Total,
		},
	})

	logger.Info("WhatsApp checkout prepared", map[string]interface{}{
		"items": len(summary.Items),
		"total": summary.Total,
	})

	return &CheckoutResult{
		Message: message,
		URL:     s.builder.Link(message),
		Summary: summary,
	}, nil
}

// checkoutLinesFromCart converts stored cart rows to checkout lines
func checkoutLinesFromCart(items []model.CartItem) []CartLine {
	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, CartLine{ProductID: item.ProductID, Variant: item.Variant, Quantity: item.Quantity})
	}
	return lines
}
