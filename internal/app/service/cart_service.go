package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"github.com/milanenterprises/cleancare-backend/pkg/pricing"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInsufficientStock = errors.New("insufficient stock available")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
)

// CartLine is one (product, variant, quantity) entry coming from a client cart snapshot
type CartLine struct {
	ProductID uint   `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

type MergeFailure struct {
	ProductID uint   `json:"product_id"`
	Variant   string `json:"variant,omitempty"`
	Reason    string `json:"reason"`
}

type MergeResult struct {
	Cart     *model.Cart    `json:"cart"`
	Failures []MergeFailure `json:"failures"`
}

type CartService interface {
	GetCart(userID uint) (*model.Cart, error)
	AddToCart(userID, productID uint, quantity int, variant string) (*model.CartItem, error)
	UpdateCartItem(userID, cartItemID uint, quantity int) (*model.CartItem, error)
	RemoveFromCart(userID, cartItemID uint) error
	ClearCart(userID uint) error
	MergeCart(userID uint, lines []CartLine) (*MergeResult, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// SummarizeCart computes the cart summary from the current product prices
func SummarizeCart(items []model.CartItem) model.CartSummary {
	lines := make([]pricing.Line, 0, len(items))
	total := 0
	for _, item := range items {
		lines = append(lines, pricing.Line{UnitPrice: item.Product.Price, Quantity: item.Quantity})
		total += item.Quantity
	}
	return model.CartSummary{
		Subtotal:   pricing.Subtotal(lines),
		TotalItems: total,
		ItemCount:  len(items),
	}
}

func (s *cartService) GetCart(userID uint) (*model.Cart, error) {
	logger.Debug("Fetching user cart", map[string]interface{}{
		"user_id": userID,
	})

	items, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if items == nil {
		items = []model.CartItem{}
	}

	return &model.Cart{
		Items:   items,
		Summary: SummarizeCart(items),
	}, nil
}

func (s *cartService) activeProduct(productID uint) (*model.Product, error) {
	product, err := s.productRepo.FindAnyByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// AddToCart adds quantity to the (product, variant) line, creating it when absent.
// The summed quantity must still fit in stock.
func (s *cartService) AddToCart(userID, productID uint, quantity int, variant string) (*model.CartItem, error) {
	variant = strings.TrimSpace(variant)
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"variant":    variant,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.activeProduct(productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
		}
		return nil, err
	}
	if product.StockQuantity < quantity {
		logger.Warn("Cannot add to cart: insufficient stock", map[string]interface{}{
			"product_id": productID,
			"stock":      product.StockQuantity,
			"requested":  quantity,
		})
		return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, product.Name)
	}

	existing, err := s.cartRepo.FindByUserProductVariant(userID, productID, variant)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		newQuantity := existing.Quantity + quantity
		if product.StockQuantity < newQuantity {
			logger.Warn("Cannot add to cart: insufficient stock for combined quantity", map[string]interface{}{
				"product_id": productID,
				"stock":      product.StockQuantity,
				"in_cart":    existing.Quantity,
				"requested":  quantity,
			})
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, product.Name)
		}
		if err := s.cartRepo.UpdateQuantity(existing.ID, newQuantity); err != nil {
			return nil, err
		}
		existing.Quantity = newQuantity
		existing.Product = *product
		return existing, nil
	}

	item := &model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Variant:   variant,
		Quantity:  quantity,
	}
	if err := s.cartRepo.Create(item); err != nil {
		logger.Error("Failed to add item to cart", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}
	item.Product = *product

	logger.Info("Item added to cart", map[string]interface{}{
		"cart_item_id": item.ID,
		"user_id":      userID,
	})
	return item, nil
}

func (s *cartService) UpdateCartItem(userID, cartItemID uint, quantity int) (*model.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.cartRepo.FindByIDAndUserID(cartItemID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	if item.Product.StockQuantity < quantity {
		logger.Warn("Cannot update cart item: insufficient stock", map[string]interface{}{
			"cart_item_id": cartItemID,
			"stock":        item.Product.StockQuantity,
			"requested":    quantity,
		})
		return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, item.Product.Name)
	}

	if err := s.cartRepo.UpdateQuantity(item.ID, quantity); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	return item, nil
}

func (s *cartService) RemoveFromCart(userID, cartItemID uint) error {
	if err := s.cartRepo.Delete(cartItemID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}
	logger.Info("Item removed from cart", map[string]interface{}{
		"cart_item_id": cartItemID,
		"user_id":      userID,
	})
	return nil
}

func (s *cartService) ClearCart(userID uint) error {
	if err := s.cartRepo.DeleteByUserID(userID); err != nil {
		return err
	}
	logger.Info("Cart cleared", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// MergeCart adds every snapshot line through AddToCart; a failing line does not stop the others
func (s *cartService) MergeCart(userID uint, lines []CartLine) (*MergeResult, error) {
	failures := []MergeFailure{}
	for _, line := range lines {
		if _, err := s.AddToCart(userID, line.ProductID, line.Quantity, line.Variant); err != nil {
			if !isCartLineError(err) {
				return nil, err
			}
			failures = append(failures, MergeFailure{
				ProductID: line.ProductID,
				Variant:   line.Variant,
				Reason:    err.Error(),
			})
		}
	}

	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	logger.Info("Guest cart merged", map[string]interface{}{
		"user_id":  userID,
		"lines":    len(lines),
		"failures": len(failures),
	})
	return &MergeResult{Cart: cart, Failures: failures}, nil
}

func isCartLineError(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidQuantity)
}
