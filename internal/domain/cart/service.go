// internal/domain/cart/service.go
package cart

import (
	"errors"
	"fmt"

	"github.com/mybai/storefront-backend/internal/config"
	"github.com/mybai/storefront-backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrProductOutOfStock is returned when adding a product with no stock left
	ErrProductOutOfStock = errors.New("product out of stock")
	// ErrItemNotFound is returned when a line is missing or owned by another user
	ErrItemNotFound = errors.New("cart item not found")
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CartResponse represents a cart with its lines and computed totals
type CartResponse struct {
	Cart   *Cart  `json:"cart"`
	Totals Totals `json:"totals"`
}

// AddItemResult reports the line resulting from an add plus whether it was
// newly created, for caller messaging.
type AddItemResult struct {
	Item    *CartItem `json:"item"`
	Created bool      `json:"created"`
}

// GetOrCreateCart returns the user's singleton cart, creating an empty one
// on first access. Idempotent.
func (s *Service) GetOrCreateCart(userID uint) (*Cart, error) {
	return s.GetOrCreateCartTx(s.db, userID)
}

// GetOrCreateCartTx is GetOrCreateCart bound to an existing transaction,
// for callers that must read the cart and act on its lines atomically.
func (s *Service) GetOrCreateCartTx(tx *gorm.DB, userID uint) (*Cart, error) {
	var cart Cart
	err := tx.Where(Cart{UserID: userID}).FirstOrCreate(&cart).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	if err := tx.Preload("Items.Product").First(&cart, cart.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	return &cart, nil
}

// GetCart returns the user's cart with lines and totals
func (s *Service) GetCart(userID uint) (*CartResponse, error) {
	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	return &CartResponse{
		Cart:   cart,
		Totals: s.CalculateTotals(cart),
	}, nil
}

// AddItem adds a product to the user's cart. Quantities below 1 default
// to 1. A product with zero stock is rejected outright; otherwise the
// resulting quantity is clamped so it never exceeds the current stock.
func (s *Service) AddItem(userID, productID uint, requestedQty int) (*AddItemResult, error) {
	if requestedQty < 1 {
		requestedQty = 1
	}

	var product catalog.Product
	result := s.db.Where("id = ?", productID).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	if product.Stock < 1 {
		return nil, ErrProductOutOfStock
	}

	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	var item CartItem
	result = s.db.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		item = CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  min(requestedQty, product.Stock),
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart item: %w", err)
		}
		item.Product = product
		return &AddItemResult{Item: &item, Created: true}, nil
	} else if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve cart item: %w", result.Error)
	}

	item.Quantity = min(item.Quantity+requestedQty, product.Stock)
	if err := s.db.Save(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	item.Product = product

	return &AddItemResult{Item: &item, Created: false}, nil
}

// DecrementItem lowers a line's quantity by one, deleting the line when it
// would drop below 1. The query is scoped to the user's cart, so a foreign
// line surfaces as not found.
func (s *Service) DecrementItem(userID, itemID uint) error {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return err
	}

	if item.Quantity > 1 {
		item.Quantity--
		if err := s.db.Save(item).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		return nil
	}

	if err := s.db.Delete(item).Error; err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// RemoveItem deletes a line from the user's cart unconditionally
func (s *Service) RemoveItem(userID, itemID uint) error {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(item).Error; err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// Clear deletes all lines from the user's cart; the cart row survives
func (s *Service) Clear(userID uint) error {
	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return err
	}

	if err := s.db.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// CalculateTotals computes the cart totals from current product prices
func (s *Service) CalculateTotals(cart *Cart) Totals {
	totals := Totals{
		ItemCount: len(cart.Items),
		Total:     decimal.Zero,
	}

	for i := range cart.Items {
		totals.TotalQuantity += cart.Items[i].Quantity
		totals.Total = totals.Total.Add(cart.Items[i].Subtotal())
	}

	return totals
}

// ownedItem loads a cart line, enforcing that it belongs to the user's cart
func (s *Service) ownedItem(userID, itemID uint) (*CartItem, error) {
	var item CartItem
	err := s.db.
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to retrieve cart item: %w", err)
	}
	return &item, nil
}
