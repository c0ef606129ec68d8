// internal/domain/order/service.go
package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mybai/storefront-backend/internal/config"
	"github.com/mybai/storefront-backend/internal/domain/cart"
	"github.com/mybai/storefront-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

var (
	// ErrEmptyCart is returned when a checkout is attempted on a cart with no lines
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderNotFound is returned when the order is missing or owned by another user
	ErrOrderNotFound = errors.New("order not found")
	// ErrMissingAddress is returned when the shipping address is incomplete
	ErrMissingAddress = errors.New("shipping address and city are required")
)

// InsufficientStockError reports the product that made a checkout fail.
// The whole checkout rolls back; no partial fulfillment.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (requested %d)", e.ProductName, e.Requested)
}

// InvalidTransitionError reports a rejected order status change
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// Service handles order business logic
type Service struct {
	db          *gorm.DB
	config      *config.Config
	cartService *cart.Service
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, cartService *cart.Service) *Service {
	return &Service{
		db:          db,
		config:      cfg,
		cartService: cartService,
	}
}

// CheckoutRequest carries the shipping address for a checkout
type CheckoutRequest struct {
	Address   string `json:"direccion" form:"direccion"`
	Apartment string `json:"apartamento" form:"apartamento"`
	City      string `json:"ciudad" form:"ciudad"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

// OrderListResponse represents an order page with pagination
type OrderListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Checkout converts the user's cart into an order. It runs as a single
// transaction: every line's stock is decremented conditionally, and any
// line with too little stock aborts the whole checkout. On success the
// cart is emptied and the order carries price snapshots of every line.
func (s *Service) Checkout(userID uint, req *CheckoutRequest) (*Order, error) {
	if strings.TrimSpace(req.Address) == "" || strings.TrimSpace(req.City) == "" {
		return nil, ErrMissingAddress
	}

	var order Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Cart load and empty check happen inside the transaction, so a
		// line added concurrently is either billed or left for the next
		// checkout, never silently discarded.
		userCart, err := s.cartService.GetOrCreateCartTx(tx, userID)
		if err != nil {
			return fmt.Errorf("failed to retrieve cart: %w", err)
		}

		if len(userCart.Items) == 0 {
			return ErrEmptyCart
		}

		order = Order{
			UserID:    userID,
			CartID:    userCart.ID,
			Status:    StatusPending,
			Address:   strings.TrimSpace(req.Address),
			Apartment: strings.TrimSpace(req.Apartment),
			City:      strings.TrimSpace(req.City),
		}

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		// Tracking code derives from the ID, so it needs a second write
		order.TrackingCode = TrackingCodeFor(order.ID)
		if err := tx.Model(&order).Update("tracking_code", order.TrackingCode).Error; err != nil {
			return fmt.Errorf("failed to set tracking code: %w", err)
		}

		purchased := make([]uint, 0, len(userCart.Items))
		for i := range userCart.Items {
			line := &userCart.Items[i]

			// Conditional decrement: zero rows affected means some other
			// checkout got the stock first, and the whole order aborts.
			result := tx.Model(&catalog.Product{}).
				Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to decrement stock: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return &InsufficientStockError{
					ProductID:   line.ProductID,
					ProductName: line.Product.Name,
					Requested:   line.Quantity,
				}
			}

			orderItem := OrderItem{
				OrderID:     order.ID,
				ProductID:   line.ProductID,
				ProductName: line.Product.Name,
				UnitPrice:   line.Product.Price,
				Quantity:    line.Quantity,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			order.Items = append(order.Items, orderItem)
			purchased = append(purchased, line.ID)
		}

		order.Total = order.CalculateTotal()
		if err := tx.Model(&Order{}).Where("id = ?", order.ID).
			Update("total", order.Total).Error; err != nil {
			return fmt.Errorf("failed to set order total: %w", err)
		}

		// The cart row survives; only the lines this order bought go
		if err := tx.Where("id IN ?", purchased).Delete(&cart.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// ListUserOrders returns the user's orders, newest first, paginated
func (s *Service) ListUserOrders(userID uint, req *OrderListRequest) (*OrderListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	var orders []Order
	var total int64

	query := s.db.Model(&Order{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetUserOrder returns one of the user's orders. A foreign order is
// reported as not found rather than forbidden.
func (s *Service) GetUserOrder(userID, orderID uint) (*Order, error) {
	var order Order
	result := s.db.
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &order, nil
}

// UpdateStatus moves an order through the status state machine.
// Cancelling an order that has not shipped restores its stock.
func (s *Service) UpdateStatus(orderID uint, status string) (*Order, error) {
	if !IsValidStatus(status) {
		return nil, fmt.Errorf("unknown order status: %s", status)
	}

	var order Order
	if err := s.db.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	if !IsValidStatusTransition(order.Status, status) {
		return nil, &InvalidTransitionError{From: order.Status, To: status}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if status == StatusCancelled {
			for i := range order.Items {
				item := &order.Items[i]
				result := tx.Model(&catalog.Product{}).
					Where("id = ?", item.ProductID).
					UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity))
				if result.Error != nil {
					return fmt.Errorf("failed to restore stock: %w", result.Error)
				}
			}
		}

		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = status
	return &order, nil
}
