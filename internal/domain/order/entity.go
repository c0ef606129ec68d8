// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order status values. Stored as-is; the storefront UI is Spanish-facing.
const (
	StatusPending    = "pendiente"
	StatusProcessing = "en_proceso"
	StatusShipped    = "en_camino"
	StatusDelivered  = "entregado"
	StatusCancelled  = "cancelado"
)

// Order represents a confirmed purchase. Its lines are snapshots: later
// product edits or deletions never change what the order says was bought.
type Order struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       uint            `json:"user_id" gorm:"not null;index"`
	CartID       uint            `json:"cart_id" gorm:"not null;index"`
	Status       string          `json:"status" gorm:"not null;default:'pendiente';index"`
	TrackingCode string          `json:"tracking_code" gorm:"uniqueIndex;size:32"`
	Address      string          `json:"address" gorm:"not null;size:255"`
	Apartment    string          `json:"apartment" gorm:"size:100"`
	City         string          `json:"city" gorm:"not null;size:100"`
	Total        decimal.Decimal `json:"total" gorm:"type:numeric(10,2)"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `json:"-" gorm:"index"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// TableName returns the table name for Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is an immutable line snapshot taken at checkout time
type OrderItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderID     uint            `json:"order_id" gorm:"not null;index"`
	ProductID   uint            `json:"product_id" gorm:"not null"`
	ProductName string          `json:"product_name" gorm:"not null;size:200"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2);not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName returns the table name for OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal returns unit price times quantity for this line
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CalculateTotal sums the line subtotals from the snapshot prices
func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].Subtotal())
	}
	return total
}

// TrackingCodeFor formats the tracking code derived from an order ID
func TrackingCodeFor(orderID uint) string {
	return fmt.Sprintf("MYB-%06d", orderID)
}

// validTransitions defines the allowed status state machine
var validTransitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// IsValidStatusTransition reports whether an order may move between statuses
func IsValidStatusTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether the value is a known order status
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}
