// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/mybai/storefront-backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Cart is a user's singleton shopping cart. The unique index on UserID
// enforces at most one cart per user; the row is created lazily and is
// never deleted, only emptied.
type Cart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// CartItem is one (product, quantity) line within a cart. The composite
// unique index guarantees repeated adds update the existing line instead
// of duplicating it.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Product catalog.Product `gorm:"foreignKey:ProductID" json:"product"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// Subtotal returns unit price * quantity at the product's current price
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Totals represents calculated cart totals
type Totals struct {
	ItemCount     int             `json:"item_count"`     // Number of lines
	TotalQuantity int             `json:"total_quantity"` // Sum of all quantities
	Total         decimal.Decimal `json:"total"`          // Sum of line subtotals
}
