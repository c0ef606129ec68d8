package order

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mybai/storefront-backend/internal/config"
	"github.com/mybai/storefront-backend/internal/domain/cart"
	"github.com/mybai/storefront-backend/internal/domain/catalog"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&catalog.Category{}, &catalog.Brand{}, &catalog.Product{},
		&cart.Cart{}, &cart.CartItem{},
		&Order{}, &OrderItem{},
	))

	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := setupTestDB(t)
	cfg := &config.Config{}
	return NewService(db, cfg, cart.NewService(db, cfg))
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *catalog.Product {
	t.Helper()

	category := catalog.Category{Name: "Celulares"}
	require.NoError(t, db.FirstOrCreate(&category, catalog.Category{Name: category.Name}).Error)
	brand := catalog.Brand{Name: "Samsung"}
	require.NoError(t, db.FirstOrCreate(&brand, catalog.Brand{Name: brand.Name}).Error)

	product := catalog.Product{
		Name:       name,
		Price:      decimal.NewFromFloat(price),
		Stock:      stock,
		CategoryID: category.ID,
		BrandID:    brand.ID,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func fillCart(t *testing.T, svc *Service, userID uint, lines map[uint]int) {
	t.Helper()
	for productID, qty := range lines {
		_, err := svc.cartService.AddItem(userID, productID, qty)
		require.NoError(t, err)
	}
}

func validAddress() *CheckoutRequest {
	return &CheckoutRequest{
		Address: "Calle 45 #12-34",
		City:    "Bogotá",
	}
}

func TestCheckoutCreatesOrderAndClearsCart(t *testing.T) {
	svc := newTestService(t)
	phone := seedProduct(t, svc.db, "Galaxy A55", 1680000, 20)
	mouse := seedProduct(t, svc.db, "MX Master", 420000, 5)

	fillCart(t, svc, 1, map[uint]int{phone.ID: 2, mouse.ID: 1})

	order, err := svc.Checkout(1, validAddress())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(3780000)),
		"expected 3780000, got %s", order.Total)

	// Stock was decremented
	var updated catalog.Product
	require.NoError(t, svc.db.First(&updated, phone.ID).Error)
	assert.Equal(t, 18, updated.Stock)

	// Cart is now empty but still exists
	response, err := svc.cartService.GetCart(1)
	require.NoError(t, err)
	assert.Empty(t, response.Cart.Items)
	assert.Equal(t, order.CartID, response.Cart.ID)
}

func TestCheckoutKeepsLineAddedMidTransaction(t *testing.T) {
	svc := newTestService(t)
	phone := seedProduct(t, svc.db, "Galaxy A55", 1680000, 20)
	mouse := seedProduct(t, svc.db, "MX Master", 420000, 5)

	fillCart(t, svc, 1, map[uint]int{phone.ID: 1})

	userCart, err := svc.cartService.GetOrCreateCart(1)
	require.NoError(t, err)

	// Sneak a second line into the cart right after the order row is
	// written, while the checkout transaction is still open
	injected := false
	require.NoError(t, svc.db.Callback().Create().After("gorm:create").
		Register("inject_cart_line", func(tx *gorm.DB) {
			if injected || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "orders" {
				return
			}
			injected = true
			line := cart.CartItem{CartID: userCart.ID, ProductID: mouse.ID, Quantity: 1}
			require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Create(&line).Error)
		}))
	defer svc.db.Callback().Create().Remove("inject_cart_line")

	order, err := svc.Checkout(1, validAddress())
	require.NoError(t, err)
	require.True(t, injected)

	// Only the line that was in the cart when the transaction read it
	// got billed
	require.Len(t, order.Items, 1)
	assert.Equal(t, phone.ID, order.Items[0].ProductID)

	// The late line was not swept away; it waits for the next checkout
	response, err := svc.cartService.GetCart(1)
	require.NoError(t, err)
	require.Len(t, response.Cart.Items, 1)
	assert.Equal(t, mouse.ID, response.Cart.Items[0].ProductID)
}

func TestCheckoutTrackingCode(t *testing.T) {
	svc := newTestService(t)
	phone := seedProduct(t, svc.db, "Galaxy A55", 1680000, 20)

	fillCart(t, svc, 1, map[uint]int{phone.ID: 1})

	order, err := svc.Checkout(1, validAddress())
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("MYB-%06d", order.ID), order.TrackingCode)

	var stored Order
	require.NoError(t, svc.db.First(&stored, order.ID).Error)
	assert.Equal(t, order.TrackingCode, stored.TrackingCode)
}

func TestCheckoutSnapshotsSurviveProductChanges(t *testing.T) {
	svc := newTestService(t)
	phone := seedProduct(t, svc.db, "Galaxy A55", 1680000, 20)

	fillCart(t, svc, 1, map[uint]int{phone.ID: 1})

	order, err := svc.Checkout(1, validAddress())
	require.NoError(t, err)

	// Reprice and rename the product after the sale
	require.NoError(t, svc.db.Model(&catalog.Product{}).Where("id = ?", phone.ID).
		Updates(map[string]interface{}{"price": decimal.NewFromInt(1), "name": "Otro"}).Error)

	reloaded, err := svc.GetUserOrder(1, order.ID)
	require.NoError(t, err)

	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "Galaxy A55", reloaded.Items[0].ProductName)
	assert.True(t, reloaded.Items[0].UnitPrice.Equal(decimal.NewFromInt(1680000)))
	assert.True(t, reloaded.Total.Equal(decimal.NewFromInt(1680000)))
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Checkout(1, validAddress())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutMissingAddress(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Checkout(1, &CheckoutRequest{Address: "  ", City: "Bogotá"})
	assert.ErrorIs(t, err, ErrMissingAddress)

	_, err = svc.Checkout(1, &CheckoutRequest{Address: "Calle 45", City: ""})
	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestCheckoutInsufficientStockRollsBackEverything(t *testing.T) {
	svc := newTestService(t)
	phone := seedProduct(t, svc.db, "Galaxy A55", 1680000, 20)
	scarce := seedProduct(t, svc.db, "Edición limitada", 99000, 3)

	fillCart(t, svc, 1, map[uint]int{phone.ID: 2, scarce.ID: 3})

	// Someone else buys the scarce product before this checkout lands
	require.NoError(t, svc.db.Model(&catalog.Product{}).Where("id = ?", scarce.ID).
		Update("stock", 1).Error)

	_, err := svc.Checkout(1, validAddress())

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce.ID, stockErr.ProductID)
	assert.Equal(t, "Edición limitada", stockErr.ProductName)

	// No partial fulfillment: the phone's stock is untouched
	var updated catalog.Product
	require.NoError(t, svc.db.First(&updated, phone.ID).Error)
	assert.Equal(t, 20, updated.Stock)

	// No order rows, no order item rows
	var orders int64
	require.NoError(t, svc.db.Model(&Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	// Cart keeps its lines for retry
	response, err := svc.cartService.GetCart(1)
	require.NoError(t, err)
	assert.Len(t, response.Cart.Items, 2)
}

func TestConcurrentCheckoutOnlyOneWins(t *testing.T) {
	svc := newTestService(t)
	scarce := seedProduct(t, svc.db, "Última unidad", 500000, 1)

	fillCart(t, svc, 1, map[uint]int{scarce.ID: 1})
	fillCart(t, svc, 2, map[uint]int{scarce.ID: 1})

	_, firstErr := svc.Checkout(1, validAddress())
	_, secondErr := svc.Checkout(2, validAddress())

	require.NoError(t, firstErr)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, secondErr, &stockErr)

	var updated catalog.Product
	require.NoError(t, svc.db.First(&updated, scarce.ID).Error)
	assert.Equal(t, 0, updated.Stock)

	var orders int64
	require.NoError(t, svc.db.Model(&Order{}).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)
}

func TestGetUserOrderOwnership(t *testing.T) {
	svc := newTestService(t)
	phone := seedProduct(t, svc.db, "Galaxy A55", 1680000, 20)

	fillCart(t, svc, 1, map[uint]int{phone.ID: 1})
	order, err := svc.Checkout(1, validAddress())
	require.NoError(t, err)

	_, err = svc.GetUserOrder(2, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	found, err := svc.GetUserOrder(1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
}

func TestListUserOrdersNewestFirst(t *testing.T) {
	svc := newTestService(t)
	phone := seedProduct(t, svc.db, "Galaxy A55", 1680000, 20)

	var ids []uint
	for i := 0; i < 3; i++ {
		fillCart(t, svc, 1, map[uint]int{phone.ID: 1})
		order, err := svc.Checkout(1, validAddress())
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}

	response, err := svc.ListUserOrders(1, &OrderListRequest{Page: 1, Limit: 10})
	require.NoError(t, err)

	require.Len(t, response.Orders, 3)
	assert.EqualValues(t, 3, response.Pagination.Total)
	assert.Equal(t, ids[2], response.Orders[0].ID)
	assert.Equal(t, ids[0], response.Orders[2].ID)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, IsValidStatusTransition(StatusPending, StatusProcessing))
	assert.True(t, IsValidStatusTransition(StatusPending, StatusCancelled))
	assert.True(t, IsValidStatusTransition(StatusProcessing, StatusShipped))
	assert.True(t, IsValidStatusTransition(StatusShipped, StatusDelivered))

	assert.False(t, IsValidStatusTransition(StatusDelivered, StatusPending))
	assert.False(t, IsValidStatusTransition(StatusCancelled, StatusProcessing))
	assert.False(t, IsValidStatusTransition(StatusShipped, StatusCancelled))
	assert.False(t, IsValidStatusTransition(StatusPending, StatusDelivered))
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	svc := newTestService(t)
	phone := seedProduct(t, svc.db, "Galaxy A55", 1680000, 20)

	fillCart(t, svc, 1, map[uint]int{phone.ID: 1})
	order, err := svc.Checkout(1, validAddress())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(order.ID, StatusDelivered)

	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusPending, transitionErr.From)
}

func TestCancellationRestoresStock(t *testing.T) {
	svc := newTestService(t)
	phone := seedProduct(t, svc.db, "Galaxy A55", 1680000, 20)

	fillCart(t, svc, 1, map[uint]int{phone.ID: 3})
	order, err := svc.Checkout(1, validAddress())
	require.NoError(t, err)

	var afterSale catalog.Product
	require.NoError(t, svc.db.First(&afterSale, phone.ID).Error)
	require.Equal(t, 17, afterSale.Stock)

	updated, err := svc.UpdateStatus(order.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)

	var restored catalog.Product
	require.NoError(t, svc.db.First(&restored, phone.ID).Error)
	assert.Equal(t, 20, restored.Stock)
}

func TestTrackingCodeFormat(t *testing.T) {
	assert.Equal(t, "MYB-000001", TrackingCodeFor(1))
	assert.Equal(t, "MYB-000042", TrackingCodeFor(42))
	assert.Equal(t, "MYB-1000000", TrackingCodeFor(1000000))
}
