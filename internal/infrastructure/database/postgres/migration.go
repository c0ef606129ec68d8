// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/mybai/storefront-backend/internal/domain/cart"
	"github.com/mybai/storefront-backend/internal/domain/catalog"
	"github.com/mybai/storefront-backend/internal/domain/order"
	"github.com/mybai/storefront-backend/internal/domain/user"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: referenced tables first
	models := []interface{}{
		&user.User{},

		&catalog.Category{},
		&catalog.Brand{},
		&catalog.Product{},

		&cart.Cart{},
		&cart.CartItem{},

		&order.Order{},
		&order.OrderItem{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",

		"CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id)",
		"CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand_id)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_on_offer ON products(on_offer)",

		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id)",

		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
		}
	}

	log.Println("✅ Database indexes ready")
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedCatalog(); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedCatalog creates default categories, brands and a few demo products
func (m *Migration) seedCatalog() error {
	categories := []catalog.Category{
		{Name: "Computadores"},
		{Name: "Celulares"},
		{Name: "Accesorios"},
		{Name: "Audio"},
	}
	for i := range categories {
		var existing catalog.Category
		if err := m.db.Where("name = ?", categories[i].Name).First(&existing).Error; err == nil {
			categories[i] = existing
			continue
		}
		if err := m.db.Create(&categories[i]).Error; err != nil {
			return err
		}
	}

	brands := []catalog.Brand{
		{Name: "Asus"},
		{Name: "Lenovo"},
		{Name: "Samsung"},
		{Name: "Logitech"},
	}
	for i := range brands {
		var existing catalog.Brand
		if err := m.db.Where("name = ?", brands[i].Name).First(&existing).Error; err == nil {
			brands[i] = existing
			continue
		}
		if err := m.db.Create(&brands[i]).Error; err != nil {
			return err
		}
	}

	var productCount int64
	if err := m.db.Model(&catalog.Product{}).Count(&productCount).Error; err != nil {
		return err
	}
	if productCount > 0 {
		return nil
	}

	products := []catalog.Product{
		{
			Name:        "Portátil Asus Vivobook 15",
			Description: "Portátil liviano para estudio y trabajo.",
			Specs:       "Ryzen 5, 16GB RAM, 512GB SSD",
			Price:       decimal.NewFromFloat(2450000),
			Stock:       12,
			CategoryID:  categories[0].ID,
			BrandID:     brands[0].ID,
		},
		{
			Name:        "Celular Samsung Galaxy A55",
			Description: "Pantalla AMOLED de 6.6 pulgadas.",
			Specs:       "8GB RAM, 256GB",
			Price:       decimal.NewFromFloat(1680000),
			Stock:       20,
			CategoryID:  categories[1].ID,
			BrandID:     brands[2].ID,
			OnOffer:     true,
		},
		{
			Name:        "Mouse Logitech MX Master 3S",
			Description: "Mouse inalámbrico ergonómico.",
			Specs:       "Bluetooth, USB-C",
			Price:       decimal.NewFromFloat(420000),
			Stock:       35,
			CategoryID:  categories[2].ID,
			BrandID:     brands[3].ID,
		},
	}
	for i := range products {
		if err := m.db.Create(&products[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d demo products", len(products))
	return nil
}

// seedAdminUser creates the default admin account if missing
func (m *Migration) seedAdminUser() error {
	var existing user.User
	if err := m.db.Where("email = ?", "admin@mybai.co").First(&existing).Error; err == nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("CambiarYa123!"), 12)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	adminUser := user.User{
		Email:     "admin@mybai.co",
		Password:  string(hashedPassword),
		FirstName: "Admin",
		IsActive:  true,
		IsAdmin:   true,
	}

	if err := m.db.Create(&adminUser).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := m.db.Create(&cart.Cart{UserID: adminUser.ID}).Error; err != nil {
		return fmt.Errorf("failed to create admin cart: %w", err)
	}

	log.Println("✅ Created admin user: admin@mybai.co")
	return nil
}
