// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/com2pa/backend-ecommerce/internal/config"
	"github.com/com2pa/backend-ecommerce/internal/domain/aliquot"
	"github.com/com2pa/backend-ecommerce/internal/domain/discount"
	"github.com/com2pa/backend-ecommerce/internal/domain/order"
	"github.com/com2pa/backend-ecommerce/internal/domain/product"
	"github.com/com2pa/backend-ecommerce/internal/domain/rate"
	"github.com/com2pa/backend-ecommerce/internal/domain/user"
	"github.com/com2pa/backend-ecommerce/internal/pkg/auth"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	config *config.Config
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, cfg *config.Config) *Migration {
	return &Migration{db: db, config: cfg}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: reference data first, orders last
	models := []interface{}{
		&user.User{},

		&product.Category{},
		&product.Brand{},
		&product.Product{},

		&discount.Discount{},
		&aliquot.Aliquot{},
		&rate.Snapshot{},

		&order.Series{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
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
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)",

		// Discount window lookups
		"CREATE INDEX IF NOT EXISTS idx_discounts_window ON discounts(start_date, end_date)",
		"CREATE INDEX IF NOT EXISTS idx_discount_products_product ON discount_products(product_id)",

		// Aliquot lookups
		"CREATE INDEX IF NOT EXISTS idx_aliquot_products_product ON aliquot_products(product_id)",

		// Latest-rate lookups
		"CREATE INDEX IF NOT EXISTS idx_rates_currency_latest ON exchange_rates(currency, effective_date DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
		}
	}

	log.Println("✅ Database indexes created")
	return nil
}

// SeedInitialData inserts the reference rows the system needs to operate:
// the tax aliquot table, the invoice number series, and an admin user.
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedAliquots(); err != nil {
		return fmt.Errorf("failed to seed aliquots: %w", err)
	}
	if err := m.seedSeries(); err != nil {
		return fmt.Errorf("failed to seed document series: %w", err)
	}
	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Println("✅ Initial data seeded")
	return nil
}

func (m *Migration) seedAliquots() error {
	seed := aliquot.DefaultTable()
	for _, al := range seed {
		var count int64
		if err := m.db.Model(&aliquot.Aliquot{}).Where("code = ?", al.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := m.db.Create(&al).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration) seedSeries() error {
	var count int64
	if err := m.db.Model(&order.Series{}).Where("document = ?", "invoice").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	series := order.Series{
		Document: "invoice",
		Prefix:   m.config.Commerce.FiscalPrefix,
	}
	return m.db.Create(&series).Error
}

func (m *Migration) seedAdminUser() error {
	var count int64
	if err := m.db.Model(&user.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := auth.NewPasswordManager(m.config).HashPassword("Admin123!ChangeMe")
	if err != nil {
		return err
	}

	admin := user.User{
		Email:     "admin@com2pa.com",
		Password:  hashed,
		FirstName: "Admin",
		LastName:  "User",
		IsActive:  true,
		IsAdmin:   true,
	}
	if err := m.db.Create(&admin).Error; err != nil {
		return err
	}
	log.Println("👤 Seeded admin user (change the default password)")
	return nil
}
