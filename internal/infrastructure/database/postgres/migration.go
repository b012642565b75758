// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/your-org/procurement-backend/internal/domain/cart"
	"github.com/your-org/procurement-backend/internal/domain/contract"
	"github.com/your-org/procurement-backend/internal/domain/order"
	"github.com/your-org/procurement-backend/internal/domain/product"
	"github.com/your-org/procurement-backend/internal/domain/school"
	"github.com/your-org/procurement-backend/internal/domain/supplier"
	"github.com/your-org/procurement-backend/internal/domain/user"
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

	// Define all models that need migration in dependency order
	models := []interface{}{
		// Base tables
		&school.School{},
		&user.User{},
		&supplier.Supplier{},
		&product.Product{},

		// Contract domain
		&contract.Contract{},
		&contract.ContractLineBalance{},

		// Cart domain
		&cart.CartItem{},

		// Order domain - Dependent tables
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}

	// Run auto-migration for each model
	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes and constraints
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_school_active ON users(school_id, is_active)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_code ON products(code)",

		// Contract indexes
		"CREATE INDEX IF NOT EXISTS idx_contracts_supplier_active ON contracts(supplier_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_contracts_validity ON contracts(valid_from, valid_until)",

		// Contract line indexes
		"CREATE INDEX IF NOT EXISTS idx_contract_lines_contract ON contract_lines(contract_id)",
		"CREATE INDEX IF NOT EXISTS idx_contract_lines_product ON contract_lines(product_id)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user_supplier ON cart_items(user_id, supplier_id)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_created_at ON cart_items(created_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_supplier_status ON orders(supplier_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_numero_pedido ON orders(numero_pedido)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Order items indexes
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product_contract ON order_items(product_id, contract_id)",

		// Order status history indexes
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	// The database is the last line of defense against oversell; every
	// application-level guard funnels into this constraint
	constraint := `DO $$ BEGIN
		ALTER TABLE contract_lines ADD CONSTRAINT chk_contract_lines_no_oversell
			CHECK (quantity_consumed + quantity_reserved <= quantity_total);
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`
	if err := m.db.Exec(constraint).Error; err != nil {
		log.Printf("⚠️ Failed to create no-oversell constraint: %v", err)
		failCount++
	} else {
		successCount++
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedSchool(); err != nil {
		return fmt.Errorf("failed to seed school: %w", err)
	}

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := m.seedSuppliers(); err != nil {
		return fmt.Errorf("failed to seed suppliers: %w", err)
	}

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if err := m.seedContracts(); err != nil {
		return fmt.Errorf("failed to seed contracts: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedSchool() error {
	log.Println("🏫 Seeding school...")

	var existing school.School
	if err := m.db.Where("inep_code = ?", "35012345").First(&existing).Error; err == nil {
		log.Println("⏭️ School already exists")
		return nil
	}

	sch := school.School{
		Name:     "EMEF Monteiro Lobato",
		INEPCode: "35012345",
		City:     "Campinas",
		State:    "SP",
		IsActive: true,
	}
	if err := m.db.Create(&sch).Error; err != nil {
		return err
	}
	log.Printf("✅ Created school: %s", sch.Name)
	return nil
}

func (m *Migration) seedAdminUser() error {
	log.Println("👤 Seeding admin user...")

	var existing user.User
	if err := m.db.Where("email = ?", "admin@example.com").First(&existing).Error; err == nil {
		log.Println("⏭️ Admin user already exists")
		return nil
	}

	var sch school.School
	if err := m.db.Where("inep_code = ?", "35012345").First(&sch).Error; err != nil {
		return fmt.Errorf("seed school not found: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	adminUser := user.User{
		Email:     "admin@example.com",
		Password:  string(hashedPassword),
		FirstName: "Admin",
		LastName:  "User",
		SchoolID:  sch.ID,
		IsActive:  true,
		IsAdmin:   true,
	}
	if err := m.db.Create(&adminUser).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Println("✅ Created admin user: admin@example.com (password: admin123)")
	return nil
}

func (m *Migration) seedSuppliers() error {
	log.Println("🚚 Seeding suppliers...")

	suppliers := []supplier.Supplier{
		{
			Name:     "Hortifruti Central Ltda",
			CNPJ:     "12.345.678/0001-90",
			Email:    "vendas@hortifruticentral.com.br",
			City:     "Campinas",
			State:    "SP",
			IsActive: true,
		},
		{
			Name:     "Laticínios Serra Azul",
			CNPJ:     "98.765.432/0001-10",
			Email:    "pedidos@serraazul.com.br",
			City:     "Amparo",
			State:    "SP",
			IsActive: true,
		},
	}

	for _, sup := range suppliers {
		var existing supplier.Supplier
		if err := m.db.Where("cnpj = ?", sup.CNPJ).First(&existing).Error; err == nil {
			log.Printf("⏭️ Supplier already exists: %s", sup.Name)
			continue
		}
		if err := m.db.Create(&sup).Error; err != nil {
			return err
		}
		log.Printf("✅ Created supplier: %s", sup.Name)
	}
	return nil
}

func (m *Migration) seedProducts() error {
	log.Println("🥕 Seeding products...")

	products := []product.Product{
		{Code: "ARZ-001", Name: "Arroz tipo 1", Unit: "kg", Category: "grãos", IsActive: true},
		{Code: "FEI-001", Name: "Feijão carioca", Unit: "kg", Category: "grãos", IsActive: true},
		{Code: "LEI-001", Name: "Leite integral", Unit: "lt", Category: "laticínios", IsActive: true},
		{Code: "QUE-001", Name: "Queijo minas frescal", Unit: "kg", Category: "laticínios", IsActive: true},
	}

	for _, prod := range products {
		var existing product.Product
		if err := m.db.Where("code = ?", prod.Code).First(&existing).Error; err == nil {
			log.Printf("⏭️ Product already exists: %s", prod.Name)
			continue
		}
		if err := m.db.Create(&prod).Error; err != nil {
			return err
		}
		log.Printf("✅ Created product: %s", prod.Name)
	}
	return nil
}

func (m *Migration) seedContracts() error {
	log.Println("📄 Seeding contracts...")

	var existing contract.Contract
	if err := m.db.Where("number = ?", "CT-2026-001").First(&existing).Error; err == nil {
		log.Println("⏭️ Contracts already exist")
		return nil
	}

	var hortifruti, laticinios supplier.Supplier
	if err := m.db.Where("cnpj = ?", "12.345.678/0001-90").First(&hortifruti).Error; err != nil {
		return err
	}
	if err := m.db.Where("cnpj = ?", "98.765.432/0001-10").First(&laticinios).Error; err != nil {
		return err
	}

	var rice, beans, milk, cheese product.Product
	for code, dest := range map[string]*product.Product{
		"ARZ-001": &rice, "FEI-001": &beans, "LEI-001": &milk, "QUE-001": &cheese,
	} {
		if err := m.db.Where("code = ?", code).First(dest).Error; err != nil {
			return err
		}
	}

	now := time.Now()
	contracts := []struct {
		contract contract.Contract
		lines    []contract.ContractLineBalance
	}{
		{
			contract: contract.Contract{
				Number:     "CT-2026-001",
				SupplierID: hortifruti.ID,
				ValidFrom:  now.AddDate(0, -1, 0),
				ValidUntil: now.AddDate(0, 11, 0),
				IsActive:   true,
			},
			lines: []contract.ContractLineBalance{
				{ProductID: rice.ID, QuantityTotal: 2000, UnitPrice: 450},
				{ProductID: beans.ID, QuantityTotal: 1500, UnitPrice: 780},
			},
		},
		{
			contract: contract.Contract{
				Number:     "CT-2026-002",
				SupplierID: laticinios.ID,
				ValidFrom:  now.AddDate(0, -1, 0),
				ValidUntil: now.AddDate(0, 5, 0),
				IsActive:   true,
			},
			lines: []contract.ContractLineBalance{
				{ProductID: milk.ID, QuantityTotal: 3000, UnitPrice: 520},
				{ProductID: cheese.ID, QuantityTotal: 400, UnitPrice: 3200},
			},
		},
	}

	for _, entry := range contracts {
		if err := m.db.Create(&entry.contract).Error; err != nil {
			return err
		}
		for _, line := range entry.lines {
			line.ContractID = entry.contract.ID
			if err := m.db.Create(&line).Error; err != nil {
				return err
			}
		}
		log.Printf("✅ Created contract: %s", entry.contract.Number)
	}
	return nil
}
