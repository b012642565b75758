// internal/domain/order/service_test.go
package order

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/cart"
	"github.com/your-org/procurement-backend/internal/domain/contract"
	"github.com/your-org/procurement-backend/internal/domain/product"
	"github.com/your-org/procurement-backend/internal/domain/supplier"
	"github.com/your-org/procurement-backend/internal/pkg/apperrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type orderFixture struct {
	db      *gorm.DB
	svc     *Service
	cartSvc *cart.Service
	ledger  *contract.Ledger
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	dsn := "file:order_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&supplier.Supplier{}, &product.Product{},
		&contract.Contract{}, &contract.ContractLineBalance{},
		&cart.CartItem{}, &Order{}, &OrderItem{}, &OrderStatusHistory{},
	))

	cfg := &config.Config{}
	ledger := contract.NewLedger(db, cfg)
	cartSvc := cart.NewService(db, ledger, cfg)
	return &orderFixture{
		db:      db,
		svc:     NewService(db, ledger, cartSvc, cfg),
		cartSvc: cartSvc,
		ledger:  ledger,
	}
}

// seedSupplierLine creates a supplier with one contract carrying one product
// line and returns the pieces
func (f *orderFixture) seedSupplierLine(t *testing.T, supplierName, productName string, total int, price int64) (*supplier.Supplier, *product.Product, *contract.Contract) {
	t.Helper()
	sup := &supplier.Supplier{Name: supplierName, CNPJ: uuid.NewString()[:14], IsActive: true}
	require.NoError(t, f.db.Create(sup).Error)

	prod := &product.Product{Code: uuid.NewString()[:8], Name: productName, Unit: "kg", IsActive: true}
	require.NoError(t, f.db.Create(prod).Error)

	c := &contract.Contract{
		Number:     "CT-" + uuid.NewString()[:8],
		SupplierID: sup.ID,
		ValidFrom:  time.Now().Add(-24 * time.Hour),
		ValidUntil: time.Now().Add(30 * 24 * time.Hour),
		IsActive:   true,
	}
	require.NoError(t, f.db.Create(c).Error)
	require.NoError(t, f.db.Create(&contract.ContractLineBalance{
		ProductID:     prod.ID,
		ContractID:    c.ID,
		QuantityTotal: total,
		UnitPrice:     price,
	}).Error)
	return sup, prod, c
}

func (f *orderFixture) line(t *testing.T, productID, contractID uint) *contract.ContractLineBalance {
	t.Helper()
	line, err := f.ledger.GetLine(productID, contractID)
	require.NoError(t, err)
	return line
}

func TestConfirmOrdersHappyPath(t *testing.T) {
	f := newOrderFixture(t)
	sup, prod, c := f.seedSupplierLine(t, "Hortifruti Central", "Arroz tipo 1", 100, 350)

	_, err := f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 10})
	require.NoError(t, err)

	resp, err := f.svc.ConfirmOrders(7, &ConfirmRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Empty(t, resp.Failures)

	o := resp.Orders[0]
	assert.Equal(t, sup.ID, o.SupplierID)
	assert.Equal(t, OrderStatusConfirmado, o.Status)
	assert.Equal(t, int64(3500), o.TotalAmount)
	assert.Equal(t, fmt.Sprintf("PED-%s-%05d", time.Now().Format("20060102"), o.ID), o.NumeroPedido)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Arroz tipo 1", o.Items[0].ProductName)

	// Reservation became consumption
	line := f.line(t, prod.ID, c.ID)
	assert.Equal(t, 10, line.QuantityConsumed)
	assert.Equal(t, 0, line.QuantityReserved)
	assert.Equal(t, 90, line.Available())

	// Cart is empty
	items, err := f.cartSvc.GetItems(7, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestConfirmOrdersEmptyCart(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.ConfirmOrders(7, &ConfirmRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestConfirmOrdersPartialSuccessAcrossSuppliers(t *testing.T) {
	f := newOrderFixture(t)
	supA, prodA, cA := f.seedSupplierLine(t, "Hortifruti Central", "Arroz tipo 1", 100, 350)
	supB, prodB, cB := f.seedSupplierLine(t, "Laticínios Serra Azul", "Leite integral", 100, 500)

	_, err := f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prodA.ID, ContractID: cA.ID, Quantity: 4})
	require.NoError(t, err)
	_, err = f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prodB.ID, ContractID: cB.ID, Quantity: 2})
	require.NoError(t, err)

	// Supplier B's contract goes inactive between add and confirm
	require.NoError(t, f.db.Model(&contract.Contract{}).
		Where("id = ?", cB.ID).Update("is_active", false).Error)

	resp, err := f.svc.ConfirmOrders(7, &ConfirmRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, supA.ID, resp.Orders[0].SupplierID)

	require.Len(t, resp.Failures, 1)
	assert.Equal(t, supB.ID, resp.Failures[0].SupplierID)
	assert.Equal(t, apperrors.CodeValidationError, resp.Failures[0].Error.Code)
	require.Len(t, resp.Failures[0].Error.Items, 1)
	assert.Equal(t, prodB.ID, resp.Failures[0].Error.Items[0].ProductID)

	// Failed group's cart items and reservation are untouched
	items, err := f.cartSvc.GetItems(7, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, prodB.ID, items[0].ProductID)
	lineB := f.line(t, prodB.ID, cB.ID)
	assert.Equal(t, 2, lineB.QuantityReserved)
	assert.Equal(t, 0, lineB.QuantityConsumed)
}

func TestConfirmOrdersGroupFailsAsAWhole(t *testing.T) {
	f := newOrderFixture(t)
	sup, prodA, c := f.seedSupplierLine(t, "Hortifruti Central", "Arroz tipo 1", 100, 350)

	// Second product on the same contract
	prodB := &product.Product{Code: uuid.NewString()[:8], Name: "Feijão carioca", Unit: "kg", IsActive: true}
	require.NoError(t, f.db.Create(prodB).Error)
	require.NoError(t, f.db.Create(&contract.ContractLineBalance{
		ProductID:     prodB.ID,
		ContractID:    c.ID,
		QuantityTotal: 50,
		UnitPrice:     700,
	}).Error)

	_, err := f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prodA.ID, ContractID: c.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prodB.ID, ContractID: c.ID, Quantity: 5})
	require.NoError(t, err)

	// Simulate reservation drift on one line only
	require.NoError(t, f.db.Model(&contract.ContractLineBalance{}).
		Where("product_id = ? AND contract_id = ?", prodB.ID, c.ID).
		Update("quantity_reserved", 0).Error)

	resp, err := f.svc.ConfirmOrders(7, &ConfirmRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Orders)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, sup.ID, resp.Failures[0].SupplierID)

	// The healthy line must not have been consumed
	lineA := f.line(t, prodA.ID, c.ID)
	assert.Equal(t, 0, lineA.QuantityConsumed)
	assert.Equal(t, 3, lineA.QuantityReserved)

	var count int64
	require.NoError(t, f.db.Model(&Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConfirmOrdersSupplierFilter(t *testing.T) {
	f := newOrderFixture(t)
	supA, prodA, cA := f.seedSupplierLine(t, "Hortifruti Central", "Arroz tipo 1", 100, 350)
	_, prodB, cB := f.seedSupplierLine(t, "Laticínios Serra Azul", "Leite integral", 100, 500)

	_, err := f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prodA.ID, ContractID: cA.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prodB.ID, ContractID: cB.ID, Quantity: 1})
	require.NoError(t, err)

	resp, err := f.svc.ConfirmOrders(7, &ConfirmRequest{SupplierID: &supA.ID})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, supA.ID, resp.Orders[0].SupplierID)

	// Other supplier's items stay in the cart
	items, err := f.cartSvc.GetItems(7, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, prodB.ID, items[0].ProductID)
}

func TestMarkReceived(t *testing.T) {
	f := newOrderFixture(t)
	_, prod, c := f.seedSupplierLine(t, "Hortifruti Central", "Arroz tipo 1", 100, 350)
	_, err := f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 2})
	require.NoError(t, err)
	resp, err := f.svc.ConfirmOrders(7, &ConfirmRequest{})
	require.NoError(t, err)
	orderID := resp.Orders[0].ID

	o, err := f.svc.MarkReceived(7, orderID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusRecebido, o.Status)
	require.NotNil(t, o.ReceivedAt)

	// Receiving twice is rejected
	_, err = f.svc.MarkReceived(7, orderID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationError))
}

func TestCancelRestoresConsumption(t *testing.T) {
	f := newOrderFixture(t)
	_, prod, c := f.seedSupplierLine(t, "Hortifruti Central", "Arroz tipo 1", 100, 350)
	_, err := f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 8})
	require.NoError(t, err)
	resp, err := f.svc.ConfirmOrders(7, &ConfirmRequest{})
	require.NoError(t, err)
	orderID := resp.Orders[0].ID

	line := f.line(t, prod.ID, c.ID)
	require.Equal(t, 8, line.QuantityConsumed)

	o, err := f.svc.Cancel(7, orderID, "delivery window missed")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelado, o.Status)
	require.NotNil(t, o.CancelledAt)

	line = f.line(t, prod.ID, c.ID)
	assert.Equal(t, 0, line.QuantityConsumed)
	assert.Equal(t, 100, line.Available())

	// A received order cannot be cancelled afterwards
	_, err = f.svc.Cancel(7, orderID, "again")
	require.Error(t, err)
}

func TestGetOrdersPagination(t *testing.T) {
	f := newOrderFixture(t)
	_, prod, c := f.seedSupplierLine(t, "Hortifruti Central", "Arroz tipo 1", 1000, 350)

	for i := 0; i < 3; i++ {
		_, err := f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 1})
		require.NoError(t, err)
		_, err = f.svc.ConfirmOrders(7, &ConfirmRequest{})
		require.NoError(t, err)
	}

	list, err := f.svc.GetOrders(7, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Len(t, list.Orders, 2)
	assert.Equal(t, 2, list.TotalPages)

	list, err = f.svc.GetOrders(7, 2, 2)
	require.NoError(t, err)
	assert.Len(t, list.Orders, 1)

	// Orders are scoped to their owner
	other, err := f.svc.GetOrders(8, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, other.Total)
}

func TestGetOrderByNumber(t *testing.T) {
	f := newOrderFixture(t)
	_, prod, c := f.seedSupplierLine(t, "Hortifruti Central", "Arroz tipo 1", 100, 350)

	_, err := f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 2})
	require.NoError(t, err)
	resp, err := f.svc.ConfirmOrders(7, &ConfirmRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	numero := resp.Orders[0].NumeroPedido

	found, err := f.svc.GetOrderByNumber(7, numero)
	require.NoError(t, err)
	assert.Equal(t, resp.Orders[0].ID, found.ID)

	// Another user cannot see it
	_, err = f.svc.GetOrderByNumber(8, numero)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestConfirmOrdersRejectsDriftedPrice(t *testing.T) {
	f := newOrderFixture(t)
	_, prod, c := f.seedSupplierLine(t, "Hortifruti Central", "Arroz tipo 1", 100, 350)

	_, err := f.cartSvc.AddItem(7, &cart.AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 4})
	require.NoError(t, err)

	// A snapshot that lost its price must fail validation, not be ordered at zero
	require.NoError(t, f.db.Model(&cart.CartItem{}).
		Where("user_id = ? AND product_id = ?", 7, prod.ID).
		UpdateColumn("unit_price", 0).Error)

	resp, err := f.svc.ConfirmOrders(7, &ConfirmRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Orders)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, apperrors.CodeValidationError, resp.Failures[0].Error.Code)
	require.Len(t, resp.Failures[0].Error.Items, 1)

	// Nothing was consumed and the reservation is still held
	line := f.line(t, prod.ID, c.ID)
	assert.Equal(t, 0, line.QuantityConsumed)
	assert.Equal(t, 4, line.QuantityReserved)
}
