// internal/domain/cart/service_test.go
package cart

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/contract"
	"github.com/your-org/procurement-backend/internal/domain/product"
	"github.com/your-org/procurement-backend/internal/domain/supplier"
	"github.com/your-org/procurement-backend/internal/pkg/apperrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type cartFixture struct {
	db     *gorm.DB
	svc    *Service
	ledger *contract.Ledger
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&supplier.Supplier{}, &product.Product{},
		&contract.Contract{}, &contract.ContractLineBalance{}, &CartItem{},
	))

	cfg := &config.Config{}
	ledger := contract.NewLedger(db, cfg)
	return &cartFixture{db: db, svc: NewService(db, ledger, cfg), ledger: ledger}
}

func (f *cartFixture) seedSupplier(t *testing.T, name string) *supplier.Supplier {
	t.Helper()
	s := &supplier.Supplier{Name: name, CNPJ: uuid.NewString()[:14], IsActive: true}
	require.NoError(t, f.db.Create(s).Error)
	return s
}

func (f *cartFixture) seedProduct(t *testing.T, name string) *product.Product {
	t.Helper()
	p := &product.Product{Code: uuid.NewString()[:8], Name: name, Unit: "kg", IsActive: true}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *cartFixture) seedContract(t *testing.T, supplierID uint, active bool) *contract.Contract {
	t.Helper()
	c := &contract.Contract{
		Number:     "CT-" + uuid.NewString()[:8],
		SupplierID: supplierID,
		ValidFrom:  time.Now().Add(-24 * time.Hour),
		ValidUntil: time.Now().Add(30 * 24 * time.Hour),
		IsActive:   active,
	}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func (f *cartFixture) seedLine(t *testing.T, productID, contractID uint, total int, price int64) *contract.ContractLineBalance {
	t.Helper()
	line := &contract.ContractLineBalance{
		ProductID:     productID,
		ContractID:    contractID,
		QuantityTotal: total,
		UnitPrice:     price,
	}
	require.NoError(t, f.db.Create(line).Error)
	return line
}

func (f *cartFixture) reservedOn(t *testing.T, productID, contractID uint) int {
	t.Helper()
	line, err := f.ledger.GetLine(productID, contractID)
	require.NoError(t, err)
	return line.QuantityReserved
}

func TestAddItemReservesAndSnapshotsPrice(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	prod := f.seedProduct(t, "Arroz tipo 1")
	c := f.seedContract(t, sup.ID, true)
	f.seedLine(t, prod.ID, c.ID, 100, 350)

	item, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(350), item.UnitPrice)
	assert.Equal(t, sup.ID, item.SupplierID)
	assert.Equal(t, 10, f.reservedOn(t, prod.ID, c.ID))

	// A later price change on the line must not touch the snapshot
	require.NoError(t, f.db.Model(&contract.ContractLineBalance{}).
		Where("product_id = ? AND contract_id = ?", prod.ID, c.ID).
		Update("unit_price", 999).Error)
	cartResp, err := f.svc.GetCart(7)
	require.NoError(t, err)
	require.Len(t, cartResp.Groups, 1)
	assert.Equal(t, int64(350), cartResp.Groups[0].Items[0].UnitPrice)
}

func TestAddItemTwiceIsNoOp(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	prod := f.seedProduct(t, "Feijão carioca")
	c := f.seedContract(t, sup.ID, true)
	f.seedLine(t, prod.ID, c.ID, 100, 500)

	first, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 10})
	require.NoError(t, err)

	second, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 25})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 10, second.Quantity)
	assert.Equal(t, 10, f.reservedOn(t, prod.ID, c.ID))
}

func TestAddItemRejectsInsufficientAvailability(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	prod := f.seedProduct(t, "Leite integral")
	c := f.seedContract(t, sup.ID, true)
	f.seedLine(t, prod.ID, c.ID, 5, 400)

	_, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 6})
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInsufficientAvailability, appErr.Code)
	require.NotNil(t, appErr.Available)
	assert.Equal(t, 5, *appErr.Available)
	assert.Equal(t, 0, f.reservedOn(t, prod.ID, c.ID))
}

func TestAddItemRejectsInactiveContract(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	prod := f.seedProduct(t, "Óleo de soja")
	c := f.seedContract(t, sup.ID, false)
	f.seedLine(t, prod.ID, c.ID, 100, 700)

	_, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 1})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeContractInactive))
}

func TestUpdateItemAdjustsReservationByDelta(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	prod := f.seedProduct(t, "Macarrão")
	c := f.seedContract(t, sup.ID, true)
	f.seedLine(t, prod.ID, c.ID, 50, 300)

	_, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 10})
	require.NoError(t, err)

	item, err := f.svc.UpdateItem(7, prod.ID, c.ID, &UpdateItemRequest{Quantity: 30})
	require.NoError(t, err)
	assert.Equal(t, 30, item.Quantity)
	assert.Equal(t, 30, f.reservedOn(t, prod.ID, c.ID))

	item, err = f.svc.UpdateItem(7, prod.ID, c.ID, &UpdateItemRequest{Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)
	assert.Equal(t, 4, f.reservedOn(t, prod.ID, c.ID))
}

func TestUpdateItemBeyondAvailabilityKeepsOriginal(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	prod := f.seedProduct(t, "Farinha de trigo")
	c := f.seedContract(t, sup.ID, true)
	f.seedLine(t, prod.ID, c.ID, 20, 250)

	_, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 15})
	require.NoError(t, err)

	_, err = f.svc.UpdateItem(7, prod.ID, c.ID, &UpdateItemRequest{Quantity: 25})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInsufficientAvailability))

	// Held quantity and item untouched
	assert.Equal(t, 15, f.reservedOn(t, prod.ID, c.ID))
	items, err := f.svc.GetItems(7, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 15, items[0].Quantity)
}

func TestUpdateItemRejectsNonPositiveQuantity(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	prod := f.seedProduct(t, "Açúcar cristal")
	c := f.seedContract(t, sup.ID, true)
	f.seedLine(t, prod.ID, c.ID, 50, 200)

	_, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 8})
	require.NoError(t, err)

	// Zero is not a removal shortcut; the item and its reservation stay put
	for _, q := range []int{0, -3} {
		_, err = f.svc.UpdateItem(7, prod.ID, c.ID, &UpdateItemRequest{Quantity: q})
		assert.True(t, apperrors.Is(err, apperrors.CodeInvalidQuantity))
	}
	assert.Equal(t, 8, f.reservedOn(t, prod.ID, c.ID))

	items, err := f.svc.GetItems(7, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 8, items[0].Quantity)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	prod := f.seedProduct(t, "Sal refinado")
	c := f.seedContract(t, sup.ID, true)
	f.seedLine(t, prod.ID, c.ID, 50, 150)

	_, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 5})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveItem(7, prod.ID, c.ID))
	assert.Equal(t, 0, f.reservedOn(t, prod.ID, c.ID))

	// Second removal releases nothing
	require.NoError(t, f.svc.RemoveItem(7, prod.ID, c.ID))
	assert.Equal(t, 0, f.reservedOn(t, prod.ID, c.ID))
}

func TestGetCartGroupsBySupplier(t *testing.T) {
	f := newCartFixture(t)
	supA := f.seedSupplier(t, "Hortifruti Central")
	supB := f.seedSupplier(t, "Laticínios Serra Azul")
	rice := f.seedProduct(t, "Arroz tipo 1")
	beans := f.seedProduct(t, "Feijão carioca")
	milk := f.seedProduct(t, "Leite integral")
	cA := f.seedContract(t, supA.ID, true)
	cB := f.seedContract(t, supB.ID, true)
	f.seedLine(t, rice.ID, cA.ID, 100, 350)
	f.seedLine(t, beans.ID, cA.ID, 100, 700)
	f.seedLine(t, milk.ID, cB.ID, 100, 500)

	_, err := f.svc.AddItem(7, &AddItemRequest{ProductID: rice.ID, ContractID: cA.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(7, &AddItemRequest{ProductID: beans.ID, ContractID: cA.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(7, &AddItemRequest{ProductID: milk.ID, ContractID: cB.ID, Quantity: 1})
	require.NoError(t, err)

	resp, err := f.svc.GetCart(7)
	require.NoError(t, err)
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, 3, resp.ItemCount)

	assert.Equal(t, "Hortifruti Central", resp.Groups[0].SupplierName)
	assert.Equal(t, int64(1400), resp.Groups[0].Subtotal) // 2*350 + 1*700
	assert.Equal(t, "Laticínios Serra Azul", resp.Groups[1].SupplierName)
	assert.Equal(t, int64(500), resp.Groups[1].Subtotal)
	assert.Equal(t, int64(1900), resp.GrandTotal)
}

func TestGetCartIsolatedPerUser(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	prod := f.seedProduct(t, "Arroz tipo 1")
	c := f.seedContract(t, sup.ID, true)
	f.seedLine(t, prod.ID, c.ID, 100, 350)

	_, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 3})
	require.NoError(t, err)

	other, err := f.svc.GetCart(8)
	require.NoError(t, err)
	assert.Empty(t, other.Groups)
	assert.Zero(t, other.GrandTotal)
}

func TestClearReleasesAllReservations(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	rice := f.seedProduct(t, "Arroz tipo 1")
	beans := f.seedProduct(t, "Feijão carioca")
	c := f.seedContract(t, sup.ID, true)
	f.seedLine(t, rice.ID, c.ID, 100, 350)
	f.seedLine(t, beans.ID, c.ID, 100, 700)

	_, err := f.svc.AddItem(7, &AddItemRequest{ProductID: rice.ID, ContractID: c.ID, Quantity: 10})
	require.NoError(t, err)
	_, err = f.svc.AddItem(7, &AddItemRequest{ProductID: beans.ID, ContractID: c.ID, Quantity: 5})
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(7))
	assert.Equal(t, 0, f.reservedOn(t, rice.ID, c.ID))
	assert.Equal(t, 0, f.reservedOn(t, beans.ID, c.ID))

	items, err := f.svc.GetItems(7, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetCartMissingSupplierGetsPlaceholderName(t *testing.T) {
	f := newCartFixture(t)
	sup := f.seedSupplier(t, "Hortifruti Central")
	prod := f.seedProduct(t, "Arroz tipo 1")
	c := f.seedContract(t, sup.ID, true)
	f.seedLine(t, prod.ID, c.ID, 100, 350)

	_, err := f.svc.AddItem(7, &AddItemRequest{ProductID: prod.ID, ContractID: c.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, f.db.Delete(sup).Error)

	resp, err := f.svc.GetCart(7)
	require.NoError(t, err)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, supplier.UnknownName, resp.Groups[0].SupplierName)
	assert.Equal(t, int64(700), resp.GrandTotal)
}
