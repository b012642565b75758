// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// CartItem represents a cart line held by one user. Each (user, product,
// contract) triple appears at most once, and its quantity is backed by an
// equal reservation on the matching contract line.
type CartItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product_contract" json:"user_id"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product_contract" json:"product_id"`
	ContractID uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product_contract" json:"contract_id"`
	SupplierID uint      `gorm:"not null;index" json:"supplier_id"`
	Quantity   int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"` // In centavos, snapshot at add time
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// Subtotal returns the line value in centavos
func (i *CartItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}
