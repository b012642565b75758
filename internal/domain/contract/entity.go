// internal/domain/contract/entity.go
package contract

import (
	"time"

	"gorm.io/gorm"
)

// Contract represents a pre-negotiated supply contract with one supplier
type Contract struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Number     string         `gorm:"uniqueIndex;not null;size:50" json:"number"`
	SupplierID uint           `gorm:"not null;index" json:"supplier_id"`
	ValidFrom  time.Time      `gorm:"not null" json:"valid_from"`
	ValidUntil time.Time      `gorm:"not null" json:"valid_until"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Lines []ContractLineBalance `gorm:"foreignKey:ContractID" json:"lines,omitempty"`
}

// ContractLineBalance is the authoritative quantity accounting for one
// (product, contract) pair. QuantityReserved is held by open carts across all
// users; QuantityConsumed belongs to confirmed orders. The invariant
// consumed + reserved <= total must hold after every mutation.
type ContractLineBalance struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ProductID        uint           `gorm:"not null;uniqueIndex:idx_contract_lines_product_contract" json:"product_id"`
	ContractID       uint           `gorm:"not null;uniqueIndex:idx_contract_lines_product_contract" json:"contract_id"`
	QuantityTotal    int            `gorm:"not null;default:0;check:quantity_total >= 0" json:"quantity_total"`
	QuantityConsumed int            `gorm:"not null;default:0;check:quantity_consumed >= 0" json:"quantity_consumed"`
	QuantityReserved int            `gorm:"not null;default:0;check:quantity_reserved >= 0" json:"quantity_reserved"`
	UnitPrice        int64          `gorm:"not null" json:"unit_price"` // In centavos
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Contract Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
}

// TableName overrides
func (Contract) TableName() string            { return "contracts" }
func (ContractLineBalance) TableName() string { return "contract_lines" }

// IsWithinValidity checks if the contract is valid at the given instant
func (c *Contract) IsWithinValidity(at time.Time) bool {
	return !at.Before(c.ValidFrom) && !at.After(c.ValidUntil)
}

// Available returns the quantity still purchasable on this line
func (l *ContractLineBalance) Available() int {
	return l.QuantityTotal - l.QuantityConsumed - l.QuantityReserved
}

// CanFulfill checks if the line can absorb an additional reservation
func (l *ContractLineBalance) CanFulfill(quantity int) bool {
	return l.Available() >= quantity
}
