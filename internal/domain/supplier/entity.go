// internal/domain/supplier/entity.go
package supplier

import (
	"time"

	"gorm.io/gorm"
)

// UnknownName labels supplier references whose row can no longer be found
const UnknownName = "Fornecedor desconhecido"

// Supplier represents a contracted food supplier
type Supplier struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	CNPJ      string         `gorm:"uniqueIndex;not null;size:18" json:"cnpj"`
	Email     string         `gorm:"size:255" json:"email"`
	Phone     string         `gorm:"size:20" json:"phone"`
	City      string         `gorm:"size:100" json:"city"`
	State     string         `gorm:"size:2" json:"state"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Supplier) TableName() string {
	return "suppliers"
}
