// internal/domain/school/entity.go
package school

import (
	"time"

	"gorm.io/gorm"
)

// School represents a school unit that buys against supply contracts
type School struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	INEPCode  string         `gorm:"uniqueIndex;size:12" json:"inep_code"`
	City      string         `gorm:"size:100" json:"city"`
	State     string         `gorm:"size:2" json:"state"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (School) TableName() string {
	return "schools"
}
