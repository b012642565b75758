// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusConfirmado OrderStatus = "confirmado"
	OrderStatusRecebido   OrderStatus = "recebido"
	OrderStatusCancelado  OrderStatus = "cancelado"
)

// Order represents a confirmed purchase order against one supplier. Orders
// are born confirmed; the ledger consumption backing them already happened
// in the same transaction that created the row.
type Order struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	NumeroPedido string      `gorm:"uniqueIndex;not null;size:50" json:"numero_pedido"`
	UserID       uint        `gorm:"not null;index" json:"user_id"`
	SupplierID   uint        `gorm:"not null;index" json:"supplier_id"`
	Status       OrderStatus `gorm:"not null;default:'confirmado'" json:"status"`
	TotalAmount  int64       `gorm:"not null" json:"valor_total"` // In centavos
	Notes        string      `gorm:"type:text" json:"notes"`

	// Timestamps
	ReceivedAt  *time.Time     `json:"received_at"`
	CancelledAt *time.Time     `json:"cancelled_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem represents one product line in an order
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	ContractID  uint      `gorm:"not null;index" json:"contract_id"`
	ProductName string    `gorm:"not null;size:255" json:"product_name"`
	Unit        string    `gorm:"size:10" json:"unit"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   int64     `gorm:"not null" json:"unit_price"` // Per unit in centavos
	TotalPrice  int64     `gorm:"not null" json:"total_price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrderStatusHistory tracks status transitions
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy uint        `gorm:"index" json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// GenerateNumeroPedido generates a unique order number
func (o *Order) GenerateNumeroPedido() string {
	// Format: PED-YYYYMMDD-XXXXX
	return fmt.Sprintf("PED-%s-%05d", time.Now().Format("20060102"), o.ID)
}

// CanBeReceived checks if the order can be marked as received
func (o *Order) CanBeReceived() bool {
	return o.Status == OrderStatusConfirmado
}

// CanBeCancelled checks if the order can still be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusConfirmado
}
