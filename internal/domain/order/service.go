// internal/domain/order/service.go
package order

import (
	"fmt"
	"time"

	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/cart"
	"github.com/your-org/procurement-backend/internal/domain/contract"
	"github.com/your-org/procurement-backend/internal/domain/product"
	"github.com/your-org/procurement-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles order business logic
type Service struct {
	db      *gorm.DB
	ledger  *contract.Ledger
	cartSvc *cart.Service
	config  *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, ledger *contract.Ledger, cartSvc *cart.Service, cfg *config.Config) *Service {
	return &Service{
		db:      db,
		ledger:  ledger,
		cartSvc: cartSvc,
		config:  cfg,
	}
}

// ConfirmRequest represents order confirmation data. A nil SupplierID
// confirms the whole cart, one order per supplier.
type ConfirmRequest struct {
	SupplierID *uint  `json:"supplier_id"`
	Notes      string `json:"notes"`
}

// GroupFailure reports why one supplier group could not be confirmed
type GroupFailure struct {
	SupplierID uint             `json:"supplier_id"`
	Error      *apperrors.Error `json:"error"`
}

// ConfirmResponse represents the per-supplier outcome of a confirmation.
// Groups succeed or fail independently; a failed group's cart items and
// reservations are left exactly as they were.
type ConfirmResponse struct {
	Orders   []Order        `json:"orders"`
	Failures []GroupFailure `json:"failures,omitempty"`
}

// OrderListResponse represents a paginated order listing
type OrderListResponse struct {
	Orders     []Order `json:"orders"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}

// ConfirmOrders converts the user's cart into purchase orders, one per
// supplier. Each group commits its reservations into consumption and removes
// its cart items in a single transaction, so a group either becomes a
// complete order or stays an untouched cart.
func (s *Service) ConfirmOrders(userID uint, req *ConfirmRequest) (*ConfirmResponse, error) {
	items, err := s.cartSvc.GetItems(userID, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.NotFound("cart is empty")
	}

	groups := groupBySupplier(items)

	response := &ConfirmResponse{}
	for _, group := range groups {
		created, err := s.confirmGroup(userID, group, req.Notes)
		if err != nil {
			appErr := apperrors.As(err)
			if appErr == nil {
				appErr = apperrors.CommitFailed(err)
			}
			response.Failures = append(response.Failures, GroupFailure{
				SupplierID: group.supplierID,
				Error:      appErr,
			})
			continue
		}
		response.Orders = append(response.Orders, *created)
	}

	return response, nil
}

type supplierGroup struct {
	supplierID uint
	items      []cart.CartItem
}

func groupBySupplier(items []cart.CartItem) []supplierGroup {
	var groups []supplierGroup
	index := map[uint]int{}
	for _, item := range items {
		idx, ok := index[item.SupplierID]
		if !ok {
			idx = len(groups)
			index[item.SupplierID] = idx
			groups = append(groups, supplierGroup{supplierID: item.SupplierID})
		}
		groups[idx].items = append(groups[idx].items, item)
	}
	return groups
}

// confirmGroup turns one supplier's cart items into an order
func (s *Service) confirmGroup(userID uint, group supplierGroup, notes string) (*Order, error) {
	if err := s.validateGroup(group); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var total int64
	for _, item := range group.items {
		total += item.Subtotal()
	}

	newOrder := &Order{
		UserID:      userID,
		SupplierID:  group.supplierID,
		Status:      OrderStatusConfirmado,
		TotalAmount: total,
		Notes:       notes,
		// Placeholder until the ID exists
		NumeroPedido: fmt.Sprintf("PED-PENDING-%d-%d", userID, time.Now().UnixNano()),
	}
	if err := tx.Create(newOrder).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.CommitFailed(err)
	}

	newOrder.NumeroPedido = newOrder.GenerateNumeroPedido()
	if err := tx.Model(newOrder).UpdateColumn("numero_pedido", newOrder.NumeroPedido).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.CommitFailed(err)
	}

	for _, item := range group.items {
		orderItem := OrderItem{
			OrderID:    newOrder.ID,
			ProductID:  item.ProductID,
			ContractID: item.ContractID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.Subtotal(),
		}
		var prod product.Product
		if err := tx.First(&prod, item.ProductID).Error; err == nil {
			orderItem.ProductName = prod.Name
			orderItem.Unit = prod.Unit
		}
		if err := tx.Create(&orderItem).Error; err != nil {
			tx.Rollback()
			return nil, apperrors.CommitFailed(err)
		}

		// Reservation becomes consumption inside this transaction; any
		// failure rolls the whole group back to held reservations
		if err := s.ledger.Commit(tx, item.ProductID, item.ContractID, item.Quantity); err != nil {
			tx.Rollback()
			return nil, err
		}

		if err := tx.Delete(&cart.CartItem{}, item.ID).Error; err != nil {
			tx.Rollback()
			return nil, apperrors.CommitFailed(err)
		}
	}

	history := OrderStatusHistory{
		OrderID:   newOrder.ID,
		Status:    OrderStatusConfirmado,
		Comment:   "order confirmed",
		CreatedBy: userID,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.CommitFailed(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.CommitFailed(err)
	}

	if err := s.db.Preload("Items").First(newOrder, newOrder.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return newOrder, nil
}

// validateGroup re-checks every line of a group before committing anything,
// so the user gets all of a group's problems in one response
func (s *Service) validateGroup(group supplierGroup) error {
	var issues []apperrors.ItemIssue
	now := time.Now()

	for _, item := range group.items {
		// Carts only accept positive quantities and snapshot contract
		// prices, but a drifted row must not reach the commit phase
		if item.Quantity <= 0 || item.UnitPrice <= 0 {
			issues = append(issues, apperrors.ItemIssue{
				ItemID:     item.ID,
				ProductID:  item.ProductID,
				ContractID: item.ContractID,
				Reason:     "quantity and unit price must be positive",
			})
			continue
		}

		var prod product.Product
		if err := s.db.First(&prod, item.ProductID).Error; err != nil || !prod.IsActive {
			issues = append(issues, apperrors.ItemIssue{
				ItemID:     item.ID,
				ProductID:  item.ProductID,
				ContractID: item.ContractID,
				Reason:     "product no longer available",
			})
			continue
		}

		line, err := s.ledger.GetLine(item.ProductID, item.ContractID)
		if err != nil {
			issues = append(issues, apperrors.ItemIssue{
				ItemID:     item.ID,
				ProductID:  item.ProductID,
				ContractID: item.ContractID,
				Reason:     "contract line no longer exists",
			})
			continue
		}
		if !line.Contract.IsActive || !line.Contract.IsWithinValidity(now) {
			issues = append(issues, apperrors.ItemIssue{
				ItemID:     item.ID,
				ProductID:  item.ProductID,
				ContractID: item.ContractID,
				Reason:     "contract is inactive or expired",
			})
			continue
		}
		if line.QuantityReserved < item.Quantity {
			issues = append(issues, apperrors.ItemIssue{
				ItemID:     item.ID,
				ProductID:  item.ProductID,
				ContractID: item.ContractID,
				Reason:     fmt.Sprintf("reservation of %d is no longer held", item.Quantity),
			})
		}
	}

	if len(issues) > 0 {
		return apperrors.Validation(issues)
	}
	return nil
}

// GetOrders retrieves the user's orders with pagination
func (s *Service) GetOrders(userID uint, page, limit int) (*OrderListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := s.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &OrderListResponse{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// GetOrder retrieves one of the user's orders by ID
func (s *Service) GetOrder(userID, orderID uint) (*Order, error) {
	var o Order
	err := s.db.Preload("Items").Preload("StatusHistory").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// GetOrderByNumber retrieves an order by its PED number
func (s *Service) GetOrderByNumber(userID uint, numeroPedido string) (*Order, error) {
	var o Order
	err := s.db.Preload("Items").Preload("StatusHistory").
		Where("numero_pedido = ? AND user_id = ?", numeroPedido, userID).
		First(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// MarkReceived transitions a confirmed order to received
func (s *Service) MarkReceived(userID, orderID uint) (*Order, error) {
	o, err := s.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanBeReceived() {
		return nil, apperrors.Newf(apperrors.CodeValidationError,
			"order in status '%s' cannot be received", o.Status)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":      OrderStatusRecebido,
		"received_at": &now,
	}
	if err := s.db.Model(o).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.db.Create(&OrderStatusHistory{
		OrderID:   o.ID,
		Status:    OrderStatusRecebido,
		Comment:   "delivery received",
		CreatedBy: userID,
	})

	return s.GetOrder(userID, orderID)
}

// Cancel cancels a confirmed order and returns its consumed quantities to
// the contract lines
func (s *Service) Cancel(userID, orderID uint, reason string) (*Order, error) {
	o, err := s.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanBeCancelled() {
		return nil, apperrors.Newf(apperrors.CodeValidationError,
			"order in status '%s' cannot be cancelled", o.Status)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, item := range o.Items {
		if err := s.ledger.Restore(tx, item.ProductID, item.ContractID, item.Quantity); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       OrderStatusCancelado,
		"cancelled_at": &now,
	}
	if err := tx.Model(&Order{}).Where("id = ?", o.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	history := OrderStatusHistory{
		OrderID:   o.ID,
		Status:    OrderStatusCancelado,
		Comment:   reason,
		CreatedBy: userID,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to record status change: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	return s.GetOrder(userID, orderID)
}
