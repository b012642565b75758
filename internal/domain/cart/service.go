// internal/domain/cart/service.go
package cart

import (
	"fmt"
	"time"

	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/contract"
	"github.com/your-org/procurement-backend/internal/domain/product"
	"github.com/your-org/procurement-backend/internal/domain/supplier"
	"github.com/your-org/procurement-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	ledger *contract.Ledger
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, ledger *contract.Ledger, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		ledger: ledger,
		config: cfg,
	}
}

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID  uint `json:"product_id" binding:"required"`
	ContractID uint `json:"contract_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents update cart item request
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CartItemResponse represents a cart item with product details
type CartItemResponse struct {
	ID         uint             `json:"id"`
	ProductID  uint             `json:"product_id"`
	ContractID uint             `json:"contract_id"`
	Quantity   int              `json:"quantity"`
	UnitPrice  int64            `json:"unit_price"`
	Subtotal   int64            `json:"subtotal"`
	Product    *product.Product `json:"product,omitempty"`
	AddedAt    time.Time        `json:"added_at"`
}

// SupplierGroup represents the cart items bound for one supplier
type SupplierGroup struct {
	SupplierID   uint               `json:"supplier_id"`
	SupplierName string             `json:"supplier_name"`
	Items        []CartItemResponse `json:"items"`
	Subtotal     int64              `json:"subtotal"`
}

// CartResponse represents a cart grouped by supplier
type CartResponse struct {
	UserID     uint            `json:"user_id"`
	Groups     []SupplierGroup `json:"groups"`
	ItemCount  int             `json:"item_count"`
	GrandTotal int64           `json:"valor_total"`
}

// AddItem adds an item to the user's cart and reserves its quantity on the
// contract line. Adding a (product, contract) pair already in the cart is a
// no-op that returns the existing item; use UpdateItem to change quantity.
func (s *Service) AddItem(userID uint, req *AddItemRequest) (*CartItem, error) {
	// Validate product exists and is active
	var prod product.Product
	if err := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod).Error; err != nil {
		return nil, apperrors.NotFound("product not found")
	}

	line, err := s.ledger.GetLine(req.ProductID, req.ContractID)
	if err != nil {
		return nil, err
	}
	if !line.Contract.IsActive || !line.Contract.IsWithinValidity(time.Now()) {
		return nil, apperrors.ContractInactive(req.ContractID)
	}

	var existing CartItem
	result := s.db.Where("user_id = ? AND product_id = ? AND contract_id = ?",
		userID, req.ProductID, req.ContractID).First(&existing)
	if result.Error == nil {
		return &existing, nil
	}
	if result.Error != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to check cart: %w", result.Error)
	}

	// Hold the quantity before the item exists; if the insert fails the
	// reservation is handed back
	if err := s.ledger.Reserve(req.ProductID, req.ContractID, req.Quantity); err != nil {
		return nil, err
	}

	item := &CartItem{
		UserID:     userID,
		ProductID:  req.ProductID,
		ContractID: req.ContractID,
		SupplierID: line.Contract.SupplierID,
		Quantity:   req.Quantity,
		UnitPrice:  line.UnitPrice,
	}
	if err := s.db.Create(item).Error; err != nil {
		if relErr := s.ledger.Reserve(req.ProductID, req.ContractID, -req.Quantity); relErr != nil {
			return nil, fmt.Errorf("failed to add cart item and release reservation: %v: %w", relErr, err)
		}
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	return item, nil
}

// UpdateItem changes the quantity of a cart item, adjusting the reservation
// by the difference. The quantity must stay positive; RemoveItem is the way
// to take an item out of the cart.
func (s *Service) UpdateItem(userID, productID, contractID uint, req *UpdateItemRequest) (*CartItem, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.InvalidQuantity(req.Quantity)
	}

	var item CartItem
	err := s.db.Where("user_id = ? AND product_id = ? AND contract_id = ?",
		userID, productID, contractID).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("cart item not found")
		}
		return nil, fmt.Errorf("failed to retrieve cart item: %w", err)
	}

	delta := req.Quantity - item.Quantity
	if err := s.ledger.Reserve(productID, contractID, delta); err != nil {
		return nil, err
	}

	item.Quantity = req.Quantity
	if err := s.db.Save(&item).Error; err != nil {
		if relErr := s.ledger.Reserve(productID, contractID, -delta); relErr != nil {
			return nil, fmt.Errorf("failed to update cart item and revert reservation: %v: %w", relErr, err)
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return &item, nil
}

// RemoveItem removes an item and releases its reservation. Removing an item
// that is not in the cart succeeds without touching the ledger.
func (s *Service) RemoveItem(userID, productID, contractID uint) error {
	var item CartItem
	err := s.db.Where("user_id = ? AND product_id = ? AND contract_id = ?",
		userID, productID, contractID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to retrieve cart item: %w", err)
	}

	if err := s.ledger.Reserve(productID, contractID, -item.Quantity); err != nil {
		return err
	}
	if err := s.db.Delete(&item).Error; err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear removes every item from the user's cart and releases all held
// reservations
func (s *Service) Clear(userID uint) error {
	var items []CartItem
	if err := s.db.Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return fmt.Errorf("failed to retrieve cart: %w", err)
	}

	for _, item := range items {
		if err := s.ledger.Reserve(item.ProductID, item.ContractID, -item.Quantity); err != nil {
			return err
		}
		if err := s.db.Delete(&item).Error; err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
		}
	}
	return nil
}

// GetCart retrieves the user's cart grouped by supplier with subtotals
func (s *Service) GetCart(userID uint) (*CartResponse, error) {
	var items []CartItem
	err := s.db.Where("user_id = ?", userID).
		Order("supplier_id ASC, created_at ASC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	response := &CartResponse{
		UserID: userID,
		Groups: []SupplierGroup{},
	}

	groupIndex := map[uint]int{}
	for _, item := range items {
		idx, ok := groupIndex[item.SupplierID]
		if !ok {
			idx = len(response.Groups)
			groupIndex[item.SupplierID] = idx
			response.Groups = append(response.Groups, SupplierGroup{
				SupplierID:   item.SupplierID,
				SupplierName: s.supplierName(item.SupplierID),
				Items:        []CartItemResponse{},
			})
		}

		itemResp := CartItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			ContractID: item.ContractID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Subtotal:   item.Subtotal(),
			AddedAt:    item.CreatedAt,
		}
		var prod product.Product
		if err := s.db.First(&prod, item.ProductID).Error; err == nil {
			itemResp.Product = &prod
		}

		response.Groups[idx].Items = append(response.Groups[idx].Items, itemResp)
		response.Groups[idx].Subtotal += itemResp.Subtotal
		response.ItemCount++
		response.GrandTotal += itemResp.Subtotal
	}

	return response, nil
}

// GetItems returns the raw cart items for a user, optionally restricted to
// one supplier. Used by order confirmation.
func (s *Service) GetItems(userID uint, supplierID *uint) ([]CartItem, error) {
	query := s.db.Where("user_id = ?", userID)
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}

	var items []CartItem
	if err := query.Order("supplier_id ASC, created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}
	return items, nil
}

// supplierName resolves the display name for a group header. A supplier row
// that cannot be found gets a placeholder rather than an empty label.
func (s *Service) supplierName(supplierID uint) string {
	var sup supplier.Supplier
	if err := s.db.First(&sup, supplierID).Error; err != nil {
		return supplier.UnknownName
	}
	return sup.Name
}
