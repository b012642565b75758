// internal/domain/contract/service.go
package contract

import (
	"fmt"
	"time"

	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles contract administration
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new contract service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ContractLineRequest represents one line of a contract registration
type ContractLineRequest struct {
	ProductID     uint  `json:"product_id" binding:"required"`
	QuantityTotal int   `json:"quantity_total" binding:"required,gt=0"`
	UnitPrice     int64 `json:"unit_price" binding:"required,gt=0"` // In centavos
}

// CreateContractRequest represents contract registration data
type CreateContractRequest struct {
	Number     string                `json:"number" binding:"required"`
	SupplierID uint                  `json:"supplier_id" binding:"required"`
	ValidFrom  time.Time             `json:"valid_from" binding:"required"`
	ValidUntil time.Time             `json:"valid_until" binding:"required"`
	Lines      []ContractLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// AdjustLineRequest represents a change to a line's negotiated total
type AdjustLineRequest struct {
	QuantityTotal int `json:"quantity_total" binding:"required,gt=0"`
}

// CreateContract registers a contract together with its balance lines
func (s *Service) CreateContract(req *CreateContractRequest) (*Contract, error) {
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, fmt.Errorf("contract validity window is empty")
	}

	// Check if number already exists
	var existing Contract
	if err := s.db.Where("number = ?", req.Number).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("contract with number '%s' already exists", req.Number)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	contract := &Contract{
		Number:     req.Number,
		SupplierID: req.SupplierID,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
		IsActive:   true,
	}
	if err := tx.Create(contract).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}

	for _, lineReq := range req.Lines {
		line := &ContractLineBalance{
			ProductID:     lineReq.ProductID,
			ContractID:    contract.ID,
			QuantityTotal: lineReq.QuantityTotal,
			UnitPrice:     lineReq.UnitPrice,
		}
		if err := tx.Create(line).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create contract line: %w", err)
		}
	}

	tx.Commit()

	if err := s.db.Preload("Lines").First(contract, contract.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload contract: %w", err)
	}
	return contract, nil
}

// GetContract retrieves a contract with its lines
func (s *Service) GetContract(contractID uint) (*Contract, error) {
	var contract Contract
	if err := s.db.Preload("Lines").First(&contract, contractID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("contract not found")
		}
		return nil, fmt.Errorf("failed to retrieve contract: %w", err)
	}
	return &contract, nil
}

// GetContracts retrieves contracts, optionally filtered by supplier
func (s *Service) GetContracts(supplierID *uint) ([]Contract, error) {
	query := s.db.Preload("Lines").Order("valid_until DESC")
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}

	var contracts []Contract
	if err := query.Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve contracts: %w", err)
	}
	return contracts, nil
}

// AddLine adds a balance line to an existing contract
func (s *Service) AddLine(contractID uint, req *ContractLineRequest) (*ContractLineBalance, error) {
	if _, err := s.GetContract(contractID); err != nil {
		return nil, err
	}

	var existing ContractLineBalance
	err := s.db.Where("product_id = ? AND contract_id = ?", req.ProductID, contractID).
		First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("product %d already has a line on contract %d", req.ProductID, contractID)
	}

	line := &ContractLineBalance{
		ProductID:     req.ProductID,
		ContractID:    contractID,
		QuantityTotal: req.QuantityTotal,
		UnitPrice:     req.UnitPrice,
	}
	if err := s.db.Create(line).Error; err != nil {
		return nil, fmt.Errorf("failed to create contract line: %w", err)
	}
	return line, nil
}

// AdjustLineTotal changes the negotiated total on a line. The total can never
// drop below what is already consumed plus reserved, so the conditional
// update leaves outstanding commitments intact.
func (s *Service) AdjustLineTotal(productID, contractID uint, req *AdjustLineRequest) (*ContractLineBalance, error) {
	result := s.db.Model(&ContractLineBalance{}).
		Where("product_id = ? AND contract_id = ?", productID, contractID).
		Where("quantity_consumed + quantity_reserved <= ?", req.QuantityTotal).
		UpdateColumn("quantity_total", req.QuantityTotal)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to adjust contract line: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var line ContractLineBalance
		err := s.db.Where("product_id = ? AND contract_id = ?", productID, contractID).
			First(&line).Error
		if err != nil {
			return nil, apperrors.NotFound("contract line not found")
		}
		return nil, apperrors.Newf(apperrors.CodeInvalidQuantity,
			"total %d is below outstanding commitments of %d",
			req.QuantityTotal, line.QuantityConsumed+line.QuantityReserved)
	}

	var line ContractLineBalance
	if err := s.db.Where("product_id = ? AND contract_id = ?", productID, contractID).
		First(&line).Error; err != nil {
		return nil, fmt.Errorf("failed to reload contract line: %w", err)
	}
	return &line, nil
}

// DeactivateContract marks a contract as inactive. Held reservations stay on
// the lines; they resolve when the owning carts are cleared or confirmed.
func (s *Service) DeactivateContract(contractID uint) error {
	result := s.db.Model(&Contract{}).Where("id = ?", contractID).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate contract: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("contract not found")
	}
	return nil
}
