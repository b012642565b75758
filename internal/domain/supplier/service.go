// internal/domain/supplier/service.go
package supplier

import (
	"fmt"

	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles supplier business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new supplier service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateSupplierRequest represents supplier creation data
type CreateSupplierRequest struct {
	Name  string `json:"name" binding:"required"`
	CNPJ  string `json:"cnpj" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
	City  string `json:"city"`
	State string `json:"state"`
}

// CreateSupplier registers a new supplier
func (s *Service) CreateSupplier(req *CreateSupplierRequest) (*Supplier, error) {
	// Check if CNPJ already registered
	var existing Supplier
	if err := s.db.Where("cnpj = ?", req.CNPJ).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("supplier with CNPJ '%s' already exists", req.CNPJ)
	}

	supplier := &Supplier{
		Name:     req.Name,
		CNPJ:     req.CNPJ,
		Email:    req.Email,
		Phone:    req.Phone,
		City:     req.City,
		State:    req.State,
		IsActive: true,
	}

	if err := s.db.Create(supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	return supplier, nil
}

// GetSuppliers retrieves all active suppliers
func (s *Service) GetSuppliers() ([]Supplier, error) {
	var suppliers []Supplier
	if err := s.db.Where("is_active = ?", true).Order("name ASC").Find(&suppliers).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve suppliers: %w", err)
	}
	return suppliers, nil
}

// GetSupplier retrieves a supplier by ID
func (s *Service) GetSupplier(supplierID uint) (*Supplier, error) {
	var supplier Supplier
	if err := s.db.First(&supplier, supplierID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("supplier not found")
		}
		return nil, fmt.Errorf("failed to retrieve supplier: %w", err)
	}
	return &supplier, nil
}

// DeactivateSupplier marks a supplier as inactive
func (s *Service) DeactivateSupplier(supplierID uint) error {
	result := s.db.Model(&Supplier{}).Where("id = ?", supplierID).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate supplier: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("supplier not found")
	}
	return nil
}
