// internal/domain/contract/ledger.go
package contract

import (
	"fmt"
	"time"

	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Ledger handles contract line balance accounting
type Ledger struct {
	db     *gorm.DB
	config *config.Config
}

// NewLedger creates a new contract ledger
func NewLedger(db *gorm.DB, cfg *config.Config) *Ledger {
	return &Ledger{
		db:     db,
		config: cfg,
	}
}

// GetLine gets the balance line for a (product, contract) pair
func (l *Ledger) GetLine(productID, contractID uint) (*ContractLineBalance, error) {
	var line ContractLineBalance
	err := l.db.Preload("Contract").
		Where("product_id = ? AND contract_id = ?", productID, contractID).
		First(&line).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("contract line not found")
		}
		return nil, fmt.Errorf("failed to retrieve contract line: %w", err)
	}
	return &line, nil
}

// GetAvailable returns the purchasable quantity for a (product, contract)
// pair. Lines on inactive or expired contracts report as not found rather
// than exposing a balance nobody can buy against.
func (l *Ledger) GetAvailable(productID, contractID uint) (int, error) {
	line, err := l.GetLine(productID, contractID)
	if err != nil {
		return 0, err
	}
	if !line.Contract.IsActive || !line.Contract.IsWithinValidity(time.Now()) {
		return 0, apperrors.NotFound("contract line not found")
	}
	return line.Available(), nil
}

// Reserve adjusts the reserved quantity on a line by delta. A positive delta
// holds availability for a cart item; a negative delta releases it. The
// mutation is a single conditional update so concurrent carts cannot
// collectively oversell the line.
func (l *Ledger) Reserve(productID, contractID uint, delta int) error {
	return l.ReserveTx(l.db, productID, contractID, delta)
}

// ReserveTx is Reserve scoped to an existing transaction
func (l *Ledger) ReserveTx(tx *gorm.DB, productID, contractID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	if delta > 0 {
		return l.reserve(tx, productID, contractID, delta)
	}
	return l.release(tx, productID, contractID, -delta)
}

func (l *Ledger) reserve(tx *gorm.DB, productID, contractID uint, quantity int) error {
	line, err := l.GetLine(productID, contractID)
	if err != nil {
		return err
	}
	if !line.Contract.IsActive || !line.Contract.IsWithinValidity(time.Now()) {
		return apperrors.ContractInactive(contractID)
	}

	// The availability check and the increment happen in one statement;
	// whoever decrements availability past the requested quantity first wins
	// and the loser sees zero rows affected.
	result := tx.Model(&ContractLineBalance{}).
		Where("product_id = ? AND contract_id = ?", productID, contractID).
		Where("quantity_total - quantity_consumed - quantity_reserved >= ?", quantity).
		UpdateColumn("quantity_reserved", gorm.Expr("quantity_reserved + ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to reserve quantity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Re-read to report what was actually left
		current, err := l.GetLine(productID, contractID)
		if err != nil {
			return err
		}
		available := current.Available()
		if available <= 0 {
			return apperrors.OutOfStock(0)
		}
		return apperrors.InsufficientAvailability(quantity, available)
	}
	return nil
}

func (l *Ledger) release(tx *gorm.DB, productID, contractID uint, quantity int) error {
	result := tx.Model(&ContractLineBalance{}).
		Where("product_id = ? AND contract_id = ?", productID, contractID).
		Where("quantity_reserved >= ?", quantity).
		UpdateColumn("quantity_reserved", gorm.Expr("quantity_reserved - ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to release quantity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Releasing more than is held means reservation accounting has
		// drifted somewhere upstream; never clamp it silently.
		return apperrors.InvariantViolation(
			"release of %d exceeds reserved quantity on product %d contract %d",
			quantity, productID, contractID)
	}
	return nil
}

// Commit converts a held reservation into consumption. Used during order
// confirmation inside the per-supplier transaction.
func (l *Ledger) Commit(tx *gorm.DB, productID, contractID uint, quantity int) error {
	if quantity <= 0 {
		return apperrors.InvalidQuantity(quantity)
	}
	result := tx.Model(&ContractLineBalance{}).
		Where("product_id = ? AND contract_id = ?", productID, contractID).
		Where("quantity_reserved >= ?", quantity).
		UpdateColumns(map[string]interface{}{
			"quantity_consumed": gorm.Expr("quantity_consumed + ?", quantity),
			"quantity_reserved": gorm.Expr("quantity_reserved - ?", quantity),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to commit quantity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.InvariantViolation(
			"commit of %d exceeds reserved quantity on product %d contract %d",
			quantity, productID, contractID)
	}
	return nil
}

// Restore returns consumed quantity to the available pool when a confirmed
// order is cancelled.
func (l *Ledger) Restore(tx *gorm.DB, productID, contractID uint, quantity int) error {
	if quantity <= 0 {
		return apperrors.InvalidQuantity(quantity)
	}
	result := tx.Model(&ContractLineBalance{}).
		Where("product_id = ? AND contract_id = ?", productID, contractID).
		Where("quantity_consumed >= ?", quantity).
		UpdateColumn("quantity_consumed", gorm.Expr("quantity_consumed - ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to restore quantity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.InvariantViolation(
			"restore of %d exceeds consumed quantity on product %d contract %d",
			quantity, productID, contractID)
	}
	return nil
}
