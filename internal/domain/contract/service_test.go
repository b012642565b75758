// internal/domain/contract/service_test.go
package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/pkg/apperrors"
)

func TestCreateContractWithLines(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &config.Config{})

	from, until := validWindow()
	contract, err := svc.CreateContract(&CreateContractRequest{
		Number:     "CT-2026-001",
		SupplierID: 1,
		ValidFrom:  from,
		ValidUntil: until,
		Lines: []ContractLineRequest{
			{ProductID: 1, QuantityTotal: 500, UnitPrice: 350},
			{ProductID: 2, QuantityTotal: 200, UnitPrice: 1200},
		},
	})
	require.NoError(t, err)
	assert.True(t, contract.IsActive)
	require.Len(t, contract.Lines, 2)
	assert.Equal(t, 500, contract.Lines[0].Available())
}

func TestCreateContractRejectsDuplicateNumber(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &config.Config{})

	from, until := validWindow()
	req := &CreateContractRequest{
		Number:     "CT-2026-002",
		SupplierID: 1,
		ValidFrom:  from,
		ValidUntil: until,
		Lines:      []ContractLineRequest{{ProductID: 1, QuantityTotal: 10, UnitPrice: 100}},
	}
	_, err := svc.CreateContract(req)
	require.NoError(t, err)

	_, err = svc.CreateContract(req)
	require.Error(t, err)
}

func TestCreateContractRejectsEmptyValidity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &config.Config{})

	now := time.Now()
	_, err := svc.CreateContract(&CreateContractRequest{
		Number:     "CT-2026-003",
		SupplierID: 1,
		ValidFrom:  now,
		ValidUntil: now.Add(-time.Hour),
		Lines:      []ContractLineRequest{{ProductID: 1, QuantityTotal: 10, UnitPrice: 100}},
	})
	require.Error(t, err)
}

func TestAdjustLineTotalKeepsCommitmentFloor(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &config.Config{})
	from, until := validWindow()
	c := seedContract(t, db, true, from, until)
	seedLine(t, db, c.ID, 100, 30, 20)

	// 30 consumed + 20 reserved = 50 is the floor
	_, err := svc.AdjustLineTotal(1, c.ID, &AdjustLineRequest{QuantityTotal: 49})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidQuantity))

	line, err := svc.AdjustLineTotal(1, c.ID, &AdjustLineRequest{QuantityTotal: 50})
	require.NoError(t, err)
	assert.Equal(t, 0, line.Available())

	line, err = svc.AdjustLineTotal(1, c.ID, &AdjustLineRequest{QuantityTotal: 200})
	require.NoError(t, err)
	assert.Equal(t, 150, line.Available())
}

func TestAdjustLineTotalUnknownLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &config.Config{})

	_, err := svc.AdjustLineTotal(1, 999, &AdjustLineRequest{QuantityTotal: 10})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}
