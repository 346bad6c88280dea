package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentalsuite/backend/internal/domain/ledger"
)

// GormExpenseRecordRepository implements ExpenseRecordRepository using GORM
type GormExpenseRecordRepository struct {
	db *gorm.DB
}

// NewGormExpenseRecordRepository creates a new GormExpenseRecordRepository
func NewGormExpenseRecordRepository(db *gorm.DB) *GormExpenseRecordRepository {
	return &GormExpenseRecordRepository{db: db}
}

// FindByIDForTenant finds an expense record by ID for a specific tenant
func (r *GormExpenseRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.ExpenseRecord, error) {
	var record ledger.ExpenseRecord
	if err := r.db.WithContext(ctx).
		First(&record, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindBySettlement finds all expense records assigned to a settlement
func (r *GormExpenseRecordRepository) FindBySettlement(ctx context.Context, tenantID, settlementID uuid.UUID) ([]ledger.ExpenseRecord, error) {
	var records []ledger.ExpenseRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND settlement_id = ?", tenantID, settlementID).
		Order("incurred_on ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByIDsForTenant finds expense records by a set of IDs
func (r *GormExpenseRecordRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ledger.ExpenseRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var records []ledger.ExpenseRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates an expense record
func (r *GormExpenseRecordRepository) Save(ctx context.Context, record *ledger.ExpenseRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// Ensure GormExpenseRecordRepository implements the interface
var _ ledger.ExpenseRecordRepository = (*GormExpenseRecordRepository)(nil)
