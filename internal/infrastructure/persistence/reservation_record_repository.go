package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentalsuite/backend/internal/domain/ledger"
)

// GormReservationRecordRepository implements ReservationRecordRepository using GORM
type GormReservationRecordRepository struct {
	db *gorm.DB
}

// NewGormReservationRecordRepository creates a new GormReservationRecordRepository
func NewGormReservationRecordRepository(db *gorm.DB) *GormReservationRecordRepository {
	return &GormReservationRecordRepository{db: db}
}

// FindByIDForTenant finds a reservation record by ID for a specific tenant
func (r *GormReservationRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.ReservationRecord, error) {
	var record ledger.ReservationRecord
	if err := r.db.WithContext(ctx).
		First(&record, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindBySettlement finds all reservation records assigned to a settlement
func (r *GormReservationRecordRepository) FindBySettlement(ctx context.Context, tenantID, settlementID uuid.UUID) ([]ledger.ReservationRecord, error) {
	var records []ledger.ReservationRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND settlement_id = ?", tenantID, settlementID).
		Order("check_in ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByIDsForTenant finds reservation records by a set of IDs
func (r *GormReservationRecordRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ledger.ReservationRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var records []ledger.ReservationRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a reservation record
func (r *GormReservationRecordRepository) Save(ctx context.Context, record *ledger.ReservationRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// Ensure GormReservationRecordRepository implements the interface
var _ ledger.ReservationRecordRepository = (*GormReservationRecordRepository)(nil)
