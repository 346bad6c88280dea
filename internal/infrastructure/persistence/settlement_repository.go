package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentalsuite/backend/internal/domain/ledger"
	"github.com/rentalsuite/backend/internal/domain/shared"
)

// GormSettlementRepository implements SettlementRepository using GORM
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// FindByIDForTenant finds a settlement by ID for a specific tenant
func (r *GormSettlementRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Settlement, error) {
	var settlement ledger.Settlement
	if err := r.db.WithContext(ctx).
		First(&settlement, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

// FindByOwnerPeriod finds the settlement for an owner and period
func (r *GormSettlementRepository) FindByOwnerPeriod(ctx context.Context, tenantID, ownerID uuid.UUID, year, month int) (*ledger.Settlement, error) {
	var settlement ledger.Settlement
	if err := r.db.WithContext(ctx).
		First(&settlement, "tenant_id = ? AND owner_id = ? AND year = ? AND month = ?",
			tenantID, ownerID, year, month).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

// FindAllForTenant finds all settlements for a tenant with filtering
func (r *GormSettlementRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.Settlement, error) {
	var settlements []ledger.Settlement
	query := r.applyFilters(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}

	if err := query.Order("year DESC, month DESC").Find(&settlements).Error; err != nil {
		return nil, err
	}
	return settlements, nil
}

// CountForTenant counts settlements for a tenant with optional filters
func (r *GormSettlementRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilters(
		r.db.WithContext(ctx).Model(&ledger.Settlement{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormSettlementRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if ownerID, ok := filter.Filters["owner_id"]; ok {
		query = query.Where("owner_id = ?", ownerID)
	}
	if year, ok := filter.Filters["year"]; ok {
		query = query.Where("year = ?", year)
	}
	if month, ok := filter.Filters["month"]; ok {
		query = query.Where("month = ?", month)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	return query
}

// Save creates or updates a settlement without a version check
func (r *GormSettlementRepository) Save(ctx context.Context, settlement *ledger.Settlement) error {
	return r.db.WithContext(ctx).Save(settlement).Error
}

// SaveWithLock persists the settlement only if the stored version still
// matches expectedVersion, returning ErrConcurrencyConflict otherwise
func (r *GormSettlementRepository) SaveWithLock(ctx context.Context, settlement *ledger.Settlement, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&ledger.Settlement{}).
		Where("id = ? AND version = ?", settlement.ID, expectedVersion).
		Select("*").
		Omit("id", "tenant_id", "created_at").
		Updates(settlement)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormSettlementRepository implements the interface
var _ ledger.SettlementRepository = (*GormSettlementRepository)(nil)
