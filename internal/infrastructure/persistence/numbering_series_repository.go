package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentalsuite/backend/internal/domain/ledger"
	"github.com/rentalsuite/backend/internal/domain/shared"
)

// GormSeriesRepository implements SeriesRepository using GORM
type GormSeriesRepository struct {
	db *gorm.DB
}

// NewGormSeriesRepository creates a new GormSeriesRepository
func NewGormSeriesRepository(db *gorm.DB) *GormSeriesRepository {
	return &GormSeriesRepository{db: db}
}

// FindByIDForTenant finds a numbering series by ID for a specific tenant
func (r *GormSeriesRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Series, error) {
	var series ledger.Series
	if err := r.db.WithContext(ctx).
		First(&series, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &series, nil
}

// FindDefaultForTenant finds the active default series for a document type
func (r *GormSeriesRepository) FindDefaultForTenant(ctx context.Context, tenantID uuid.UUID, docType ledger.DocumentType) (*ledger.Series, error) {
	var series ledger.Series
	if err := r.db.WithContext(ctx).
		First(&series, "tenant_id = ? AND document_type = ? AND is_default = ? AND is_active = ?",
			tenantID, docType, true, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &series, nil
}

// FindAllForTenant finds all numbering series for a tenant with filtering
func (r *GormSeriesRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.Series, error) {
	var series []ledger.Series
	query := r.applyFilters(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}

	if err := query.Order("created_at ASC").Find(&series).Error; err != nil {
		return nil, err
	}
	return series, nil
}

// CountForTenant counts numbering series for a tenant with optional filters
func (r *GormSeriesRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilters(
		r.db.WithContext(ctx).Model(&ledger.Series{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormSeriesRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if docType, ok := filter.Filters["document_type"]; ok {
		query = query.Where("document_type = ?", docType)
	}
	if isActive, ok := filter.Filters["is_active"]; ok {
		query = query.Where("is_active = ?", isActive)
	}
	return query
}

// Save creates or updates a numbering series
func (r *GormSeriesRepository) Save(ctx context.Context, series *ledger.Series) error {
	return r.db.WithContext(ctx).Save(series).Error
}

// AllocateNext locks the series row, applies a pending yearly reset and
// increments the counter, all inside one transaction. A version check on the
// update guards the counter on storage engines without row locks; losers get
// ErrConcurrencyConflict and the caller retries.
func (r *GormSeriesRepository) AllocateNext(ctx context.Context, tenantID, seriesID uuid.UUID, now time.Time) (int, string, error) {
	var number int
	var fullNumber string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var series ledger.Series
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&series, "id = ? AND tenant_id = ?", seriesID, tenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewDomainError("NOT_FOUND", "Series not found")
			}
			return err
		}

		expectedVersion := series.Version

		var err error
		number, fullNumber, err = series.Allocate(now)
		if err != nil {
			return err
		}

		result := tx.Model(&ledger.Series{}).
			Where("id = ? AND version = ?", series.ID, expectedVersion).
			Updates(map[string]interface{}{
				"current_number":  series.CurrentNumber,
				"year":            series.Year,
				"last_reset_year": series.LastResetYear,
				"version":         series.Version,
				"updated_at":      series.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
	if err != nil {
		return 0, "", err
	}

	return number, fullNumber, nil
}

// Ensure GormSeriesRepository implements the interface
var _ ledger.SeriesRepository = (*GormSeriesRepository)(nil)
