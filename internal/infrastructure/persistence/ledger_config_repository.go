package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentalsuite/backend/internal/domain/ledger"
)

// GormLedgerConfigRepository implements LedgerConfigRepository using GORM
type GormLedgerConfigRepository struct {
	db *gorm.DB
}

// NewGormLedgerConfigRepository creates a new GormLedgerConfigRepository
func NewGormLedgerConfigRepository(db *gorm.DB) *GormLedgerConfigRepository {
	return &GormLedgerConfigRepository{db: db}
}

// FindForTenant finds the ledger configuration for a tenant
func (r *GormLedgerConfigRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID) (*ledger.LedgerConfig, error) {
	var config ledger.LedgerConfig
	if err := r.db.WithContext(ctx).
		First(&config, "tenant_id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// Save creates or updates the ledger configuration
func (r *GormLedgerConfigRepository) Save(ctx context.Context, config *ledger.LedgerConfig) error {
	return r.db.WithContext(ctx).Save(config).Error
}

// Ensure GormLedgerConfigRepository implements the interface
var _ ledger.LedgerConfigRepository = (*GormLedgerConfigRepository)(nil)
