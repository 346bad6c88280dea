package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentalsuite/backend/internal/domain/ledger"
)

// GormIssuedDocumentRepository implements IssuedDocumentRepository using GORM
type GormIssuedDocumentRepository struct {
	db *gorm.DB
}

// NewGormIssuedDocumentRepository creates a new GormIssuedDocumentRepository
func NewGormIssuedDocumentRepository(db *gorm.DB) *GormIssuedDocumentRepository {
	return &GormIssuedDocumentRepository{db: db}
}

// FindByIDForTenant finds an issued document by ID for a specific tenant
func (r *GormIssuedDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.IssuedDocument, error) {
	var doc ledger.IssuedDocument
	if err := r.db.WithContext(ctx).
		First(&doc, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// FindBySettlement finds the document linked to a settlement
func (r *GormIssuedDocumentRepository) FindBySettlement(ctx context.Context, tenantID, settlementID uuid.UUID) (*ledger.IssuedDocument, error) {
	var doc ledger.IssuedDocument
	if err := r.db.WithContext(ctx).
		First(&doc, "tenant_id = ? AND settlement_id = ?", tenantID, settlementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// Save creates or updates an issued document
func (r *GormIssuedDocumentRepository) Save(ctx context.Context, doc *ledger.IssuedDocument) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// ExistsBySeriesNumber reports whether a non-void document already carries
// this number in the series. Voided documents burn their number but do not
// block it from manual re-validation.
func (r *GormIssuedDocumentRepository) ExistsBySeriesNumber(ctx context.Context, tenantID, seriesID uuid.UUID, number int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.IssuedDocument{}).
		Where("tenant_id = ? AND series_id = ? AND number = ? AND status <> ?",
			tenantID, seriesID, number, ledger.DocumentStatusVoid).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormIssuedDocumentRepository implements the interface
var _ ledger.IssuedDocumentRepository = (*GormIssuedDocumentRepository)(nil)
