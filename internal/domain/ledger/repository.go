package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentalsuite/backend/internal/domain/shared"
)

// SeriesRepository manages numbering series persistence.
// AllocateNext is the only operation that mutates a counter; it must run
// the reset-and-increment step atomically under a row lock.
type SeriesRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Series, error)
	FindDefaultForTenant(ctx context.Context, tenantID uuid.UUID, docType DocumentType) (*Series, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Series, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, series *Series) error

	// AllocateNext locks the series row, applies the pending yearly reset,
	// increments the counter and returns the new number with its formatted
	// code, all inside one transaction.
	AllocateNext(ctx context.Context, tenantID, seriesID uuid.UUID, now time.Time) (int, string, error)
}

// IssuedDocumentRepository manages issued invoices and credit notes
type IssuedDocumentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*IssuedDocument, error)
	FindBySettlement(ctx context.Context, tenantID, settlementID uuid.UUID) (*IssuedDocument, error)
	Save(ctx context.Context, doc *IssuedDocument) error

	// ExistsBySeriesNumber reports whether a non-void document already
	// carries this number in the series
	ExistsBySeriesNumber(ctx context.Context, tenantID, seriesID uuid.UUID, number int) (bool, error)
}

// ReservationRecordRepository manages reservation records consumed from
// the import subsystem
type ReservationRecordRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ReservationRecord, error)
	FindBySettlement(ctx context.Context, tenantID, settlementID uuid.UUID) ([]ReservationRecord, error)
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ReservationRecord, error)
	Save(ctx context.Context, record *ReservationRecord) error
}

// ExpenseRecordRepository manages expense records consumed from the
// import subsystem
type ExpenseRecordRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ExpenseRecord, error)
	FindBySettlement(ctx context.Context, tenantID, settlementID uuid.UUID) ([]ExpenseRecord, error)
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ExpenseRecord, error)
	Save(ctx context.Context, record *ExpenseRecord) error
}

// SettlementRepository manages settlement persistence
type SettlementRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Settlement, error)
	FindByOwnerPeriod(ctx context.Context, tenantID, ownerID uuid.UUID, year, month int) (*Settlement, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Settlement, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, settlement *Settlement) error

	// SaveWithLock persists the settlement only if the stored version still
	// matches expectedVersion, returning ErrConcurrencyConflict otherwise
	SaveWithLock(ctx context.Context, settlement *Settlement, expectedVersion int) error
}

// LedgerConfigRepository manages the per-tenant ledger configuration
type LedgerConfigRepository interface {
	FindForTenant(ctx context.Context, tenantID uuid.UUID) (*LedgerConfig, error)
	Save(ctx context.Context, config *LedgerConfig) error
}
