package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentalsuite/backend/internal/domain/ledger"
	"github.com/rentalsuite/backend/internal/domain/shared"
)

// allocateAttempts bounds the transparent retry of the atomic allocation
// before AllocationConflict surfaces to the caller
const allocateAttempts = 3

// LedgerService is the single entry point to the numbering and settlement
// core. Cross-component invariants (no edits after payment, implicit
// recompute after assignment mutations) are enforced here.
type LedgerService struct {
	seriesRepo      ledger.SeriesRepository
	documentRepo    ledger.IssuedDocumentRepository
	reservationRepo ledger.ReservationRecordRepository
	expenseRepo     ledger.ExpenseRecordRepository
	settlementRepo  ledger.SettlementRepository
	configRepo      ledger.LedgerConfigRepository
	idempotency     shared.IdempotencyStore
	idempotencyTTL  time.Duration
	publisher       shared.EventPublisher
	now             func() time.Time
}

// LedgerServiceOption is a functional option for configuring LedgerService
type LedgerServiceOption func(*LedgerService)

// WithClock overrides the time source, used by tests exercising the
// yearly-reset behavior
func WithClock(now func() time.Time) LedgerServiceOption {
	return func(s *LedgerService) {
		s.now = now
	}
}

// WithIdempotencyStore enables idempotency-key deduplication on the
// payment confirmation path
func WithIdempotencyStore(store shared.IdempotencyStore) LedgerServiceOption {
	return func(s *LedgerService) {
		s.idempotency = store
	}
}

// WithIdempotencyTTL overrides how long payment idempotency keys are
// remembered before a replayed key is treated as new
func WithIdempotencyTTL(ttl time.Duration) LedgerServiceOption {
	return func(s *LedgerService) {
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithEventPublisher wires the bus that receives the domain events drained
// from aggregates after their state change is persisted
func WithEventPublisher(publisher shared.EventPublisher) LedgerServiceOption {
	return func(s *LedgerService) {
		s.publisher = publisher
	}
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	seriesRepo ledger.SeriesRepository,
	documentRepo ledger.IssuedDocumentRepository,
	reservationRepo ledger.ReservationRecordRepository,
	expenseRepo ledger.ExpenseRecordRepository,
	settlementRepo ledger.SettlementRepository,
	configRepo ledger.LedgerConfigRepository,
	opts ...LedgerServiceOption,
) *LedgerService {
	s := &LedgerService{
		seriesRepo:      seriesRepo,
		documentRepo:    documentRepo,
		reservationRepo: reservationRepo,
		expenseRepo:     expenseRepo,
		settlementRepo:  settlementRepo,
		configRepo:      configRepo,
		idempotencyTTL:  24 * time.Hour,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publishEvents drains the aggregate's pending events to the configured
// publisher. Delivery is best-effort: the state change is already durable.
func (s *LedgerService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	aggregate.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
}

// ===================== Series Operations =====================

// SeriesResponse represents a numbering series in API responses
type SeriesResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	DocumentType       string    `json:"document_type"`
	Prefix             string    `json:"prefix"`
	Year               int       `json:"year"`
	CurrentNumber      int       `json:"current_number"`
	ResetYearly        bool      `json:"reset_yearly"`
	IsDefault          bool      `json:"is_default"`
	IsActive           bool      `json:"is_active"`
	HasIssuedDocuments bool      `json:"has_issued_documents"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toSeriesResponse(s *ledger.Series) *SeriesResponse {
	return &SeriesResponse{
		ID:                 s.ID,
		Name:               s.Name,
		DocumentType:       s.DocumentType.String(),
		Prefix:             s.Prefix,
		Year:               s.Year,
		CurrentNumber:      s.CurrentNumber,
		ResetYearly:        s.ResetYearly,
		IsDefault:          s.IsDefault,
		IsActive:           s.IsActive,
		HasIssuedDocuments: s.HasIssuedDocuments,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// CreateSeriesRequest carries the inputs for an explicit series creation
type CreateSeriesRequest struct {
	Name         string `json:"name" binding:"required"`
	DocumentType string `json:"document_type" binding:"required"`
	Prefix       string `json:"prefix" binding:"required"`
	Year         int    `json:"year"`
	ResetYearly  bool   `json:"reset_yearly"`
	IsDefault    bool   `json:"is_default"`
}

// CreateSeries creates a numbering series explicitly
func (s *LedgerService) CreateSeries(ctx context.Context, tenantID uuid.UUID, req CreateSeriesRequest) (*SeriesResponse, error) {
	year := req.Year
	if year == 0 {
		year = s.now().Year()
	}

	series, err := ledger.NewSeries(tenantID, req.Name, ledger.DocumentType(req.DocumentType), req.Prefix, year, req.ResetYearly, req.IsDefault)
	if err != nil {
		return nil, err
	}

	if err := s.seriesRepo.Save(ctx, series); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, series)

	return toSeriesResponse(series), nil
}

// ListSeries lists the tenant's numbering series
func (s *LedgerService) ListSeries(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]SeriesResponse, int64, error) {
	series, err := s.seriesRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.seriesRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SeriesResponse, len(series))
	for i := range series {
		responses[i] = *toSeriesResponse(&series[i])
	}
	return responses, total, nil
}

// DeactivateSeries disables a series for further allocations
func (s *LedgerService) DeactivateSeries(ctx context.Context, tenantID, seriesID uuid.UUID) error {
	series, err := s.findSeries(ctx, tenantID, seriesID)
	if err != nil {
		return err
	}
	if err := series.Deactivate(); err != nil {
		return err
	}
	return s.seriesRepo.Save(ctx, series)
}

// GetOrCreateDefaultSeries returns the active default series for a document
// type, lazily creating it. A tenant without a ledger configuration cannot
// provision series.
func (s *LedgerService) GetOrCreateDefaultSeries(ctx context.Context, tenantID uuid.UUID, docType ledger.DocumentType) (*SeriesResponse, error) {
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document type is not valid")
	}

	cfg, err := s.configRepo.FindForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, shared.ErrConfigurationMissing
	}

	series, err := s.seriesRepo.FindDefaultForTenant(ctx, tenantID, docType)
	if err != nil {
		return nil, err
	}
	if series != nil {
		return toSeriesResponse(series), nil
	}

	series, err = ledger.NewDefaultSeries(tenantID, docType, s.now().Year())
	if err != nil {
		return nil, err
	}
	if err := s.seriesRepo.Save(ctx, series); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, series)

	return toSeriesResponse(series), nil
}

// ===================== Numbering Operations =====================

// DocumentCodeResponse is the result of an allocation or preview
type DocumentCodeResponse struct {
	SeriesID   uuid.UUID `json:"series_id"`
	Number     int       `json:"number"`
	FullNumber string    `json:"full_number"`
}

// AllocateNumber issues the next number for a series. Storage conflicts on
// the atomic increment are retried transparently a bounded number of times.
func (s *LedgerService) AllocateNumber(ctx context.Context, tenantID, seriesID uuid.UUID) (*DocumentCodeResponse, error) {
	for attempt := 0; attempt < allocateAttempts; attempt++ {
		number, fullNumber, err := s.seriesRepo.AllocateNext(ctx, tenantID, seriesID, s.now())
		if err == nil {
			if s.publisher != nil {
				_ = s.publisher.Publish(ctx, ledger.NewNumberAllocatedEvent(tenantID, seriesID, number, fullNumber))
			}
			return &DocumentCodeResponse{SeriesID: seriesID, Number: number, FullNumber: fullNumber}, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
	}
	return nil, shared.ErrAllocationConflict
}

// PreviewNextNumber computes what AllocateNumber would currently return
// without mutating the series
func (s *LedgerService) PreviewNextNumber(ctx context.Context, tenantID, seriesID uuid.UUID) (*DocumentCodeResponse, error) {
	series, err := s.findSeries(ctx, tenantID, seriesID)
	if err != nil {
		return nil, err
	}

	number, fullNumber, err := series.PeekNext(s.now())
	if err != nil {
		return nil, err
	}
	return &DocumentCodeResponse{SeriesID: seriesID, Number: number, FullNumber: fullNumber}, nil
}

// ValidateCorrelation checks a manually proposed number against the series
// ordering invariant and against already issued documents. Advisory for
// manual and import numbering; the atomic allocation path never uses it.
func (s *LedgerService) ValidateCorrelation(ctx context.Context, tenantID, seriesID uuid.UUID, proposed int) error {
	series, err := s.findSeries(ctx, tenantID, seriesID)
	if err != nil {
		return err
	}

	if err := series.ValidateCorrelation(proposed); err != nil {
		return err
	}

	exists, err := s.documentRepo.ExistsBySeriesNumber(ctx, tenantID, seriesID, proposed)
	if err != nil {
		return err
	}
	if exists {
		return shared.ErrDuplicateNumber
	}
	return nil
}

func (s *LedgerService) findSeries(ctx context.Context, tenantID, seriesID uuid.UUID) (*ledger.Series, error) {
	series, err := s.seriesRepo.FindByIDForTenant(ctx, tenantID, seriesID)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Series not found")
	}
	return series, nil
}

// ===================== Configuration Operations =====================

// LedgerConfigResponse represents the tenant ledger setup in API responses
type LedgerConfigResponse struct {
	CommissionType    string          `json:"commission_type"`
	CommissionRate    decimal.Decimal `json:"commission_rate"`
	CommissionTaxRate decimal.Decimal `json:"commission_tax_rate"`
	CleaningType      string          `json:"cleaning_type"`
	CleaningValue     decimal.Decimal `json:"cleaning_value"`
	CleaningRecipient string          `json:"cleaning_recipient"`
	RetentionRate     decimal.Decimal `json:"retention_rate"`
	MonthlyFee        decimal.Decimal `json:"monthly_fee"`
	MonthlyFeeTaxRate decimal.Decimal `json:"monthly_fee_tax_rate"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func toConfigResponse(c *ledger.LedgerConfig) *LedgerConfigResponse {
	return &LedgerConfigResponse{
		CommissionType:    string(c.CommissionType),
		CommissionRate:    c.CommissionRate,
		CommissionTaxRate: c.CommissionTaxRate,
		CleaningType:      string(c.CleaningType),
		CleaningValue:     c.CleaningValue,
		CleaningRecipient: string(c.CleaningRecipient),
		RetentionRate:     c.RetentionRate,
		MonthlyFee:        c.MonthlyFee,
		MonthlyFeeTaxRate: c.MonthlyFeeTaxRate,
		UpdatedAt:         c.UpdatedAt,
	}
}

// UpsertLedgerConfigRequest carries the tenant ledger setup
type UpsertLedgerConfigRequest struct {
	CommissionType    string           `json:"commission_type" binding:"required"`
	CommissionRate    decimal.Decimal  `json:"commission_rate"`
	CommissionTaxRate *decimal.Decimal `json:"commission_tax_rate"`
	CleaningType      string           `json:"cleaning_type" binding:"required"`
	CleaningValue     decimal.Decimal  `json:"cleaning_value"`
	CleaningRecipient string           `json:"cleaning_recipient" binding:"required"`
	RetentionRate     *decimal.Decimal `json:"retention_rate"`
	MonthlyFee        *decimal.Decimal `json:"monthly_fee"`
	MonthlyFeeTaxRate *decimal.Decimal `json:"monthly_fee_tax_rate"`
}

// UpsertLedgerConfig creates or replaces the tenant's ledger configuration
func (s *LedgerService) UpsertLedgerConfig(ctx context.Context, tenantID uuid.UUID, req UpsertLedgerConfigRequest) (*LedgerConfigResponse, error) {
	cfg, err := ledger.NewLedgerConfig(
		tenantID,
		ledger.CommissionType(req.CommissionType),
		req.CommissionRate,
		ledger.CleaningType(req.CleaningType),
		req.CleaningValue,
		ledger.CleaningRecipient(req.CleaningRecipient),
	)
	if err != nil {
		return nil, err
	}

	if req.CommissionTaxRate != nil {
		if err := cfg.SetCommissionTaxRate(*req.CommissionTaxRate); err != nil {
			return nil, err
		}
	}
	if req.RetentionRate != nil {
		if err := cfg.SetRetentionRate(*req.RetentionRate); err != nil {
			return nil, err
		}
	}
	if req.MonthlyFee != nil {
		taxRate := cfg.MonthlyFeeTaxRate
		if req.MonthlyFeeTaxRate != nil {
			taxRate = *req.MonthlyFeeTaxRate
		}
		if err := cfg.SetMonthlyFee(*req.MonthlyFee, taxRate); err != nil {
			return nil, err
		}
	}

	// Keep the existing row identity so the upsert replaces in place
	existing, err := s.configRepo.FindForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
		cfg.Version = existing.Version + 1
	}

	if err := s.configRepo.Save(ctx, cfg); err != nil {
		return nil, err
	}

	return toConfigResponse(cfg), nil
}

// GetLedgerConfig returns the tenant's ledger configuration
func (s *LedgerService) GetLedgerConfig(ctx context.Context, tenantID uuid.UUID) (*LedgerConfigResponse, error) {
	cfg, err := s.configRepo.FindForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, shared.ErrConfigurationMissing
	}
	return toConfigResponse(cfg), nil
}
