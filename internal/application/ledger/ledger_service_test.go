package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentalsuite/backend/internal/domain/ledger"
	"github.com/rentalsuite/backend/internal/domain/shared"
	"github.com/rentalsuite/backend/internal/domain/shared/valueobject"
)

// ===================== in-memory fakes =====================

type memSeriesRepo struct {
	mu     sync.Mutex
	series map[uuid.UUID]*ledger.Series
}

func newMemSeriesRepo() *memSeriesRepo {
	return &memSeriesRepo{series: make(map[uuid.UUID]*ledger.Series)}
}

func (r *memSeriesRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*ledger.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[id]
	if !ok || s.TenantID != tenantID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSeriesRepo) FindDefaultForTenant(_ context.Context, tenantID uuid.UUID, docType ledger.DocumentType) (*ledger.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.series {
		if s.TenantID == tenantID && s.DocumentType == docType && s.IsDefault && s.IsActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSeriesRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]ledger.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Series
	for _, s := range r.series {
		if s.TenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSeriesRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *memSeriesRepo) Save(_ context.Context, s *ledger.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.ClearDomainEvents() // pending events are not persisted
	r.series[s.ID] = &cp
	return nil
}

func (r *memSeriesRepo) AllocateNext(_ context.Context, tenantID, seriesID uuid.UUID, now time.Time) (int, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[seriesID]
	if !ok || s.TenantID != tenantID {
		return 0, "", shared.NewDomainError("NOT_FOUND", "Series not found")
	}
	number, code, err := s.Allocate(now)
	s.ClearDomainEvents()
	return number, code, err
}

type memDocumentRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*ledger.IssuedDocument
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{docs: make(map[uuid.UUID]*ledger.IssuedDocument)}
}

func (r *memDocumentRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*ledger.IssuedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.TenantID != tenantID {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *memDocumentRepo) FindBySettlement(_ context.Context, tenantID, settlementID uuid.UUID) (*ledger.IssuedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.TenantID == tenantID && d.SettlementID != nil && *d.SettlementID == settlementID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memDocumentRepo) Save(_ context.Context, d *ledger.IssuedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	cp.ClearDomainEvents()
	r.docs[d.ID] = &cp
	return nil
}

func (r *memDocumentRepo) ExistsBySeriesNumber(_ context.Context, tenantID, seriesID uuid.UUID, number int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.TenantID == tenantID && d.SeriesID == seriesID && d.Number == number && !d.IsVoid() {
			return true, nil
		}
	}
	return false, nil
}

type memReservationRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*ledger.ReservationRecord
}

func newMemReservationRepo() *memReservationRepo {
	return &memReservationRepo{records: make(map[uuid.UUID]*ledger.ReservationRecord)}
}

func (r *memReservationRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*ledger.ReservationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.TenantID != tenantID {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memReservationRepo) FindBySettlement(_ context.Context, tenantID, settlementID uuid.UUID) ([]ledger.ReservationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.ReservationRecord
	for _, rec := range r.records {
		if rec.TenantID == tenantID && rec.SettlementID != nil && *rec.SettlementID == settlementID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memReservationRepo) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ledger.ReservationRecord, error) {
	var out []ledger.ReservationRecord
	for _, id := range ids {
		rec, err := r.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memReservationRepo) Save(_ context.Context, rec *ledger.ReservationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

type memExpenseRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*ledger.ExpenseRecord
}

func newMemExpenseRepo() *memExpenseRepo {
	return &memExpenseRepo{records: make(map[uuid.UUID]*ledger.ExpenseRecord)}
}

func (r *memExpenseRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*ledger.ExpenseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.TenantID != tenantID {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memExpenseRepo) FindBySettlement(_ context.Context, tenantID, settlementID uuid.UUID) ([]ledger.ExpenseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.ExpenseRecord
	for _, rec := range r.records {
		if rec.TenantID == tenantID && rec.SettlementID != nil && *rec.SettlementID == settlementID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memExpenseRepo) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ledger.ExpenseRecord, error) {
	var out []ledger.ExpenseRecord
	for _, id := range ids {
		rec, err := r.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memExpenseRepo) Save(_ context.Context, rec *ledger.ExpenseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

type memSettlementRepo struct {
	mu          sync.Mutex
	settlements map[uuid.UUID]*ledger.Settlement
}

func newMemSettlementRepo() *memSettlementRepo {
	return &memSettlementRepo{settlements: make(map[uuid.UUID]*ledger.Settlement)}
}

func (r *memSettlementRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*ledger.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settlements[id]
	if !ok || s.TenantID != tenantID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSettlementRepo) FindByOwnerPeriod(_ context.Context, tenantID, ownerID uuid.UUID, year, month int) (*ledger.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.settlements {
		if s.TenantID == tenantID && s.OwnerID == ownerID && s.Year == year && s.Month == month {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSettlementRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]ledger.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Settlement
	for _, s := range r.settlements {
		if s.TenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSettlementRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *memSettlementRepo) Save(_ context.Context, s *ledger.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.ClearDomainEvents()
	r.settlements[s.ID] = &cp
	return nil
}

func (r *memSettlementRepo) SaveWithLock(_ context.Context, s *ledger.Settlement, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.settlements[s.ID]
	if ok && stored.Version != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	cp := *s
	cp.ClearDomainEvents()
	r.settlements[s.ID] = &cp
	return nil
}

type memConfigRepo struct {
	mu      sync.Mutex
	configs map[uuid.UUID]*ledger.LedgerConfig
}

func newMemConfigRepo() *memConfigRepo {
	return &memConfigRepo{configs: make(map[uuid.UUID]*ledger.LedgerConfig)}
}

func (r *memConfigRepo) FindForTenant(_ context.Context, tenantID uuid.UUID) (*ledger.LedgerConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.configs[tenantID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memConfigRepo) Save(_ context.Context, c *ledger.LedgerConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.configs[c.TenantID] = &cp
	return nil
}

type memIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key], nil
}

func (s *memIdempotencyStore) Close() error { return nil }

type capturingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range events {
		p.events = append(p.events, e.EventType())
	}
	return nil
}

// ===================== fixture =====================

type serviceFixture struct {
	svc          *LedgerService
	seriesRepo   *memSeriesRepo
	docRepo      *memDocumentRepo
	resRepo      *memReservationRepo
	expRepo      *memExpenseRepo
	setlRepo     *memSettlementRepo
	configRepo   *memConfigRepo
	idempotency  *memIdempotencyStore
	publisher    *capturingPublisher
	tenantID     uuid.UUID
	ownerID      uuid.UUID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		seriesRepo:  newMemSeriesRepo(),
		docRepo:     newMemDocumentRepo(),
		resRepo:     newMemReservationRepo(),
		expRepo:     newMemExpenseRepo(),
		setlRepo:    newMemSettlementRepo(),
		configRepo:  newMemConfigRepo(),
		idempotency: &memIdempotencyStore{},
		publisher:   &capturingPublisher{},
		tenantID:    uuid.New(),
		ownerID:     uuid.New(),
	}
	f.svc = NewLedgerService(
		f.seriesRepo, f.docRepo, f.resRepo, f.expRepo, f.setlRepo, f.configRepo,
		WithClock(func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }),
		WithIdempotencyStore(f.idempotency),
		WithEventPublisher(f.publisher),
	)
	return f
}

func (f *serviceFixture) withConfig(t *testing.T) {
	t.Helper()
	cfg, err := ledger.NewLedgerConfig(
		f.tenantID,
		ledger.CommissionTypePercentage,
		decimal.NewFromInt(15),
		ledger.CleaningTypeFixed,
		decimal.Zero,
		ledger.CleaningRecipientManager,
	)
	require.NoError(t, err)
	require.NoError(t, f.configRepo.Save(context.Background(), cfg))
}

func (f *serviceFixture) addReservation(t *testing.T, earnings, cleaning float64, nights int) uuid.UUID {
	t.Helper()
	checkIn := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	r, err := ledger.NewReservationRecord(
		f.tenantID, f.ownerID,
		checkIn, checkIn.AddDate(0, 0, nights),
		valueobject.NewMoneyEURFromFloat(earnings),
		valueobject.NewMoneyEURFromFloat(cleaning),
	)
	require.NoError(t, err)
	require.NoError(t, f.resRepo.Save(context.Background(), r))
	return r.ID
}

func (f *serviceFixture) addExpense(t *testing.T, amount, tax float64) uuid.UUID {
	t.Helper()
	e, err := ledger.NewExpenseRecord(
		f.tenantID, f.ownerID,
		"Plumbing", ledger.ExpenseCategoryRepair,
		valueobject.NewMoneyEURFromFloat(amount),
		valueobject.NewMoneyEURFromFloat(tax),
		time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.NoError(t, f.expRepo.Save(context.Background(), e))
	return e.ID
}

// ===================== tests =====================

func TestGetOrCreateDefaultSeries(t *testing.T) {
	ctx := context.Background()

	t.Run("fails without ledger configuration", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.GetOrCreateDefaultSeries(ctx, f.tenantID, ledger.DocumentTypeStandard)
		assert.ErrorIs(t, err, shared.ErrConfigurationMissing)
	})

	t.Run("creates the default series lazily", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)

		resp, err := f.svc.GetOrCreateDefaultSeries(ctx, f.tenantID, ledger.DocumentTypeStandard)
		require.NoError(t, err)
		assert.Equal(t, "F", resp.Prefix)
		assert.Equal(t, 2026, resp.Year)
		assert.True(t, resp.IsDefault)

		again, err := f.svc.GetOrCreateDefaultSeries(ctx, f.tenantID, ledger.DocumentTypeStandard)
		require.NoError(t, err)
		assert.Equal(t, resp.ID, again.ID)
	})

	t.Run("credit note series gets prefix R", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)

		resp, err := f.svc.GetOrCreateDefaultSeries(ctx, f.tenantID, ledger.DocumentTypeCreditNote)
		require.NoError(t, err)
		assert.Equal(t, "R", resp.Prefix)
	})
}

func TestAllocateNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("issues sequential codes", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)
		series, err := f.svc.GetOrCreateDefaultSeries(ctx, f.tenantID, ledger.DocumentTypeStandard)
		require.NoError(t, err)

		for i, want := range []string{"F260001", "F260002", "F260003"} {
			resp, err := f.svc.AllocateNumber(ctx, f.tenantID, series.ID)
			require.NoError(t, err)
			assert.Equal(t, i+1, resp.Number)
			assert.Equal(t, want, resp.FullNumber)
		}
	})

	t.Run("unknown series", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.AllocateNumber(ctx, f.tenantID, uuid.New())
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})

	t.Run("inactive series", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)
		series, err := f.svc.GetOrCreateDefaultSeries(ctx, f.tenantID, ledger.DocumentTypeStandard)
		require.NoError(t, err)
		require.NoError(t, f.svc.DeactivateSeries(ctx, f.tenantID, series.ID))

		_, err = f.svc.AllocateNumber(ctx, f.tenantID, series.ID)
		assert.ErrorIs(t, err, shared.ErrSeriesInactive)
	})
}

func TestPreviewNextNumber(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.withConfig(t)
	series, err := f.svc.GetOrCreateDefaultSeries(ctx, f.tenantID, ledger.DocumentTypeStandard)
	require.NoError(t, err)

	preview, err := f.svc.PreviewNextNumber(ctx, f.tenantID, series.ID)
	require.NoError(t, err)
	assert.Equal(t, "F260001", preview.FullNumber)

	// preview does not consume the number
	allocated, err := f.svc.AllocateNumber(ctx, f.tenantID, series.ID)
	require.NoError(t, err)
	assert.Equal(t, "F260001", allocated.FullNumber)
}

func TestValidateCorrelation(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.withConfig(t)
	series, err := f.svc.GetOrCreateDefaultSeries(ctx, f.tenantID, ledger.DocumentTypeStandard)
	require.NoError(t, err)

	_, err = f.svc.AllocateNumber(ctx, f.tenantID, series.ID)
	require.NoError(t, err)

	t.Run("accepts the successor", func(t *testing.T) {
		assert.NoError(t, f.svc.ValidateCorrelation(ctx, f.tenantID, series.ID, 2))
	})

	t.Run("rejects a gap", func(t *testing.T) {
		err := f.svc.ValidateCorrelation(ctx, f.tenantID, series.ID, 3)
		assert.ErrorIs(t, err, shared.ErrCorrelationGap)
	})

	t.Run("rejects a duplicate of an issued document", func(t *testing.T) {
		doc, err := ledger.NewIssuedDocument(f.tenantID, series.ID, 1, "F260001",
			f.ownerID, 2026, 3, valueobject.NewMoneyEURFromFloat(100))
		require.NoError(t, err)
		require.NoError(t, f.docRepo.Save(ctx, doc))

		err = f.svc.ValidateCorrelation(ctx, f.tenantID, series.ID, 1)
		assert.ErrorIs(t, err, shared.ErrDuplicateNumber)
	})
}

func TestCreateSettlement(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.withConfig(t)

	resA := f.addReservation(t, 1000, 80, 4)
	resB := f.addReservation(t, 500, 40, 2)

	resp, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
		OwnerID:        f.ownerID,
		Year:           2026,
		Month:          3,
		ReservationIDs: []uuid.UUID{resA, resB},
	})
	require.NoError(t, err)

	assert.Equal(t, "DRAFT", resp.Status)
	assert.True(t, resp.TotalIncome.Equal(decimal.NewFromInt(1500)))
	assert.True(t, resp.TotalCommission.Equal(decimal.NewFromInt(207)))
	assert.True(t, resp.TotalCleaning.Equal(decimal.NewFromInt(120)))

	t.Run("records are claimed exclusively", func(t *testing.T) {
		_, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID:        f.ownerID,
			Year:           2026,
			Month:          4,
			ReservationIDs: []uuid.UUID{resA},
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyAssigned)
	})

	t.Run("rejects records of another owner", func(t *testing.T) {
		otherOwner := f.ownerID
		f.ownerID = uuid.New()
		foreign := f.addReservation(t, 200, 0, 1)
		f.ownerID = otherOwner

		_, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID:        f.ownerID,
			Year:           2026,
			Month:          5,
			ReservationIDs: []uuid.UUID{foreign},
		})
		assert.Error(t, err)
	})

	t.Run("partial claim failure releases the records", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)
		free := f.addReservation(t, 1000, 80, 4)
		taken := f.addReservation(t, 500, 40, 2)

		_, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID: f.ownerID, Year: 2026, Month: 3,
			ReservationIDs: []uuid.UUID{taken},
		})
		require.NoError(t, err)

		// the second record is already claimed, so the April draft fails
		// after the first record was assigned
		_, err = f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID: f.ownerID, Year: 2026, Month: 4,
			ReservationIDs: []uuid.UUID{free, taken},
		})
		require.ErrorIs(t, err, shared.ErrAlreadyAssigned)

		rec, err := f.resRepo.FindByIDForTenant(ctx, f.tenantID, free)
		require.NoError(t, err)
		assert.False(t, rec.IsAssigned())

		// both the record and the owner/period slot stay usable
		_, err = f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID: f.ownerID, Year: 2026, Month: 4,
			ReservationIDs: []uuid.UUID{free},
		})
		assert.NoError(t, err)
	})
}

func TestRecomputeSettlement(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.withConfig(t)

	resID := f.addReservation(t, 1000, 80, 4)
	resp, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
		OwnerID: f.ownerID, Year: 2026, Month: 3,
		ReservationIDs: []uuid.UUID{resID},
	})
	require.NoError(t, err)

	first, err := f.svc.RecomputeSettlement(ctx, f.tenantID, resp.ID)
	require.NoError(t, err)
	second, err := f.svc.RecomputeSettlement(ctx, f.tenantID, resp.ID)
	require.NoError(t, err)

	assert.True(t, first.TotalIncome.Equal(second.TotalIncome))
	assert.True(t, first.NetAmount.Equal(second.NetAmount))
	assert.True(t, first.TotalRetention.Equal(second.TotalRetention))
}

func TestIssueSettlement(t *testing.T) {
	ctx := context.Background()

	t.Run("mints and links an invoice", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)
		resID := f.addReservation(t, 1000, 80, 4)

		created, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID: f.ownerID, Year: 2026, Month: 3,
			ReservationIDs: []uuid.UUID{resID},
		})
		require.NoError(t, err)

		issued, err := f.svc.IssueSettlement(ctx, f.tenantID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "ISSUED", issued.Status)
		require.NotNil(t, issued.InvoiceID)

		doc, err := f.docRepo.FindByIDForTenant(ctx, f.tenantID, *issued.InvoiceID)
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "F260001", doc.FullNumber)
		require.NotNil(t, doc.SettlementID)
		assert.Equal(t, created.ID, *doc.SettlementID)

		// the default series is now frozen against prefix edits
		series, err := f.seriesRepo.FindByIDForTenant(ctx, f.tenantID, doc.SeriesID)
		require.NoError(t, err)
		assert.True(t, series.HasIssuedDocuments)
	})

	t.Run("fails with no assigned records", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)

		created, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID: f.ownerID, Year: 2026, Month: 3,
		})
		require.NoError(t, err)

		_, err = f.svc.IssueSettlement(ctx, f.tenantID, created.ID)
		assert.ErrorIs(t, err, shared.ErrEmptySettlement)
	})
}

func TestMarkSettlementPaid(t *testing.T) {
	ctx := context.Background()

	issuedSettlement := func(t *testing.T, f *serviceFixture) uuid.UUID {
		t.Helper()
		resID := f.addReservation(t, 1000, 80, 4)
		created, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID: f.ownerID, Year: 2026, Month: 3,
			ReservationIDs: []uuid.UUID{resID},
		})
		require.NoError(t, err)
		_, err = f.svc.IssueSettlement(ctx, f.tenantID, created.ID)
		require.NoError(t, err)
		return created.ID
	}

	t.Run("locks the settlement", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)
		id := issuedSettlement(t, f)

		paid, err := f.svc.MarkSettlementPaid(ctx, f.tenantID, id, "")
		require.NoError(t, err)
		assert.Equal(t, "PAID", paid.Status)

		_, err = f.svc.RecomputeSettlement(ctx, f.tenantID, id)
		assert.ErrorIs(t, err, shared.ErrSettlementLocked)

		otherRes := f.addReservation(t, 300, 0, 2)
		_, err = f.svc.AssignRecord(ctx, f.tenantID, id, otherRes, RecordTypeReservation)
		assert.ErrorIs(t, err, shared.ErrSettlementLocked)

		_, err = f.svc.UnassignRecord(ctx, f.tenantID, id, otherRes, RecordTypeReservation)
		assert.ErrorIs(t, err, shared.ErrSettlementLocked)
	})

	t.Run("idempotency key dedupes replays", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)
		id := issuedSettlement(t, f)

		first, err := f.svc.MarkSettlementPaid(ctx, f.tenantID, id, "req-42")
		require.NoError(t, err)
		assert.Equal(t, "PAID", first.Status)

		// a replay of the same request acknowledges instead of failing
		replay, err := f.svc.MarkSettlementPaid(ctx, f.tenantID, id, "req-42")
		require.NoError(t, err)
		assert.Equal(t, "PAID", replay.Status)

		// a different key hits the state machine and fails
		_, err = f.svc.MarkSettlementPaid(ctx, f.tenantID, id, "req-43")
		assert.Error(t, err)
	})

	t.Run("cannot pay a draft", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)
		resID := f.addReservation(t, 100, 0, 1)
		created, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID: f.ownerID, Year: 2026, Month: 3,
			ReservationIDs: []uuid.UUID{resID},
		})
		require.NoError(t, err)

		_, err = f.svc.MarkSettlementPaid(ctx, f.tenantID, created.ID, "")
		assert.Error(t, err)
	})

	t.Run("rejected attempt does not consume the idempotency key", func(t *testing.T) {
		f := newServiceFixture(t)
		f.withConfig(t)
		resID := f.addReservation(t, 1000, 80, 4)
		created, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID: f.ownerID, Year: 2026, Month: 3,
			ReservationIDs: []uuid.UUID{resID},
		})
		require.NoError(t, err)

		// the payment confirmation arrives too early, while still a draft
		_, err = f.svc.MarkSettlementPaid(ctx, f.tenantID, created.ID, "req-7")
		require.Error(t, err)

		_, err = f.svc.IssueSettlement(ctx, f.tenantID, created.ID)
		require.NoError(t, err)

		// the retry carries the same key and must actually pay
		paid, err := f.svc.MarkSettlementPaid(ctx, f.tenantID, created.ID, "req-7")
		require.NoError(t, err)
		assert.Equal(t, "PAID", paid.Status)
	})
}

func TestVoidSettlement(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.withConfig(t)

	resID := f.addReservation(t, 1000, 80, 4)
	expID := f.addExpense(t, 150, 31.5)

	created, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
		OwnerID: f.ownerID, Year: 2026, Month: 3,
		ReservationIDs: []uuid.UUID{resID},
		ExpenseIDs:     []uuid.UUID{expID},
	})
	require.NoError(t, err)

	issued, err := f.svc.IssueSettlement(ctx, f.tenantID, created.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.VoidSettlement(ctx, f.tenantID, created.ID))

	t.Run("linked invoice is voided", func(t *testing.T) {
		doc, err := f.docRepo.FindByIDForTenant(ctx, f.tenantID, *issued.InvoiceID)
		require.NoError(t, err)
		assert.True(t, doc.IsVoid())
	})

	t.Run("records are released for future settlements", func(t *testing.T) {
		rec, err := f.resRepo.FindByIDForTenant(ctx, f.tenantID, resID)
		require.NoError(t, err)
		assert.False(t, rec.IsAssigned())

		_, err = f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
			OwnerID: f.ownerID, Year: 2026, Month: 4,
			ReservationIDs: []uuid.UUID{resID},
		})
		assert.NoError(t, err)
	})

	t.Run("void is terminal", func(t *testing.T) {
		assert.Error(t, f.svc.VoidSettlement(ctx, f.tenantID, created.ID))
	})
}

func TestAssignAndUnassignRecord(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.withConfig(t)

	created, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
		OwnerID: f.ownerID, Year: 2026, Month: 3,
	})
	require.NoError(t, err)

	resID := f.addReservation(t, 1000, 0, 4)

	resp, err := f.svc.AssignRecord(ctx, f.tenantID, created.ID, resID, RecordTypeReservation)
	require.NoError(t, err)
	assert.True(t, resp.TotalIncome.Equal(decimal.NewFromInt(1000)))
	assert.True(t, resp.TotalCommission.Equal(decimal.NewFromInt(150)))

	expID := f.addExpense(t, 150, 31.5)
	resp, err = f.svc.AssignRecord(ctx, f.tenantID, created.ID, expID, RecordTypeExpense)
	require.NoError(t, err)
	assert.True(t, resp.TotalExpenses.Equal(decimal.NewFromFloat(181.5)))

	resp, err = f.svc.UnassignRecord(ctx, f.tenantID, created.ID, resID, RecordTypeReservation)
	require.NoError(t, err)
	assert.True(t, resp.TotalIncome.IsZero())
	assert.True(t, resp.TotalExpenses.Equal(decimal.NewFromFloat(181.5)))

	t.Run("unassign of a foreign record fails", func(t *testing.T) {
		stray := f.addReservation(t, 200, 0, 1)
		_, err := f.svc.UnassignRecord(ctx, f.tenantID, created.ID, stray, RecordTypeReservation)
		assert.Error(t, err)
	})
}

func TestDomainEventPublishing(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.withConfig(t)

	resID := f.addReservation(t, 1000, 80, 4)
	created, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
		OwnerID: f.ownerID, Year: 2026, Month: 3,
		ReservationIDs: []uuid.UUID{resID},
	})
	require.NoError(t, err)

	_, err = f.svc.IssueSettlement(ctx, f.tenantID, created.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkSettlementPaid(ctx, f.tenantID, created.ID, "")
	require.NoError(t, err)

	// every state change surfaces on the bus after it is persisted
	assert.Equal(t, []string{
		"SettlementCreated",
		"SeriesCreated",
		"NumberAllocated",
		"DocumentIssued",
		"SettlementIssued",
		"SettlementPaid",
	}, f.publisher.events)
}

func TestGetSettlementDetail(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.withConfig(t)

	resA := f.addReservation(t, 1000, 80, 4)
	resB := f.addReservation(t, 500, 40, 2)

	created, err := f.svc.CreateSettlement(ctx, f.tenantID, CreateSettlementRequest{
		OwnerID: f.ownerID, Year: 2026, Month: 3,
		ReservationIDs: []uuid.UUID{resA, resB},
	})
	require.NoError(t, err)

	detail, err := f.svc.GetSettlement(ctx, f.tenantID, created.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Reservations, 2)
	assert.Equal(t, 6, detail.Metrics.NightsCovered)
	assert.Equal(t, 31, detail.Metrics.DaysInPeriod)
	assert.True(t, detail.Metrics.AverageNightlyRate.Equal(decimal.NewFromInt(250)))

	t.Run("unknown settlement", func(t *testing.T) {
		_, err := f.svc.GetSettlement(ctx, f.tenantID, uuid.New())
		require.Error(t, err)
	})
}
