package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/rentalsuite/backend/internal/application/ledger"
	"github.com/rentalsuite/backend/internal/domain/ledger"
	"github.com/rentalsuite/backend/internal/domain/shared"
	"github.com/rentalsuite/backend/internal/interfaces/http/dto"
)

// LedgerHandler handles numbering series, ledger configuration and
// settlement HTTP requests
type LedgerHandler struct {
	BaseHandler
	service *appledger.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(service *appledger.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// ============================================================================
// Request/Response DTOs
// ============================================================================

// ValidateNumberRequest carries a manually proposed document number
//
//	@Description	Document number to validate against the series counter
type ValidateNumberRequest struct {
	Number int `json:"number" binding:"required,min=1"`
}

// ValidateNumberResponse reports the outcome of a number validation
//
//	@Description	Result of validating a proposed document number
type ValidateNumberResponse struct {
	Valid  bool `json:"valid"`
	Number int  `json:"number"`
}

// AssignRecordRequest selects a record to attach to a settlement
//
//	@Description	Record to assign to a draft settlement
type AssignRecordRequest struct {
	RecordID   uuid.UUID `json:"record_id" binding:"required"`
	RecordType string    `json:"record_type" binding:"required,oneof=RESERVATION EXPENSE"`
}

// ============================================================================
// Series handlers
// ============================================================================

// CreateSeries godoc
//
//	@ID				createSeries
//	@Summary		Create a numbering series
//	@Description	Create a new document numbering series for the current tenant
//	@Tags			ledger
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appledger.CreateSeriesRequest	true	"Series to create"
//	@Success		201		{object}	APIResponse[appledger.SeriesResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/ledger/series [post]
func (h *LedgerHandler) CreateSeries(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req appledger.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	series, err := h.service.CreateSeries(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, series)
}

// ListSeries godoc
//
//	@ID				listSeries
//	@Summary		List numbering series
//	@Description	List the tenant's numbering series, optionally filtered by document type and active state
//	@Tags			ledger
//	@Produce		json
//	@Param			document_type	query		string	false	"Document type filter (STANDARD, CREDIT_NOTE)"
//	@Param			is_active		query		bool	false	"Active state filter"
//	@Param			page			query		int		false	"Page number"
//	@Param			page_size		query		int		false	"Page size"
//	@Success		200	{object}	APIResponse[[]appledger.SeriesResponse]
//	@Router			/ledger/series [get]
func (h *LedgerHandler) ListSeries(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	filter := shared.DefaultFilter()
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("page_size")); err == nil && pageSize > 0 && pageSize <= 100 {
		filter.PageSize = pageSize
	}
	if docType := c.Query("document_type"); docType != "" {
		filter.Filters["document_type"] = docType
	}
	if isActive := c.Query("is_active"); isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err != nil {
			h.BadRequest(c, "is_active must be a boolean")
			return
		}
		filter.Filters["is_active"] = active
	}

	series, total, err := h.service.ListSeries(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, series, total, filter.Page, filter.PageSize)
}

// GetDefaultSeries godoc
//
//	@ID				getDefaultSeries
//	@Summary		Get or create the default series for a document type
//	@Description	Return the tenant's default series for the given document type, creating it lazily when the tenant is configured
//	@Tags			ledger
//	@Produce		json
//	@Param			type	path		string	true	"Document type"	Enums(STANDARD, CREDIT_NOTE)
//	@Success		200		{object}	APIResponse[appledger.SeriesResponse]
//	@Failure		422		{object}	ErrorResponse
//	@Router			/ledger/series/default/{type} [get]
func (h *LedgerHandler) GetDefaultSeries(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	docType := ledgerDocumentType(c.Param("type"))
	if docType == "" {
		h.BadRequest(c, "Invalid document type. Must be one of: STANDARD, CREDIT_NOTE")
		return
	}

	series, err := h.service.GetOrCreateDefaultSeries(c.Request.Context(), tenantID, docType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, series)
}

// PreviewNextNumber godoc
//
//	@ID				previewNextNumber
//	@Summary		Preview the next document number
//	@Description	Return the number the series would allocate next without consuming it
//	@Tags			ledger
//	@Produce		json
//	@Param			id	path		string	true	"Series ID"
//	@Success		200	{object}	APIResponse[appledger.DocumentCodeResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/ledger/series/{id}/next [get]
func (h *LedgerHandler) PreviewNextNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	seriesID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid series ID format")
		return
	}

	code, err := h.service.PreviewNextNumber(c.Request.Context(), tenantID, seriesID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, code)
}

// AllocateNumber godoc
//
//	@ID				allocateNumber
//	@Summary		Allocate the next document number
//	@Description	Atomically consume and return the next sequential number from the series
//	@Tags			ledger
//	@Produce		json
//	@Param			id	path		string	true	"Series ID"
//	@Success		200	{object}	APIResponse[appledger.DocumentCodeResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/ledger/series/{id}/allocate [post]
func (h *LedgerHandler) AllocateNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	seriesID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid series ID format")
		return
	}

	code, err := h.service.AllocateNumber(c.Request.Context(), tenantID, seriesID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, code)
}

// ValidateNumber godoc
//
//	@ID				validateNumber
//	@Summary		Validate a manually proposed document number
//	@Description	Check that the proposed number neither duplicates an issued number nor leaves a gap in the series
//	@Tags			ledger
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Series ID"
//	@Param			request	body		ValidateNumberRequest	true	"Number to validate"
//	@Success		200		{object}	APIResponse[ValidateNumberResponse]
//	@Failure		409		{object}	ErrorResponse
//	@Router			/ledger/series/{id}/validate-number [post]
func (h *LedgerHandler) ValidateNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	seriesID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid series ID format")
		return
	}

	var req ValidateNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.ValidateCorrelation(c.Request.Context(), tenantID, seriesID, req.Number); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ValidateNumberResponse{Valid: true, Number: req.Number})
}

// DeactivateSeries godoc
//
//	@ID				deactivateSeries
//	@Summary		Deactivate a numbering series
//	@Description	Disable a series for further allocations; issued documents are kept
//	@Tags			ledger
//	@Produce		json
//	@Param			id	path	string	true	"Series ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/ledger/series/{id} [delete]
func (h *LedgerHandler) DeactivateSeries(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	seriesID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid series ID format")
		return
	}

	if err := h.service.DeactivateSeries(c.Request.Context(), tenantID, seriesID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ============================================================================
// Configuration handlers
// ============================================================================

// GetConfig godoc
//
//	@ID				getLedgerConfig
//	@Summary		Get the tenant ledger configuration
//	@Tags			ledger
//	@Produce		json
//	@Success		200	{object}	APIResponse[appledger.LedgerConfigResponse]
//	@Failure		422	{object}	ErrorResponse
//	@Router			/ledger/config [get]
func (h *LedgerHandler) GetConfig(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	cfg, err := h.service.GetLedgerConfig(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cfg)
}

// UpsertConfig godoc
//
//	@ID				upsertLedgerConfig
//	@Summary		Create or replace the tenant ledger configuration
//	@Description	Set the commission, cleaning, retention and monthly fee parameters used by settlement computation
//	@Tags			ledger
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appledger.UpsertLedgerConfigRequest	true	"Configuration"
//	@Success		200		{object}	APIResponse[appledger.LedgerConfigResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/ledger/config [put]
func (h *LedgerHandler) UpsertConfig(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req appledger.UpsertLedgerConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cfg, err := h.service.UpsertLedgerConfig(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cfg)
}

// ============================================================================
// Settlement handlers
// ============================================================================

// CreateSettlement godoc
//
//	@ID				createSettlement
//	@Summary		Create a draft settlement
//	@Description	Create a settlement for one owner and period, claiming the selected reservation and expense records
//	@Tags			ledger
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appledger.CreateSettlementRequest	true	"Settlement to create"
//	@Success		201		{object}	APIResponse[appledger.SettlementResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/ledger/settlements [post]
func (h *LedgerHandler) CreateSettlement(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req appledger.CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	settlement, err := h.service.CreateSettlement(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, settlement)
}

// ListSettlements godoc
//
//	@ID				listSettlements
//	@Summary		List settlements
//	@Tags			ledger
//	@Produce		json
//	@Param			owner_id	query		string	false	"Owner ID filter"
//	@Param			year		query		int		false	"Period year filter"
//	@Param			month		query		int		false	"Period month filter"
//	@Param			status		query		string	false	"Status filter"	Enums(DRAFT, ISSUED, PAID, VOID)
//	@Success		200	{object}	APIResponse[[]appledger.SettlementResponse]
//	@Router			/ledger/settlements [get]
func (h *LedgerHandler) ListSettlements(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var filter appledger.SettlementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	settlements, total, err := h.service.ListSettlements(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page == 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, settlements, total, page, pageSize)
}

// GetSettlement godoc
//
//	@ID				getSettlement
//	@Summary		Get settlement detail
//	@Description	Return the settlement with its assigned records and occupancy metrics
//	@Tags			ledger
//	@Produce		json
//	@Param			id	path		string	true	"Settlement ID"
//	@Success		200	{object}	APIResponse[appledger.SettlementDetailResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/ledger/settlements/{id} [get]
func (h *LedgerHandler) GetSettlement(c *gin.Context) {
	tenantID, settlementID, ok := h.settlementIDs(c)
	if !ok {
		return
	}

	detail, err := h.service.GetSettlement(c.Request.Context(), tenantID, settlementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, detail)
}

// RecomputeSettlement godoc
//
//	@ID				recomputeSettlement
//	@Summary		Recompute settlement totals
//	@Description	Reapply the split calculation over the currently assigned records
//	@Tags			ledger
//	@Produce		json
//	@Param			id	path		string	true	"Settlement ID"
//	@Success		200	{object}	APIResponse[appledger.SettlementResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/ledger/settlements/{id}/recompute [post]
func (h *LedgerHandler) RecomputeSettlement(c *gin.Context) {
	tenantID, settlementID, ok := h.settlementIDs(c)
	if !ok {
		return
	}

	settlement, err := h.service.RecomputeSettlement(c.Request.Context(), tenantID, settlementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, settlement)
}

// IssueSettlement godoc
//
//	@ID				issueSettlement
//	@Summary		Issue a settlement
//	@Description	Allocate an invoice number from the default series and move the settlement to ISSUED
//	@Tags			ledger
//	@Produce		json
//	@Param			id	path		string	true	"Settlement ID"
//	@Success		200	{object}	APIResponse[appledger.SettlementResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/ledger/settlements/{id}/issue [post]
func (h *LedgerHandler) IssueSettlement(c *gin.Context) {
	tenantID, settlementID, ok := h.settlementIDs(c)
	if !ok {
		return
	}

	settlement, err := h.service.IssueSettlement(c.Request.Context(), tenantID, settlementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, settlement)
}

// PaySettlement godoc
//
//	@ID				paySettlement
//	@Summary		Mark a settlement as paid
//	@Description	Record the payment of an issued settlement. Requires an Idempotency-Key header; replays with the same key return the current state without error.
//	@Tags			ledger
//	@Produce		json
//	@Param			id				path		string	true	"Settlement ID"
//	@Param			Idempotency-Key	header		string	true	"Idempotency key"
//	@Success		200	{object}	APIResponse[appledger.SettlementResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/ledger/settlements/{id}/pay [post]
func (h *LedgerHandler) PaySettlement(c *gin.Context) {
	tenantID, settlementID, ok := h.settlementIDs(c)
	if !ok {
		return
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")
	if idempotencyKey == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Idempotency-Key header is required")
		return
	}

	settlement, err := h.service.MarkSettlementPaid(c.Request.Context(), tenantID, settlementID, idempotencyKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, settlement)
}

// VoidSettlement godoc
//
//	@ID				voidSettlement
//	@Summary		Void a settlement
//	@Description	Void the settlement and its linked invoice, releasing the assigned records for reuse
//	@Tags			ledger
//	@Produce		json
//	@Param			id	path	string	true	"Settlement ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/ledger/settlements/{id}/void [post]
func (h *LedgerHandler) VoidSettlement(c *gin.Context) {
	tenantID, settlementID, ok := h.settlementIDs(c)
	if !ok {
		return
	}

	if err := h.service.VoidSettlement(c.Request.Context(), tenantID, settlementID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AssignRecord godoc
//
//	@ID				assignSettlementRecord
//	@Summary		Assign a record to a settlement
//	@Description	Attach a reservation or expense record to a draft settlement and recompute totals
//	@Tags			ledger
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Settlement ID"
//	@Param			request	body		AssignRecordRequest	true	"Record to assign"
//	@Success		200		{object}	APIResponse[appledger.SettlementResponse]
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/ledger/settlements/{id}/records [post]
func (h *LedgerHandler) AssignRecord(c *gin.Context) {
	tenantID, settlementID, ok := h.settlementIDs(c)
	if !ok {
		return
	}

	var req AssignRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	settlement, err := h.service.AssignRecord(
		c.Request.Context(), tenantID, settlementID, req.RecordID, appledger.RecordType(req.RecordType))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, settlement)
}

// UnassignRecord godoc
//
//	@ID				unassignSettlementRecord
//	@Summary		Remove a record from a settlement
//	@Description	Detach a reservation or expense record from a draft settlement and recompute totals
//	@Tags			ledger
//	@Produce		json
//	@Param			id			path		string	true	"Settlement ID"
//	@Param			recordId	path		string	true	"Record ID"
//	@Param			record_type	query		string	true	"Record type"	Enums(RESERVATION, EXPENSE)
//	@Success		200	{object}	APIResponse[appledger.SettlementResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/ledger/settlements/{id}/records/{recordId} [delete]
func (h *LedgerHandler) UnassignRecord(c *gin.Context) {
	tenantID, settlementID, ok := h.settlementIDs(c)
	if !ok {
		return
	}

	recordID, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		h.BadRequest(c, "Invalid record ID format")
		return
	}

	recordType := appledger.RecordType(c.Query("record_type"))
	if !recordType.IsValid() {
		h.BadRequest(c, "record_type must be one of: RESERVATION, EXPENSE")
		return
	}

	settlement, err := h.service.UnassignRecord(c.Request.Context(), tenantID, settlementID, recordID, recordType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, settlement)
}

// ============================================================================
// Helpers
// ============================================================================

// ledgerDocumentType parses a path segment into a known document type,
// returning the zero value when it is not one
func ledgerDocumentType(raw string) ledger.DocumentType {
	docType := ledger.DocumentType(raw)
	switch docType {
	case ledger.DocumentTypeStandard, ledger.DocumentTypeCreditNote:
		return docType
	default:
		return ""
	}
}

// settlementIDs extracts and validates the tenant and settlement IDs,
// writing the error response itself when either is malformed
func (h *LedgerHandler) settlementIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return uuid.Nil, uuid.Nil, false
	}

	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID format")
		return uuid.Nil, uuid.Nil, false
	}

	return tenantID, settlementID, true
}

// RegisterRoutes registers all ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledgerGroup := rg.Group("/ledger")

	series := ledgerGroup.Group("/series")
	{
		series.POST("", h.CreateSeries)
		series.GET("", h.ListSeries)
		series.GET("/default/:type", h.GetDefaultSeries)
		series.GET("/:id/next", h.PreviewNextNumber)
		series.POST("/:id/allocate", h.AllocateNumber)
		series.POST("/:id/validate-number", h.ValidateNumber)
		series.DELETE("/:id", h.DeactivateSeries)
	}

	ledgerGroup.GET("/config", h.GetConfig)
	ledgerGroup.PUT("/config", h.UpsertConfig)

	settlements := ledgerGroup.Group("/settlements")
	{
		settlements.POST("", h.CreateSettlement)
		settlements.GET("", h.ListSettlements)
		settlements.GET("/:id", h.GetSettlement)
		settlements.POST("/:id/recompute", h.RecomputeSettlement)
		settlements.POST("/:id/issue", h.IssueSettlement)
		settlements.POST("/:id/pay", h.PaySettlement)
		settlements.POST("/:id/void", h.VoidSettlement)
		settlements.POST("/:id/records", h.AssignRecord)
		settlements.DELETE("/:id/records/:recordId", h.UnassignRecord)
	}
}
