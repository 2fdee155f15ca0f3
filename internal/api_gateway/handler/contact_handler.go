package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lifesync-ledger/internal/api_gateway/middleware"
	"github.com/lifesync-ledger/internal/api_gateway/service"
	"github.com/lifesync-ledger/internal/domain/contact"
)

// ContactHandler handles HTTP requests for contact ledger operations
type ContactHandler struct {
	contactService  service.ContactService
	activityService service.ActivityService
	logger          *slog.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(logger *slog.Logger, contactService service.ContactService, activityService service.ActivityService) *ContactHandler {
	return &ContactHandler{
		contactService:  contactService,
		activityService: activityService,
		logger:          logger,
	}
}

// Create stores a new contact with its initial transactions. ?lenient=true skips invalid
// transactions and reports them instead of rejecting the request.
func (h *ContactHandler) Create(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	var req CreateContactRequest
	lenient, _ := strconv.ParseBool(c.Query("lenient"))
	if !h.bindAndValidate(c, &req, func() []contact.FieldViolation { return req.toInput().Validate(lenient) }) {
		return
	}

	created, skipped, err := h.contactService.CreateContact(c.Request.Context(), ownerID, req.toInput(), lenient)
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, CreateContactResponse{
		ContactResponse:     mapContactToResponse(created),
		SkippedTransactions: skipped,
	})
}

// List returns the owner's contacts filtered by name substring and balance status
func (h *ContactHandler) List(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	var query ListContactsQuery
	if !h.bind(c, c.ShouldBindQuery, &query) {
		return
	}

	filter := contact.ListFilter{Search: query.Search}
	if query.Status != "" {
		balanceType, valid := contact.ParseBalanceType(query.Status)
		if !valid {
			RespondValidationFailed(c, []contact.FieldViolation{{
				Field:   "status",
				Message: "status must be one of owe, owed, settled, pending",
			}})
			return
		}
		filter.BalanceType = balanceType
	}

	contacts, err := h.contactService.ListContacts(c.Request.Context(), ownerID, filter)
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}

	response := make([]ContactResponse, 0, len(contacts))
	for _, ct := range contacts {
		response = append(response, mapContactToResponse(ct))
	}
	RespondOK(c, response)
}

// GetByID returns one contact with its ledger
func (h *ContactHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	ct, err := h.contactService.GetContact(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapContactToResponse(ct))
}

// Update edits the contact's name, phone, email or relationship
func (h *ContactHandler) Update(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	var req UpdateContactRequest
	if !h.bindAndValidate(c, &req, func() []contact.FieldViolation { return req.toPatch().Validate() }) {
		return
	}

	ct, err := h.contactService.UpdateContact(c.Request.Context(), ownerID, c.Param("id"), req.toPatch())
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapContactToResponse(ct))
}

// Delete removes the contact and its ledger
func (h *ContactHandler) Delete(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	if err := h.contactService.DeleteContact(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

// AddTransaction appends a transaction to the contact's ledger
func (h *ContactHandler) AddTransaction(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	var req TransactionRequest
	if !h.bindAndValidate(c, &req, func() []contact.FieldViolation { return req.toInput().Validate("") }) {
		return
	}

	ct, err := h.contactService.AddTransaction(c.Request.Context(), ownerID, c.Param("id"), req.toInput())
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondCreated(c, mapContactToResponse(ct))
}

// EditTransaction changes one transaction of the contact's ledger
func (h *ContactHandler) EditTransaction(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	var req EditTransactionRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}

	ct, err := h.contactService.EditTransaction(c.Request.Context(), ownerID, c.Param("id"), c.Param("txnId"), req.toPatch())
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapContactToResponse(ct))
}

// DeleteTransaction removes one transaction from the contact's ledger
func (h *ContactHandler) DeleteTransaction(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	ct, err := h.contactService.DeleteTransaction(c.Request.Context(), ownerID, c.Param("id"), c.Param("txnId"))
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapContactToResponse(ct))
}

// Settle closes the contact's outstanding balance
func (h *ContactHandler) Settle(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	ct, err := h.contactService.SettleContact(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapContactToResponse(ct))
}

// Summary returns the shareable text summary of the contact
func (h *ContactHandler) Summary(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	summary, err := h.contactService.GetSummary(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, summary)
}

// Stats returns the owner's totals across all contacts
func (h *ContactHandler) Stats(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	stats, err := h.contactService.GetStats(c.Request.Context(), ownerID)
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, stats)
}

// Activity returns the paginated activity log of the contact, newest first
func (h *ContactHandler) Activity(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if !h.bind(c, c.ShouldBindQuery, &pagination) {
		return
	}

	events, total, err := h.activityService.ListActivity(c.Request.Context(), ownerID, c.Param("id"), pagination.Page, pagination.PerPage)
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}

	response := make([]ActivityResponse, 0, len(events))
	for _, e := range events {
		response = append(response, mapEventToResponse(e))
	}
	RespondWithPaginatedData(c, http.StatusOK, response, pagination.Page, pagination.PerPage, int(total))
}

func (h *ContactHandler) owner(c *gin.Context) (string, bool) {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		RespondUnauthorized(c, "")
		return "", false
	}
	return ownerID, true
}

func (h *ContactHandler) bind(c *gin.Context, bindFn func(obj any) error, obj any) bool {
	err := bindFn(obj)
	if err == nil {
		return true
	}
	if violations, ok := bindingViolations(err); ok {
		RespondValidationFailed(c, violations)
		return false
	}
	h.logger.Info("Invalid request", "path", c.FullPath(), "error", err)
	RespondBadRequest(c, "Invalid request: "+err.Error())
	return false
}

// bindAndValidate binds a JSON body and reports the binding rule violations together with those found
// by validate, so the client sees every invalid field at once.
func (h *ContactHandler) bindAndValidate(c *gin.Context, obj any, validate func() []contact.FieldViolation) bool {
	var violations []contact.FieldViolation
	if err := c.ShouldBindJSON(obj); err != nil {
		var ok bool
		if violations, ok = bindingViolations(err); !ok {
			h.logger.Info("Invalid request", "path", c.FullPath(), "error", err)
			RespondBadRequest(c, "Invalid request: "+err.Error())
			return false
		}
	}
	violations = mergeViolations(violations, validate())
	if len(violations) > 0 {
		RespondValidationFailed(c, violations)
		return false
	}
	return true
}
