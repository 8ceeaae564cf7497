package handler

import (
	payablesapp "github.com/erp/payables/internal/application/payables"
	"github.com/erp/payables/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles supplier payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *payablesapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *payablesapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Create creates a new draft payment
func (h *PaymentHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req payablesapp.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Get returns one payment by ID
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPaymentByID(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// List lists payments with filtering and pagination
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter payablesapp.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, payments, total, filter.Page, filter.PageSize)
}

// ListPayableInvoices lists the invoices this draft payment could settle.
// The set is advisory; the reserve at allocation time is authoritative.
func (h *PaymentHandler) ListPayableInvoices(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}

	invoices, err := h.paymentService.ListPayableInvoices(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// Allocate applies the payment to an invoice
func (h *PaymentHandler) Allocate(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}

	var req payablesapp.AllocateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	payment, err := h.paymentService.AllocateInvoice(c.Request.Context(), tenantID, paymentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// UpdateAllocation changes the amount allocated to one invoice
func (h *PaymentHandler) UpdateAllocation(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}
	invoiceID, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req payablesapp.UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	payment, err := h.paymentService.UpdateAllocation(c.Request.Context(), tenantID, paymentID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// RemoveAllocation removes one invoice from the payment and releases its
// hold
func (h *PaymentHandler) RemoveAllocation(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}
	invoiceID, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	payment, err := h.paymentService.RemoveAllocation(c.Request.Context(), tenantID, paymentID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// RefreshAllocations re-validates allocations against current invoice
// balances
func (h *PaymentHandler) RefreshAllocations(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}

	result, err := h.paymentService.RefreshAllocations(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Finalize executes the draft payment and applies it to its invoices
func (h *PaymentHandler) Finalize(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.FinalizePayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Cancel cancels a draft payment and releases its holds
func (h *PaymentHandler) Cancel(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.CancelPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// CloseAbandonedDraft keeps a complete abandoned draft or discards an
// incomplete one
func (h *PaymentHandler) CloseAbandonedDraft(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}

	result, err := h.paymentService.CloseAbandonedDraft(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// tenantAndPayment extracts the tenant and payment IDs, writing the error
// response itself when either is invalid
func (h *PaymentHandler) tenantAndPayment(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, uuid.Nil, false
	}
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, paymentID, true
}
