package handler

import (
	"strconv"

	payablesapp "github.com/erp/payables/internal/application/payables"
	"github.com/erp/payables/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceHandler handles supplier invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *payablesapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *payablesapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// Create creates a new draft invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req payablesapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// CreateFromReceipt drafts an invoice with lines derived from a goods receipt
func (h *InvoiceHandler) CreateFromReceipt(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req payablesapp.CreateInvoiceFromReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.CreateInvoiceFromReceipt(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// Get returns one invoice by ID
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List lists invoices with filtering and pagination
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter payablesapp.InvoiceListFilter
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

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// OutstandingSummary returns per-supplier open balances
func (h *InvoiceHandler) OutstandingSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	summary, err := h.invoiceService.GetOutstandingSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// AddLine appends a line to a draft invoice
func (h *InvoiceHandler) AddLine(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	var req payablesapp.InvoiceLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.AddInvoiceLine(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// UpdateLine edits one line of a draft invoice
func (h *InvoiceHandler) UpdateLine(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}
	lineNumber, err := strconv.Atoi(c.Param("line"))
	if err != nil {
		h.BadRequest(c, "Invalid line number")
		return
	}

	var req payablesapp.InvoiceLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.UpdateInvoiceLine(c.Request.Context(), tenantID, invoiceID, lineNumber, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RemoveLine removes one line from a draft invoice
func (h *InvoiceHandler) RemoveLine(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}
	lineNumber, err := strconv.Atoi(c.Param("line"))
	if err != nil {
		h.BadRequest(c, "Invalid line number")
		return
	}

	invoice, err := h.invoiceService.RemoveInvoiceLine(c.Request.Context(), tenantID, invoiceID, lineNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// ImportReceipt replaces the draft's lines with lines derived from a goods
// receipt
func (h *InvoiceHandler) ImportReceipt(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	var req payablesapp.ImportReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.ImportReceiptLines(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// UpdateTerms applies a payment-term edit and synchronizes the dependent
// fields
func (h *InvoiceHandler) UpdateTerms(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	var req payablesapp.UpdateTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.UpdateInvoiceTerms(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Submit submits a draft invoice for approval
func (h *InvoiceHandler) Submit(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.SubmitInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// SetApproval records an approval decision
func (h *InvoiceHandler) SetApproval(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	var req payablesapp.SetApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.SetInvoiceApproval(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Cancel cancels an invoice that has no payments
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	var req payablesapp.CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Void voids an invoice regardless of payment history
func (h *InvoiceHandler) Void(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	var req payablesapp.CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.VoidInvoice(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// tenantAndInvoice extracts the tenant and invoice IDs, writing the error
// response itself when either is invalid
func (h *InvoiceHandler) tenantAndInvoice(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, uuid.Nil, false
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, invoiceID, true
}
