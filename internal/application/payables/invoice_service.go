package payables

import (
	"context"
	"time"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/erp/payables/internal/domain/shared"
	"github.com/erp/payables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	invoiceRepo  payables.InvoiceRepository
	receiptRepo  payables.ReceiptRepository
	supplierRepo payables.SupplierRepository
	siteRepo     payables.SupplierSiteRepository
	itemRepo     payables.InventoryItemRepository
	taxRateRepo  payables.TaxRateRepository
	events       shared.EventBus
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo payables.InvoiceRepository,
	receiptRepo payables.ReceiptRepository,
	supplierRepo payables.SupplierRepository,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		receiptRepo:  receiptRepo,
		supplierRepo: supplierRepo,
	}
}

// SetEventPublisher wires a bus that receives domain events after each
// successful save. Without one events are silently discarded.
func (s *InvoiceService) SetEventPublisher(bus shared.EventBus) {
	s.events = bus
}

// SetReferenceData wires the cached reference-data repositories used to
// validate sites, items and tax rates on invoice writes. Without them those
// fields pass through unvalidated.
func (s *InvoiceService) SetReferenceData(
	sites payables.SupplierSiteRepository,
	items payables.InventoryItemRepository,
	taxRates payables.TaxRateRepository,
) {
	s.siteRepo = sites
	s.itemRepo = items
	s.taxRateRepo = taxRates
}

func (s *InvoiceService) checkSite(ctx context.Context, tenantID, supplierID, siteID uuid.UUID) error {
	if s.siteRepo == nil || siteID == uuid.Nil {
		return nil
	}
	site, err := s.siteRepo.FindByID(ctx, tenantID, siteID)
	if err != nil {
		return err
	}
	if site == nil || !site.Active || site.SupplierID != supplierID {
		return shared.NewDomainError("INVALID_SITE", "Supplier site not found or not active for this supplier")
	}
	return nil
}

// resolveLine validates the line's item and tax-rate references and fills
// the description and rate from the projections when the request leaves
// them blank.
func (s *InvoiceService) resolveLine(ctx context.Context, tenantID uuid.UUID, req InvoiceLineRequest) (payables.LineInput, error) {
	in := req.toInput()
	if s.itemRepo != nil && req.ItemID != nil {
		item, err := s.itemRepo.FindByID(ctx, tenantID, *req.ItemID)
		if err != nil {
			return in, err
		}
		if item == nil || !item.Active {
			return in, shared.NewDomainError("INVALID_ITEM", "Inventory item not found or inactive")
		}
		if in.Description == "" {
			in.Description = item.Name
		}
	}
	if s.taxRateRepo != nil && req.TaxRateID != nil {
		rate, err := s.taxRateRepo.FindByID(ctx, tenantID, *req.TaxRateID)
		if err != nil {
			return in, err
		}
		if rate == nil || !rate.Active {
			return in, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate not found or inactive")
		}
		in.TaxRate = rate.Rate
	}
	return in, nil
}

func (s *InvoiceService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	_ = s.events.Publish(ctx, events...)
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	LineNumber  int             `json:"line_number"`
	ItemID      *uuid.UUID      `json:"item_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineAmount  decimal.Decimal `json:"line_amount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID               uuid.UUID             `json:"id"`
	TenantID         uuid.UUID             `json:"tenant_id"`
	InvoiceNumber    string                `json:"invoice_number"`
	SupplierID       uuid.UUID             `json:"supplier_id"`
	SupplierName     string                `json:"supplier_name"`
	SourceReceiptID  *uuid.UUID            `json:"source_receipt_id,omitempty"`
	InvoiceDate      time.Time             `json:"invoice_date"`
	DueDate          time.Time             `json:"due_date"`
	PaymentTermsDays int                   `json:"payment_terms_days"`
	Currency         string                `json:"currency"`
	ExchangeRate     decimal.Decimal       `json:"exchange_rate"`
	Subtotal         decimal.Decimal       `json:"subtotal"`
	TaxAmount        decimal.Decimal       `json:"tax_amount"`
	TotalAmount      decimal.Decimal       `json:"total_amount"`
	PaidAmount       decimal.Decimal       `json:"paid_amount"`
	AmountDue        decimal.Decimal       `json:"amount_due"`
	Status           string                `json:"status"`
	ApprovalStatus   string                `json:"approval_status"`
	Overdue          bool                  `json:"overdue"`
	Lines            []InvoiceLineResponse `json:"lines"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Version          int                   `json:"version"`
}

func toInvoiceResponse(inv *payables.Invoice) *InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineResponse{
			ID:          l.ID,
			LineNumber:  l.LineNumber,
			ItemID:      l.ItemID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineAmount:  l.LineAmount,
			TaxRate:     l.TaxRate,
			TaxAmount:   l.TaxAmount,
		}
	}
	return &InvoiceResponse{
		ID:               inv.ID,
		TenantID:         inv.TenantID,
		InvoiceNumber:    inv.InvoiceNumber,
		SupplierID:       inv.SupplierID,
		SupplierName:     inv.SupplierName,
		SourceReceiptID:  inv.SourceReceiptID,
		InvoiceDate:      inv.InvoiceDate,
		DueDate:          inv.DueDate,
		PaymentTermsDays: inv.PaymentTermsDays,
		Currency:         string(inv.Currency),
		ExchangeRate:     inv.ExchangeRate,
		Subtotal:         inv.Subtotal,
		TaxAmount:        inv.TaxAmount,
		TotalAmount:      inv.TotalAmount,
		PaidAmount:       inv.PaidAmount,
		AmountDue:        inv.AmountDue,
		Status:           string(inv.Status),
		ApprovalStatus:   string(inv.ApprovalStatus),
		Overdue:          inv.IsOverdue(),
		Lines:            lines,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		Version:          inv.Version,
	}
}

// InvoiceLineRequest carries line fields in create and update requests.
// A TaxRateID resolves the rate from the tax-rate projection and overrides
// a literal TaxRate.
type InvoiceLineRequest struct {
	ItemID      *uuid.UUID      `json:"item_id"`
	TaxRateID   *uuid.UUID      `json:"tax_rate_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

func (r InvoiceLineRequest) toInput() payables.LineInput {
	return payables.LineInput{
		ItemID:      r.ItemID,
		Description: r.Description,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		TaxRate:     r.TaxRate,
	}
}

// CreateInvoiceRequest represents a request to create an invoice draft
type CreateInvoiceRequest struct {
	InvoiceNumber    string             `json:"invoice_number"`
	SupplierID       uuid.UUID          `json:"supplier_id" binding:"required"`
	SiteID           uuid.UUID          `json:"site_id"`
	InvoiceDate      time.Time          `json:"invoice_date" binding:"required"`
	PaymentTermsDays *int               `json:"payment_terms_days"`
	Currency         string             `json:"currency" binding:"omitempty,currency"`
	ExchangeRate     *decimal.Decimal   `json:"exchange_rate"`
	FirstLine        InvoiceLineRequest `json:"first_line"`
}

// CreateInvoice creates a new invoice draft. The supplier projection fills
// in the name and, when the request leaves them out, the default payment
// terms and currency.
func (s *InvoiceService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, tenantID, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Supplier not found")
	}
	if err := s.checkSite(ctx, tenantID, supplier.ID, req.SiteID); err != nil {
		return nil, err
	}
	firstLine, err := s.resolveLine(ctx, tenantID, req.FirstLine)
	if err != nil {
		return nil, err
	}

	termsDays := supplier.PaymentTermsDays
	if req.PaymentTermsDays != nil {
		termsDays = *req.PaymentTermsDays
	}
	currency := valueobject.Currency(req.Currency)
	if currency == "" {
		currency = valueobject.Currency(supplier.Currency)
	}
	exchangeRate := decimal.NewFromInt(1)
	if req.ExchangeRate != nil {
		exchangeRate = *req.ExchangeRate
	}

	invoiceNumber := req.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber, err = s.invoiceRepo.GenerateInvoiceNumber(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	}

	invoice, err := payables.NewInvoice(
		tenantID,
		invoiceNumber,
		supplier.ID,
		supplier.Name,
		req.SiteID,
		req.InvoiceDate,
		termsDays,
		currency,
		exchangeRate,
		firstLine,
	)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, invoice)

	return toInvoiceResponse(invoice), nil
}

// CreateInvoiceFromReceiptRequest represents a request to draft an invoice
// from a goods receipt
type CreateInvoiceFromReceiptRequest struct {
	ReceiptID        uuid.UUID  `json:"receipt_id" binding:"required"`
	InvoiceNumber    string     `json:"invoice_number"`
	InvoiceDate      *time.Time `json:"invoice_date"`
	PaymentTermsDays *int       `json:"payment_terms_days"`
}

// CreateInvoiceFromReceipt drafts an invoice whose lines are derived from a
// goods receipt and marks the receipt invoiced
func (s *InvoiceService) CreateInvoiceFromReceipt(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceFromReceiptRequest) (*InvoiceResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, tenantID, req.ReceiptID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Goods receipt not found")
	}

	supplier, err := s.supplierRepo.FindByID(ctx, tenantID, receipt.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Supplier not found")
	}

	invoiceDate := time.Now()
	if req.InvoiceDate != nil {
		invoiceDate = *req.InvoiceDate
	}
	termsDays := supplier.PaymentTermsDays
	if req.PaymentTermsDays != nil {
		termsDays = *req.PaymentTermsDays
	}
	invoiceNumber := req.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber, err = s.invoiceRepo.GenerateInvoiceNumber(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	}

	exchangeRate := receipt.ExchangeRate
	if !exchangeRate.IsPositive() {
		exchangeRate = decimal.NewFromInt(1)
	}

	// The constructor requires a first line; the import then replaces the
	// whole collection with lines derived from the receipt.
	invoice, err := payables.NewInvoice(
		tenantID,
		invoiceNumber,
		supplier.ID,
		supplier.Name,
		receipt.SiteID,
		invoiceDate,
		termsDays,
		receipt.Currency,
		exchangeRate,
		payables.LineInput{Description: "Pending import", Quantity: decimal.Zero, UnitPrice: decimal.Zero, TaxRate: decimal.Zero},
	)
	if err != nil {
		return nil, err
	}

	if err := invoice.ImportReceiptLines(receipt); err != nil {
		return nil, err
	}
	if err := receipt.MarkInvoiced(); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}
	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, invoice)

	return toInvoiceResponse(invoice), nil
}

// GetInvoiceByID gets an invoice by ID
func (s *InvoiceService) GetInvoiceByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.loadInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Search         string     `form:"search"`
	SupplierID     *uuid.UUID `form:"supplier_id"`
	Status         string     `form:"status"`
	ApprovalStatus string     `form:"approval_status"`
	FromDate       *time.Time `form:"from_date"`
	ToDate         *time.Time `form:"to_date"`
	DueBefore      *time.Time `form:"due_before"`
	Payable        bool       `form:"payable"`
	Page           int        `form:"page"`
	PageSize       int        `form:"page_size"`
}

// ListInvoices lists invoices with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := payables.InvoiceFilter{
		SupplierID:  filter.SupplierID,
		DateFrom:    filter.FromDate,
		DateTo:      filter.ToDate,
		DueBefore:   filter.DueBefore,
		OnlyPayable: filter.Payable,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search

	if filter.Status != "" {
		status := payables.InvoiceStatus(filter.Status)
		domainFilter.Status = &status
	}
	if filter.ApprovalStatus != "" {
		approval := payables.ApprovalStatus(filter.ApprovalStatus)
		domainFilter.ApprovalStatus = &approval
	}

	page, err := s.invoiceRepo.List(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]InvoiceResponse, len(page.Items))
	for i, inv := range page.Items {
		responses[i] = *toInvoiceResponse(inv)
	}
	return responses, page.Total, nil
}

// GetOutstandingSummary returns the open payable balance per supplier
func (s *InvoiceService) GetOutstandingSummary(ctx context.Context, tenantID uuid.UUID) ([]payables.SupplierOutstanding, error) {
	return s.invoiceRepo.SummarizeOutstanding(ctx, tenantID)
}

// AddInvoiceLine appends a line to a draft invoice
func (s *InvoiceService) AddInvoiceLine(ctx context.Context, tenantID, invoiceID uuid.UUID, req InvoiceLineRequest) (*InvoiceResponse, error) {
	in, err := s.resolveLine(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *payables.Invoice) error {
		_, err := inv.AddLine(in)
		return err
	})
}

// UpdateInvoiceLine replaces the fields of a draft invoice line
func (s *InvoiceService) UpdateInvoiceLine(ctx context.Context, tenantID, invoiceID uuid.UUID, lineNumber int, req InvoiceLineRequest) (*InvoiceResponse, error) {
	in, err := s.resolveLine(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *payables.Invoice) error {
		return inv.UpdateLine(lineNumber, in)
	})
}

// RemoveInvoiceLine removes a line from a draft invoice
func (s *InvoiceService) RemoveInvoiceLine(ctx context.Context, tenantID, invoiceID uuid.UUID, lineNumber int) (*InvoiceResponse, error) {
	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *payables.Invoice) error {
		return inv.RemoveLine(lineNumber)
	})
}

// ImportReceiptRequest represents a request to re-derive the lines of an
// existing draft from a goods receipt
type ImportReceiptRequest struct {
	ReceiptID uuid.UUID `json:"receipt_id" binding:"required"`
}

// ImportReceiptLines replaces a draft invoice's lines with lines derived
// from a goods receipt
func (s *InvoiceService) ImportReceiptLines(ctx context.Context, tenantID, invoiceID uuid.UUID, req ImportReceiptRequest) (*InvoiceResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, tenantID, req.ReceiptID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Goods receipt not found")
	}

	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *payables.Invoice) error {
		return inv.ImportReceiptLines(receipt)
	})
}

// UpdateTermsRequest represents a single-field payment-term edit. Field
// names which of the three values the user changed.
type UpdateTermsRequest struct {
	Field string     `json:"field" binding:"required"`
	Date  *time.Time `json:"date"`
	Days  *int       `json:"days"`
}

// UpdateInvoiceTerms applies a payment-term edit and synchronizes the
// dependent fields
func (s *InvoiceService) UpdateInvoiceTerms(ctx context.Context, tenantID, invoiceID uuid.UUID, req UpdateTermsRequest) (*InvoiceResponse, error) {
	field := payables.TermField(req.Field)
	edit := payables.TermEdit{Field: field}
	switch field {
	case payables.TermFieldInvoiceDate, payables.TermFieldDueDate:
		if req.Date == nil {
			return nil, shared.NewValidationError("A date is required for this term edit")
		}
		edit.Date = *req.Date
	case payables.TermFieldTermsDays:
		if req.Days == nil {
			return nil, shared.NewValidationError("A day count is required for this term edit")
		}
		edit.Days = *req.Days
	default:
		return nil, shared.NewValidationError("Unknown term field")
	}

	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *payables.Invoice) error {
		return inv.ApplyTermEdit(edit)
	})
}

// SubmitInvoice submits a draft invoice for approval
func (s *InvoiceService) SubmitInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *payables.Invoice) error {
		return inv.Submit()
	})
}

// SetApprovalRequest represents an approval decision for an invoice
type SetApprovalRequest struct {
	ApprovalStatus string `json:"approval_status" binding:"required"`
}

// SetInvoiceApproval records an approval decision
func (s *InvoiceService) SetInvoiceApproval(ctx context.Context, tenantID, invoiceID uuid.UUID, req SetApprovalRequest) (*InvoiceResponse, error) {
	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *payables.Invoice) error {
		return inv.SetApprovalStatus(payables.ApprovalStatus(req.ApprovalStatus))
	})
}

// CancelInvoiceRequest represents a request to cancel or void an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelInvoice cancels an invoice without payments
func (s *InvoiceService) CancelInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *payables.Invoice) error {
		return inv.Cancel(req.Reason)
	})
}

// VoidInvoice voids an invoice
func (s *InvoiceService) VoidInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *payables.Invoice) error {
		return inv.Void(req.Reason)
	})
}

func (s *InvoiceService) loadInvoice(ctx context.Context, tenantID, id uuid.UUID) (*payables.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	return invoice, nil
}

// mutateInvoice loads the invoice, applies the mutation and saves with an
// optimistic lock on the loaded version
func (s *InvoiceService) mutateInvoice(ctx context.Context, tenantID, id uuid.UUID, mutate func(*payables.Invoice) error) (*InvoiceResponse, error) {
	invoice, err := s.loadInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	loadedVersion := invoice.Version
	if err := mutate(invoice); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice, loadedVersion); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, invoice)
	return toInvoiceResponse(invoice), nil
}
