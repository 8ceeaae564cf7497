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

// PaymentService provides application-level payment operations
type PaymentService struct {
	paymentRepo  payables.PaymentRepository
	invoiceRepo  payables.InvoiceRepository
	supplierRepo payables.SupplierRepository
	engine       *payables.AllocationEngine
	arbiter      *payables.ConflictArbiter
	events       shared.EventBus
	tx           shared.TransactionManager
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo payables.PaymentRepository,
	invoiceRepo payables.InvoiceRepository,
	supplierRepo payables.SupplierRepository,
	reservations payables.DraftReservationStore,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		invoiceRepo:  invoiceRepo,
		supplierRepo: supplierRepo,
		engine:       payables.NewAllocationEngine(),
		arbiter:      payables.NewConflictArbiter(reservations),
	}
}

// SetEventPublisher wires a bus that receives domain events after each
// successful save. Without one events are silently discarded.
func (s *PaymentService) SetEventPublisher(bus shared.EventBus) {
	s.events = bus
}

// SetTransactionManager wires transactional execution for the multi-write
// operations. Without one each write commits on its own.
func (s *PaymentService) SetTransactionManager(tx shared.TransactionManager) {
	s.tx = tx
}

func (s *PaymentService) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinTransaction(ctx, fn)
}

func (s *PaymentService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	_ = s.events.Publish(ctx, events...)
}

// PaymentApplicationResponse represents a payment application in API responses
type PaymentApplicationResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID              uuid.UUID                    `json:"id"`
	TenantID        uuid.UUID                    `json:"tenant_id"`
	PaymentNumber   string                       `json:"payment_number"`
	SupplierID      uuid.UUID                    `json:"supplier_id"`
	SupplierName    string                       `json:"supplier_name"`
	PaymentDate     time.Time                    `json:"payment_date"`
	Method          string                       `json:"method"`
	Reference       string                       `json:"reference,omitempty"`
	Currency        string                       `json:"currency"`
	Amount          decimal.Decimal              `json:"amount"`
	AppliedAmount   decimal.Decimal              `json:"applied_amount"`
	UnappliedAmount decimal.Decimal              `json:"unapplied_amount"`
	Status          string                       `json:"status"`
	Provisional     bool                         `json:"provisional"`
	Applications    []PaymentApplicationResponse `json:"applications"`
	Notes           string                       `json:"notes,omitempty"`
	PaidAt          *time.Time                   `json:"paid_at,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
	Version         int                          `json:"version"`
}

func toPaymentResponse(p *payables.Payment) *PaymentResponse {
	apps := make([]PaymentApplicationResponse, len(p.Applications))
	for i, a := range p.Applications {
		apps[i] = PaymentApplicationResponse{
			ID:            a.ID,
			InvoiceID:     a.InvoiceID,
			InvoiceNumber: a.InvoiceNumber,
			Amount:        a.Amount,
		}
	}
	return &PaymentResponse{
		ID:              p.ID,
		TenantID:        p.TenantID,
		PaymentNumber:   p.PaymentNumber,
		SupplierID:      p.SupplierID,
		SupplierName:    p.SupplierName,
		PaymentDate:     p.PaymentDate,
		Method:          string(p.Method),
		Reference:       p.Reference,
		Currency:        string(p.Currency),
		Amount:          p.Amount,
		AppliedAmount:   p.AppliedAmount(),
		UnappliedAmount: p.UnappliedAmount(),
		Status:          string(p.Status),
		Provisional:     p.Provisional,
		Applications:    apps,
		Notes:           p.Notes,
		PaidAt:          p.PaidAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		Version:         p.Version,
	}
}

// CreatePaymentRequest represents a request to create a payment draft
type CreatePaymentRequest struct {
	PaymentNumber string     `json:"payment_number"`
	SupplierID    uuid.UUID  `json:"supplier_id" binding:"required"`
	PaymentDate   *time.Time `json:"payment_date"`
	Method        string     `json:"method" binding:"required"`
	Currency      string     `json:"currency" binding:"omitempty,currency"`
	Reference     string     `json:"reference"`
	Notes         string     `json:"notes"`
	// Provisional marks a scratch draft opened from the new-payment screen.
	// Only provisional drafts are subject to abandoned-draft cleanup.
	Provisional bool `json:"provisional"`
}

// CreatePayment creates a new draft payment for a supplier
func (s *PaymentService) CreatePayment(ctx context.Context, tenantID uuid.UUID, req CreatePaymentRequest) (*PaymentResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, tenantID, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Supplier not found")
	}

	paymentDate := time.Now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}
	currency := valueobject.Currency(req.Currency)
	if currency == "" {
		currency = valueobject.Currency(supplier.Currency)
	}
	paymentNumber := req.PaymentNumber
	if paymentNumber == "" {
		paymentNumber, err = s.paymentRepo.GeneratePaymentNumber(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	}

	payment, err := payables.NewPayment(
		tenantID,
		paymentNumber,
		supplier.ID,
		supplier.Name,
		paymentDate,
		payables.PaymentMethod(req.Method),
		currency,
	)
	if err != nil {
		return nil, err
	}
	payment.Reference = req.Reference
	payment.Notes = req.Notes
	payment.Provisional = req.Provisional

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, payment)

	return toPaymentResponse(payment), nil
}

// GetPaymentByID gets a payment by ID
func (s *PaymentService) GetPaymentByID(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.loadPayment(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(payment), nil
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	Search     string     `form:"search"`
	SupplierID *uuid.UUID `form:"supplier_id"`
	Status     string     `form:"status"`
	FromDate   *time.Time `form:"from_date"`
	ToDate     *time.Time `form:"to_date"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// ListPayments lists payments with filtering
func (s *PaymentService) ListPayments(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter := payables.PaymentFilter{
		SupplierID: filter.SupplierID,
		DateFrom:   filter.FromDate,
		DateTo:     filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search

	if filter.Status != "" {
		status := payables.PaymentStatus(filter.Status)
		domainFilter.Status = &status
	}

	page, err := s.paymentRepo.List(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PaymentResponse, len(page.Items))
	for i, p := range page.Items {
		responses[i] = *toPaymentResponse(p)
	}
	return responses, page.Total, nil
}

// ListPayableInvoices returns the invoices the payment could be applied to:
// eligible for allocation and not held by another draft payment. The result
// is advisory; the authoritative checks run again when an allocation is
// recorded.
func (s *PaymentService) ListPayableInvoices(ctx context.Context, tenantID, paymentID uuid.UUID) ([]InvoiceResponse, error) {
	payment, err := s.loadPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	filter := payables.InvoiceFilter{
		SupplierID:  &payment.SupplierID,
		OnlyPayable: true,
	}
	filter.PageSize = -1 // unpaged

	page, err := s.invoiceRepo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	eligible := s.engine.FilterEligible(payment, page.Items)
	available, err := s.arbiter.FilterAvailable(ctx, payment, eligible)
	if err != nil {
		return nil, err
	}

	responses := make([]InvoiceResponse, len(available))
	for i, inv := range available {
		responses[i] = *toInvoiceResponse(inv)
	}
	return responses, nil
}

// AllocateInvoiceRequest represents a request to apply a payment to an
// invoice. A nil amount means full settlement of the amount due.
type AllocateInvoiceRequest struct {
	InvoiceID uuid.UUID        `json:"invoice_id" binding:"required"`
	Amount    *decimal.Decimal `json:"amount"`
}

// AllocateInvoice applies the payment to an invoice. The exclusive draft
// hold is taken first; losing that race returns a conflict naming the
// payment that holds the invoice. The hold is rolled back if the allocation
// itself fails.
func (s *PaymentService) AllocateInvoice(ctx context.Context, tenantID, paymentID uuid.UUID, req AllocateInvoiceRequest) (*PaymentResponse, error) {
	payment, err := s.loadPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}

	if err := s.arbiter.Acquire(ctx, payment, invoice); err != nil {
		return nil, err
	}

	loadedVersion := payment.Version
	if req.Amount != nil {
		err = s.engine.AllocatePartial(payment, invoice, *req.Amount)
	} else {
		err = s.engine.Allocate(payment, invoice)
	}
	if err != nil {
		_ = s.arbiter.ReleaseInvoice(ctx, payment, invoice.ID)
		return nil, err
	}

	if err := s.paymentRepo.SaveWithLock(ctx, payment, loadedVersion); err != nil {
		_ = s.arbiter.ReleaseInvoice(ctx, payment, invoice.ID)
		return nil, err
	}
	s.publishEvents(ctx, payment)

	return toPaymentResponse(payment), nil
}

// UpdateAllocationRequest represents a request to change an allocated amount
type UpdateAllocationRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// UpdateAllocation changes the amount allocated to one invoice
func (s *PaymentService) UpdateAllocation(ctx context.Context, tenantID, paymentID, invoiceID uuid.UUID, req UpdateAllocationRequest) (*PaymentResponse, error) {
	payment, err := s.loadPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	if req.Amount.GreaterThan(invoice.AmountDue) {
		return nil, shared.NewDomainError("EXCEEDS_AMOUNT_DUE", "Allocation exceeds the invoice's amount due")
	}

	loadedVersion := payment.Version
	if err := payment.UpdateApplication(invoiceID, req.Amount); err != nil {
		return nil, err
	}

	if err := s.paymentRepo.SaveWithLock(ctx, payment, loadedVersion); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, payment)
	return toPaymentResponse(payment), nil
}

// RemoveAllocation drops the allocation for one invoice and releases its
// draft hold
func (s *PaymentService) RemoveAllocation(ctx context.Context, tenantID, paymentID, invoiceID uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.loadPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	loadedVersion := payment.Version
	if err := payment.RemoveApplication(invoiceID); err != nil {
		return nil, err
	}

	err = s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.paymentRepo.SaveWithLock(ctx, payment, loadedVersion); err != nil {
			return err
		}
		return s.arbiter.ReleaseInvoice(ctx, payment, invoiceID)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, payment)
	return toPaymentResponse(payment), nil
}

// ClampedAllocationResponse reports one refresh adjustment
type ClampedAllocationResponse struct {
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	NewAmount      decimal.Decimal `json:"new_amount"`
	Removed        bool            `json:"removed"`
	Reason         string          `json:"reason,omitempty"`
}

// RefreshAllocationsResult is the outcome of re-validating a draft payment
type RefreshAllocationsResult struct {
	Payment         *PaymentResponse            `json:"payment"`
	Clamped         []ClampedAllocationResponse `json:"clamped"`
	UnappliedAmount decimal.Decimal             `json:"unapplied_amount"`
}

// RefreshAllocations re-validates every allocation of a draft payment
// against current invoice balances. Shrunken balances clamp the allocation,
// settled or ineligible invoices drop it, and the freed amount is reported
// instead of silently absorbed. Holds on dropped invoices are released.
func (s *PaymentService) RefreshAllocations(ctx context.Context, tenantID, paymentID uuid.UUID) (*RefreshAllocationsResult, error) {
	payment, err := s.loadPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	loadedVersion := payment.Version
	result, err := s.refresh(ctx, tenantID, payment)
	if err != nil {
		return nil, err
	}

	if result.Changed() {
		if err := s.paymentRepo.SaveWithLock(ctx, payment, loadedVersion); err != nil {
			return nil, err
		}
		for _, clamp := range result.Clamped {
			if clamp.Removed {
				if err := s.arbiter.ReleaseInvoice(ctx, payment, clamp.InvoiceID); err != nil {
					return nil, err
				}
			}
		}
		s.publishEvents(ctx, payment)
	}

	return toRefreshResult(payment, result), nil
}

func toRefreshResult(payment *payables.Payment, result payables.RefreshResult) *RefreshAllocationsResult {
	clamped := make([]ClampedAllocationResponse, len(result.Clamped))
	for i, c := range result.Clamped {
		clamped[i] = ClampedAllocationResponse{
			InvoiceID:      c.InvoiceID,
			InvoiceNumber:  c.InvoiceNumber,
			PreviousAmount: c.PreviousAmount,
			NewAmount:      c.NewAmount,
			Removed:        c.Removed,
			Reason:         string(c.Reason),
		}
	}
	return &RefreshAllocationsResult{
		Payment:         toPaymentResponse(payment),
		Clamped:         clamped,
		UnappliedAmount: result.UnappliedAmount,
	}
}

// refresh runs the allocation engine's refresh with invoices loaded in one
// batch
func (s *PaymentService) refresh(ctx context.Context, tenantID uuid.UUID, payment *payables.Payment) (payables.RefreshResult, error) {
	invoices, err := s.invoiceRepo.FindByIDs(ctx, tenantID, payment.AppliedInvoiceIDs())
	if err != nil {
		return payables.RefreshResult{}, err
	}
	byID := make(map[uuid.UUID]*payables.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}
	return s.engine.Refresh(payment, func(id uuid.UUID) *payables.Invoice {
		return byID[id]
	})
}

// FinalizePayment executes a draft payment: allocations are re-validated
// one last time, the payment freezes, and each applied invoice absorbs its
// share. The invoice settlements, the payment save and the hold release
// commit as one transaction. A refresh that changes anything aborts the
// finalization so the user sees the adjusted draft first.
func (s *PaymentService) FinalizePayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.loadPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	loadedVersion := payment.Version
	invoices, err := s.invoiceRepo.FindByIDs(ctx, tenantID, payment.AppliedInvoiceIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*payables.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}

	result, err := s.engine.Refresh(payment, func(id uuid.UUID) *payables.Invoice {
		return byID[id]
	})
	if err != nil {
		return nil, err
	}
	if result.Changed() {
		if err := s.paymentRepo.SaveWithLock(ctx, payment, loadedVersion); err != nil {
			return nil, err
		}
		return nil, shared.NewDomainError("ALLOCATIONS_STALE", "Invoice balances changed; review the adjusted allocations before finalizing")
	}

	if err := payment.Finalize(); err != nil {
		return nil, err
	}

	err = s.withinTx(ctx, func(ctx context.Context) error {
		for _, app := range payment.Applications {
			invoice := byID[app.InvoiceID]
			invoiceVersion := invoice.Version
			if err := invoice.ApplyPayment(valueobject.MustMoney(app.Amount, payment.Currency), payment.ID); err != nil {
				return err
			}
			if err := s.invoiceRepo.SaveWithLock(ctx, invoice, invoiceVersion); err != nil {
				return err
			}
		}
		if err := s.paymentRepo.SaveWithLock(ctx, payment, loadedVersion); err != nil {
			return err
		}
		return s.arbiter.ReleasePayment(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	for _, app := range payment.Applications {
		s.publishEvents(ctx, byID[app.InvoiceID])
	}
	s.publishEvents(ctx, payment)

	return toPaymentResponse(payment), nil
}

// CancelPayment abandons a draft payment and releases its holds
func (s *PaymentService) CancelPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.loadPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	loadedVersion := payment.Version
	if err := payment.Cancel(); err != nil {
		return nil, err
	}

	err = s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.paymentRepo.SaveWithLock(ctx, payment, loadedVersion); err != nil {
			return err
		}
		return s.arbiter.ReleasePayment(ctx, payment)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, payment)
	return toPaymentResponse(payment), nil
}

// CloseAbandonedDraftResult reports whether an abandoned new draft was kept
type CloseAbandonedDraftResult struct {
	Kept   bool   `json:"kept"`
	Reason string `json:"reason,omitempty"`
}

// CloseAbandonedDraft decides the fate of a provisional draft the user
// navigated away from. Complete drafts are promoted to ordinary saved
// drafts; anything else is deleted together with its holds, so no broken
// stub survives the session. Drafts that were explicitly saved are left
// untouched.
func (s *PaymentService) CloseAbandonedDraft(ctx context.Context, tenantID, paymentID uuid.UUID) (*CloseAbandonedDraftResult, error) {
	payment, err := s.loadPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.Provisional {
		return &CloseAbandonedDraftResult{Kept: true}, nil
	}

	invoices, err := s.invoiceRepo.FindByIDs(ctx, tenantID, payment.AppliedInvoiceIDs())
	if err != nil {
		return nil, err
	}
	amountDue := make(map[uuid.UUID]decimal.Decimal, len(invoices))
	for _, inv := range invoices {
		amountDue[inv.ID] = inv.AmountDue
	}

	reason := payables.EvaluateAbandonedDraft(payment, payment.Provisional, amountDue)
	if reason == payables.DraftKept {
		payment.Promote()
		if err := s.paymentRepo.Save(ctx, payment); err != nil {
			return nil, err
		}
		return &CloseAbandonedDraftResult{Kept: true}, nil
	}

	err = s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.arbiter.ReleasePayment(ctx, payment); err != nil {
			return err
		}
		return s.paymentRepo.Delete(ctx, tenantID, payment.ID)
	})
	if err != nil {
		return nil, err
	}
	return &CloseAbandonedDraftResult{Kept: false, Reason: string(reason)}, nil
}

// CloseAbandonedDraftByID adapts CloseAbandonedDraft for callers that
// already hold the payment, such as the background draft sweeper.
func (s *PaymentService) CloseAbandonedDraftByID(ctx context.Context, payment *payables.Payment) (bool, error) {
	result, err := s.CloseAbandonedDraft(ctx, payment.TenantID, payment.ID)
	if err != nil {
		return false, err
	}
	return result.Kept, nil
}

func (s *PaymentService) loadPayment(ctx context.Context, tenantID, id uuid.UUID) (*payables.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Payment not found")
	}
	return payment, nil
}
