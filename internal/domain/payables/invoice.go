package payables

import (
	"fmt"
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/erp/payables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of a supplier invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"     // Editable, lines mutate freely
	InvoiceStatusPending   InvoiceStatus = "PENDING"   // Submitted, awaiting approval
	InvoiceStatusOpen      InvoiceStatus = "OPEN"      // Approved, outstanding balance > 0
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // Fully settled, amount due = 0
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // Cancelled before any payment
	InvoiceStatusVoid      InvoiceStatus = "VOID"      // Voided, no longer payable
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusOpen,
		InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled || s == InvoiceStatusVoid
}

// CanApplyPayment returns true if payments can be applied in this status
func (s InvoiceStatus) CanApplyPayment() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusOpen
}

// CanEditLines returns true if the line collection may be mutated
func (s InvoiceStatus) CanEditLines() bool {
	return s == InvoiceStatusDraft
}

// ApprovalStatus is the approval axis of an invoice. It is set by an external
// approval flow and is independent of the lifecycle status.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// IsValid checks if the approval status is valid
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// LineInput carries the user-editable fields of an invoice line.
// Zero quantity and price are tolerated while editing so fields can be
// filled in any order; Submit enforces the strict constraints.
type LineInput struct {
	ItemID      *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // percentage

	// Pre-computed amounts from a source document. When set they override
	// the values derived from quantity, price and rate.
	LineAmount *decimal.Decimal
	TaxAmount  *decimal.Decimal
}

// InvoiceLine represents a single line of an invoice
type InvoiceLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	LineNumber  int             `gorm:"not null" json:"line_number"`
	ItemID      *uuid.UUID      `gorm:"type:uuid" json:"item_id,omitempty"`
	Description string          `gorm:"type:varchar(500)" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	LineAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_amount"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"tax_rate"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"tax_amount"`
}

// TableName returns the table name for GORM
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// newInvoiceLine builds a line from user input, deriving the computed amounts
func newInvoiceLine(invoiceID uuid.UUID, lineNumber int, in LineInput) InvoiceLine {
	l := InvoiceLine{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		LineNumber:  lineNumber,
		ItemID:      in.ItemID,
		Description: in.Description,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		TaxRate:     in.TaxRate,
	}
	l.computeAmounts()
	if in.LineAmount != nil {
		l.LineAmount = *in.LineAmount
	}
	if in.TaxAmount != nil {
		l.TaxAmount = *in.TaxAmount
	}
	return l
}

// computeAmounts derives line amount and tax amount from the editable fields
func (l *InvoiceLine) computeAmounts() {
	l.LineAmount = l.Quantity.Mul(l.UnitPrice)
	l.TaxAmount = l.LineAmount.Mul(l.TaxRate).Div(decimal.NewFromInt(100))
}

// InvoicePaymentRecord is the audit trail of a payment applied to an invoice
type InvoicePaymentRecord struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	AppliedAt time.Time       `gorm:"not null" json:"applied_at"`
}

// TableName returns the table name for GORM
func (InvoicePaymentRecord) TableName() string {
	return "invoice_payment_records"
}

// Invoice is the accounts-payable invoice aggregate root. Header totals are
// derived from the line collection by full recomputation on every mutation.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber    string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2" json:"invoice_number"`
	SupplierID       uuid.UUID              `gorm:"type:uuid;not null;index" json:"supplier_id"`
	SupplierName     string                 `gorm:"type:varchar(200)" json:"supplier_name"`
	SiteID           uuid.UUID              `gorm:"type:uuid" json:"site_id"`
	SourceReceiptID  *uuid.UUID             `gorm:"type:uuid;index" json:"source_receipt_id,omitempty"`
	InvoiceDate      time.Time              `gorm:"not null" json:"invoice_date"`
	DueDate          time.Time              `gorm:"not null" json:"due_date"`
	PaymentTermsDays int                    `gorm:"not null" json:"payment_terms_days"`
	Currency         valueobject.Currency   `gorm:"type:varchar(3);not null" json:"currency"`
	ExchangeRate     decimal.Decimal        `gorm:"type:decimal(18,8);not null" json:"exchange_rate"`
	Subtotal         decimal.Decimal        `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	TaxAmount        decimal.Decimal        `gorm:"type:decimal(18,4);not null" json:"tax_amount"`
	TotalAmount      decimal.Decimal        `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	PaidAmount       decimal.Decimal        `gorm:"type:decimal(18,4);not null" json:"paid_amount"`
	AmountDue        decimal.Decimal        `gorm:"type:decimal(18,4);not null" json:"amount_due"`
	Status           InvoiceStatus          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	ApprovalStatus   ApprovalStatus         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"approval_status"`
	Lines            []InvoiceLine          `gorm:"foreignKey:InvoiceID;references:ID" json:"lines"`
	PaymentRecords   []InvoicePaymentRecord `gorm:"foreignKey:InvoiceID;references:ID" json:"payment_records,omitempty"`
	CancelledAt      *time.Time             `json:"cancelled_at,omitempty"`
	CancelReason     string                 `gorm:"type:varchar(500)" json:"cancel_reason,omitempty"`
	VoidedAt         *time.Time             `json:"voided_at,omitempty"`
	VoidReason       string                 `gorm:"type:varchar(500)" json:"void_reason,omitempty"`
	PaidAt           *time.Time             `json:"paid_at,omitempty"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new draft invoice with a single initial line. An
// invoice always carries at least one line, so the first line is part of
// construction rather than a separate mutation.
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	supplierID uuid.UUID,
	supplierName string,
	siteID uuid.UUID,
	invoiceDate time.Time,
	paymentTermsDays int,
	currency valueobject.Currency,
	exchangeRate decimal.Decimal,
	firstLine LineInput,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if invoiceDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INVOICE_DATE", "Invoice date is required")
	}
	if paymentTermsDays < 0 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TERMS", "Payment terms cannot be negative")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency is required")
	}
	if exchangeRate.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_EXCHANGE_RATE", "Exchange rate must be positive")
	}
	if err := validateLineInput(firstLine); err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		SupplierID:          supplierID,
		SupplierName:        supplierName,
		SiteID:              siteID,
		InvoiceDate:         CalendarDay(invoiceDate),
		DueDate:             CalendarDay(invoiceDate).AddDate(0, 0, paymentTermsDays),
		PaymentTermsDays:    paymentTermsDays,
		Currency:            currency,
		ExchangeRate:        exchangeRate,
		PaidAmount:          decimal.Zero,
		Status:              InvoiceStatusDraft,
		ApprovalStatus:      ApprovalStatusPending,
		Lines:               make([]InvoiceLine, 0, 1),
		PaymentRecords:      make([]InvoicePaymentRecord, 0),
	}
	inv.Lines = append(inv.Lines, newInvoiceLine(inv.ID, 1, firstLine))
	inv.recomputeTotals()

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// validateLineInput checks the editing-time constraints. Zero values are
// allowed transiently; negative values never are.
func validateLineInput(in LineInput) error {
	if in.Quantity.IsNegative() {
		return shared.NewValidationError("Line quantity cannot be negative")
	}
	if in.UnitPrice.IsNegative() {
		return shared.NewValidationError("Line unit price cannot be negative")
	}
	if in.TaxRate.IsNegative() {
		return shared.NewValidationError("Line tax rate cannot be negative")
	}
	return nil
}

// AddLine appends a line to the invoice and recomputes the header totals
func (inv *Invoice) AddLine(in LineInput) (*InvoiceLine, error) {
	if !inv.Status.CanEditLines() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit lines of invoice in %s status", inv.Status))
	}
	if err := validateLineInput(in); err != nil {
		return nil, err
	}

	line := newInvoiceLine(inv.ID, len(inv.Lines)+1, in)
	inv.Lines = append(inv.Lines, line)
	inv.recomputeTotals()

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceLinesChangedEvent(inv))

	return &inv.Lines[len(inv.Lines)-1], nil
}

// UpdateLine replaces the editable fields of the line with the given number
// and recomputes the header totals
func (inv *Invoice) UpdateLine(lineNumber int, in LineInput) error {
	if !inv.Status.CanEditLines() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit lines of invoice in %s status", inv.Status))
	}
	if err := validateLineInput(in); err != nil {
		return err
	}

	idx := inv.lineIndex(lineNumber)
	if idx < 0 {
		return shared.NewDomainError("LINE_NOT_FOUND", fmt.Sprintf("Invoice has no line %d", lineNumber))
	}

	line := &inv.Lines[idx]
	line.ItemID = in.ItemID
	line.Description = in.Description
	line.Quantity = in.Quantity
	line.UnitPrice = in.UnitPrice
	line.TaxRate = in.TaxRate
	line.computeAmounts()
	inv.recomputeTotals()

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceLinesChangedEvent(inv))

	return nil
}

// RemoveLine deletes a line, renumbers the survivors contiguously and
// recomputes the header totals. Removing the last remaining line is rejected;
// an invoice always has at least one line.
func (inv *Invoice) RemoveLine(lineNumber int) error {
	if !inv.Status.CanEditLines() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit lines of invoice in %s status", inv.Status))
	}
	if len(inv.Lines) <= 1 {
		return shared.NewDomainError("LAST_LINE", "Cannot remove the only line of an invoice")
	}

	idx := inv.lineIndex(lineNumber)
	if idx < 0 {
		return shared.NewDomainError("LINE_NOT_FOUND", fmt.Sprintf("Invoice has no line %d", lineNumber))
	}

	inv.Lines = append(inv.Lines[:idx], inv.Lines[idx+1:]...)
	inv.renumberLines()
	inv.recomputeTotals()

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceLinesChangedEvent(inv))

	return nil
}

// replaceLines swaps the whole line collection. Used by the receipt importer,
// which guarantees the new set is non-empty and contiguously numbered.
func (inv *Invoice) replaceLines(lines []InvoiceLine) {
	inv.Lines = lines
	inv.recomputeTotals()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// lineIndex returns the index of the line with the given number, or -1
func (inv *Invoice) lineIndex(lineNumber int) int {
	for i := range inv.Lines {
		if inv.Lines[i].LineNumber == lineNumber {
			return i
		}
	}
	return -1
}

// renumberLines reassigns contiguous line numbers starting at 1
func (inv *Invoice) renumberLines() {
	for i := range inv.Lines {
		inv.Lines[i].LineNumber = i + 1
	}
}

// recomputeTotals derives the header amounts by full summation over the line
// collection. No incremental deltas are kept; summing from scratch avoids
// accumulated drift across long edit sessions.
func (inv *Invoice) recomputeTotals() {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for i := range inv.Lines {
		subtotal = subtotal.Add(inv.Lines[i].LineAmount)
		tax = tax.Add(inv.Lines[i].TaxAmount)
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = tax
	inv.TotalAmount = subtotal.Add(tax)
	inv.AmountDue = inv.TotalAmount.Sub(inv.PaidAmount)
}

// Submit validates the invoice for submission and moves it DRAFT -> PENDING.
// Submission is stricter than editing: every line must carry a description,
// a positive quantity and a positive unit price.
func (inv *Invoice) Submit() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit invoice in %s status", inv.Status))
	}
	for i := range inv.Lines {
		line := &inv.Lines[i]
		if line.Description == "" {
			return shared.NewValidationError(fmt.Sprintf("Line %d is missing a description", line.LineNumber))
		}
		if !line.Quantity.IsPositive() {
			return shared.NewValidationError(fmt.Sprintf("Line %d quantity must be positive", line.LineNumber))
		}
		if !line.UnitPrice.IsPositive() {
			return shared.NewValidationError(fmt.Sprintf("Line %d unit price must be positive", line.LineNumber))
		}
	}

	inv.Status = InvoiceStatusPending
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceSubmittedEvent(inv))

	return nil
}

// SetApprovalStatus records an externally decided approval status. Approving
// a pending invoice opens it for payment.
func (inv *Invoice) SetApprovalStatus(status ApprovalStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_APPROVAL_STATUS", "Approval status is not valid")
	}
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot change approval of invoice in %s status", inv.Status))
	}
	if inv.ApprovalStatus == status {
		return nil
	}

	inv.ApprovalStatus = status
	if status == ApprovalStatusApproved && inv.Status == InvoiceStatusPending {
		inv.Status = InvoiceStatusOpen
	}
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceApprovalChangedEvent(inv))

	return nil
}

// ApplyTermEdit runs the term synchronizer against the invoice header and
// writes back only the fields it actually changed.
func (inv *Invoice) ApplyTermEdit(edit TermEdit) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit terms of invoice in %s status", inv.Status))
	}

	result := SyncTerms(TermInput{
		InvoiceDate:      edit.value(TermFieldInvoiceDate, inv.InvoiceDate),
		DueDate:          edit.value(TermFieldDueDate, inv.DueDate),
		PaymentTermsDays: edit.days(inv.PaymentTermsDays),
	}, edit.Field)

	changed := false
	if !result.InvoiceDate.Equal(inv.InvoiceDate) {
		inv.InvoiceDate = result.InvoiceDate
		changed = true
	}
	if result.DueDateChanged || !result.DueDate.Equal(inv.DueDate) {
		inv.DueDate = result.DueDate
		changed = true
	}
	if result.PaymentTermsDays != inv.PaymentTermsDays {
		inv.PaymentTermsDays = result.PaymentTermsDays
		changed = true
	}
	if !changed {
		return nil
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceTermsChangedEvent(inv))

	return nil
}

// ApplyPayment applies a payment against the invoice, reducing the amount
// due. The invoice derives PAID once the amount due reaches zero.
func (inv *Invoice) ApplyPayment(amount valueobject.Money, paymentID uuid.UUID) error {
	if !inv.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.Status))
	}
	if paymentID == uuid.Nil {
		return shared.NewDomainError("INVALID_PAYMENT", "Payment ID cannot be empty")
	}
	if amount.Currency() != inv.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH", fmt.Sprintf("Payment currency %s does not match invoice currency %s", amount.Currency(), inv.Currency))
	}
	if !amount.Amount().IsPositive() {
		return shared.NewValidationError("Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(inv.AmountDue) {
		return shared.NewDomainError("EXCEEDS_AMOUNT_DUE", fmt.Sprintf("Payment amount %s exceeds amount due %s", amount.Amount().StringFixed(2), inv.AmountDue.StringFixed(2)))
	}

	inv.PaymentRecords = append(inv.PaymentRecords, InvoicePaymentRecord{
		ID:        uuid.New(),
		InvoiceID: inv.ID,
		PaymentID: paymentID,
		Amount:    amount.Amount(),
		AppliedAt: time.Now(),
	})

	inv.PaidAmount = inv.PaidAmount.Add(amount.Amount())
	inv.AmountDue = inv.TotalAmount.Sub(inv.PaidAmount)

	if inv.AmountDue.IsZero() {
		now := time.Now()
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &now
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else {
		inv.AddDomainEvent(NewInvoicePaymentAppliedEvent(inv, amount.Amount(), paymentID))
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// Cancel cancels the invoice. Only invoices without any applied payment can
// be cancelled.
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	if inv.PaidAmount.IsPositive() {
		return shared.NewDomainError("HAS_PAYMENTS", "Cannot cancel invoice with existing payments")
	}
	if reason == "" {
		return shared.NewValidationError("Cancel reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.AmountDue = decimal.Zero
	inv.UpdatedAt = now
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))

	return nil
}

// Void voids the invoice from any non-terminal state
func (inv *Invoice) Void(reason string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot void invoice in %s status", inv.Status))
	}
	if reason == "" {
		return shared.NewValidationError("Void reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusVoid
	inv.VoidedAt = &now
	inv.VoidReason = reason
	inv.AmountDue = decimal.Zero
	inv.UpdatedAt = now
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceVoidedEvent(inv))

	return nil
}

// Helper methods

// GetAmountDueMoney returns the amount due as Money
func (inv *Invoice) GetAmountDueMoney() valueobject.Money {
	return valueobject.MustMoney(inv.AmountDue, inv.Currency)
}

// GetTotalAmountMoney returns the total amount as Money
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.MustMoney(inv.TotalAmount, inv.Currency)
}

// IsDraft returns true if the invoice is a draft
func (inv *Invoice) IsDraft() bool {
	return inv.Status == InvoiceStatusDraft
}

// IsPaid returns true if the invoice is fully settled
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsApproved returns true if the external approval flow approved the invoice
func (inv *Invoice) IsApproved() bool {
	return inv.ApprovalStatus == ApprovalStatusApproved
}

// LineCount returns the number of lines
func (inv *Invoice) LineCount() int {
	return len(inv.Lines)
}

// IsOverdue returns true if the invoice is past its due date and not settled
func (inv *Invoice) IsOverdue() bool {
	if inv.Status.IsTerminal() {
		return false
	}
	return time.Now().After(inv.DueDate)
}
