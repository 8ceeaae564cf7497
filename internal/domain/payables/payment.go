package payables

import (
	"fmt"
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/erp/payables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle status of a supplier payment
type PaymentStatus string

const (
	PaymentStatusDraft     PaymentStatus = "DRAFT"     // Editable, applications mutate freely
	PaymentStatusPaid      PaymentStatus = "PAID"      // Executed, frozen
	PaymentStatusCancelled PaymentStatus = "CANCELLED" // Abandoned draft
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusDraft, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentMethod represents the settlement channel of a payment
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCheck, PaymentMethodCash, PaymentMethodCard:
		return true
	}
	return false
}

// PaymentApplication allocates part of a payment to one invoice. A payment
// holds at most one application per invoice.
type PaymentApplication struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	PaymentID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	InvoiceNumber string          `gorm:"type:varchar(50);not null" json:"invoice_number"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
}

// TableName returns the table name for GORM
func (PaymentApplication) TableName() string {
	return "payment_applications"
}

// Payment is the supplier payment aggregate root. While DRAFT, the payment
// amount is derived as the sum of its applications; a refresh against current
// invoice balances may clamp applications below the recorded amount, and the
// resulting unapplied remainder is surfaced rather than hidden.
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_payment_tenant_number,priority:2" json:"payment_number"`
	SupplierID    uuid.UUID            `gorm:"type:uuid;not null;index" json:"supplier_id"`
	SupplierName  string               `gorm:"type:varchar(200)" json:"supplier_name"`
	PaymentDate   time.Time            `gorm:"not null" json:"payment_date"`
	Method        PaymentMethod        `gorm:"type:varchar(20);not null" json:"method"`
	BankAccountID *uuid.UUID           `gorm:"type:uuid" json:"bank_account_id,omitempty"`
	Reference     string               `gorm:"type:varchar(100)" json:"reference,omitempty"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null" json:"currency"`
	Amount        decimal.Decimal      `gorm:"type:decimal(18,4);not null" json:"amount"`
	Status        PaymentStatus        `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Provisional   bool                 `gorm:"not null;default:false" json:"provisional"`
	Applications  []PaymentApplication `gorm:"foreignKey:PaymentID;references:ID" json:"applications"`
	Notes         string               `gorm:"type:varchar(1000)" json:"notes,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a new draft payment with no applications yet
func NewPayment(
	tenantID uuid.UUID,
	paymentNumber string,
	supplierID uuid.UUID,
	supplierName string,
	paymentDate time.Time,
	method PaymentMethod,
	currency valueobject.Currency,
) (*Payment, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if len(paymentNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Invalid payment method: %s", method))
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency is required")
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       paymentNumber,
		SupplierID:          supplierID,
		SupplierName:        supplierName,
		PaymentDate:         CalendarDay(paymentDate),
		Method:              method,
		Currency:            currency,
		Amount:              decimal.Zero,
		Status:              PaymentStatusDraft,
		Applications:        make([]PaymentApplication, 0),
	}

	p.AddDomainEvent(NewPaymentCreatedEvent(p))

	return p, nil
}

// AppliedAmount returns the sum over all applications
func (p *Payment) AppliedAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Applications {
		total = total.Add(p.Applications[i].Amount)
	}
	return total
}

// UnappliedAmount is the part of the payment amount not allocated to any
// invoice. It is zero right after application edits and can become positive
// when a refresh clamps applications against shrunken invoice balances.
func (p *Payment) UnappliedAmount() decimal.Decimal {
	return p.Amount.Sub(p.AppliedAmount())
}

// AddApplication allocates an amount of the payment to an invoice. While
// DRAFT the payment amount follows the applications, so adding one raises
// the amount by the same value.
func (p *Payment) AddApplication(invoiceID uuid.UUID, invoiceNumber string, amount decimal.Decimal) error {
	if p.Status != PaymentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify applications of payment in %s status", p.Status))
	}
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("Application amount must be positive")
	}
	if p.applicationIndex(invoiceID) >= 0 {
		return shared.NewDomainError("DUPLICATE_APPLICATION", fmt.Sprintf("Invoice %s is already applied on this payment", invoiceNumber))
	}

	p.Applications = append(p.Applications, PaymentApplication{
		ID:            uuid.New(),
		PaymentID:     p.ID,
		InvoiceID:     invoiceID,
		InvoiceNumber: invoiceNumber,
		Amount:        amount,
	})
	p.recomputeAmount()

	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentApplicationsChangedEvent(p))

	return nil
}

// UpdateApplication changes the allocated amount for an invoice
func (p *Payment) UpdateApplication(invoiceID uuid.UUID, amount decimal.Decimal) error {
	if p.Status != PaymentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify applications of payment in %s status", p.Status))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("Application amount must be positive")
	}

	idx := p.applicationIndex(invoiceID)
	if idx < 0 {
		return shared.NewDomainError("APPLICATION_NOT_FOUND", "Payment has no application for this invoice")
	}

	p.Applications[idx].Amount = amount
	p.recomputeAmount()

	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentApplicationsChangedEvent(p))

	return nil
}

// RemoveApplication drops the allocation for an invoice
func (p *Payment) RemoveApplication(invoiceID uuid.UUID) error {
	if p.Status != PaymentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify applications of payment in %s status", p.Status))
	}

	idx := p.applicationIndex(invoiceID)
	if idx < 0 {
		return shared.NewDomainError("APPLICATION_NOT_FOUND", "Payment has no application for this invoice")
	}

	p.Applications = append(p.Applications[:idx], p.Applications[idx+1:]...)
	p.recomputeAmount()

	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentApplicationsChangedEvent(p))

	return nil
}

// applicationIndex returns the index of the application for the given
// invoice, or -1
func (p *Payment) applicationIndex(invoiceID uuid.UUID) int {
	for i := range p.Applications {
		if p.Applications[i].InvoiceID == invoiceID {
			return i
		}
	}
	return -1
}

// recomputeAmount rederives the payment amount from the applications.
// Only application edits do this; balance refreshes deliberately leave the
// amount alone so a clamped allocation shows up as an unapplied remainder.
func (p *Payment) recomputeAmount() {
	p.Amount = p.AppliedAmount()
}

// clampApplication lowers the application for the given invoice without
// recomputing the payment amount. Used by the refresh path only.
func (p *Payment) clampApplication(invoiceID uuid.UUID, amount decimal.Decimal) {
	idx := p.applicationIndex(invoiceID)
	if idx < 0 {
		return
	}
	p.Applications[idx].Amount = amount
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// dropApplication removes the application for the given invoice without
// recomputing the payment amount. Used by the refresh path only.
func (p *Payment) dropApplication(invoiceID uuid.UUID) {
	idx := p.applicationIndex(invoiceID)
	if idx < 0 {
		return
	}
	p.Applications = append(p.Applications[:idx], p.Applications[idx+1:]...)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Finalize executes the payment, moving it DRAFT -> PAID. The transition is
// one-way: a paid payment can never return to draft, and all application
// mutators reject it afterwards.
func (p *Payment) Finalize() error {
	if p.Status != PaymentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot finalize payment in %s status", p.Status))
	}
	if len(p.Applications) == 0 {
		return shared.NewDomainError("NO_APPLICATIONS", "Payment must be applied to at least one invoice")
	}
	if !p.Amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be positive")
	}
	if !p.UnappliedAmount().IsZero() {
		return shared.NewDomainError("UNAPPLIED_AMOUNT", fmt.Sprintf("Payment has an unapplied amount of %s", p.UnappliedAmount().StringFixed(2)))
	}

	now := time.Now()
	p.Status = PaymentStatusPaid
	p.PaidAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentFinalizedEvent(p))

	return nil
}

// Cancel abandons a draft payment
func (p *Payment) Cancel() error {
	if p.Status != PaymentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel payment in %s status", p.Status))
	}

	now := time.Now()
	p.Status = PaymentStatusCancelled
	p.CancelledAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentCancelledEvent(p))

	return nil
}

// Promote turns a provisional scratch draft into an ordinary saved draft.
// Saved drafts are no longer subject to abandoned-draft cleanup.
func (p *Payment) Promote() {
	if !p.Provisional {
		return
	}
	p.Provisional = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Helper methods

// IsDraft returns true if the payment is editable
func (p *Payment) IsDraft() bool {
	return p.Status == PaymentStatusDraft
}

// IsPaid returns true if the payment was executed
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.MustMoney(p.Amount, p.Currency)
}

// AppliedInvoiceIDs returns the invoice IDs this payment is applied to
func (p *Payment) AppliedInvoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Applications))
	for i := range p.Applications {
		ids = append(ids, p.Applications[i].InvoiceID)
	}
	return ids
}
