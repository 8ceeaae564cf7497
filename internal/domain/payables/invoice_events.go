package payables

import (
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const invoiceAggregateType = "Invoice"

// InvoiceCreatedEvent is raised when a new invoice draft is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoiceCreatedEvent creates an InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("invoice.created", invoiceAggregateType, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		SupplierID:      inv.SupplierID,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoiceLinesChangedEvent is raised when the line collection mutates and
// the header totals were recomputed
type InvoiceLinesChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	LineCount     int             `json:"line_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoiceLinesChangedEvent creates an InvoiceLinesChangedEvent
func NewInvoiceLinesChangedEvent(inv *Invoice) *InvoiceLinesChangedEvent {
	return &InvoiceLinesChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("invoice.lines_changed", invoiceAggregateType, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		LineCount:       len(inv.Lines),
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoiceSubmittedEvent is raised when a draft passes submission validation
type InvoiceSubmittedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DueDate       time.Time       `json:"due_date"`
}

// NewInvoiceSubmittedEvent creates an InvoiceSubmittedEvent
func NewInvoiceSubmittedEvent(inv *Invoice) *InvoiceSubmittedEvent {
	return &InvoiceSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("invoice.submitted", invoiceAggregateType, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		TotalAmount:     inv.TotalAmount,
		DueDate:         inv.DueDate,
	}
}

// InvoiceApprovalChangedEvent is raised when the approval status changes
type InvoiceApprovalChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber  string         `json:"invoice_number"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	Status         InvoiceStatus  `json:"status"`
}

// NewInvoiceApprovalChangedEvent creates an InvoiceApprovalChangedEvent
func NewInvoiceApprovalChangedEvent(inv *Invoice) *InvoiceApprovalChangedEvent {
	return &InvoiceApprovalChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("invoice.approval_changed", invoiceAggregateType, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		ApprovalStatus:  inv.ApprovalStatus,
		Status:          inv.Status,
	}
}

// InvoiceTermsChangedEvent is raised when a term edit changed the header
type InvoiceTermsChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber    string    `json:"invoice_number"`
	InvoiceDate      time.Time `json:"invoice_date"`
	DueDate          time.Time `json:"due_date"`
	PaymentTermsDays int       `json:"payment_terms_days"`
}

// NewInvoiceTermsChangedEvent creates an InvoiceTermsChangedEvent
func NewInvoiceTermsChangedEvent(inv *Invoice) *InvoiceTermsChangedEvent {
	return &InvoiceTermsChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("invoice.terms_changed", invoiceAggregateType, inv.ID, inv.TenantID),
		InvoiceNumber:    inv.InvoiceNumber,
		InvoiceDate:      inv.InvoiceDate,
		DueDate:          inv.DueDate,
		PaymentTermsDays: inv.PaymentTermsDays,
	}
}

// InvoicePaymentAppliedEvent is raised when a payment partially settles the
// invoice
type InvoicePaymentAppliedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	AmountDue     decimal.Decimal `json:"amount_due"`
}

// NewInvoicePaymentAppliedEvent creates an InvoicePaymentAppliedEvent
func NewInvoicePaymentAppliedEvent(inv *Invoice, amount decimal.Decimal, paymentID uuid.UUID) *InvoicePaymentAppliedEvent {
	return &InvoicePaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("invoice.payment_applied", invoiceAggregateType, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		PaymentID:       paymentID,
		Amount:          amount,
		AmountDue:       inv.AmountDue,
	}
}

// InvoicePaidEvent is raised when the amount due reaches zero
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoicePaidEvent creates an InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("invoice.paid", invoiceAggregateType, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoiceCancelledEvent is raised when an invoice is cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// NewInvoiceCancelledEvent creates an InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("invoice.cancelled", invoiceAggregateType, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          inv.CancelReason,
	}
}

// InvoiceVoidedEvent is raised when an invoice is voided
type InvoiceVoidedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// NewInvoiceVoidedEvent creates an InvoiceVoidedEvent
func NewInvoiceVoidedEvent(inv *Invoice) *InvoiceVoidedEvent {
	return &InvoiceVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("invoice.voided", invoiceAggregateType, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          inv.VoidReason,
	}
}
