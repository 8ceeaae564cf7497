package payables

import (
	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const paymentAggregateType = "Payment"

// PaymentCreatedEvent is raised when a new payment draft is created
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string    `json:"payment_number"`
	SupplierID    uuid.UUID `json:"supplier_id"`
}

// NewPaymentCreatedEvent creates a PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("payment.created", paymentAggregateType, p.ID, p.TenantID),
		PaymentNumber:   p.PaymentNumber,
		SupplierID:      p.SupplierID,
	}
}

// PaymentApplicationsChangedEvent is raised when the application set of a
// draft payment mutates, including refresh clamps
type PaymentApplicationsChangedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber    string          `json:"payment_number"`
	ApplicationCount int             `json:"application_count"`
	Amount           decimal.Decimal `json:"amount"`
	AppliedAmount    decimal.Decimal `json:"applied_amount"`
}

// NewPaymentApplicationsChangedEvent creates a PaymentApplicationsChangedEvent
func NewPaymentApplicationsChangedEvent(p *Payment) *PaymentApplicationsChangedEvent {
	return &PaymentApplicationsChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("payment.applications_changed", paymentAggregateType, p.ID, p.TenantID),
		PaymentNumber:    p.PaymentNumber,
		ApplicationCount: len(p.Applications),
		Amount:           p.Amount,
		AppliedAmount:    p.AppliedAmount(),
	}
}

// PaymentFinalizedEvent is raised when a draft payment is executed
type PaymentFinalizedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	Amount        decimal.Decimal `json:"amount"`
	InvoiceIDs    []uuid.UUID     `json:"invoice_ids"`
}

// NewPaymentFinalizedEvent creates a PaymentFinalizedEvent
func NewPaymentFinalizedEvent(p *Payment) *PaymentFinalizedEvent {
	return &PaymentFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("payment.finalized", paymentAggregateType, p.ID, p.TenantID),
		PaymentNumber:   p.PaymentNumber,
		SupplierID:      p.SupplierID,
		Amount:          p.Amount,
		InvoiceIDs:      p.AppliedInvoiceIDs(),
	}
}

// PaymentCancelledEvent is raised when a draft payment is abandoned
type PaymentCancelledEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string `json:"payment_number"`
}

// NewPaymentCancelledEvent creates a PaymentCancelledEvent
func NewPaymentCancelledEvent(p *Payment) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("payment.cancelled", paymentAggregateType, p.ID, p.TenantID),
		PaymentNumber:   p.PaymentNumber,
	}
}
