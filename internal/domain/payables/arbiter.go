package payables

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ConflictError reports that an invoice is already held by another draft
// payment. It carries the document numbers so the message can name the
// competing payment.
type ConflictError struct {
	InvoiceID     uuid.UUID
	InvoiceNumber string
	PaymentID     uuid.UUID
	PaymentNumber string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("invoice %s is already held by draft payment %s", e.InvoiceNumber, e.PaymentNumber)
}

// DraftReservation is one invoice held by one draft payment. A unique
// index on (tenant_id, invoice_id) makes the hold exclusive.
type DraftReservation struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_tenant_invoice,priority:1" json:"tenant_id"`
	InvoiceID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_tenant_invoice,priority:2" json:"invoice_id"`
	InvoiceNumber string    `gorm:"type:varchar(50);not null" json:"invoice_number"`
	PaymentID     uuid.UUID `gorm:"type:uuid;not null;index" json:"payment_id"`
	PaymentNumber string    `gorm:"type:varchar(50);not null" json:"payment_number"`
}

// TableName returns the table name for GORM
func (DraftReservation) TableName() string {
	return "draft_invoice_reservations"
}

// DraftReservationStore is the exclusive-hold registry for invoices on draft
// payments. Reserve must be atomic: when the invoice is already held by a
// different payment, the store returns *ConflictError naming the holder.
type DraftReservationStore interface {
	// Reserve takes the exclusive hold for the payment. Reserving an
	// invoice the same payment already holds is a no-op.
	Reserve(ctx context.Context, reservation DraftReservation) error
	// Release drops the hold of the payment on one invoice
	Release(ctx context.Context, tenantID, paymentID, invoiceID uuid.UUID) error
	// ReleaseAll drops every hold of the payment
	ReleaseAll(ctx context.Context, tenantID, paymentID uuid.UUID) error
	// HeldByOthers returns, for the given invoices, the reservations held
	// by payments other than the given one
	HeldByOthers(ctx context.Context, tenantID, paymentID uuid.UUID, invoiceIDs []uuid.UUID) ([]DraftReservation, error)
}

// ConflictArbiter enforces that an invoice sits on at most one draft payment
// at a time. Candidate pickers get an advisory filter; the reservation
// itself is the authoritative check, taken before an allocation is recorded,
// so two editors can race on the filter but not past the reserve.
type ConflictArbiter struct {
	store DraftReservationStore
}

// NewConflictArbiter creates a conflict arbiter backed by the given store
func NewConflictArbiter(store DraftReservationStore) *ConflictArbiter {
	return &ConflictArbiter{store: store}
}

// FilterAvailable removes invoices currently held by other draft payments.
// Advisory only: the set can go stale the moment it is returned.
func (a *ConflictArbiter) FilterAvailable(ctx context.Context, p *Payment, invoices []*Invoice) ([]*Invoice, error) {
	if len(invoices) == 0 {
		return invoices, nil
	}

	ids := make([]uuid.UUID, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}

	held, err := a.store.HeldByOthers(ctx, p.TenantID, p.ID, ids)
	if err != nil {
		return nil, err
	}

	taken := make(map[uuid.UUID]struct{}, len(held))
	for i := range held {
		taken[held[i].InvoiceID] = struct{}{}
	}

	available := make([]*Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if _, ok := taken[inv.ID]; ok {
			continue
		}
		available = append(available, inv)
	}
	return available, nil
}

// Acquire takes the exclusive hold on the invoice for the payment. This is
// the authoritative conflict check; a *ConflictError from the store means
// another draft payment won the invoice first.
func (a *ConflictArbiter) Acquire(ctx context.Context, p *Payment, inv *Invoice) error {
	return a.store.Reserve(ctx, DraftReservation{
		ID:            uuid.New(),
		TenantID:      p.TenantID,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		PaymentID:     p.ID,
		PaymentNumber: p.PaymentNumber,
	})
}

// ReleaseInvoice drops the payment's hold on one invoice, after its
// application is removed
func (a *ConflictArbiter) ReleaseInvoice(ctx context.Context, p *Payment, invoiceID uuid.UUID) error {
	return a.store.Release(ctx, p.TenantID, p.ID, invoiceID)
}

// ReleasePayment drops every hold of the payment, after it leaves DRAFT or
// is discarded
func (a *ConflictArbiter) ReleasePayment(ctx context.Context, p *Payment) error {
	return a.store.ReleaseAll(ctx, p.TenantID, p.ID)
}
