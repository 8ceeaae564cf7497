package payables

import (
	"fmt"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IneligibilityReason explains why an invoice cannot receive a payment
// allocation
type IneligibilityReason string

const (
	IneligibilityNone        IneligibilityReason = ""
	IneligibilityNotApproved IneligibilityReason = "NOT_APPROVED"
	IneligibilityStatus      IneligibilityReason = "STATUS"
	IneligibilityNothingDue  IneligibilityReason = "NOTHING_DUE"
	IneligibilitySupplier    IneligibilityReason = "SUPPLIER_MISMATCH"
	IneligibilityCurrency    IneligibilityReason = "CURRENCY_MISMATCH"
)

// ClampedApplication records a refresh adjustment to one application, so the
// caller can put the decrease in front of the user instead of absorbing it
// silently.
type ClampedApplication struct {
	InvoiceID      uuid.UUID
	InvoiceNumber  string
	PreviousAmount decimal.Decimal
	NewAmount      decimal.Decimal
	Removed        bool
	Reason         IneligibilityReason
}

// RefreshResult is the outcome of re-validating a draft payment's
// applications against current invoice balances
type RefreshResult struct {
	Clamped         []ClampedApplication
	UnappliedAmount decimal.Decimal
}

// Changed reports whether the refresh adjusted any application
func (r RefreshResult) Changed() bool {
	return len(r.Clamped) > 0
}

// AllocationEngine matches draft payments to payable invoices. It owns the
// eligibility rules and the clamping behavior shared by allocation and
// refresh.
type AllocationEngine struct{}

// NewAllocationEngine creates an allocation engine
func NewAllocationEngine() *AllocationEngine {
	return &AllocationEngine{}
}

// CheckEligibility reports whether the invoice can receive an allocation
// from the given payment. An empty reason means eligible.
func (e *AllocationEngine) CheckEligibility(p *Payment, inv *Invoice) IneligibilityReason {
	if inv.SupplierID != p.SupplierID {
		return IneligibilitySupplier
	}
	if inv.Currency != p.Currency {
		return IneligibilityCurrency
	}
	if !inv.Status.CanApplyPayment() {
		return IneligibilityStatus
	}
	if !inv.IsApproved() {
		return IneligibilityNotApproved
	}
	if !inv.AmountDue.IsPositive() {
		return IneligibilityNothingDue
	}
	return IneligibilityNone
}

// FilterEligible returns the subset of invoices the payment can be applied
// to, excluding ones it already covers. This is an advisory narrowing for
// pickers; the authoritative checks run again at allocation and commit time.
func (e *AllocationEngine) FilterEligible(p *Payment, invoices []*Invoice) []*Invoice {
	eligible := make([]*Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if p.applicationIndex(inv.ID) >= 0 {
			continue
		}
		if e.CheckEligibility(p, inv) != IneligibilityNone {
			continue
		}
		eligible = append(eligible, inv)
	}
	return eligible
}

// Allocate applies the invoice to the payment for its full amount due. Full
// settlement is the default posture; use AllocatePartial for a smaller
// amount.
func (e *AllocationEngine) Allocate(p *Payment, inv *Invoice) error {
	return e.AllocatePartial(p, inv, inv.AmountDue)
}

// AllocatePartial applies the invoice to the payment for the given amount,
// which must not exceed the invoice's current amount due
func (e *AllocationEngine) AllocatePartial(p *Payment, inv *Invoice, amount decimal.Decimal) error {
	if reason := e.CheckEligibility(p, inv); reason != IneligibilityNone {
		return shared.NewDomainError("INVOICE_NOT_ELIGIBLE", fmt.Sprintf("Invoice %s is not eligible for payment: %s", inv.InvoiceNumber, reason))
	}
	if amount.GreaterThan(inv.AmountDue) {
		return shared.NewDomainError("EXCEEDS_AMOUNT_DUE", fmt.Sprintf("Allocation %s exceeds amount due %s on invoice %s", amount.StringFixed(2), inv.AmountDue.StringFixed(2), inv.InvoiceNumber))
	}
	return p.AddApplication(inv.ID, inv.InvoiceNumber, amount)
}

// Refresh re-validates every application of a draft payment against current
// invoice state. Applications are clamped down to the invoice's amount due
// when it shrank, and dropped when the invoice is no longer eligible. The
// payment amount is left as recorded, so any freed allocation surfaces as an
// unapplied remainder in the result instead of vanishing.
//
// The lookup receives each applied invoice ID; returning nil counts as
// ineligible.
func (e *AllocationEngine) Refresh(p *Payment, lookup func(uuid.UUID) *Invoice) (RefreshResult, error) {
	if p.Status != PaymentStatusDraft {
		return RefreshResult{}, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refresh payment in %s status", p.Status))
	}

	result := RefreshResult{}
	// Snapshot the IDs first; clamping mutates the application slice.
	for _, invoiceID := range p.AppliedInvoiceIDs() {
		idx := p.applicationIndex(invoiceID)
		app := p.Applications[idx]

		inv := lookup(invoiceID)
		if inv == nil {
			p.dropApplication(invoiceID)
			result.Clamped = append(result.Clamped, ClampedApplication{
				InvoiceID:      invoiceID,
				InvoiceNumber:  app.InvoiceNumber,
				PreviousAmount: app.Amount,
				NewAmount:      decimal.Zero,
				Removed:        true,
				Reason:         IneligibilityStatus,
			})
			continue
		}

		if reason := e.CheckEligibility(p, inv); reason != IneligibilityNone {
			p.dropApplication(invoiceID)
			result.Clamped = append(result.Clamped, ClampedApplication{
				InvoiceID:      invoiceID,
				InvoiceNumber:  inv.InvoiceNumber,
				PreviousAmount: app.Amount,
				NewAmount:      decimal.Zero,
				Removed:        true,
				Reason:         reason,
			})
			continue
		}

		if app.Amount.GreaterThan(inv.AmountDue) {
			p.clampApplication(invoiceID, inv.AmountDue)
			result.Clamped = append(result.Clamped, ClampedApplication{
				InvoiceID:      invoiceID,
				InvoiceNumber:  inv.InvoiceNumber,
				PreviousAmount: app.Amount,
				NewAmount:      inv.AmountDue,
			})
		}
	}

	result.UnappliedAmount = p.UnappliedAmount()

	if result.Changed() {
		p.AddDomainEvent(NewPaymentApplicationsChangedEvent(p))
	}

	return result, nil
}
