package payables

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DraftDiscardReason explains why an abandoned new draft was not kept
type DraftDiscardReason string

const (
	DraftKept               DraftDiscardReason = ""
	DraftDiscardNotDraft    DraftDiscardReason = "NOT_DRAFT"
	DraftDiscardNoNumber    DraftDiscardReason = "NO_NUMBER"
	DraftDiscardNoSupplier  DraftDiscardReason = "NO_SUPPLIER"
	DraftDiscardNoDate      DraftDiscardReason = "NO_DATE"
	DraftDiscardBadMethod   DraftDiscardReason = "INVALID_METHOD"
	DraftDiscardNoLines     DraftDiscardReason = "NO_APPLICATIONS"
	DraftDiscardBadAmount   DraftDiscardReason = "NON_POSITIVE_AMOUNT"
	DraftDiscardOverApplied DraftDiscardReason = "EXCEEDS_AMOUNT_DUE"
	DraftDiscardUnbalanced  DraftDiscardReason = "AMOUNT_MISMATCH"
)

// EvaluateAbandonedDraft decides whether a new draft payment the user walked
// away from is worth keeping. The bar is deliberately exact: the draft is
// kept only when it could be reopened and finalized without repair. Anything
// short of that is discarded rather than saved as a broken stub.
//
// amountDue maps each applied invoice to its current amount due; a missing
// entry means the invoice could not be loaded and fails the check.
//
// isNew reports whether the draft was never explicitly saved. The policy
// only governs new drafts; one the user already saved is kept regardless of
// shape.
func EvaluateAbandonedDraft(p *Payment, isNew bool, amountDue map[uuid.UUID]decimal.Decimal) DraftDiscardReason {
	if !isNew {
		return DraftKept
	}
	if p.Status != PaymentStatusDraft {
		return DraftDiscardNotDraft
	}
	if p.PaymentNumber == "" {
		return DraftDiscardNoNumber
	}
	if p.SupplierID == uuid.Nil {
		return DraftDiscardNoSupplier
	}
	if p.PaymentDate.IsZero() {
		return DraftDiscardNoDate
	}
	if !p.Method.IsValid() {
		return DraftDiscardBadMethod
	}
	if len(p.Applications) == 0 {
		return DraftDiscardNoLines
	}
	for i := range p.Applications {
		app := &p.Applications[i]
		if !app.Amount.IsPositive() {
			return DraftDiscardBadAmount
		}
		due, ok := amountDue[app.InvoiceID]
		if !ok || app.Amount.GreaterThan(due) {
			return DraftDiscardOverApplied
		}
	}
	if !p.Amount.Equal(p.AppliedAmount()) {
		return DraftDiscardUnbalanced
	}
	return DraftKept
}

// ShouldPersistAbandonedDraft is the boolean form of EvaluateAbandonedDraft
func ShouldPersistAbandonedDraft(p *Payment, isNew bool, amountDue map[uuid.UUID]decimal.Decimal) bool {
	return EvaluateAbandonedDraft(p, isNew, amountDue) == DraftKept
}
