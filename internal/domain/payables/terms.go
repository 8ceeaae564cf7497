package payables

import "time"

// TermField identifies which header field a user edit touched. The
// synchronizer derives the dependent fields from the edited one instead of
// guessing from value diffs.
type TermField string

const (
	TermFieldInvoiceDate TermField = "invoice_date"
	TermFieldDueDate     TermField = "due_date"
	TermFieldTermsDays   TermField = "terms_days"
)

// TermInput is the payment-term triple after a user edit
type TermInput struct {
	InvoiceDate      time.Time
	DueDate          time.Time
	PaymentTermsDays int
}

// TermResult is the synchronized triple. DueDateChanged reports whether the
// synchronizer rewrote the due date, so callers can surface the change.
type TermResult struct {
	InvoiceDate      time.Time
	DueDate          time.Time
	PaymentTermsDays int
	DueDateChanged   bool
}

// TermEdit carries a single user edit to the payment terms of an invoice.
// Exactly one of Date or Days is read, depending on Field.
type TermEdit struct {
	Field TermField
	Date  time.Time
	Days  int
}

func (e TermEdit) value(field TermField, current time.Time) time.Time {
	if e.Field == field {
		return e.Date
	}
	return current
}

func (e TermEdit) days(current int) int {
	if e.Field == TermFieldTermsDays {
		return e.Days
	}
	return current
}

// CalendarDay truncates a timestamp to its calendar day in UTC. Term
// arithmetic is whole-day arithmetic; time-of-day must not leak into the
// derived values.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SyncTerms keeps invoice date, due date and payment terms mutually
// consistent after a single-field edit:
//
//   - editing the invoice date or the terms recomputes the due date as
//     invoice date plus terms days
//   - editing the due date recomputes the terms as the day difference,
//     leaving the invoice date untouched
//
// A due-date edit writes the terms back only when the recomputed day
// difference is positive and differs from the stored value. A due date on or
// before the invoice date still moves the due date, but the stored terms stay
// as they were.
func SyncTerms(in TermInput, edited TermField) TermResult {
	invoiceDate := CalendarDay(in.InvoiceDate)
	dueDate := CalendarDay(in.DueDate)

	result := TermResult{
		InvoiceDate:      invoiceDate,
		DueDate:          dueDate,
		PaymentTermsDays: in.PaymentTermsDays,
	}

	switch edited {
	case TermFieldDueDate:
		if days := daysBetween(invoiceDate, dueDate); days > 0 && days != in.PaymentTermsDays {
			result.PaymentTermsDays = days
		}
	default:
		// Invoice date and terms edits both cascade into the due date.
		derived := invoiceDate.AddDate(0, 0, in.PaymentTermsDays)
		result.DueDateChanged = !derived.Equal(dueDate)
		result.DueDate = derived
	}

	return result
}

// daysBetween returns the whole-day difference between two calendar days
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
