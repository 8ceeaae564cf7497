package payables

import (
	"testing"
	"time"

	"github.com/erp/payables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLine(qty, price, taxRate float64) LineInput {
	return LineInput{
		Description: "Test item",
		Quantity:    decimal.NewFromFloat(qty),
		UnitPrice:   decimal.NewFromFloat(price),
		TaxRate:     decimal.NewFromFloat(taxRate),
	}
}

func createTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := NewInvoice(
		uuid.New(),
		"INV-2026-0001",
		uuid.New(),
		"Acme Supplies",
		uuid.New(),
		date(2026, 3, 1),
		30,
		valueobject.USD,
		decimal.NewFromInt(1),
		testLine(10, 25, 10),
	)
	require.NoError(t, err)
	return inv
}

// createOpenInvoice returns an approved invoice ready for payment
func createOpenInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv := createTestInvoice(t)
	require.NoError(t, inv.Submit())
	require.NoError(t, inv.SetApprovalStatus(ApprovalStatusApproved))
	return inv
}

func TestNewInvoice(t *testing.T) {
	t.Run("creates draft with derived totals and due date", func(t *testing.T) {
		inv := createTestInvoice(t)

		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.Equal(t, ApprovalStatusPending, inv.ApprovalStatus)
		assert.Len(t, inv.Lines, 1)
		assert.Equal(t, 1, inv.Lines[0].LineNumber)
		assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(250)))
		assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(25)))
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(275)))
		assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(275)))
		assert.Equal(t, date(2026, 3, 31), inv.DueDate)
		assert.Len(t, inv.GetDomainEvents(), 1)
	})

	t.Run("fails with empty invoice number", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "", uuid.New(), "Acme", uuid.New(),
			date(2026, 3, 1), 30, valueobject.USD, decimal.NewFromInt(1), testLine(1, 1, 0))
		assert.Error(t, err)
	})

	t.Run("fails with nil supplier", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-1", uuid.Nil, "Acme", uuid.New(),
			date(2026, 3, 1), 30, valueobject.USD, decimal.NewFromInt(1), testLine(1, 1, 0))
		assert.Error(t, err)
	})

	t.Run("fails with negative terms", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-1", uuid.New(), "Acme", uuid.New(),
			date(2026, 3, 1), -1, valueobject.USD, decimal.NewFromInt(1), testLine(1, 1, 0))
		assert.Error(t, err)
	})

	t.Run("fails with negative line quantity", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-1", uuid.New(), "Acme", uuid.New(),
			date(2026, 3, 1), 30, valueobject.USD, decimal.NewFromInt(1), testLine(-1, 1, 0))
		assert.Error(t, err)
	})

	t.Run("tolerates zero quantity while drafting", func(t *testing.T) {
		inv, err := NewInvoice(uuid.New(), "INV-1", uuid.New(), "Acme", uuid.New(),
			date(2026, 3, 1), 30, valueobject.USD, decimal.NewFromInt(1), testLine(0, 0, 0))
		require.NoError(t, err)
		assert.True(t, inv.TotalAmount.IsZero())
	})
}

func TestInvoiceLines(t *testing.T) {
	t.Run("add line recomputes totals", func(t *testing.T) {
		inv := createTestInvoice(t)

		line, err := inv.AddLine(testLine(4, 50, 0))
		require.NoError(t, err)

		assert.Equal(t, 2, line.LineNumber)
		assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(450)))
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(475)))
	})

	t.Run("update line recomputes totals", func(t *testing.T) {
		inv := createTestInvoice(t)

		err := inv.UpdateLine(1, testLine(2, 100, 0))
		require.NoError(t, err)

		assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(200)))
		assert.True(t, inv.TaxAmount.IsZero())
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(200)))
	})

	t.Run("remove line renumbers contiguously", func(t *testing.T) {
		inv := createTestInvoice(t)
		_, err := inv.AddLine(testLine(1, 10, 0))
		require.NoError(t, err)
		_, err = inv.AddLine(testLine(1, 20, 0))
		require.NoError(t, err)

		err = inv.RemoveLine(2)
		require.NoError(t, err)

		require.Len(t, inv.Lines, 2)
		assert.Equal(t, 1, inv.Lines[0].LineNumber)
		assert.Equal(t, 2, inv.Lines[1].LineNumber)
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(295)))
	})

	t.Run("cannot remove the only line", func(t *testing.T) {
		inv := createTestInvoice(t)

		err := inv.RemoveLine(1)
		assert.Error(t, err)
		assert.Len(t, inv.Lines, 1)
	})

	t.Run("update unknown line fails", func(t *testing.T) {
		inv := createTestInvoice(t)
		assert.Error(t, inv.UpdateLine(9, testLine(1, 1, 0)))
	})

	t.Run("cannot edit lines after submit", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.Submit())

		_, err := inv.AddLine(testLine(1, 1, 0))
		assert.Error(t, err)
		assert.Error(t, inv.UpdateLine(1, testLine(1, 1, 0)))
		assert.Error(t, inv.RemoveLine(1))
	})
}

func TestInvoiceSubmit(t *testing.T) {
	t.Run("valid draft moves to pending", func(t *testing.T) {
		inv := createTestInvoice(t)

		require.NoError(t, inv.Submit())
		assert.Equal(t, InvoiceStatusPending, inv.Status)
	})

	t.Run("rejects zero quantity line", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.UpdateLine(1, testLine(0, 10, 0)))

		err := inv.Submit()
		assert.Error(t, err)
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
	})

	t.Run("rejects missing description", func(t *testing.T) {
		inv := createTestInvoice(t)
		in := testLine(1, 10, 0)
		in.Description = ""
		require.NoError(t, inv.UpdateLine(1, in))

		assert.Error(t, inv.Submit())
	})

	t.Run("cannot submit twice", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.Submit())
		assert.Error(t, inv.Submit())
	})
}

func TestInvoiceApproval(t *testing.T) {
	t.Run("approving pending invoice opens it", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.Submit())

		require.NoError(t, inv.SetApprovalStatus(ApprovalStatusApproved))
		assert.Equal(t, InvoiceStatusOpen, inv.Status)
		assert.True(t, inv.IsApproved())
	})

	t.Run("approving draft does not open it", func(t *testing.T) {
		inv := createTestInvoice(t)

		require.NoError(t, inv.SetApprovalStatus(ApprovalStatusApproved))
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
	})

	t.Run("rejects invalid approval status", func(t *testing.T) {
		inv := createTestInvoice(t)
		assert.Error(t, inv.SetApprovalStatus(ApprovalStatus("MAYBE")))
	})
}

func TestInvoiceApplyTermEdit(t *testing.T) {
	t.Run("due date edit rewrites terms only", func(t *testing.T) {
		inv := createTestInvoice(t)

		err := inv.ApplyTermEdit(TermEdit{Field: TermFieldDueDate, Date: date(2026, 3, 16)})
		require.NoError(t, err)

		assert.Equal(t, date(2026, 3, 1), inv.InvoiceDate)
		assert.Equal(t, date(2026, 3, 16), inv.DueDate)
		assert.Equal(t, 15, inv.PaymentTermsDays)
	})

	t.Run("due date edit before invoice date keeps terms", func(t *testing.T) {
		inv := createTestInvoice(t)

		err := inv.ApplyTermEdit(TermEdit{Field: TermFieldDueDate, Date: date(2026, 2, 24)})
		require.NoError(t, err)

		assert.Equal(t, date(2026, 2, 24), inv.DueDate)
		assert.Equal(t, 30, inv.PaymentTermsDays)
	})

	t.Run("invoice date edit moves due date", func(t *testing.T) {
		inv := createTestInvoice(t)

		err := inv.ApplyTermEdit(TermEdit{Field: TermFieldInvoiceDate, Date: date(2026, 3, 10)})
		require.NoError(t, err)

		assert.Equal(t, date(2026, 3, 10), inv.InvoiceDate)
		assert.Equal(t, date(2026, 4, 9), inv.DueDate)
		assert.Equal(t, 30, inv.PaymentTermsDays)
	})

	t.Run("terms edit moves due date", func(t *testing.T) {
		inv := createTestInvoice(t)

		err := inv.ApplyTermEdit(TermEdit{Field: TermFieldTermsDays, Days: 60})
		require.NoError(t, err)

		assert.Equal(t, date(2026, 4, 30), inv.DueDate)
		assert.Equal(t, 60, inv.PaymentTermsDays)
	})

	t.Run("no-op edit does not bump version", func(t *testing.T) {
		inv := createTestInvoice(t)
		before := inv.Version

		err := inv.ApplyTermEdit(TermEdit{Field: TermFieldTermsDays, Days: 30})
		require.NoError(t, err)
		assert.Equal(t, before, inv.Version)
	})

	t.Run("rejected on paid invoice", func(t *testing.T) {
		inv := createOpenInvoice(t)
		require.NoError(t, inv.ApplyPayment(valueobject.MustMoney(inv.AmountDue, valueobject.USD), uuid.New()))

		err := inv.ApplyTermEdit(TermEdit{Field: TermFieldTermsDays, Days: 60})
		assert.Error(t, err)
	})
}

func TestInvoiceApplyPayment(t *testing.T) {
	t.Run("partial payment reduces amount due", func(t *testing.T) {
		inv := createOpenInvoice(t)

		err := inv.ApplyPayment(valueobject.MustMoney(decimal.NewFromInt(100), valueobject.USD), uuid.New())
		require.NoError(t, err)

		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(175)))
		assert.Equal(t, InvoiceStatusOpen, inv.Status)
		assert.Len(t, inv.PaymentRecords, 1)
	})

	t.Run("full payment derives paid status", func(t *testing.T) {
		inv := createOpenInvoice(t)

		err := inv.ApplyPayment(valueobject.MustMoney(decimal.NewFromInt(275), valueobject.USD), uuid.New())
		require.NoError(t, err)

		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.AmountDue.IsZero())
		assert.NotNil(t, inv.PaidAt)
	})

	t.Run("rejects overpayment", func(t *testing.T) {
		inv := createOpenInvoice(t)

		err := inv.ApplyPayment(valueobject.MustMoney(decimal.NewFromInt(300), valueobject.USD), uuid.New())
		assert.Error(t, err)
		assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(275)))
	})

	t.Run("rejects currency mismatch", func(t *testing.T) {
		inv := createOpenInvoice(t)

		err := inv.ApplyPayment(valueobject.MustMoney(decimal.NewFromInt(10), valueobject.EUR), uuid.New())
		assert.Error(t, err)
	})

	t.Run("rejects payment on draft", func(t *testing.T) {
		inv := createTestInvoice(t)

		err := inv.ApplyPayment(valueobject.MustMoney(decimal.NewFromInt(10), valueobject.USD), uuid.New())
		assert.Error(t, err)
	})
}

func TestInvoiceCancelAndVoid(t *testing.T) {
	t.Run("cancel unpaid invoice", func(t *testing.T) {
		inv := createOpenInvoice(t)

		require.NoError(t, inv.Cancel("entered in error"))
		assert.Equal(t, InvoiceStatusCancelled, inv.Status)
		assert.True(t, inv.AmountDue.IsZero())
	})

	t.Run("cannot cancel with payments applied", func(t *testing.T) {
		inv := createOpenInvoice(t)
		require.NoError(t, inv.ApplyPayment(valueobject.MustMoney(decimal.NewFromInt(100), valueobject.USD), uuid.New()))

		assert.Error(t, inv.Cancel("entered in error"))
	})

	t.Run("void from open state", func(t *testing.T) {
		inv := createOpenInvoice(t)

		require.NoError(t, inv.Void("duplicate document"))
		assert.Equal(t, InvoiceStatusVoid, inv.Status)
	})

	t.Run("cancel requires a reason", func(t *testing.T) {
		inv := createTestInvoice(t)
		assert.Error(t, inv.Cancel(""))
	})

	t.Run("terminal invoice rejects further transitions", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.Cancel("entered in error"))

		assert.Error(t, inv.Void("x"))
		assert.Error(t, inv.Submit())
		assert.Error(t, inv.SetApprovalStatus(ApprovalStatusApproved))
	})
}

func TestInvoiceStatusPredicates(t *testing.T) {
	assert.True(t, InvoiceStatusPaid.IsTerminal())
	assert.True(t, InvoiceStatusCancelled.IsTerminal())
	assert.True(t, InvoiceStatusVoid.IsTerminal())
	assert.False(t, InvoiceStatusOpen.IsTerminal())
	assert.True(t, InvoiceStatusOpen.CanApplyPayment())
	assert.True(t, InvoiceStatusPending.CanApplyPayment())
	assert.False(t, InvoiceStatusDraft.CanApplyPayment())
	assert.True(t, InvoiceStatusDraft.CanEditLines())
	assert.False(t, InvoiceStatusOpen.CanEditLines())
	assert.False(t, InvoiceStatus("UNKNOWN").IsValid())
}

func TestInvoiceIsOverdue(t *testing.T) {
	inv := createOpenInvoice(t)
	assert.True(t, inv.IsOverdue()) // due 2026-03-31 is in the past

	future, err := NewInvoice(uuid.New(), "INV-2", uuid.New(), "Acme", uuid.New(),
		time.Now(), 30, valueobject.USD, decimal.NewFromInt(1), testLine(1, 1, 0))
	require.NoError(t, err)
	assert.False(t, future.IsOverdue())
}
