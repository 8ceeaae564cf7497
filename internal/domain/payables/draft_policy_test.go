package payables

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAbandonedDraft(t *testing.T) {
	dueOf := func(p *Payment, due float64) map[uuid.UUID]decimal.Decimal {
		m := make(map[uuid.UUID]decimal.Decimal)
		for _, id := range p.AppliedInvoiceIDs() {
			m[id] = decimal.NewFromFloat(due)
		}
		return m
	}

	t.Run("complete draft is kept", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.AddApplication(uuid.New(), "INV-1", decimal.NewFromInt(100)))

		assert.Equal(t, DraftKept, EvaluateAbandonedDraft(p, true, dueOf(p, 100)))
		assert.True(t, ShouldPersistAbandonedDraft(p, true, dueOf(p, 100)))
	})

	t.Run("existing saved draft is kept regardless of shape", func(t *testing.T) {
		p := createTestPayment(t)

		assert.Equal(t, DraftKept, EvaluateAbandonedDraft(p, false, nil))
		assert.True(t, ShouldPersistAbandonedDraft(p, false, nil))
	})

	t.Run("missing payment number discards", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.AddApplication(uuid.New(), "INV-1", decimal.NewFromInt(100)))
		p.PaymentNumber = ""

		assert.Equal(t, DraftDiscardNoNumber, EvaluateAbandonedDraft(p, true, dueOf(p, 100)))
	})

	t.Run("no applications discards", func(t *testing.T) {
		p := createTestPayment(t)
		assert.Equal(t, DraftDiscardNoLines, EvaluateAbandonedDraft(p, true, nil))
	})

	t.Run("application above current due discards", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.AddApplication(uuid.New(), "INV-1", decimal.NewFromInt(100)))

		assert.Equal(t, DraftDiscardOverApplied, EvaluateAbandonedDraft(p, true, dueOf(p, 60)))
	})

	t.Run("missing invoice balance discards", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.AddApplication(uuid.New(), "INV-1", decimal.NewFromInt(100)))

		assert.Equal(t, DraftDiscardOverApplied, EvaluateAbandonedDraft(p, true, map[uuid.UUID]decimal.Decimal{}))
	})

	t.Run("unapplied remainder discards", func(t *testing.T) {
		p := createTestPayment(t)
		invID := uuid.New()
		require.NoError(t, p.AddApplication(invID, "INV-1", decimal.NewFromInt(100)))
		p.clampApplication(invID, decimal.NewFromInt(70))

		assert.Equal(t, DraftDiscardUnbalanced, EvaluateAbandonedDraft(p, true, dueOf(p, 100)))
	})

	t.Run("non-draft status discards", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.AddApplication(uuid.New(), "INV-1", decimal.NewFromInt(100)))
		require.NoError(t, p.Finalize())

		assert.Equal(t, DraftDiscardNotDraft, EvaluateAbandonedDraft(p, true, dueOf(p, 100)))
	})

	t.Run("missing supplier discards", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.AddApplication(uuid.New(), "INV-1", decimal.NewFromInt(100)))
		p.SupplierID = uuid.Nil

		assert.Equal(t, DraftDiscardNoSupplier, EvaluateAbandonedDraft(p, true, dueOf(p, 100)))
	})

	t.Run("exact boundary amount equal to due is kept", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.AddApplication(uuid.New(), "INV-1", decimal.NewFromFloat(99.99)))

		assert.Equal(t, DraftKept, EvaluateAbandonedDraft(p, true, dueOf(p, 99.99)))
	})
}
