package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/payables/internal/domain/payables"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockReservationStore creates a GormReservationStore with a mocked SQL connection
func newMockReservationStore(t *testing.T) (*GormReservationStore, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return NewGormReservationStore(gormDB), mock, mockDB
}

func testReservation() payables.DraftReservation {
	return payables.DraftReservation{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		InvoiceID:     uuid.New(),
		InvoiceNumber: "INV-abc12345-0001",
		PaymentID:     uuid.New(),
		PaymentNumber: "PAY-abc12345-0001",
	}
}

func TestGormReservationStore_Reserve(t *testing.T) {
	t.Run("inserts a fresh hold", func(t *testing.T) {
		store, mock, mockDB := newMockReservationStore(t)
		defer mockDB.Close()

		res := testReservation()

		mock.ExpectExec(`INSERT INTO "draft_invoice_reservations"`).
			WithArgs(res.ID, res.TenantID, res.InvoiceID, res.InvoiceNumber, res.PaymentID, res.PaymentNumber).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Reserve(context.Background(), res)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate held by another payment returns conflict naming the holder", func(t *testing.T) {
		store, mock, mockDB := newMockReservationStore(t)
		defer mockDB.Close()

		res := testReservation()
		holderPaymentID := uuid.New()

		mock.ExpectExec(`INSERT INTO "draft_invoice_reservations"`).
			WillReturnError(gorm.ErrDuplicatedKey)
		mock.ExpectQuery(`SELECT \* FROM "draft_invoice_reservations" WHERE tenant_id = \$1 AND invoice_id = \$2 .*`).
			WithArgs(res.TenantID, res.InvoiceID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "invoice_id", "invoice_number", "payment_id", "payment_number"}).
				AddRow(uuid.New(), res.TenantID, res.InvoiceID, res.InvoiceNumber, holderPaymentID, "PAY-deadbeef-0007"))

		err := store.Reserve(context.Background(), res)

		var conflict *payables.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, holderPaymentID, conflict.PaymentID)
		assert.Equal(t, "PAY-deadbeef-0007", conflict.PaymentNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate held by the same payment is a no-op", func(t *testing.T) {
		store, mock, mockDB := newMockReservationStore(t)
		defer mockDB.Close()

		res := testReservation()

		mock.ExpectExec(`INSERT INTO "draft_invoice_reservations"`).
			WillReturnError(gorm.ErrDuplicatedKey)
		mock.ExpectQuery(`SELECT \* FROM "draft_invoice_reservations" WHERE tenant_id = \$1 AND invoice_id = \$2 .*`).
			WithArgs(res.TenantID, res.InvoiceID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "invoice_id", "invoice_number", "payment_id", "payment_number"}).
				AddRow(uuid.New(), res.TenantID, res.InvoiceID, res.InvoiceNumber, res.PaymentID, res.PaymentNumber))

		err := store.Reserve(context.Background(), res)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries insert when holder vanished before lookup", func(t *testing.T) {
		store, mock, mockDB := newMockReservationStore(t)
		defer mockDB.Close()

		res := testReservation()

		mock.ExpectExec(`INSERT INTO "draft_invoice_reservations"`).
			WillReturnError(gorm.ErrDuplicatedKey)
		mock.ExpectQuery(`SELECT \* FROM "draft_invoice_reservations" WHERE tenant_id = \$1 AND invoice_id = \$2 .*`).
			WithArgs(res.TenantID, res.InvoiceID, 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectExec(`INSERT INTO "draft_invoice_reservations"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Reserve(context.Background(), res)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReservationStore_Release(t *testing.T) {
	t.Run("deletes one hold", func(t *testing.T) {
		store, mock, mockDB := newMockReservationStore(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		paymentID := uuid.New()
		invoiceID := uuid.New()

		mock.ExpectExec(`DELETE FROM "draft_invoice_reservations" WHERE tenant_id = \$1 AND payment_id = \$2 AND invoice_id = \$3`).
			WithArgs(tenantID, paymentID, invoiceID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Release(context.Background(), tenantID, paymentID, invoiceID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ReleaseAll deletes every hold of the payment", func(t *testing.T) {
		store, mock, mockDB := newMockReservationStore(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		paymentID := uuid.New()

		mock.ExpectExec(`DELETE FROM "draft_invoice_reservations" WHERE tenant_id = \$1 AND payment_id = \$2`).
			WithArgs(tenantID, paymentID).
			WillReturnResult(sqlmock.NewResult(0, 3))

		err := store.ReleaseAll(context.Background(), tenantID, paymentID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReservationStore_HeldByOthers(t *testing.T) {
	t.Run("empty invoice set short-circuits", func(t *testing.T) {
		store, mock, mockDB := newMockReservationStore(t)
		defer mockDB.Close()

		held, err := store.HeldByOthers(context.Background(), uuid.New(), uuid.New(), nil)

		assert.NoError(t, err)
		assert.Empty(t, held)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns holds of other payments only", func(t *testing.T) {
		store, mock, mockDB := newMockReservationStore(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		paymentID := uuid.New()
		invoiceID := uuid.New()
		otherPayment := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "draft_invoice_reservations" WHERE tenant_id = \$1 AND payment_id <> \$2 AND invoice_id IN \(\$3\)`).
			WithArgs(tenantID, paymentID, invoiceID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "invoice_id", "invoice_number", "payment_id", "payment_number"}).
				AddRow(uuid.New(), tenantID, invoiceID, "INV-abc12345-0002", otherPayment, "PAY-abc12345-0009"))

		held, err := store.HeldByOthers(context.Background(), tenantID, paymentID, []uuid.UUID{invoiceID})

		assert.NoError(t, err)
		require.Len(t, held, 1)
		assert.Equal(t, otherPayment, held[0].PaymentID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
