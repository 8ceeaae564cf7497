package persistence

import (
	"context"
	"errors"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReservationStore implements DraftReservationStore on top of the
// draft_invoice_reservations table. The unique index on
// (tenant_id, invoice_id) is what makes Reserve authoritative: two racing
// inserts cannot both land, whatever the advisory filter said earlier.
type GormReservationStore struct {
	db *gorm.DB
}

// NewGormReservationStore creates a new GormReservationStore
func NewGormReservationStore(db *gorm.DB) *GormReservationStore {
	return &GormReservationStore{db: db}
}

// Reserve inserts the hold. On a duplicate-key violation the existing
// reservation is loaded so the error can name the holding payment. A hold
// already owned by the same payment is a no-op.
func (s *GormReservationStore) Reserve(ctx context.Context, reservation payables.DraftReservation) error {
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}

	err := session(ctx, s.db).Create(&reservation).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}

	var existing payables.DraftReservation
	if findErr := session(ctx, s.db).
		First(&existing, "tenant_id = ? AND invoice_id = ?", reservation.TenantID, reservation.InvoiceID).
		Error; findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			// Holder released between insert and lookup; retry once.
			return session(ctx, s.db).Create(&reservation).Error
		}
		return findErr
	}
	if existing.PaymentID == reservation.PaymentID {
		return nil
	}
	return &payables.ConflictError{
		InvoiceID:     existing.InvoiceID,
		InvoiceNumber: existing.InvoiceNumber,
		PaymentID:     existing.PaymentID,
		PaymentNumber: existing.PaymentNumber,
	}
}

// Release drops the hold of the payment on one invoice
func (s *GormReservationStore) Release(ctx context.Context, tenantID, paymentID, invoiceID uuid.UUID) error {
	return session(ctx, s.db).
		Where("tenant_id = ? AND payment_id = ? AND invoice_id = ?", tenantID, paymentID, invoiceID).
		Delete(&payables.DraftReservation{}).Error
}

// ReleaseAll drops every hold of the payment
func (s *GormReservationStore) ReleaseAll(ctx context.Context, tenantID, paymentID uuid.UUID) error {
	return session(ctx, s.db).
		Where("tenant_id = ? AND payment_id = ?", tenantID, paymentID).
		Delete(&payables.DraftReservation{}).Error
}

// HeldByOthers returns the reservations on the given invoices held by
// payments other than the given one
func (s *GormReservationStore) HeldByOthers(ctx context.Context, tenantID, paymentID uuid.UUID, invoiceIDs []uuid.UUID) ([]payables.DraftReservation, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}
	var reservations []payables.DraftReservation
	if err := session(ctx, s.db).
		Where("tenant_id = ? AND payment_id <> ? AND invoice_id IN ?", tenantID, paymentID, invoiceIDs).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

var _ payables.DraftReservationStore = (*GormReservationStore)(nil)
