package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save creates or updates a payment together with its applications
func (r *GormPaymentRepository) Save(ctx context.Context, payment *payables.Payment) error {
	return session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Applications").Save(payment).Error; err != nil {
			return err
		}
		return r.saveApplications(tx, payment)
	})
}

// SaveWithLock saves with optimistic locking against the version the caller
// loaded. A stale write returns shared.ErrConcurrencyConflict.
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, payment *payables.Payment, expectedVersion int) error {
	return session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&payables.Payment{}).
			Where("id = ? AND tenant_id = ? AND version = ?", payment.ID, payment.TenantID, expectedVersion).
			Select("*").
			Omit("id", "tenant_id", "created_at", "Applications").
			Updates(payment)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return r.saveApplications(tx, payment)
	})
}

// saveApplications syncs the application set. Removed applications are
// deleted so the stored set always mirrors the aggregate.
func (r *GormPaymentRepository) saveApplications(tx *gorm.DB, payment *payables.Payment) error {
	keep := make([]uuid.UUID, 0, len(payment.Applications))
	for i := range payment.Applications {
		keep = append(keep, payment.Applications[i].ID)
	}
	del := tx.Where("payment_id = ?", payment.ID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	if err := del.Delete(&payables.PaymentApplication{}).Error; err != nil {
		return err
	}
	for i := range payment.Applications {
		if err := tx.Save(&payment.Applications[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a payment by ID for a tenant
func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.Payment, error) {
	var payment payables.Payment
	if err := session(ctx, r.db).
		Preload("Applications").
		First(&payment, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// FindByNumber finds a payment by payment number for a tenant
func (r *GormPaymentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, paymentNumber string) (*payables.Payment, error) {
	var payment payables.Payment
	if err := session(ctx, r.db).
		Preload("Applications").
		First(&payment, "payment_number = ? AND tenant_id = ?", paymentNumber, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// List finds payments for a tenant with filtering and pagination
func (r *GormPaymentRepository) List(ctx context.Context, tenantID uuid.UUID, filter payables.PaymentFilter) (*shared.Paginated[*payables.Payment], error) {
	query := session(ctx, r.db).Model(&payables.Payment{}).Where("tenant_id = ?", tenantID)

	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DateFrom != nil {
		query = query.Where("payment_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("payment_date <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		query = query.Where("payment_number ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	query = applySort(query, filter.OrderBy, filter.OrderDir, paymentSortColumns)
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	var payments []*payables.Payment
	if err := query.Preload("Applications").Find(&payments).Error; err != nil {
		return nil, err
	}
	return shared.NewPaginated(payments, total, filter.Page, filter.PageSize), nil
}

// ListStaleDrafts finds provisional draft payments across all tenants last
// touched before the cutoff, oldest first. Explicitly saved drafts are not
// candidates for cleanup and are never returned.
func (r *GormPaymentRepository) ListStaleDrafts(ctx context.Context, before time.Time, limit int) ([]*payables.Payment, error) {
	query := session(ctx, r.db).
		Where("status = ?", payables.PaymentStatusDraft).
		Where("provisional = ?", true).
		Where("updated_at < ?", before).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var payments []*payables.Payment
	if err := query.Preload("Applications").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Delete removes a payment and its applications for a tenant
func (r *GormPaymentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payment_id = ?", id).Delete(&payables.PaymentApplication{}).Error; err != nil {
			return err
		}
		return tx.Delete(&payables.Payment{}, "id = ? AND tenant_id = ?", id, tenantID).Error
	})
}

// GeneratePaymentNumber generates a unique payment number for a tenant.
// Format: PAY-XXXXXXXX-NNNN
func (r *GormPaymentRepository) GeneratePaymentNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	nextSeq, err := nextSequence(session(ctx, r.db), &payables.Payment{}, "payment_number", tenantID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PAY-%s-%04d", uuid.New().String()[:8], nextSeq), nil
}

var _ payables.PaymentRepository = (*GormPaymentRepository)(nil)
