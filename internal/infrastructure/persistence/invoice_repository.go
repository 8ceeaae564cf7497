package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save creates or updates an invoice together with its lines and payment
// records
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *payables.Invoice) error {
	return session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines", "PaymentRecords").Save(invoice).Error; err != nil {
			return err
		}
		return r.saveChildren(tx, invoice)
	})
}

// SaveWithLock saves with optimistic locking against the version the caller
// loaded. A stale write returns shared.ErrConcurrencyConflict.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *payables.Invoice, expectedVersion int) error {
	return session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&payables.Invoice{}).
			Where("id = ? AND tenant_id = ? AND version = ?", invoice.ID, invoice.TenantID, expectedVersion).
			Select("*").
			Omit("id", "tenant_id", "created_at", "Lines", "PaymentRecords").
			Updates(invoice)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return r.saveChildren(tx, invoice)
	})
}

// saveChildren replaces the invoice's line set and upserts payment records.
// Lines removed from the aggregate must disappear from storage, so the line
// sync is delete-then-save keyed on surviving IDs.
func (r *GormInvoiceRepository) saveChildren(tx *gorm.DB, invoice *payables.Invoice) error {
	keep := make([]uuid.UUID, 0, len(invoice.Lines))
	for i := range invoice.Lines {
		keep = append(keep, invoice.Lines[i].ID)
	}
	del := tx.Where("invoice_id = ?", invoice.ID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	if err := del.Delete(&payables.InvoiceLine{}).Error; err != nil {
		return err
	}
	for i := range invoice.Lines {
		if err := tx.Save(&invoice.Lines[i]).Error; err != nil {
			return err
		}
	}
	for i := range invoice.PaymentRecords {
		if err := tx.Save(&invoice.PaymentRecords[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds an invoice by ID for a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.Invoice, error) {
	var invoice payables.Invoice
	if err := session(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Preload("PaymentRecords").
		First(&invoice, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber finds an invoice by invoice number for a tenant
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*payables.Invoice, error) {
	var invoice payables.Invoice
	if err := session(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Preload("PaymentRecords").
		First(&invoice, "invoice_number = ? AND tenant_id = ?", invoiceNumber, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByIDs loads a batch of invoices by ID for a tenant. Missing IDs are
// simply absent from the result.
func (r *GormInvoiceRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*payables.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var invoices []*payables.Invoice
	if err := session(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Preload("PaymentRecords").
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// List finds invoices for a tenant with filtering and pagination
func (r *GormInvoiceRepository) List(ctx context.Context, tenantID uuid.UUID, filter payables.InvoiceFilter) (*shared.Paginated[*payables.Invoice], error) {
	query := session(ctx, r.db).Model(&payables.Invoice{}).Where("tenant_id = ?", tenantID)

	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", *filter.ApprovalStatus)
	}
	if filter.DateFrom != nil {
		query = query.Where("invoice_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("invoice_date <= ?", *filter.DateTo)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}
	if filter.OnlyPayable {
		query = query.Where("approval_status = ?", payables.ApprovalStatusApproved).
			Where("status NOT IN ?", []payables.InvoiceStatus{
				payables.InvoiceStatusPaid,
				payables.InvoiceStatusCancelled,
				payables.InvoiceStatusVoid,
			}).
			Where("total_amount - paid_amount > 0")
	}
	if filter.Search != "" {
		query = query.Where("invoice_number ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	query = applySort(query, filter.OrderBy, filter.OrderDir, invoiceSortColumns)
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	var invoices []*payables.Invoice
	if err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Preload("PaymentRecords").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return shared.NewPaginated(invoices, total, filter.Page, filter.PageSize), nil
}

// SummarizeOutstanding totals the open payable balance per supplier. Only
// approved, non-terminal invoices with a positive balance count.
func (r *GormInvoiceRepository) SummarizeOutstanding(ctx context.Context, tenantID uuid.UUID) ([]payables.SupplierOutstanding, error) {
	var rows []payables.SupplierOutstanding
	err := session(ctx, r.db).Model(&payables.Invoice{}).
		Select("supplier_id, supplier_name, COUNT(*) AS invoice_count, SUM(amount_due) AS amount_due").
		Where("tenant_id = ?", tenantID).
		Where("approval_status = ?", payables.ApprovalStatusApproved).
		Where("status NOT IN ?", []payables.InvoiceStatus{
			payables.InvoiceStatusPaid,
			payables.InvoiceStatusCancelled,
			payables.InvoiceStatusVoid,
		}).
		Where("amount_due > 0").
		Group("supplier_id, supplier_name").
		Order("SUM(amount_due) DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes an invoice and its lines for a tenant
func (r *GormInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&payables.InvoiceLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&payables.InvoicePaymentRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&payables.Invoice{}, "id = ? AND tenant_id = ?", id, tenantID).Error
	})
}

// GenerateInvoiceNumber generates a unique invoice number for a tenant.
// Format: INV-XXXXXXXX-NNNN
func (r *GormInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	nextSeq, err := nextSequence(session(ctx, r.db), &payables.Invoice{}, "invoice_number", tenantID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s-%04d", uuid.New().String()[:8], nextSeq), nil
}

// nextSequence derives the next document sequence from the highest existing
// number for a tenant. Numbers follow the PREFIX-XXXXXXXX-NNNN layout, so the
// last four digits carry the sequence.
func nextSequence(db *gorm.DB, model interface{}, column string, tenantID uuid.UUID) (int, error) {
	var maxNumber string
	if err := db.Model(model).
		Select(column).
		Where("tenant_id = ?", tenantID).
		Order(column + " DESC").
		Limit(1).
		Scan(&maxNumber).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	nextSeq := 1
	if len(maxNumber) >= 4 {
		var seq int
		if _, err := fmt.Sscanf(maxNumber[len(maxNumber)-4:], "%04d", &seq); err == nil {
			nextSeq = seq + 1
		}
	}
	return nextSeq, nil
}

var _ payables.InvoiceRepository = (*GormInvoiceRepository)(nil)
