package payables

import (
	"context"
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines the filter criteria for invoice queries
type InvoiceFilter struct {
	shared.Filter
	SupplierID     *uuid.UUID
	Status         *InvoiceStatus
	ApprovalStatus *ApprovalStatus
	DateFrom       *time.Time
	DateTo         *time.Time
	DueBefore      *time.Time
	OnlyPayable    bool // approved, non-terminal, amount due > 0
}

// SupplierOutstanding aggregates the open payable balance of one supplier
type SupplierOutstanding struct {
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	InvoiceCount int             `json:"invoice_count"`
	AmountDue    decimal.Decimal `json:"amount_due"`
}

// InvoiceRepository defines the persistence operations for invoices
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *Invoice) error
	// SaveWithLock persists the invoice with an optimistic lock on the
	// given version, returning shared.ErrConcurrencyConflict on a stale
	// write
	SaveWithLock(ctx context.Context, invoice *Invoice, expectedVersion int) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Invoice, error)
	List(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (*shared.Paginated[*Invoice], error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
	// SummarizeOutstanding totals the amount due of payable invoices per
	// supplier, largest balance first.
	SummarizeOutstanding(ctx context.Context, tenantID uuid.UUID) ([]SupplierOutstanding, error)
}

// PaymentFilter defines the filter criteria for payment queries
type PaymentFilter struct {
	shared.Filter
	SupplierID *uuid.UUID
	Status     *PaymentStatus
	DateFrom   *time.Time
	DateTo     *time.Time
}

// PaymentRepository defines the persistence operations for payments
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	SaveWithLock(ctx context.Context, payment *Payment, expectedVersion int) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, paymentNumber string) (*Payment, error)
	List(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (*shared.Paginated[*Payment], error)
	// ListStaleDrafts finds provisional draft payments across all tenants
	// that were last touched before the cutoff. Used by the abandoned-draft
	// sweeper; explicitly saved drafts are never returned.
	ListStaleDrafts(ctx context.Context, before time.Time, limit int) ([]*Payment, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	GeneratePaymentNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// ReceiptRepository defines the persistence operations for goods receipts
type ReceiptRepository interface {
	Save(ctx context.Context, receipt *GoodsReceipt) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*GoodsReceipt, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*GoodsReceipt, error)
	ListOpenBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID) ([]*GoodsReceipt, error)
}

// Supplier is the reference-data projection of a supplier used by payables.
// The master record lives in another context; this copy backs lookups and
// the reference-data cache.
type Supplier struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_tenant_code,priority:1" json:"tenant_id"`
	Code             string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_supplier_tenant_code,priority:2" json:"code"`
	Name             string    `gorm:"type:varchar(200);not null" json:"name"`
	PaymentTermsDays int       `gorm:"not null;default:0" json:"payment_terms_days"`
	Currency         string    `gorm:"type:varchar(3);not null" json:"currency"`
	Active           bool      `gorm:"not null;default:true" json:"active"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// SupplierRepository defines read operations over the supplier projection
type SupplierRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Supplier, error)
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]*Supplier, error)
}
