package payables

import (
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/erp/payables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptStatus represents the lifecycle status of a goods receipt
type ReceiptStatus string

const (
	ReceiptStatusOpen     ReceiptStatus = "OPEN"     // Received, not yet invoiced
	ReceiptStatusInvoiced ReceiptStatus = "INVOICED" // Linked to a supplier invoice
	ReceiptStatusClosed   ReceiptStatus = "CLOSED"
)

// IsValid checks if the status is a valid ReceiptStatus
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptStatusOpen, ReceiptStatusInvoiced, ReceiptStatusClosed:
		return true
	}
	return false
}

// String returns the string representation of ReceiptStatus
func (s ReceiptStatus) String() string {
	return string(s)
}

// GoodsReceiptLine is a received quantity of an item at an agreed cost.
// LineAmount and TaxAmount are optional pre-computed values from the source
// system; when absent they are derived from quantity, cost and rate at
// import time.
type GoodsReceiptLine struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"receipt_id"`
	LineNumber       int              `gorm:"not null" json:"line_number"`
	ItemID           *uuid.UUID       `gorm:"type:uuid" json:"item_id,omitempty"`
	Description      string           `gorm:"type:varchar(500)" json:"description"`
	QuantityReceived decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"quantity_received"`
	UnitCost         decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"unit_cost"`
	TaxRate          decimal.Decimal  `gorm:"type:decimal(9,4);not null" json:"tax_rate"`
	LineAmount       *decimal.Decimal `gorm:"type:decimal(18,4)" json:"line_amount,omitempty"`
	TaxAmount        *decimal.Decimal `gorm:"type:decimal(18,4)" json:"tax_amount,omitempty"`
}

// TableName returns the table name for GORM
func (GoodsReceiptLine) TableName() string {
	return "goods_receipt_lines"
}

// GoodsReceipt records goods received against a supplier, serving as the
// source document for invoice line derivation
type GoodsReceipt struct {
	shared.TenantAggregateRoot
	ReceiptNumber string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_receipt_tenant_number,priority:2" json:"receipt_number"`
	SupplierID    uuid.UUID            `gorm:"type:uuid;not null;index" json:"supplier_id"`
	SiteID        uuid.UUID            `gorm:"type:uuid" json:"site_id"`
	ReceiptDate   time.Time            `gorm:"not null" json:"receipt_date"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null" json:"currency"`
	ExchangeRate  decimal.Decimal      `gorm:"type:decimal(18,8);not null;default:1" json:"exchange_rate"`
	Status        ReceiptStatus        `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	Lines         []GoodsReceiptLine   `gorm:"foreignKey:ReceiptID;references:ID" json:"lines"`
	InvoicedAt    *time.Time           `json:"invoiced_at,omitempty"`
}

// TableName returns the table name for GORM
func (GoodsReceipt) TableName() string {
	return "goods_receipts"
}

// NewGoodsReceipt creates a goods receipt with the given lines
func NewGoodsReceipt(
	tenantID uuid.UUID,
	receiptNumber string,
	supplierID uuid.UUID,
	siteID uuid.UUID,
	receiptDate time.Time,
	currency valueobject.Currency,
	lines []GoodsReceiptLine,
) (*GoodsReceipt, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if receiptDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_RECEIPT_DATE", "Receipt date is required")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_RECEIPT", "Receipt must have at least one line")
	}

	r := &GoodsReceipt{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReceiptNumber:       receiptNumber,
		SupplierID:          supplierID,
		SiteID:              siteID,
		ReceiptDate:         CalendarDay(receiptDate),
		Currency:            currency,
		ExchangeRate:        decimal.NewFromInt(1),
		Status:              ReceiptStatusOpen,
	}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].ReceiptID = r.ID
		lines[i].LineNumber = i + 1
	}
	r.Lines = lines

	return r, nil
}

// MarkInvoiced links the receipt to an invoice
func (r *GoodsReceipt) MarkInvoiced() error {
	if r.Status != ReceiptStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Receipt is not open for invoicing")
	}
	now := time.Now()
	r.Status = ReceiptStatusInvoiced
	r.InvoicedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	return nil
}
