package payables

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierSite is a read-only projection of a supplier's ordering or billing
// location, maintained by the purchasing domain
type SupplierSite struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Code       string    `gorm:"type:varchar(50);not null" json:"code"`
	Name       string    `gorm:"type:varchar(200);not null" json:"name"`
	Address    string    `gorm:"type:varchar(500)" json:"address,omitempty"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
}

// TableName returns the table name for GORM
func (SupplierSite) TableName() string {
	return "supplier_sites"
}

// SupplierSiteRepository defines read operations over the site projection
type SupplierSiteRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SupplierSite, error)
	ListBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID) ([]*SupplierSite, error)
}

// InventoryItem is a read-only projection of a purchasable item, maintained
// by the inventory domain
type InventoryItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_item_tenant_sku,priority:1" json:"tenant_id"`
	SKU      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_item_tenant_sku,priority:2" json:"sku"`
	Name     string    `gorm:"type:varchar(200);not null" json:"name"`
	Active   bool      `gorm:"not null;default:true" json:"active"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// InventoryItemRepository defines read operations over the item projection
type InventoryItemRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*InventoryItem, error)
}

// TaxRate is a read-only projection of a configured tax rate. Rate is a
// percentage.
type TaxRate struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tax_rate_tenant_code,priority:1" json:"tenant_id"`
	Code     string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_tax_rate_tenant_code,priority:2" json:"code"`
	Name     string          `gorm:"type:varchar(200);not null" json:"name"`
	Rate     decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"rate"`
	Active   bool            `gorm:"not null;default:true" json:"active"`
}

// TableName returns the table name for GORM
func (TaxRate) TableName() string {
	return "tax_rates"
}

// TaxRateRepository defines read operations over the tax-rate projection
type TaxRateRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*TaxRate, error)
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]*TaxRate, error)
}
