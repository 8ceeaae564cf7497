package persistence

import (
	"context"
	"errors"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSupplierSiteRepository implements SupplierSiteRepository over the
// supplier-site reference projection
type GormSupplierSiteRepository struct {
	db *gorm.DB
}

// NewGormSupplierSiteRepository creates a new GormSupplierSiteRepository
func NewGormSupplierSiteRepository(db *gorm.DB) *GormSupplierSiteRepository {
	return &GormSupplierSiteRepository{db: db}
}

// FindByID finds a supplier site by ID for a tenant
func (r *GormSupplierSiteRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.SupplierSite, error) {
	var site payables.SupplierSite
	if err := session(ctx, r.db).
		First(&site, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}

// ListBySupplier finds all active sites of one supplier
func (r *GormSupplierSiteRepository) ListBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID) ([]*payables.SupplierSite, error) {
	var sites []*payables.SupplierSite
	if err := session(ctx, r.db).
		Where("tenant_id = ? AND supplier_id = ? AND active = ?", tenantID, supplierID, true).
		Order("code ASC").
		Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

var _ payables.SupplierSiteRepository = (*GormSupplierSiteRepository)(nil)

// GormInventoryItemRepository implements InventoryItemRepository over the
// item reference projection
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

// FindByID finds an inventory item by ID for a tenant
func (r *GormInventoryItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.InventoryItem, error) {
	var item payables.InventoryItem
	if err := session(ctx, r.db).
		First(&item, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

var _ payables.InventoryItemRepository = (*GormInventoryItemRepository)(nil)

// GormTaxRateRepository implements TaxRateRepository over the tax-rate
// reference projection
type GormTaxRateRepository struct {
	db *gorm.DB
}

// NewGormTaxRateRepository creates a new GormTaxRateRepository
func NewGormTaxRateRepository(db *gorm.DB) *GormTaxRateRepository {
	return &GormTaxRateRepository{db: db}
}

// FindByID finds a tax rate by ID for a tenant
func (r *GormTaxRateRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.TaxRate, error) {
	var rate payables.TaxRate
	if err := session(ctx, r.db).
		First(&rate, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

// ListActive finds all active tax rates for a tenant
func (r *GormTaxRateRepository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*payables.TaxRate, error) {
	var rates []*payables.TaxRate
	if err := session(ctx, r.db).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("code ASC").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

var _ payables.TaxRateRepository = (*GormTaxRateRepository)(nil)
