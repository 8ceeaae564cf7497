package persistence

import (
	"context"
	"errors"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSupplierRepository implements SupplierRepository over the supplier
// reference projection
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by ID for a tenant
func (r *GormSupplierRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.Supplier, error) {
	var supplier payables.Supplier
	if err := session(ctx, r.db).
		First(&supplier, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &supplier, nil
}

// ListActive finds all active suppliers for a tenant
func (r *GormSupplierRepository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*payables.Supplier, error) {
	var suppliers []*payables.Supplier
	if err := session(ctx, r.db).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("code ASC").
		Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

var _ payables.SupplierRepository = (*GormSupplierRepository)(nil)
