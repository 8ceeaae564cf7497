package persistence

import (
	"context"
	"errors"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReceiptRepository implements ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// Save creates or updates a goods receipt together with its lines
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *payables.GoodsReceipt) error {
	return session(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(receipt).Error; err != nil {
			return err
		}
		for i := range receipt.Lines {
			if err := tx.Save(&receipt.Lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds a goods receipt by ID for a tenant
func (r *GormReceiptRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.GoodsReceipt, error) {
	var receipt payables.GoodsReceipt
	if err := session(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		First(&receipt, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByNumber finds a goods receipt by receipt number for a tenant
func (r *GormReceiptRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*payables.GoodsReceipt, error) {
	var receipt payables.GoodsReceipt
	if err := session(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		First(&receipt, "receipt_number = ? AND tenant_id = ?", receiptNumber, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}

// ListOpenBySupplier finds receipts for a supplier that have not been
// invoiced yet
func (r *GormReceiptRepository) ListOpenBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID) ([]*payables.GoodsReceipt, error) {
	var receipts []*payables.GoodsReceipt
	if err := session(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Where("tenant_id = ? AND supplier_id = ? AND status = ?", tenantID, supplierID, payables.ReceiptStatusOpen).
		Order("receipt_date ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

var _ payables.ReceiptRepository = (*GormReceiptRepository)(nil)
