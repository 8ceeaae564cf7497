package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSupplierRepo records how often the inner repository is hit
type countingSupplierRepo struct {
	suppliers map[uuid.UUID]*payables.Supplier
	findCalls int
	listCalls int
}

func (r *countingSupplierRepo) FindByID(_ context.Context, _, id uuid.UUID) (*payables.Supplier, error) {
	r.findCalls++
	return r.suppliers[id], nil
}

func (r *countingSupplierRepo) ListActive(_ context.Context, _ uuid.UUID) ([]*payables.Supplier, error) {
	r.listCalls++
	out := make([]*payables.Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func testSupplier(tenantID uuid.UUID) *payables.Supplier {
	return &payables.Supplier{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Code:             "SUP001",
		Name:             "Acme Supply",
		PaymentTermsDays: 30,
		Currency:         "USD",
		Active:           true,
	}
}

func TestInMemorySupplierCache_FindByID(t *testing.T) {
	t.Run("second lookup is served from cache", func(t *testing.T) {
		tenantID := uuid.New()
		supplier := testSupplier(tenantID)
		inner := &countingSupplierRepo{suppliers: map[uuid.UUID]*payables.Supplier{supplier.ID: supplier}}
		cache := NewInMemorySupplierCache(inner, time.Minute)

		first, err := cache.FindByID(context.Background(), tenantID, supplier.ID)
		require.NoError(t, err)
		second, err := cache.FindByID(context.Background(), tenantID, supplier.ID)
		require.NoError(t, err)

		assert.Equal(t, supplier, first)
		assert.Equal(t, supplier, second)
		assert.Equal(t, 1, inner.findCalls)
	})

	t.Run("miss is not cached", func(t *testing.T) {
		tenantID := uuid.New()
		inner := &countingSupplierRepo{suppliers: map[uuid.UUID]*payables.Supplier{}}
		cache := NewInMemorySupplierCache(inner, time.Minute)

		missing, err := cache.FindByID(context.Background(), tenantID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)

		_, err = cache.FindByID(context.Background(), tenantID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, 2, inner.findCalls)
	})

	t.Run("expired entry reloads from repository", func(t *testing.T) {
		tenantID := uuid.New()
		supplier := testSupplier(tenantID)
		inner := &countingSupplierRepo{suppliers: map[uuid.UUID]*payables.Supplier{supplier.ID: supplier}}
		cache := NewInMemorySupplierCache(inner, time.Nanosecond)

		_, err := cache.FindByID(context.Background(), tenantID, supplier.ID)
		require.NoError(t, err)

		time.Sleep(time.Millisecond)

		_, err = cache.FindByID(context.Background(), tenantID, supplier.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, inner.findCalls)
	})
}

func TestInMemorySupplierCache_ListActive(t *testing.T) {
	t.Run("second list is served from cache", func(t *testing.T) {
		tenantID := uuid.New()
		supplier := testSupplier(tenantID)
		inner := &countingSupplierRepo{suppliers: map[uuid.UUID]*payables.Supplier{supplier.ID: supplier}}
		cache := NewInMemorySupplierCache(inner, time.Minute)

		first, err := cache.ListActive(context.Background(), tenantID)
		require.NoError(t, err)
		second, err := cache.ListActive(context.Background(), tenantID)
		require.NoError(t, err)

		assert.Len(t, first, 1)
		assert.Len(t, second, 1)
		assert.Equal(t, 1, inner.listCalls)
	})
}

func TestInMemorySupplierCache_Invalidate(t *testing.T) {
	t.Run("invalidated supplier reloads", func(t *testing.T) {
		tenantID := uuid.New()
		supplier := testSupplier(tenantID)
		inner := &countingSupplierRepo{suppliers: map[uuid.UUID]*payables.Supplier{supplier.ID: supplier}}
		cache := NewInMemorySupplierCache(inner, time.Minute)

		_, err := cache.FindByID(context.Background(), tenantID, supplier.ID)
		require.NoError(t, err)
		_, err = cache.ListActive(context.Background(), tenantID)
		require.NoError(t, err)

		require.NoError(t, cache.Invalidate(context.Background(), tenantID, supplier.ID))

		_, err = cache.FindByID(context.Background(), tenantID, supplier.ID)
		require.NoError(t, err)
		_, err = cache.ListActive(context.Background(), tenantID)
		require.NoError(t, err)

		assert.Equal(t, 2, inner.findCalls)
		assert.Equal(t, 2, inner.listCalls)
	})
}
