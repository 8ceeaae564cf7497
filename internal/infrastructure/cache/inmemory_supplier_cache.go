package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/google/uuid"
)

// InMemorySupplierCache is a read-through cache in front of a
// SupplierRepository backed by a process-local map. It serves development
// setups and tests where Redis is not available.
type InMemorySupplierCache struct {
	inner payables.SupplierRepository
	ttl   time.Duration

	mu        sync.RWMutex
	suppliers map[string]*supplierEntry
	lists     map[uuid.UUID]*supplierListEntry
}

type supplierEntry struct {
	supplier  *payables.Supplier
	expiresAt time.Time
}

type supplierListEntry struct {
	suppliers []*payables.Supplier
	expiresAt time.Time
}

// NewInMemorySupplierCache creates an in-memory supplier cache. A
// non-positive TTL falls back to the default.
func NewInMemorySupplierCache(inner payables.SupplierRepository, ttl time.Duration) *InMemorySupplierCache {
	if ttl <= 0 {
		ttl = defaultSupplierCacheTTL
	}
	return &InMemorySupplierCache{
		inner:     inner,
		ttl:       ttl,
		suppliers: make(map[string]*supplierEntry),
		lists:     make(map[uuid.UUID]*supplierListEntry),
	}
}

// FindByID returns the cached supplier or loads it through the inner
// repository
func (c *InMemorySupplierCache) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.Supplier, error) {
	key := supplierCacheKey(tenantID, id)

	c.mu.RLock()
	entry, ok := c.suppliers[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.supplier, nil
	}

	supplier, err := c.inner.FindByID(ctx, tenantID, id)
	if err != nil || supplier == nil {
		return supplier, err
	}

	c.mu.Lock()
	c.suppliers[key] = &supplierEntry{supplier: supplier, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return supplier, nil
}

// ListActive returns the cached active-supplier list or loads it through the
// inner repository
func (c *InMemorySupplierCache) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*payables.Supplier, error) {
	c.mu.RLock()
	entry, ok := c.lists[tenantID]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.suppliers, nil
	}

	suppliers, err := c.inner.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lists[tenantID] = &supplierListEntry{suppliers: suppliers, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return suppliers, nil
}

// Invalidate drops the cached entries for one supplier and the tenant's
// active list
func (c *InMemorySupplierCache) Invalidate(ctx context.Context, tenantID, id uuid.UUID) error {
	c.mu.Lock()
	delete(c.suppliers, supplierCacheKey(tenantID, id))
	delete(c.lists, tenantID)
	c.mu.Unlock()
	return nil
}

var _ payables.SupplierRepository = (*InMemorySupplierCache)(nil)
