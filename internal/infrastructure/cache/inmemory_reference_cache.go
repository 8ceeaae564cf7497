package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/google/uuid"
)

// memoTable is a process-local TTL map backing the in-memory reference
// caches
type memoTable[T any] struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]memoEntry[T]
}

type memoEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func newMemoTable[T any](ttl time.Duration) *memoTable[T] {
	if ttl <= 0 {
		ttl = defaultSupplierCacheTTL
	}
	return &memoTable[T]{
		ttl:     ttl,
		entries: make(map[string]memoEntry[T]),
	}
}

func (t *memoTable[T]) fetch(key string, load func() (T, bool, error)) (T, error) {
	t.mu.RLock()
	entry, ok := t.entries[key]
	t.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	value, cacheable, err := load()
	if err != nil || !cacheable {
		return value, err
	}

	t.mu.Lock()
	t.entries[key] = memoEntry[T]{value: value, expiresAt: time.Now().Add(t.ttl)}
	t.mu.Unlock()
	return value, nil
}

// InMemorySupplierSiteCache is the process-local fallback for supplier-site
// lookups when Redis is not available
type InMemorySupplierSiteCache struct {
	inner payables.SupplierSiteRepository
	sites *memoTable[*payables.SupplierSite]
	lists *memoTable[[]*payables.SupplierSite]
}

// NewInMemorySupplierSiteCache creates an in-memory supplier-site cache
func NewInMemorySupplierSiteCache(inner payables.SupplierSiteRepository, ttl time.Duration) *InMemorySupplierSiteCache {
	return &InMemorySupplierSiteCache{
		inner: inner,
		sites: newMemoTable[*payables.SupplierSite](ttl),
		lists: newMemoTable[[]*payables.SupplierSite](ttl),
	}
}

// FindByID returns the cached site or loads it through the inner repository
func (c *InMemorySupplierSiteCache) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.SupplierSite, error) {
	return c.sites.fetch(fmt.Sprintf("%s:%s", tenantID, id), func() (*payables.SupplierSite, bool, error) {
		site, err := c.inner.FindByID(ctx, tenantID, id)
		return site, err == nil && site != nil, err
	})
}

// ListBySupplier returns the cached site list or loads it through the inner
// repository
func (c *InMemorySupplierSiteCache) ListBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID) ([]*payables.SupplierSite, error) {
	return c.lists.fetch(fmt.Sprintf("%s:%s", tenantID, supplierID), func() ([]*payables.SupplierSite, bool, error) {
		sites, err := c.inner.ListBySupplier(ctx, tenantID, supplierID)
		return sites, err == nil, err
	})
}

var _ payables.SupplierSiteRepository = (*InMemorySupplierSiteCache)(nil)

// InMemoryInventoryItemCache is the process-local fallback for item lookups
type InMemoryInventoryItemCache struct {
	inner payables.InventoryItemRepository
	items *memoTable[*payables.InventoryItem]
}

// NewInMemoryInventoryItemCache creates an in-memory item cache
func NewInMemoryInventoryItemCache(inner payables.InventoryItemRepository, ttl time.Duration) *InMemoryInventoryItemCache {
	return &InMemoryInventoryItemCache{
		inner: inner,
		items: newMemoTable[*payables.InventoryItem](ttl),
	}
}

// FindByID returns the cached item or loads it through the inner repository
func (c *InMemoryInventoryItemCache) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.InventoryItem, error) {
	return c.items.fetch(fmt.Sprintf("%s:%s", tenantID, id), func() (*payables.InventoryItem, bool, error) {
		item, err := c.inner.FindByID(ctx, tenantID, id)
		return item, err == nil && item != nil, err
	})
}

var _ payables.InventoryItemRepository = (*InMemoryInventoryItemCache)(nil)

// InMemoryTaxRateCache is the process-local fallback for tax-rate lookups
type InMemoryTaxRateCache struct {
	inner payables.TaxRateRepository
	rates *memoTable[*payables.TaxRate]
	lists *memoTable[[]*payables.TaxRate]
}

// NewInMemoryTaxRateCache creates an in-memory tax-rate cache
func NewInMemoryTaxRateCache(inner payables.TaxRateRepository, ttl time.Duration) *InMemoryTaxRateCache {
	return &InMemoryTaxRateCache{
		inner: inner,
		rates: newMemoTable[*payables.TaxRate](ttl),
		lists: newMemoTable[[]*payables.TaxRate](ttl),
	}
}

// FindByID returns the cached tax rate or loads it through the inner
// repository
func (c *InMemoryTaxRateCache) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.TaxRate, error) {
	return c.rates.fetch(fmt.Sprintf("%s:%s", tenantID, id), func() (*payables.TaxRate, bool, error) {
		rate, err := c.inner.FindByID(ctx, tenantID, id)
		return rate, err == nil && rate != nil, err
	})
}

// ListActive returns the cached active tax rates or loads them through the
// inner repository
func (c *InMemoryTaxRateCache) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*payables.TaxRate, error) {
	return c.lists.fetch(tenantID.String(), func() ([]*payables.TaxRate, bool, error) {
		rates, err := c.inner.ListActive(ctx, tenantID)
		return rates, err == nil, err
	})
}

var _ payables.TaxRateRepository = (*InMemoryTaxRateCache)(nil)
