package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fetchCached returns the value cached at key or loads it and writes it
// back. cacheable reports whether the loaded value is worth keeping; cache
// failures degrade to the loader, never to an error.
func fetchCached[T any](
	ctx context.Context,
	client *redis.Client,
	logger *zap.Logger,
	key string,
	ttl time.Duration,
	load func() (T, bool, error),
) (T, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err == nil {
		var value T
		if jsonErr := json.Unmarshal(data, &value); jsonErr == nil {
			return value, nil
		}
		logger.Warn("Discarding corrupt reference cache entry", zap.String("key", key))
	} else if err != redis.Nil {
		logger.Warn("Reference cache read failed, falling back to repository",
			zap.String("key", key),
			zap.Error(err))
	}

	value, cacheable, err := load()
	if err != nil || !cacheable {
		return value, err
	}

	if data, jsonErr := json.Marshal(value); jsonErr == nil {
		if setErr := client.Set(ctx, key, data, ttl).Err(); setErr != nil {
			logger.Warn("Failed to cache reference entry",
				zap.String("key", key),
				zap.Error(setErr))
		}
	}
	return value, nil
}

// RedisSupplierSiteCache is a read-through cache in front of a
// SupplierSiteRepository
type RedisSupplierSiteCache struct {
	client *redis.Client
	inner  payables.SupplierSiteRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSupplierSiteCache creates a read-through supplier-site cache
func NewRedisSupplierSiteCache(client *redis.Client, inner payables.SupplierSiteRepository, ttl time.Duration, logger *zap.Logger) *RedisSupplierSiteCache {
	if ttl <= 0 {
		ttl = defaultSupplierCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSupplierSiteCache{client: client, inner: inner, ttl: ttl, logger: logger}
}

// FindByID returns the cached site or loads it through the inner repository
func (c *RedisSupplierSiteCache) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.SupplierSite, error) {
	key := fmt.Sprintf("payables:site:%s:%s", tenantID, id)
	return fetchCached(ctx, c.client, c.logger, key, c.ttl, func() (*payables.SupplierSite, bool, error) {
		site, err := c.inner.FindByID(ctx, tenantID, id)
		return site, err == nil && site != nil, err
	})
}

// ListBySupplier returns the cached site list of one supplier or loads it
// through the inner repository
func (c *RedisSupplierSiteCache) ListBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID) ([]*payables.SupplierSite, error) {
	key := fmt.Sprintf("payables:sites:%s:%s", tenantID, supplierID)
	return fetchCached(ctx, c.client, c.logger, key, c.ttl, func() ([]*payables.SupplierSite, bool, error) {
		sites, err := c.inner.ListBySupplier(ctx, tenantID, supplierID)
		return sites, err == nil, err
	})
}

var _ payables.SupplierSiteRepository = (*RedisSupplierSiteCache)(nil)

// RedisInventoryItemCache is a read-through cache in front of an
// InventoryItemRepository
type RedisInventoryItemCache struct {
	client *redis.Client
	inner  payables.InventoryItemRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisInventoryItemCache creates a read-through item cache
func NewRedisInventoryItemCache(client *redis.Client, inner payables.InventoryItemRepository, ttl time.Duration, logger *zap.Logger) *RedisInventoryItemCache {
	if ttl <= 0 {
		ttl = defaultSupplierCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisInventoryItemCache{client: client, inner: inner, ttl: ttl, logger: logger}
}

// FindByID returns the cached item or loads it through the inner repository
func (c *RedisInventoryItemCache) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.InventoryItem, error) {
	key := fmt.Sprintf("payables:item:%s:%s", tenantID, id)
	return fetchCached(ctx, c.client, c.logger, key, c.ttl, func() (*payables.InventoryItem, bool, error) {
		item, err := c.inner.FindByID(ctx, tenantID, id)
		return item, err == nil && item != nil, err
	})
}

var _ payables.InventoryItemRepository = (*RedisInventoryItemCache)(nil)

// RedisTaxRateCache is a read-through cache in front of a TaxRateRepository
type RedisTaxRateCache struct {
	client *redis.Client
	inner  payables.TaxRateRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTaxRateCache creates a read-through tax-rate cache
func NewRedisTaxRateCache(client *redis.Client, inner payables.TaxRateRepository, ttl time.Duration, logger *zap.Logger) *RedisTaxRateCache {
	if ttl <= 0 {
		ttl = defaultSupplierCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTaxRateCache{client: client, inner: inner, ttl: ttl, logger: logger}
}

// FindByID returns the cached tax rate or loads it through the inner
// repository
func (c *RedisTaxRateCache) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.TaxRate, error) {
	key := fmt.Sprintf("payables:taxrate:%s:%s", tenantID, id)
	return fetchCached(ctx, c.client, c.logger, key, c.ttl, func() (*payables.TaxRate, bool, error) {
		rate, err := c.inner.FindByID(ctx, tenantID, id)
		return rate, err == nil && rate != nil, err
	})
}

// ListActive returns the cached active tax rates or loads them through the
// inner repository
func (c *RedisTaxRateCache) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*payables.TaxRate, error) {
	key := fmt.Sprintf("payables:taxrates:active:%s", tenantID)
	return fetchCached(ctx, c.client, c.logger, key, c.ttl, func() ([]*payables.TaxRate, bool, error) {
		rates, err := c.inner.ListActive(ctx, tenantID)
		return rates, err == nil, err
	})
}

var _ payables.TaxRateRepository = (*RedisTaxRateCache)(nil)
