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

const defaultSupplierCacheTTL = 5 * time.Minute

// RedisSupplierCache is a read-through cache in front of a SupplierRepository.
// Supplier reference data changes rarely but is read on every invoice and
// payment operation, so lookups are served from Redis and fall back to the
// inner repository on a miss.
type RedisSupplierCache struct {
	client *redis.Client
	inner  payables.SupplierRepository
	ttl    time.Duration
	logger *zap.Logger
}

// RedisSupplierCacheOption is a functional option for configuring the cache
type RedisSupplierCacheOption func(*RedisSupplierCache)

// WithSupplierCacheTTL sets the cache entry TTL
func WithSupplierCacheTTL(ttl time.Duration) RedisSupplierCacheOption {
	return func(c *RedisSupplierCache) {
		c.ttl = ttl
	}
}

// WithSupplierCacheLogger sets the logger for the cache
func WithSupplierCacheLogger(logger *zap.Logger) RedisSupplierCacheOption {
	return func(c *RedisSupplierCache) {
		c.logger = logger
	}
}

// NewRedisSupplierCache creates a read-through supplier cache with an
// existing Redis client. The caller retains ownership of the client.
func NewRedisSupplierCache(client *redis.Client, inner payables.SupplierRepository, opts ...RedisSupplierCacheOption) *RedisSupplierCache {
	cache := &RedisSupplierCache{
		client: client,
		inner:  inner,
		ttl:    defaultSupplierCacheTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

func supplierCacheKey(tenantID, id uuid.UUID) string {
	return fmt.Sprintf("payables:supplier:%s:%s", tenantID, id)
}

func activeSuppliersCacheKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("payables:suppliers:active:%s", tenantID)
}

// FindByID returns the cached supplier or loads it through the inner
// repository. Cache failures degrade to the inner lookup, never to an error.
func (c *RedisSupplierCache) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payables.Supplier, error) {
	key := supplierCacheKey(tenantID, id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var supplier payables.Supplier
		if jsonErr := json.Unmarshal(data, &supplier); jsonErr == nil {
			return &supplier, nil
		}
		c.logger.Warn("Discarding corrupt supplier cache entry", zap.String("key", key))
	} else if err != redis.Nil {
		c.logger.Warn("Supplier cache read failed, falling back to repository",
			zap.String("key", key),
			zap.Error(err))
	}

	supplier, err := c.inner.FindByID(ctx, tenantID, id)
	if err != nil || supplier == nil {
		return supplier, err
	}

	if data, jsonErr := json.Marshal(supplier); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn("Failed to cache supplier",
				zap.String("key", key),
				zap.Error(setErr))
		}
	}
	return supplier, nil
}

// ListActive returns the cached active-supplier list or loads it through the
// inner repository
func (c *RedisSupplierCache) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*payables.Supplier, error) {
	key := activeSuppliersCacheKey(tenantID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var suppliers []*payables.Supplier
		if jsonErr := json.Unmarshal(data, &suppliers); jsonErr == nil {
			return suppliers, nil
		}
		c.logger.Warn("Discarding corrupt supplier list cache entry", zap.String("key", key))
	} else if err != redis.Nil {
		c.logger.Warn("Supplier cache read failed, falling back to repository",
			zap.String("key", key),
			zap.Error(err))
	}

	suppliers, err := c.inner.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(suppliers); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn("Failed to cache supplier list",
				zap.String("key", key),
				zap.Error(setErr))
		}
	}
	return suppliers, nil
}

// Invalidate drops the cached entries for one supplier and the tenant's
// active list
func (c *RedisSupplierCache) Invalidate(ctx context.Context, tenantID, id uuid.UUID) error {
	return c.client.Del(ctx, supplierCacheKey(tenantID, id), activeSuppliersCacheKey(tenantID)).Err()
}

var _ payables.SupplierRepository = (*RedisSupplierCache)(nil)
