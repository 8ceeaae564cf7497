package cache

import (
	"context"
	"time"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/erp/payables/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewSupplierRepository wraps the given repository in a reference-data cache
// according to configuration. Caching disabled returns the repository
// untouched; an unreachable Redis degrades to the in-memory cache so a cache
// outage never takes supplier lookups down with it.
func NewSupplierRepository(
	inner payables.SupplierRepository,
	refCfg config.RefDataConfig,
	redisCfg config.RedisConfig,
	logger *zap.Logger,
) payables.SupplierRepository {
	if !refCfg.CacheEnabled {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, using in-memory supplier cache", zap.Error(err))
		_ = client.Close()
		return NewInMemorySupplierCache(inner, refCfg.CacheTTL)
	}

	logger.Info("Supplier reference-data cache backed by Redis",
		zap.String("addr", redisCfg.Addr()),
		zap.Duration("ttl", refCfg.CacheTTL))
	return NewRedisSupplierCache(client, inner,
		WithSupplierCacheTTL(refCfg.CacheTTL),
		WithSupplierCacheLogger(logger))
}
