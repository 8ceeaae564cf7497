package cache

import (
	"context"
	"time"

	"github.com/erp/payables/internal/domain/payables"
	"github.com/erp/payables/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ReferenceData bundles the cached reference-data repositories the services
// read per operation
type ReferenceData struct {
	Sites    payables.SupplierSiteRepository
	Items    payables.InventoryItemRepository
	TaxRates payables.TaxRateRepository
}

// NewReferenceData wraps the given repositories in reference-data caches
// according to configuration, sharing one Redis client. Caching disabled
// returns the repositories untouched; an unreachable Redis degrades to the
// in-memory caches.
func NewReferenceData(
	sites payables.SupplierSiteRepository,
	items payables.InventoryItemRepository,
	taxRates payables.TaxRateRepository,
	refCfg config.RefDataConfig,
	redisCfg config.RedisConfig,
	logger *zap.Logger,
) ReferenceData {
	if !refCfg.CacheEnabled {
		return ReferenceData{Sites: sites, Items: items, TaxRates: taxRates}
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
		logger.Warn("Redis unavailable, using in-memory reference caches", zap.Error(err))
		_ = client.Close()
		return ReferenceData{
			Sites:    NewInMemorySupplierSiteCache(sites, refCfg.CacheTTL),
			Items:    NewInMemoryInventoryItemCache(items, refCfg.CacheTTL),
			TaxRates: NewInMemoryTaxRateCache(taxRates, refCfg.CacheTTL),
		}
	}

	logger.Info("Reference-data caches backed by Redis",
		zap.String("addr", redisCfg.Addr()),
		zap.Duration("ttl", refCfg.CacheTTL))
	return ReferenceData{
		Sites:    NewRedisSupplierSiteCache(client, sites, refCfg.CacheTTL, logger),
		Items:    NewRedisInventoryItemCache(client, items, refCfg.CacheTTL, logger),
		TaxRates: NewRedisTaxRateCache(client, taxRates, refCfg.CacheTTL, logger),
	}
}
