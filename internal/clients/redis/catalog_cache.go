package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/types"
	"github.com/fieldlens/fieldlens-backend/internal/utils"
)

// CatalogCache keeps the serialized facet catalog per account. It sits in
// front of the builder, never inside it: the builder always reads fresh, the
// cache only short-circuits repeat HTTP fetches and is dropped whenever the
// resolver writes an account facet. Purely advisory; every failure here is
// logged and swallowed.
type CatalogCache interface {
	Get(ctx context.Context, accountID uuid.UUID) (*types.FacetCatalog, bool)
	Set(ctx context.Context, accountID uuid.UUID, catalog *types.FacetCatalog)
	InvalidateCatalog(ctx context.Context, accountID uuid.UUID)
	Close() error
}

type catalogCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewCatalogCache(log *logger.Logger) (CatalogCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttlSeconds := utils.GetEnvAsInt("FACET_CATALOG_CACHE_TTL", 300, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &catalogCache{
		log: log.With("service", "CatalogCache"),
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func catalogKey(accountID uuid.UUID) string {
	return "facet_catalog:" + accountID.String()
}

func (c *catalogCache) Get(ctx context.Context, accountID uuid.UUID) (*types.FacetCatalog, bool) {
	raw, err := c.rdb.Get(ctx, catalogKey(accountID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Catalog cache read failed", "account_id", accountID, "error", err)
		}
		return nil, false
	}
	var catalog types.FacetCatalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		c.log.Warn("Catalog cache entry corrupt, dropping", "account_id", accountID, "error", err)
		c.InvalidateCatalog(ctx, accountID)
		return nil, false
	}
	return &catalog, true
}

func (c *catalogCache) Set(ctx context.Context, accountID uuid.UUID, catalog *types.FacetCatalog) {
	if catalog == nil {
		return
	}
	raw, err := json.Marshal(catalog)
	if err != nil {
		c.log.Warn("Catalog cache marshal failed", "account_id", accountID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, catalogKey(accountID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Catalog cache write failed", "account_id", accountID, "error", err)
	}
}

func (c *catalogCache) InvalidateCatalog(ctx context.Context, accountID uuid.UUID) {
	if err := c.rdb.Del(ctx, catalogKey(accountID)).Err(); err != nil {
		c.log.Warn("Catalog cache invalidation failed", "account_id", accountID, "error", err)
	}
}

func (c *catalogCache) Close() error {
	return c.rdb.Close()
}
