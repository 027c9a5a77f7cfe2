package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pankaj085/lotuslynx/internal/domain"
)

// ProductCache is a read-through cache for single products. Implementations
// must treat every backend failure as a miss so the catalog keeps serving
// from the repository when the cache is down.
type ProductCache interface {
	Get(ctx context.Context, id int64) (domain.Product, bool)
	Set(ctx context.Context, product domain.Product)
	Delete(ctx context.Context, id int64)
}

// RedisProductCache stores JSON-encoded products under product:<id>.
type RedisProductCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ ProductCache = (*RedisProductCache)(nil)

func NewRedisProductCache(client redis.UniversalClient, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *RedisProductCache) Get(ctx context.Context, id int64) (domain.Product, bool) {
	payload, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return domain.Product{}, false
	}
	var product domain.Product
	if err := json.Unmarshal(payload, &product); err != nil {
		return domain.Product{}, false
	}
	return product, true
}

func (c *RedisProductCache) Set(ctx context.Context, product domain.Product) {
	payload, err := json.Marshal(product)
	if err != nil {
		return
	}
	c.client.Set(ctx, productKey(product.ID), payload, c.ttl)
}

func (c *RedisProductCache) Delete(ctx context.Context, id int64) {
	c.client.Del(ctx, productKey(id))
}

// NopProductCache is used when no cache backend is configured.
type NopProductCache struct{}

var _ ProductCache = NopProductCache{}

func (NopProductCache) Get(context.Context, int64) (domain.Product, bool) { return domain.Product{}, false }
func (NopProductCache) Set(context.Context, domain.Product)              {}
func (NopProductCache) Delete(context.Context, int64)                    {}
