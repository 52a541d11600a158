package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kidotrendz/storefront/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

const featuredKey = "featured_products"

// FeaturedCache holds the admin-curated featured set as a single JSON
// value; the catalog service refreshes it on writes and on a cron tick.
type FeaturedCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFeaturedCache(client *redis.Client, ttl time.Duration) *FeaturedCache {
	return &FeaturedCache{client: client, ttl: ttl}
}

func (c *FeaturedCache) Get(ctx context.Context) ([]models.Product, error) {
	val, err := c.client.Get(ctx, featuredKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get featured cache: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(val, &products); err != nil {
		return nil, fmt.Errorf("decode featured cache: %w", err)
	}
	return products, nil
}

func (c *FeaturedCache) Set(ctx context.Context, products []models.Product) error {
	val, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode featured cache: %w", err)
	}
	if err := c.client.Set(ctx, featuredKey, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("set featured cache: %w", err)
	}
	return nil
}

func (c *FeaturedCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, featuredKey).Err(); err != nil {
		return fmt.Errorf("invalidate featured cache: %w", err)
	}
	return nil
}
