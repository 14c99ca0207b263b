package facet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"faceted-catalog-service/internal/domain"
)

// RedisCache shares facet menus between service instances.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache whose entries expire after ttl.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// key returns the Redis key of a scope: facets:{len(category)}:{category}:{subcategory}.
// The length prefix keeps slugs containing ':' from colliding.
func (c *RedisCache) key(scope domain.Scope) string {
	return fmt.Sprintf("facets:%d:%s:%s", len(scope.CategorySlug), scope.CategorySlug, scope.SubcategorySlug)
}

func (c *RedisCache) Get(ctx context.Context, scope domain.Scope) (domain.FacetMenu, bool, error) {
	data, err := c.client.Get(ctx, c.key(scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.FacetMenu{}, false, nil
	}
	if err != nil {
		return domain.FacetMenu{}, false, fmt.Errorf("facet: redis get failed: %w", err)
	}

	var menu domain.FacetMenu
	if err := json.Unmarshal(data, &menu); err != nil {
		return domain.FacetMenu{}, false, fmt.Errorf("facet: failed to unmarshal cached menu: %w", err)
	}
	return menu, true, nil
}

func (c *RedisCache) Set(ctx context.Context, scope domain.Scope, menu domain.FacetMenu) error {
	data, err := json.Marshal(menu)
	if err != nil {
		return fmt.Errorf("facet: failed to marshal menu: %w", err)
	}
	if err := c.client.Set(ctx, c.key(scope), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("facet: redis set failed: %w", err)
	}
	return nil
}
