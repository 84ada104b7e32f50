// Package cache holds the Redis cache for the currently published menu.
// The published menu is the hottest read in the system; every customer
// dashboard load fetches it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mealcycle/apiserver/config"
	"github.com/mealcycle/apiserver/types"
	"github.com/redis/go-redis/v9"
)

const (
	publishedMenuKey = "mealcycle:menu:published"
	defaultTTL       = 5 * time.Minute
)

// ErrMiss is returned when the cache has no entry.
var ErrMiss = errors.New("cache miss")

// MenuCache caches the published menu in Redis.
type MenuCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMenuCache constructs a MenuCache around an existing client.
func NewMenuCache(client *redis.Client) *MenuCache {
	return &MenuCache{client: client, ttl: defaultTTL}
}

// NewClient creates a Redis client from config and verifies connectivity.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// GetPublished returns the cached published menu or ErrMiss.
func (c *MenuCache) GetPublished(ctx context.Context) (types.Menu, error) {
	data, err := c.client.Get(ctx, publishedMenuKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.Menu{}, ErrMiss
		}
		return types.Menu{}, err
	}
	var menu types.Menu
	if err := json.Unmarshal(data, &menu); err != nil {
		return types.Menu{}, err
	}
	return menu, nil
}

// SetPublished stores the published menu with the cache TTL.
func (c *MenuCache) SetPublished(ctx context.Context, menu types.Menu) error {
	data, err := json.Marshal(menu)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, publishedMenuKey, data, c.ttl).Err()
}

// Invalidate drops the cached menu. Called on every menu mutation.
func (c *MenuCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, publishedMenuKey).Err()
}
