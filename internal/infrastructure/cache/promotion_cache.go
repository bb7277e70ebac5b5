// Package cache provides the Redis-backed promotion day cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"balcao/internal/domain/promotion"
	"balcao/pkg/logger"
)

const (
	dayKeyPrefix = "promo:day:"
	dayTTL       = 26 * time.Hour
)

// PromotionCache caches the in-effect promotion set per calendar day. A cache
// miss or a Redis outage falls back to the database, so every method swallows
// transport errors after logging them.
type PromotionCache struct {
	client *redis.Client
}

// NewPromotionCache connects to Redis and verifies the connection.
func NewPromotionCache(ctx context.Context, addr, password string) (*PromotionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &PromotionCache{client: client}, nil
}

// Close releases the Redis connection.
func (c *PromotionCache) Close() error {
	return c.client.Close()
}

// GetDay returns the cached promotion set for a calendar day ("2006-01-02").
func (c *PromotionCache) GetDay(ctx context.Context, day string) ([]*promotion.Promotion, bool) {
	val, err := c.client.Get(ctx, dayKeyPrefix+day).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Warn(ctx, "promotion cache read failed", "day", day, "error", err)
		return nil, false
	}

	var promos []*promotion.Promotion
	if err := json.Unmarshal([]byte(val), &promos); err != nil {
		logger.Warn(ctx, "promotion cache entry corrupt, dropping", "day", day, "error", err)
		c.client.Del(ctx, dayKeyPrefix+day)
		return nil, false
	}
	return promos, true
}

// SetDay stores the promotion set for a calendar day. The TTL outlives the day
// slightly; writes through Invalidate keep the entry honest before that.
func (c *PromotionCache) SetDay(ctx context.Context, day string, promos []*promotion.Promotion) {
	payload, err := json.Marshal(promos)
	if err != nil {
		logger.Warn(ctx, "promotion cache encode failed", "day", day, "error", err)
		return
	}
	if err := c.client.Set(ctx, dayKeyPrefix+day, payload, dayTTL).Err(); err != nil {
		logger.Warn(ctx, "promotion cache write failed", "day", day, "error", err)
	}
}

// Invalidate drops every cached day. Called after any promotion write.
func (c *PromotionCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, dayKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn(ctx, "promotion cache scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn(ctx, "promotion cache invalidation failed", "error", err)
	}
}

var _ promotion.Cache = (*PromotionCache)(nil)
