package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rayaproluaditya/justforyou-backend/internal/domain"
)

const feedCacheKey = "feed:global"

type redisFeedCache struct {
	client redisFeedClient
	ttl    time.Duration
}

type redisFeedClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func NewRedisFeedCache(client *redis.Client, ttl time.Duration) FeedCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisFeedCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *redisFeedCache) Get(ctx context.Context) ([]domain.Message, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	payload, err := c.client.Get(ctx, feedCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var msgs []domain.Message
	if err := json.Unmarshal(payload, &msgs); err != nil {
		return nil, false
	}
	return msgs, true
}

func (c *redisFeedCache) Set(ctx context.Context, msgs []domain.Message) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = c.client.Set(ctx, feedCacheKey, payload, c.ttl).Err()
}

func (c *redisFeedCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = c.client.Del(ctx, feedCacheKey).Err()
}
