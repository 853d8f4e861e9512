package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AdminCache keeps the admin user IDs of a chat in Redis for a short TTL so
// that /settime does not hit getChatAdministrators on every attempt.
type AdminCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAdminCache(client *redis.Client, ttl time.Duration) *AdminCache {
	return &AdminCache{client: client, ttl: ttl}
}

func (c *AdminCache) key(chatID int64) string { return fmt.Sprintf("admins:%d", chatID) }

// Get returns the cached admin IDs, or ok=false on a miss or any Redis error.
func (c *AdminCache) Get(ctx context.Context, chatID int64) ([]int64, bool) {
	v, err := c.client.Get(ctx, c.key(chatID)).Bytes()
	if err != nil {
		return nil, false
	}
	var ids []int64
	if err := json.Unmarshal(v, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (c *AdminCache) Set(ctx context.Context, chatID int64, ids []int64) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(chatID), b, c.ttl).Err()
}

func (c *AdminCache) Invalidate(ctx context.Context, chatID int64) error {
	return c.client.Del(ctx, c.key(chatID)).Err()
}
