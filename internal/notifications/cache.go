package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCache caches per-user unread counts in Redis. A nil cache is a
// no-op; every method degrades to a miss.
type UnreadCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUnreadCache instantiates the cache helper.
func NewUnreadCache(client *redis.Client, ttl time.Duration) *UnreadCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UnreadCache{client: client, ttl: ttl}
}

func unreadKey(userID int64) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

// Get returns the cached unread count; ok is false on a miss.
func (c *UnreadCache) Get(ctx context.Context, userID int64) (int, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	count, err := c.client.Get(ctx, unreadKey(userID)).Int()
	if err != nil {
		return 0, false
	}
	return count, true
}

// Set stores the unread count with the configured TTL.
func (c *UnreadCache) Set(ctx context.Context, userID int64, count int) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, unreadKey(userID), count, c.ttl).Err()
}

// Invalidate drops the cached count after any write touching the user's
// notifications.
func (c *UnreadCache) Invalidate(ctx context.Context, userID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, unreadKey(userID)).Err()
}
