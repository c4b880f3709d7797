package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// SessionCache is the registry of live session ids. A token whose session id
// is missing here has been signed out or has expired.
type SessionCache struct {
	client *redisv9.Client
}

func NewSessionCache(client *redisv9.Client) *SessionCache {
	return &SessionCache{client: client}
}

func (c *SessionCache) Put(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.sessionKey(sessionID), strconv.FormatUint(uint64(userID), 10), ttl).Err(); err != nil {
		return fmt.Errorf("redis set session failed: %w", err)
	}
	return nil
}

func (c *SessionCache) Exists(ctx context.Context, sessionID string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check session failed: %w", err)
	}
	return exists > 0, nil
}

func (c *SessionCache) Delete(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, c.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}

func (c *SessionCache) sessionKey(sessionID string) string {
	return fmt.Sprintf("auth:session:%s", sessionID)
}
