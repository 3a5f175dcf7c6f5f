package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SessionVersionCache publishes the current session version per account so
// edge validators can reject stale tokens without a directory lookup.
// Key format: sess:ver:<email>, no TTL; the value changes only when the
// directory bumps the version.
type SessionVersionCache struct {
	client *redis.Client
}

func NewSessionVersionCache(client *redis.Client) *SessionVersionCache {
	return &SessionVersionCache{client: client}
}

func (c *SessionVersionCache) SyncSessionVersion(ctx context.Context, email string, version int) error {
	key := fmt.Sprintf("sess:ver:%s", email)
	if err := c.client.Set(ctx, key, version, 0).Err(); err != nil {
		return fmt.Errorf("session version sync: %w", err)
	}
	return nil
}

// SessionVersion reads the published version. A missing key returns 0,
// meaning the edge must fall through to the directory.
func (c *SessionVersionCache) SessionVersion(ctx context.Context, email string) (int, error) {
	key := fmt.Sprintf("sess:ver:%s", email)
	v, err := c.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("session version read: %w", err)
	}
	return v, nil
}
