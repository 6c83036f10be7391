// Package redislock provides the Redis-backed implementation of the zone
// lock port. Each zone maps to one key written with SET NX and a TTL; the
// stored value is a random token so only the holder can release the lock.
package redislock

import (
	"context"
	"fmt"
	"time"

	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dispatch:zone-lock:"

// releaseScript deletes the key only when the caller still holds it, so a
// lock that expired and was re-acquired by someone else is never released by
// the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ZoneLock implements ports.ZoneLock on Redis.
type ZoneLock struct {
	client redis.UniversalClient
}

var _ ports.ZoneLock = (*ZoneLock)(nil)

// NewZoneLock creates a zone lock over the given Redis client.
func NewZoneLock(client redis.UniversalClient) *ZoneLock {
	return &ZoneLock{client: client}
}

// Acquire attempts to take the zone lock for the TTL. Returns a release token
// and true on success, false when another holder owns the zone.
func (l *ZoneLock) Acquire(ctx context.Context, zone string, ttl time.Duration) (string, bool, error) {
	if zone == "" {
		return "", false, fmt.Errorf("zone is required")
	}
	if ttl <= 0 {
		return "", false, fmt.Errorf("ttl must be positive")
	}

	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, keyPrefix+zone, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire zone lock: %w", err)
	}
	if !acquired {
		return "", false, nil
	}

	return token, true, nil
}

// Release frees the zone lock if token still owns it. Releasing an expired or
// stolen lock is a no-op.
func (l *ZoneLock) Release(ctx context.Context, zone string, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{keyPrefix + zone}, token).Err(); err != nil {
		return fmt.Errorf("failed to release zone lock: %w", err)
	}
	return nil
}
