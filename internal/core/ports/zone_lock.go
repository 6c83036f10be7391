package ports

import (
	"context"
	"time"
)

// ZoneLock serializes optimization cycles per delivery zone across all engine
// instances. Locks expire on their own after the TTL so a crashed holder can
// never wedge a zone permanently.
type ZoneLock interface {
	// Acquire attempts to take the zone lock. Returns a release token and
	// true on success, and false when another holder owns the zone. The
	// error return is for transport failures only.
	Acquire(ctx context.Context, zone string, ttl time.Duration) (string, bool, error)

	// Release frees the zone lock if token still owns it. Releasing an
	// expired or stolen lock is a no-op.
	Release(ctx context.Context, zone string, token string) error
}
