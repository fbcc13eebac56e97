package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sellerhub/identity-service/internal/core/ports"
)

const defaultResendWindow = time.Minute

// ResendThrottle limits how often verification and reset emails can be
// re-requested per address, backed by Redis.
// Key format: resend:<kind>:<email>
type ResendThrottle struct {
	client *redis.Client
	window time.Duration
}

// NewResendThrottle creates a ResendThrottle wrapping the given Redis client.
// A non-positive window falls back to one minute.
func NewResendThrottle(client *redis.Client, window time.Duration) *ResendThrottle {
	if window <= 0 {
		window = defaultResendWindow
	}
	return &ResendThrottle{client: client, window: window}
}

var _ ports.ResendThrottle = (*ResendThrottle)(nil)

// Allow reports whether a send for this address may proceed. The first call
// in a window claims the key atomically (SET NX); subsequent calls within
// the window are rejected.
func (t *ResendThrottle) Allow(ctx context.Context, email string, kind ports.NotificationKind) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.key(email, kind), "1", t.window).Result()
	if err != nil {
		return false, fmt.Errorf("resend throttle: %w", err)
	}
	return ok, nil
}

func (t *ResendThrottle) key(email string, kind ports.NotificationKind) string {
	return fmt.Sprintf("resend:%s:%s", kind, email)
}
