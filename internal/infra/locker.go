package infra

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another instance holds the lock.
var ErrLockHeld = errors.New("lock held by another instance")

// Locker hands out cluster-wide leases backed by Redis.
type Locker struct {
	client *redislock.Client
}

func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{client: redislock.New(rdb)}
}

// Claim takes key for ttl without waiting and never releases it, so the
// holder owns the whole window. Returns ErrLockHeld when another instance
// claimed it first.
func (l *Locker) Claim(ctx context.Context, key string, ttl time.Duration) error {
	_, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return ErrLockHeld
	}
	return err
}
