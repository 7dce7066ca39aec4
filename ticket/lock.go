package ticket

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// OwnerLocker serializes ticket opens per owner. Without it two
// near-simultaneous open requests from the same user can both pass the
// channel scan and create two tickets; the redis-backed locker closes that
// window when an instance is configured.
type OwnerLocker interface {
	// Acquire returns ok=false when the lock is already held. The release
	// func is always safe to call.
	Acquire(ctx context.Context, ownerID string) (release func(), ok bool, err error)
}

type nopLocker struct{}

func (nopLocker) Acquire(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}

// NopLocker keeps the scan-only admission behavior: the open race stays
// accepted weak consistency.
func NopLocker() OwnerLocker { return nopLocker{} }

const lockTTL = 30 * time.Second

type redisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) OwnerLocker {
	return &redisLocker{rdb: rdb}
}

func (l *redisLocker) Acquire(ctx context.Context, ownerID string) (func(), bool, error) {
	key := "ticket:open:" + ownerID
	ok, err := l.rdb.SetNX(ctx, key, "1", lockTTL).Result()
	if err != nil {
		return func() {}, false, err
	}
	if !ok {
		return func() {}, false, nil
	}
	release := func() {
		_ = l.rdb.Del(context.Background(), key).Err()
	}
	return release, true, nil
}
