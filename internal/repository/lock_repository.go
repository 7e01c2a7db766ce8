package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock held by another run")

// ErrLockUnavailable is returned when no lock backend is configured.
var ErrLockUnavailable = errors.New("lock backend unavailable")

const lockNamespace = "schedule-engine:lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// LockRepository hands out advisory locks backed by Redis.
type LockRepository struct {
	client *redis.Client
}

// NewLockRepository constructs the repository. A nil client yields ErrLockUnavailable on Acquire.
func NewLockRepository(client *redis.Client) *LockRepository {
	return &LockRepository{client: client}
}

// Acquire takes the named lock for ttl and returns a release func.
func (r *LockRepository) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	if r.client == nil {
		return nil, ErrLockUnavailable
	}

	key := lockNamespace + name
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}
	return release, nil
}
