package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only while this run still owns it, so
// a run that overstayed its TTL cannot release a successor's lock.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// RedisLock implements Lock with SET NX and a compare-and-delete release,
// sharing the exclusive scope across hosts. The TTL bounds how long a
// crashed run can block its successors.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewRedisLock parses redisURL, verifies connectivity, and returns a lock
// on the given key.
func NewRedisLock(ctx context.Context, redisURL, key string, ttl time.Duration) (*RedisLock, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("runlock: redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("runlock: redis ping failed: %w", err)
	}

	return &RedisLock{
		client: client,
		key:    key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}, nil
}

// Acquire takes the lock or returns ErrLocked when another run holds it.
func (l *RedisLock) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("runlock: acquire: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Release frees the lock if this run still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	if _, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Result(); err != nil && err != redis.Nil {
		return fmt.Errorf("runlock: release: %w", err)
	}
	return nil
}
