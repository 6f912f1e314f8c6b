package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"auction-house/internal/auctionerrors"
	"auction-house/utils"
)

// releaseScript deletes the lock only if it still carries the holder's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process pointing at the same Redis
type RedisLocker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	waitTimeout   time.Duration
	retryInterval time.Duration
	prefix        string
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a RedisLocker. ttl bounds how long a crashed holder
// can block a key.
func NewRedisLocker(client redis.UniversalClient, ttl, waitTimeout, retryInterval time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if retryInterval <= 0 {
		retryInterval = 25 * time.Millisecond
	}
	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		waitTimeout:   waitTimeout,
		retryInterval: retryInterval,
		prefix:        "auction:lock:",
	}
}

// Lock retries SET NX until it wins, ctx is done or the wait timeout passes
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.waitTimeout)
		defer cancel()
	}

	redisKey := l.prefix + key
	token := utils.GenerateID()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return l.unlockFunc(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w: %w", key, auctionerrors.ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlockFunc(redisKey, token string) func() {
	return func() {
		// the caller's ctx may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			utils.Warn("failed to release redis lock", map[string]any{
				"key":   redisKey,
				"error": err.Error(),
			})
		}
	}
}
