// Package locker serializes work on a single key, such as a listing, across
// goroutines or, with Redis, across server instances.
package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"auction-house/internal/config"
)

// Locker hands out exclusive locks by key. The returned unlock func must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ListingKey is the lock key guarding a listing's state and bid ledger
func ListingKey(listingID string) string {
	return "listing:" + listingID
}

// New builds the Locker named by cfg.Driver
func New(cfg config.LockConfig, redisCfg config.RedisConfig) (Locker, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalLocker(cfg.WaitTimeout), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr(),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", redisCfg.Addr(), err)
		}
		return NewRedisLocker(client, cfg.TTL, cfg.WaitTimeout, cfg.RetryInterval), nil
	default:
		return nil, fmt.Errorf("unknown lock driver %q", cfg.Driver)
	}
}
