package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/config"
)

const keyPrefix = "dedupe:"

// Guard suppresses duplicate effects from at-least-once delivery with a
// SET-NX claim per idempotency key. When redis is unreachable the guard
// can fail open (process anyway, the storage unique index backstops) or
// fail closed (retry later).
type Guard struct {
	client   *redis.Client
	ttl      time.Duration
	enabled  bool
	failOpen bool
	log      *zap.Logger
}

// New creates a guard from the redis configuration section.
func New(client *redis.Client, cfg config.Redis, log *zap.Logger) *Guard {
	return &Guard{
		client:   client,
		ttl:      time.Duration(cfg.IdempotencyTTLSec) * time.Second,
		enabled:  cfg.IdempotencyEnabled,
		failOpen: cfg.IdempotencyFailOpen,
		log:      log,
	}
}

// FirstSeen claims the key. It returns true when this is the first
// claim within the TTL, false when the key was already processed.
func (g *Guard) FirstSeen(ctx context.Context, key string) (bool, error) {
	if !g.enabled {
		return true, nil
	}

	ok, err := g.client.SetNX(ctx, keyPrefix+key, 1, g.ttl).Result()
	if err != nil {
		if g.failOpen {
			g.log.Warn("Idempotency check failed, continuing open",
				zap.String("key", key),
				zap.Error(err))
			return true, nil
		}
		return false, err
	}
	return ok, nil
}

// Release gives the key back after a failed handling attempt so the
// retry is not suppressed as a duplicate.
func (g *Guard) Release(ctx context.Context, key string) {
	if !g.enabled {
		return
	}
	if err := g.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		g.log.Warn("Failed to release idempotency key",
			zap.String("key", key),
			zap.Error(err))
	}
}
