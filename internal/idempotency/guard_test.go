package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/config"
)

func newTestGuard(t *testing.T, cfg config.Redis) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, cfg, zap.NewNop()), mr
}

func TestGuard_FirstSeen_ClaimsOnce(t *testing.T) {
	guard, _ := newTestGuard(t, config.Redis{IdempotencyEnabled: true, IdempotencyTTLSec: 3600})
	ctx := context.Background()

	first, err := guard.FirstSeen(ctx, "user123:urlCreation:event-1")
	assert.NoError(t, err)
	assert.True(t, first)

	second, err := guard.FirstSeen(ctx, "user123:urlCreation:event-1")
	assert.NoError(t, err)
	assert.False(t, second)
}

func TestGuard_FirstSeen_DistinctKeysIndependent(t *testing.T) {
	guard, _ := newTestGuard(t, config.Redis{IdempotencyEnabled: true, IdempotencyTTLSec: 3600})
	ctx := context.Background()

	first, err := guard.FirstSeen(ctx, "user123:urlCreation:event-1")
	assert.NoError(t, err)
	assert.True(t, first)

	other, err := guard.FirstSeen(ctx, "user123:urlCreation:event-2")
	assert.NoError(t, err)
	assert.True(t, other)
}

func TestGuard_Release_FreesKey(t *testing.T) {
	guard, _ := newTestGuard(t, config.Redis{IdempotencyEnabled: true, IdempotencyTTLSec: 3600})
	ctx := context.Background()

	_, err := guard.FirstSeen(ctx, "user123:system:event-1")
	assert.NoError(t, err)

	guard.Release(ctx, "user123:system:event-1")

	again, err := guard.FirstSeen(ctx, "user123:system:event-1")
	assert.NoError(t, err)
	assert.True(t, again, "a released key must be claimable again")
}

func TestGuard_Disabled_AlwaysFirst(t *testing.T) {
	guard, _ := newTestGuard(t, config.Redis{IdempotencyEnabled: false})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		first, err := guard.FirstSeen(ctx, "user123:urlCreation:event-1")
		assert.NoError(t, err)
		assert.True(t, first)
	}
}

func TestGuard_RedisDown_FailOpen(t *testing.T) {
	guard, mr := newTestGuard(t, config.Redis{
		IdempotencyEnabled:  true,
		IdempotencyFailOpen: true,
		IdempotencyTTLSec:   3600,
	})
	mr.Close()

	first, err := guard.FirstSeen(context.Background(), "user123:urlCreation:event-1")
	assert.NoError(t, err)
	assert.True(t, first, "fail-open lets processing continue when redis is down")
}

func TestGuard_RedisDown_FailClosed(t *testing.T) {
	guard, mr := newTestGuard(t, config.Redis{
		IdempotencyEnabled:  true,
		IdempotencyFailOpen: false,
		IdempotencyTTLSec:   3600,
	})
	mr.Close()

	first, err := guard.FirstSeen(context.Background(), "user123:urlCreation:event-1")
	assert.Error(t, err)
	assert.False(t, first)
}

func TestGuard_TTLApplied(t *testing.T) {
	guard, mr := newTestGuard(t, config.Redis{IdempotencyEnabled: true, IdempotencyTTLSec: 60})
	ctx := context.Background()

	_, err := guard.FirstSeen(ctx, "user123:urlCreation:event-1")
	assert.NoError(t, err)

	mr.FastForward(61 * time.Second)

	again, err := guard.FirstSeen(ctx, "user123:urlCreation:event-1")
	assert.NoError(t, err)
	assert.True(t, again, "an expired key is claimable again")
}
