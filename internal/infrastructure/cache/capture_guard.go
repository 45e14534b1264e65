package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token, so a
// holder whose lock expired cannot release the next holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CaptureGuard serialises gateway callbacks per transaction id across
// processes. The database row lock remains the source of truth; this only
// keeps a burst of duplicate callbacks from queueing on that lock.
type CaptureGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCaptureGuard(rdb *redis.Client, ttl time.Duration) *CaptureGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CaptureGuard{rdb: rdb, ttl: ttl}
}

func captureKey(transactionID string) string { return "capture:lock:" + transactionID }

// Acquire reports false when another caller holds the lock. The returned
// release func is always safe to call.
func (g *CaptureGuard) Acquire(ctx context.Context, transactionID string) (bool, func(), error) {
	key := captureKey(transactionID)
	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return false, func() {}, err
	}
	if !ok {
		return false, func() {}, nil
	}
	return true, func() {
		_ = releaseScript.Run(context.Background(), g.rdb, []string{key}, token).Err()
	}, nil
}
