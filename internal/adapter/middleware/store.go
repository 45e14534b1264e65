package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// record is what the store keeps per idempotency key.
type record struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r record) replayable() bool { return !r.InProgress && r.Code != 0 && len(r.Body) > 0 }

type recordStore struct{ rdb *redis.Client }

func newRecordStore(rdb *redis.Client) recordStore { return recordStore{rdb: rdb} }

// reserve claims key for an in-flight request; false means someone holds it.
func (s recordStore) reserve(ctx context.Context, key string, r record) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func (s recordStore) load(ctx context.Context, key string) (record, error) {
	var r record
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	err = json.Unmarshal(v, &r)
	return r, err
}

func (s recordStore) save(ctx context.Context, key string, r record, ttl time.Duration) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

func (s recordStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
