package middleware

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func testKey() string {
	return requestKey{"POST", "/donations", strings.Repeat("b", 32), strings.Repeat("a", 32)}.String()
}

func TestRecordStore_ReserveThenSave(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	ctx := context.Background()
	store := newRecordStore(rdb)
	key := testKey()
	hash := fingerprint([]byte(`{"a":1}`))

	ok, err := store.reserve(ctx, key, record{InProgress: true, BodySHA256: hash, RequestID: strings.Repeat("a", 32)})
	if err != nil || !ok {
		t.Fatalf("first reserve: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > provisionalLockTTL {
		t.Fatalf("reservation ttl = %v", ttl)
	}
	if ok, err := store.reserve(ctx, key, record{InProgress: true}); err != nil || ok {
		t.Fatalf("second reserve must lose: ok=%v err=%v", ok, err)
	}

	cur, err := store.load(ctx, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cur.InProgress || cur.BodySHA256 != hash || cur.replayable() {
		t.Fatalf("unexpected reservation: %+v", cur)
	}

	final := record{Code: 201, Body: []byte(`{"ok":true}`), BodySHA256: hash, CreatedAt: clock()}
	if err := store.save(ctx, key, final, 5*time.Second); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > 5*time.Second {
		t.Fatalf("final ttl = %v", ttl)
	}
	cur, err = store.load(ctx, key)
	if err != nil {
		t.Fatalf("load final: %v", err)
	}
	if !cur.replayable() || cur.Code != 201 || string(cur.Body) != `{"ok":true}` {
		t.Fatalf("unexpected final record: %+v", cur)
	}
}

func TestRecordStore_LoadCorrupt(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	if err := mr.Set(testKey(), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := newRecordStore(rdb).load(context.Background(), testKey()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRecordStore_Release(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	ctx := context.Background()
	store := newRecordStore(rdb)

	if ok, err := store.reserve(ctx, "k-release", record{InProgress: true}); err != nil || !ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}
	if err := store.release(ctx, "k-release"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("k-release") {
		t.Fatalf("key still present after release")
	}
	if err := store.release(ctx, "k-release"); err != nil {
		t.Fatalf("release of a missing key: %v", err)
	}
}

func TestRecord_Replayable(t *testing.T) {
	cases := []struct {
		name string
		r    record
		want bool
	}{
		{"in progress", record{InProgress: true, Code: 201, Body: []byte("{}")}, false},
		{"no code", record{Body: []byte("{}")}, false},
		{"empty body", record{Code: 201}, false},
		{"finished", record{Code: 201, Body: []byte("{}")}, true},
	}
	for _, tc := range cases {
		if got := tc.r.replayable(); got != tc.want {
			t.Errorf("%s: replayable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
