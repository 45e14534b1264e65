package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCaptureGuard_AcquireRelease(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	g := NewCaptureGuard(rdb, 10*time.Second)
	ctx := context.Background()

	ok, release, err := g.Acquire(ctx, "txn_1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ttl := s.TTL(captureKey("txn_1")); ttl != 10*time.Second {
		t.Fatalf("ttl = %v", ttl)
	}

	ok2, release2, err := g.Acquire(ctx, "txn_1")
	if err != nil || ok2 {
		t.Fatalf("second acquire must fail: ok=%v err=%v", ok2, err)
	}
	release2() // no-op

	// different transaction is independent
	if ok3, r3, _ := g.Acquire(ctx, "txn_2"); !ok3 {
		t.Fatal("txn_2 should be free")
	} else {
		r3()
	}

	release()
	if s.Exists(captureKey("txn_1")) {
		t.Fatal("lock not released")
	}
	if ok, _, _ := g.Acquire(ctx, "txn_1"); !ok {
		t.Fatal("reacquire after release failed")
	}
}

func TestCaptureGuard_StaleReleaseKeepsNewHolder(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	g := NewCaptureGuard(rdb, 5*time.Second)
	ctx := context.Background()

	_, staleRelease, err := g.Acquire(ctx, "txn_3")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	s.FastForward(6 * time.Second)

	ok, release, err := g.Acquire(ctx, "txn_3")
	if err != nil || !ok {
		t.Fatalf("acquire after expiry: ok=%v err=%v", ok, err)
	}
	staleRelease()
	if !s.Exists(captureKey("txn_3")) {
		t.Fatal("stale release removed the new holder's lock")
	}
	release()
	if s.Exists(captureKey("txn_3")) {
		t.Fatal("lock not released by its holder")
	}
}

func TestCaptureGuard_ExpiresAndRedisDown(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	g := NewCaptureGuard(rdb, 0)
	ctx := context.Background()

	if ok, _, _ := g.Acquire(ctx, "txn_9"); !ok {
		t.Fatal("acquire failed")
	}
	s.FastForward(31 * time.Second)
	if ok, _, _ := g.Acquire(ctx, "txn_9"); !ok {
		t.Fatal("lock should have expired")
	}

	s.Close()
	if _, _, err := g.Acquire(ctx, "txn_10"); err == nil {
		t.Fatal("expected error with redis down")
	}
}
