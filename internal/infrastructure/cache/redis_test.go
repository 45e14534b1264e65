package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestOpen_Success(t *testing.T) {
	s := miniredis.RunT(t)

	// Use a non-zero DB to verify it's set
	c, err := Open(Options{Addr: s.Addr(), DB: 2, PoolSize: 4})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if got := c.Options().DB; got != 2 {
		t.Fatalf("client DB = %d, want 2", got)
	}
	if got := c.Options().PoolSize; got != 4 {
		t.Fatalf("pool size = %d, want 4", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Set(ctx, "capture:lock:txn_1", "1", 0).Err(); err != nil {
		t.Fatalf("SET err: %v", err)
	}
	if !s.Exists("capture:lock:txn_1") {
		t.Fatalf("key not written to the selected db")
	}
}

func TestOpen_Failure(t *testing.T) {
	// Unresolvable host → Ping fails without waiting for the dial timeout
	_, err := Open(Options{Addr: "not-a-real-host:6379", DialTimeout: time.Second})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "not-a-real-host:6379") {
		t.Fatalf("error should name the address: %v", err)
	}
}

func TestCheck(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := Open(Options{Addr: s.Addr()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	check := Check(c)
	if err := check(context.Background()); err != nil {
		t.Fatalf("healthy check: %v", err)
	}
	s.Close()
	if err := check(context.Background()); err == nil {
		t.Fatalf("expected failure after redis went away")
	}
}
