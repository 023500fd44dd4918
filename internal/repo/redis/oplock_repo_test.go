package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestLockRepo(t *testing.T, ttl time.Duration) (*OpLockRepo, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewOpLockRepo(client, ttl), mr
}

func TestOpLockMutualExclusion(t *testing.T) {
	repo, _ := newTestLockRepo(t, time.Minute)
	ctx := context.Background()

	token, ok, err := repo.Acquire(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	if _, ok, err := repo.Acquire(ctx, 42); err != nil || ok {
		t.Fatalf("second acquire must be refused: ok=%v err=%v", ok, err)
	}

	// a different record is independent
	if _, ok, err := repo.Acquire(ctx, 43); err != nil || !ok {
		t.Fatalf("acquire for other record: ok=%v err=%v", ok, err)
	}

	if err := repo.Release(ctx, 42, token); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok, err := repo.Acquire(ctx, 42); err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestOpLockReleaseRequiresMatchingToken(t *testing.T) {
	repo, _ := newTestLockRepo(t, time.Minute)
	ctx := context.Background()

	token, ok, err := repo.Acquire(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	if err := repo.Release(ctx, 42, "stale-token"); err != nil {
		t.Fatalf("release with stale token: %v", err)
	}
	if _, ok, _ := repo.Acquire(ctx, 42); ok {
		t.Fatalf("lock must survive a stale release")
	}

	if err := repo.Release(ctx, 42, token); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestOpLockExpires(t *testing.T) {
	repo, mr := newTestLockRepo(t, time.Second)
	ctx := context.Background()

	if _, ok, err := repo.Acquire(ctx, 42); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	mr.FastForward(2 * time.Second)

	if _, ok, err := repo.Acquire(ctx, 42); err != nil || !ok {
		t.Fatalf("acquire after expiry: ok=%v err=%v", ok, err)
	}
}
