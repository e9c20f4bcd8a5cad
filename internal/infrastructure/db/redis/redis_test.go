package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// ---------------------------------------------------------------------------
// Dedup
// ---------------------------------------------------------------------------

func TestDedupChecker_MarkThenDuplicate(t *testing.T) {
	mr, client := newTestClient(t)
	d := NewDedupChecker(client)
	ctx := context.Background()

	cmd := domain.NotificationCommand{EventID: "evt-1", SubscriberID: "u1", PickupID: "req-1", Kind: domain.NotificationCommenced}

	dup, err := d.IsDuplicate(ctx, cmd)
	if err != nil || dup {
		t.Fatalf("fresh command: dup=%v err=%v", dup, err)
	}
	if err := d.Mark(ctx, cmd); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if dup, _ := d.IsDuplicate(ctx, cmd); !dup {
		t.Errorf("expected marked command to be a duplicate")
	}
	if !mr.Exists("dedup:evt-1:u1:req-1:commenced") {
		t.Errorf("unexpected key layout: %v", mr.Keys())
	}

	other := cmd
	other.Kind = domain.NotificationApproaching
	if dup, _ := d.IsDuplicate(ctx, other); dup {
		t.Errorf("a different kind must not be a duplicate")
	}

	readded := cmd
	readded.PickupID = "req-2"
	if dup, _ := d.IsDuplicate(ctx, readded); dup {
		t.Errorf("a new pickup request must not be a duplicate")
	}
}

func TestDedupChecker_Expires(t *testing.T) {
	mr, client := newTestClient(t)
	d := NewDedupChecker(client)
	ctx := context.Background()
	cmd := domain.NotificationCommand{EventID: "evt-1", SubscriberID: "u1", Kind: domain.NotificationApproaching}

	_ = d.Mark(ctx, cmd)
	mr.FastForward(dedupTTL + time.Second)

	if dup, _ := d.IsDuplicate(ctx, cmd); dup {
		t.Errorf("expected mark to expire")
	}
}

func TestDedupChecker_ServerDown(t *testing.T) {
	mr, client := newTestClient(t)
	d := NewDedupChecker(client)
	mr.Close()

	_, err := d.IsDuplicate(context.Background(), domain.NotificationCommand{EventID: "evt-1"})
	if err == nil {
		t.Fatalf("expected an error with redis down")
	}
}

// ---------------------------------------------------------------------------
// Dispatch lock
// ---------------------------------------------------------------------------

func TestDispatchLock_Exclusive(t *testing.T) {
	_, client := newTestClient(t)
	lock := NewDispatchLock(client, time.Minute)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "evt-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	_, err = lock.Acquire(ctx, "evt-1")
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || conflict.EventID != "evt-1" {
		t.Fatalf("expected ConflictError for evt-1, got: %v", err)
	}

	if _, err := lock.Acquire(ctx, "evt-2"); err != nil {
		t.Errorf("other events must not be blocked: %v", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := lock.Acquire(ctx, "evt-1"); err != nil {
		t.Errorf("expected lock to be free after release, got: %v", err)
	}
}

func TestDispatchLock_ExpiredHolderCannotReleaseNewOwner(t *testing.T) {
	mr, client := newTestClient(t)
	lock := NewDispatchLock(client, time.Second)
	ctx := context.Background()

	staleRelease, err := lock.Acquire(ctx, "evt-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if _, err := lock.Acquire(ctx, "evt-1"); err != nil {
		t.Fatalf("expected expired lock to be acquirable, got: %v", err)
	}
	if err := staleRelease(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if !mr.Exists("lock:dispatch:evt-1") {
		t.Errorf("stale holder released the new owner's lock")
	}
}
