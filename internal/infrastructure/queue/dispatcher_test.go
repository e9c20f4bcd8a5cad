package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/99minutos/event-pickup/internal/api/metrics"
	"github.com/99minutos/event-pickup/internal/core/domain"
	"github.com/99minutos/event-pickup/internal/core/ports"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen map[string][]ports.SignalKind
	err  error
	done chan struct{}
}

func (p *recordingProcessor) ProcessSignal(_ context.Context, in ports.SignalInput) error {
	p.mu.Lock()
	key := in.EventID + "|" + in.SubscriberID
	p.seen[key] = append(p.seen[key], in.Kind)
	p.mu.Unlock()
	p.done <- struct{}{}
	return p.err
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-timeout:
			t.Fatalf("timed out after %d of %d signals", i, n)
		}
	}
}

func TestDispatcher_PreservesPerPickupOrder(t *testing.T) {
	proc := &recordingProcessor{seen: map[string][]ports.SignalKind{}, done: make(chan struct{}, 64)}
	d := NewDispatcher(4, proc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	var batch []ports.SignalInput
	for i := 0; i < 10; i++ {
		kind := ports.SignalComplete
		if i%2 == 1 {
			kind = ports.SignalCancel
		}
		batch = append(batch, ports.SignalInput{EventID: "evt-1", SubscriberID: "u1", Kind: kind})
		batch = append(batch, ports.SignalInput{EventID: "evt-1", SubscriberID: "u2", Kind: ports.SignalComplete})
	}
	d.EnqueueBatch(batch)
	waitFor(t, proc.done, len(batch))
	cancel()
	d.Wait()

	got := proc.seen["evt-1|u1"]
	if len(got) != 10 {
		t.Fatalf("expected 10 signals for u1, got %d", len(got))
	}
	for i, kind := range got {
		want := ports.SignalComplete
		if i%2 == 1 {
			want = ports.SignalCancel
		}
		if kind != want {
			t.Errorf("signal %d = %s, want %s", i, kind, want)
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, nil, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	a := d.shardIndex("evt-1", "u1")
	for i := 0; i < 100; i++ {
		if d.shardIndex("evt-1", "u1") != a {
			t.Fatalf("shard index changed between calls")
		}
	}
	if idx := d.shardIndex("evt-9", "subscriber-with-a-long-id"); idx < 0 || idx >= defaultWorkers {
		t.Fatalf("shard index %d out of range", idx)
	}
}

func TestDispatcher_FailuresAreCounted(t *testing.T) {
	proc := &recordingProcessor{
		seen: map[string][]ports.SignalKind{},
		err:  &domain.NotFoundError{EventID: "evt-1", SubscriberID: "u9"},
		done: make(chan struct{}, 1),
	}
	counter := metrics.SignalsErrorsTotal.WithLabelValues("not_found")
	before := testutil.ToFloat64(counter)

	d := NewDispatcher(1, proc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	d.Enqueue(ports.SignalInput{EventID: "evt-1", SubscriberID: "u9", Kind: ports.SignalCancel})
	waitFor(t, proc.done, 1)
	cancel()
	d.Wait()

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("not_found delta = %v, want 1", got)
	}
}

func TestErrorReason(t *testing.T) {
	cases := map[string]error{
		"not_found":          domain.ErrNotFound,
		"invalid_transition": domain.ErrInvalidTransition,
		"invalid":            &domain.ValidationError{Field: "kind", Reason: "unknown"},
		"error":              errors.New("mongo down"),
	}
	for want, err := range cases {
		if got := errorReason(err); got != want {
			t.Errorf("errorReason(%v) = %s, want %s", err, got, want)
		}
	}
}
