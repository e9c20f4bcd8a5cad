package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

func newPickupSvc(repo *stubPickupRepo) *PickupService {
	return NewPickupService(repo, zerolog.Nop())
}

func stop(id string, lat, lng float64) domain.Stop {
	return domain.Stop{SubscriberID: id, Location: domain.Coordinate{Lat: lat, Lng: lng}}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestPickupService_Upsert_CreatesRequested(t *testing.T) {
	repo := newStubPickupRepo()
	svc := newPickupSvc(repo)

	req, err := svc.Upsert(context.Background(), "evt-1", stop("u1", 1, 1), 0)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if req.ID == "" {
		t.Errorf("expected generated id")
	}
	if req.Status != domain.PickupRequested {
		t.Errorf("status = %s, want requested", req.Status)
	}
	if req.Sequence == nil || *req.Sequence != 0 {
		t.Errorf("sequence = %v, want 0", req.Sequence)
	}
}

func TestPickupService_Upsert_ReusesActiveRequest(t *testing.T) {
	repo := newStubPickupRepo()
	svc := newPickupSvc(repo)
	ctx := context.Background()

	first, _ := svc.Upsert(ctx, "evt-1", stop("u1", 1, 1), 0)
	if _, err := svc.MarkNotified(ctx, "evt-1", "u1"); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	second, err := svc.Upsert(ctx, "evt-1", stop("u1", 2, 2), 3)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected request %s to be reused, got %s", first.ID, second.ID)
	}
	if second.Status != domain.PickupNotified {
		t.Errorf("status = %s, want notified to be preserved", second.Status)
	}
	if *second.Sequence != 3 || second.Location.Lat != 2 {
		t.Errorf("expected sequence and location to be updated, got %+v", second)
	}

	active, _ := svc.ListActive(ctx, "evt-1")
	if len(active) != 1 {
		t.Errorf("expected exactly one active request, got %d", len(active))
	}
}

func TestPickupService_Upsert_ConcurrentSameSubscriber(t *testing.T) {
	repo := newStubPickupRepo()
	svc := newPickupSvc(repo)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Upsert(context.Background(), "evt-1", stop("u1", 1, 1), i); err != nil {
				t.Errorf("upsert %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	active, _ := svc.ListActive(context.Background(), "evt-1")
	if len(active) != 1 {
		t.Fatalf("expected one active request, got %d", len(active))
	}
}

func TestPickupService_Upsert_NewRequestAfterTerminal(t *testing.T) {
	repo := newStubPickupRepo()
	svc := newPickupSvc(repo)
	ctx := context.Background()

	first, _ := svc.Upsert(ctx, "evt-1", stop("u1", 1, 1), 0)
	if _, err := svc.Cancel(ctx, "evt-1", "u1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	second, err := svc.Upsert(ctx, "evt-1", stop("u1", 1, 1), 0)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if second.ID == first.ID || second.Status != domain.PickupRequested {
		t.Errorf("expected a fresh requested pickup, got %+v", second)
	}
}

func TestPickupService_Lifecycle_HappyPath(t *testing.T) {
	repo := newStubPickupRepo()
	svc := newPickupSvc(repo)
	ctx := context.Background()

	_, _ = svc.Upsert(ctx, "evt-1", stop("u1", 1, 1), 0)
	if _, err := svc.MarkNotified(ctx, "evt-1", "u1"); err != nil {
		t.Fatalf("mark notified: %v", err)
	}
	req, err := svc.Complete(ctx, "evt-1", "u1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if req.Status != domain.PickupCompleted {
		t.Errorf("status = %s, want completed", req.Status)
	}
	if got := repo.statusOf("evt-1", "u1"); got != domain.PickupCompleted {
		t.Errorf("persisted status = %s, want completed", got)
	}
}

func TestPickupService_Complete_RequiresNotified(t *testing.T) {
	repo := newStubPickupRepo()
	svc := newPickupSvc(repo)
	ctx := context.Background()

	_, _ = svc.Upsert(ctx, "evt-1", stop("u1", 1, 1), 0)
	_, err := svc.Complete(ctx, "evt-1", "u1")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestPickupService_Cancel_NoActiveRequest(t *testing.T) {
	svc := newPickupSvc(newStubPickupRepo())

	_, err := svc.Cancel(context.Background(), "evt-1", "u9")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got: %v", err)
	}
	if nf.SubscriberID != "u9" || nf.EventID != "evt-1" {
		t.Errorf("unexpected error fields: %+v", nf)
	}
}

func TestPickupService_TerminalStatesAreFinal(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		reach func(svc *PickupService) error
	}{
		{"canceled", func(svc *PickupService) error {
			_, err := svc.Cancel(ctx, "evt-1", "u1")
			return err
		}},
		{"completed", func(svc *PickupService) error {
			if _, err := svc.MarkNotified(ctx, "evt-1", "u1"); err != nil {
				return err
			}
			_, err := svc.Complete(ctx, "evt-1", "u1")
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newPickupSvc(newStubPickupRepo())
			_, _ = svc.Upsert(ctx, "evt-1", stop("u1", 1, 1), 0)
			if err := tc.reach(svc); err != nil {
				t.Fatalf("reach %s: %v", tc.name, err)
			}
			if _, err := svc.Cancel(ctx, "evt-1", "u1"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("second cancel: expected ErrNotFound, got %v", err)
			}
			if _, err := svc.Complete(ctx, "evt-1", "u1"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("second complete: expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestPickupService_CancelAbsent(t *testing.T) {
	repo := newStubPickupRepo()
	svc := newPickupSvc(repo)
	ctx := context.Background()

	for i, id := range []string{"u1", "u2", "u3"} {
		_, _ = svc.Upsert(ctx, "evt-1", stop(id, 1, 1), i)
	}
	_, _ = svc.Upsert(ctx, "evt-2", stop("u2", 1, 1), 0)

	canceled, err := svc.CancelAbsent(ctx, "evt-1", []domain.Stop{stop("u1", 1, 1), stop("u3", 1, 1)})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(canceled) != 1 || canceled[0].SubscriberID != "u2" {
		t.Fatalf("expected only u2 to be canceled, got %v", canceled)
	}
	if repo.statusOf("evt-2", "u2") != domain.PickupRequested {
		t.Errorf("other events must not be touched")
	}
}

func TestPickupService_PersistenceFailureIsReturned(t *testing.T) {
	repo := newStubPickupRepo()
	svc := newPickupSvc(repo)
	ctx := context.Background()

	repo.createErr = fmt.Errorf("mongo down")
	if _, err := svc.Upsert(ctx, "evt-1", stop("u1", 1, 1), 0); err == nil {
		t.Fatalf("expected create failure to be returned")
	}

	repo.createErr = nil
	_, _ = svc.Upsert(ctx, "evt-1", stop("u1", 1, 1), 0)
	repo.updateErr = fmt.Errorf("write conflict")
	if _, err := svc.Cancel(ctx, "evt-1", "u1"); err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected wrapped update failure, got: %v", err)
	}
	if repo.statusOf("evt-1", "u1") != domain.PickupRequested {
		t.Errorf("failed write must leave the stored status unchanged")
	}
}
