package service

import (
	"context"
	"errors"
	"sync"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubPickupRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.PickupRequest
	order     []string
	createErr error
	updateErr error
	listErr   error
}

func newStubPickupRepo() *stubPickupRepo {
	return &stubPickupRepo{byID: make(map[string]*domain.PickupRequest)}
}

func (r *stubPickupRepo) Create(_ context.Context, req *domain.PickupRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if existing.EventID == req.EventID && existing.SubscriberID == req.SubscriberID && existing.Active() {
			return errors.New("duplicate active request")
		}
	}
	clone := *req
	r.byID[req.ID] = &clone
	r.order = append(r.order, req.ID)
	return nil
}

func (r *stubPickupRepo) FindActive(_ context.Context, eventID, subscriberID string) (*domain.PickupRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		req := r.byID[id]
		if req.EventID == eventID && req.SubscriberID == subscriberID && req.Active() {
			clone := *req
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubPickupRepo) ListActive(_ context.Context, eventID string) ([]*domain.PickupRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*domain.PickupRequest
	for _, id := range r.order {
		req := r.byID[id]
		if req.EventID == eventID && req.Active() {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPickupRepo) Update(_ context.Context, req *domain.PickupRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byID[req.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *req
	r.byID[req.ID] = &clone
	return nil
}

func (r *stubPickupRepo) statusOf(eventID, subscriberID string) domain.PickupStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last domain.PickupStatus
	for _, id := range r.order {
		req := r.byID[id]
		if req.EventID == eventID && req.SubscriberID == subscriberID {
			last = req.Status
		}
	}
	return last
}

// ---------------------------------------------------------------------------
// Notification sink and dedup stubs
// ---------------------------------------------------------------------------

type stubSink struct {
	mu        sync.Mutex
	delivered []domain.NotificationCommand
	failFor   map[string]error // subscriber id -> error
	block     chan struct{}    // when set, Deliver waits on it ignoring ctx
}

func (s *stubSink) Deliver(_ context.Context, cmd domain.NotificationCommand) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[cmd.SubscriberID]; err != nil {
		return err
	}
	s.delivered = append(s.delivered, cmd)
	return nil
}

func (s *stubSink) commands() []domain.NotificationCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.NotificationCommand(nil), s.delivered...)
}

func (s *stubSink) ofKind(kind domain.NotificationKind) []string {
	var ids []string
	for _, c := range s.commands() {
		if c.Kind == kind {
			ids = append(ids, c.SubscriberID)
		}
	}
	return ids
}

type stubDedup struct {
	mu     sync.Mutex
	seen   map[string]bool
	dupErr error
	dupAll bool
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: make(map[string]bool)}
}

func dedupKey(cmd domain.NotificationCommand) string {
	return cmd.EventID + ":" + cmd.SubscriberID + ":" + cmd.PickupID + ":" + string(cmd.Kind)
}

func (d *stubDedup) IsDuplicate(_ context.Context, cmd domain.NotificationCommand) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dupErr != nil {
		return false, d.dupErr
	}
	return d.dupAll || d.seen[dedupKey(cmd)], nil
}

func (d *stubDedup) Mark(_ context.Context, cmd domain.NotificationCommand) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[dedupKey(cmd)] = true
	return nil
}

// ---------------------------------------------------------------------------
// Dispatch lock stub
// ---------------------------------------------------------------------------

type stubLock struct {
	mu       sync.Mutex
	held     map[string]bool
	released []string
}

func (l *stubLock) Acquire(_ context.Context, eventID string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[eventID] {
		return nil, &domain.ConflictError{EventID: eventID}
	}
	l.held[eventID] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, eventID)
		l.released = append(l.released, eventID)
		return nil
	}, nil
}
