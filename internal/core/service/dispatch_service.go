package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/99minutos/event-pickup/internal/core/domain"
	"github.com/99minutos/event-pickup/internal/core/ports"
	"github.com/99minutos/event-pickup/internal/core/routing"
)

// DispatchService computes a plan for an event, keeps its pickup requests in
// step with the roster and drives the notification sequence.
//
// At most one dispatch per event runs at a time; a concurrent request for
// the same event is rejected with *domain.ConflictError.
type DispatchService struct {
	sequencer *routing.Sequencer
	pickups   *PickupService
	notifier  *NotificationDispatcher
	lock      ports.DispatchLock

	inflight   *xsync.MapOf[string, struct{}]
	plans      *xsync.MapOf[string, *domain.DispatchPlan]
	eventLocks *keyedMutex
	log        zerolog.Logger
}

// NewDispatchService wires the dispatch flow. lock may be nil for a single
// process deployment.
func NewDispatchService(
	sequencer *routing.Sequencer,
	pickups *PickupService,
	notifier *NotificationDispatcher,
	lock ports.DispatchLock,
	log zerolog.Logger,
) *DispatchService {
	return &DispatchService{
		sequencer:  sequencer,
		pickups:    pickups,
		notifier:   notifier,
		lock:       lock,
		inflight:   xsync.NewMapOf[string, struct{}](),
		plans:      xsync.NewMapOf[string, *domain.DispatchPlan](),
		eventLocks: newKeyedMutex(),
		log:        log,
	}
}

// Dispatch sequences in.Roster for in.Driver, records a pickup request per
// stop, cancels requests of subscribers that left the roster, broadcasts the
// commenced notification and sends the first approaching one (or all of
// them, in plan order, for ModeImmediate).
//
// Notification failures never fail the dispatch; they are attached to the
// affected plan entries as warnings.
func (s *DispatchService) Dispatch(ctx context.Context, in ports.DispatchInput) (*domain.DispatchPlan, error) {
	if in.EventID == "" {
		return nil, &domain.ValidationError{Field: "event_id", Reason: "must not be empty"}
	}
	mode := in.Mode
	if mode == "" {
		mode = ports.ModeProgressive
	}
	if mode != ports.ModeProgressive && mode != ports.ModeImmediate {
		return nil, &domain.ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}

	if _, running := s.inflight.LoadOrStore(in.EventID, struct{}{}); running {
		s.log.Warn().Str("event_id", in.EventID).Msg("dispatch rejected, already in flight")
		return nil, &domain.ConflictError{EventID: in.EventID}
	}
	defer s.inflight.Delete(in.EventID)

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, in.EventID)
		if err != nil {
			return nil, fmt.Errorf("dispatch: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn().Err(err).Str("event_id", in.EventID).Msg("failed to release dispatch lock")
			}
		}()
	}

	start := time.Now()
	plan, err := s.sequencer.Sequence(in.Driver, in.Roster)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	plan.EventID = in.EventID
	plan.GeneratedAt = time.Now().UTC()

	unlock := s.eventLocks.Lock(in.EventID)
	defer unlock()

	if _, err := s.pickups.CancelAbsent(ctx, in.EventID, in.Roster); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	stops := lo.KeyBy(in.Roster, func(st domain.Stop) string { return st.SubscriberID })
	for i, entry := range plan.Entries {
		req, err := s.pickups.Upsert(ctx, in.EventID, stops[entry.SubscriberID], entry.Sequence)
		if err != nil {
			return nil, fmt.Errorf("dispatch: %w", err)
		}
		plan.Entries[i].PickupID = req.ID
	}

	for _, f := range s.notifier.Commence(ctx, plan) {
		attachWarning(plan, f)
	}

	if mode == ports.ModeImmediate {
		err = s.approachAll(ctx, plan)
	} else {
		err = s.advance(ctx, plan)
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	s.plans.Store(in.EventID, plan)

	s.log.Info().
		Str("event_id", in.EventID).
		Str("mode", string(mode)).
		Int("stops", len(plan.Entries)).
		Dur("elapsed", time.Since(start)).
		Msg("dispatch plan computed")

	return clonePlan(plan), nil
}

// Complete marks the subscriber as picked up and notifies the next stop.
func (s *DispatchService) Complete(ctx context.Context, eventID, subscriberID string) (*domain.PickupRequest, error) {
	req, err := s.pickups.Complete(ctx, eventID, subscriberID)
	if err != nil {
		return nil, err
	}
	s.advanceStored(ctx, eventID)
	return req, nil
}

// Cancel cancels the subscriber's pickup and, if it was the stop being
// approached, notifies the next one.
func (s *DispatchService) Cancel(ctx context.Context, eventID, subscriberID string) (*domain.PickupRequest, error) {
	req, err := s.pickups.Cancel(ctx, eventID, subscriberID)
	if err != nil {
		return nil, err
	}
	s.advanceStored(ctx, eventID)
	return req, nil
}

// ProcessSignal applies an asynchronously received signal.
func (s *DispatchService) ProcessSignal(ctx context.Context, in ports.SignalInput) error {
	var err error
	switch in.Kind {
	case ports.SignalComplete:
		_, err = s.Complete(ctx, in.EventID, in.SubscriberID)
	case ports.SignalCancel:
		_, err = s.Cancel(ctx, in.EventID, in.SubscriberID)
	default:
		return &domain.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown signal %q", in.Kind)}
	}
	if err != nil {
		return fmt.Errorf("process signal: %w", err)
	}
	return nil
}

// CurrentPlan returns a copy of the last plan computed for eventID.
func (s *DispatchService) CurrentPlan(eventID string) (*domain.DispatchPlan, error) {
	plan, ok := s.plans.Load(eventID)
	if !ok {
		return nil, fmt.Errorf("plan for event %q: %w", eventID, domain.ErrNotFound)
	}
	return clonePlan(plan), nil
}

// ListPickups returns the active pickup requests of eventID.
func (s *DispatchService) ListPickups(ctx context.Context, eventID string) ([]*domain.PickupRequest, error) {
	return s.pickups.ListActive(ctx, eventID)
}

// advanceStored advances the cached plan of eventID, if any. Failures are
// logged only: the signal that triggered it has already been applied.
func (s *DispatchService) advanceStored(ctx context.Context, eventID string) {
	unlock := s.eventLocks.Lock(eventID)
	defer unlock()

	stored, ok := s.plans.Load(eventID)
	if !ok {
		return
	}
	plan := clonePlan(stored)
	if err := s.advance(ctx, plan); err != nil {
		s.log.Error().Err(err).Str("event_id", eventID).Msg("failed to advance pickup sequence")
		return
	}
	s.plans.Store(eventID, plan)
}

// advance sends the approaching notification to the first planned stop that
// is still requested, unless an earlier stop is already being approached.
// Callers hold the event lock.
func (s *DispatchService) advance(ctx context.Context, plan *domain.DispatchPlan) error {
	active, err := s.pickups.ListActive(ctx, plan.EventID)
	if err != nil {
		return err
	}
	byID := lo.KeyBy(active, func(r *domain.PickupRequest) string { return r.SubscriberID })

	for i := range plan.Entries {
		req, ok := byID[plan.Entries[i].SubscriberID]
		if !ok {
			continue
		}
		switch req.Status {
		case domain.PickupNotified:
			return nil
		case domain.PickupRequested:
			return s.approach(ctx, plan, i, req.ID)
		}
	}
	return nil
}

func (s *DispatchService) approachAll(ctx context.Context, plan *domain.DispatchPlan) error {
	active, err := s.pickups.ListActive(ctx, plan.EventID)
	if err != nil {
		return err
	}
	byID := lo.KeyBy(active, func(r *domain.PickupRequest) string { return r.SubscriberID })

	for i := range plan.Entries {
		if req, ok := byID[plan.Entries[i].SubscriberID]; ok && req.Status == domain.PickupRequested {
			if err := s.approach(ctx, plan, i, req.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// approach notifies the stop at plan.Entries[i] and moves its request to
// notified. A suppressed duplicate leaves the request untouched.
func (s *DispatchService) approach(ctx context.Context, plan *domain.DispatchPlan, i int, pickupID string) error {
	plan.Entries[i].PickupID = pickupID
	entry := plan.Entries[i]
	sent, f := s.notifier.Approach(ctx, plan.EventID, entry)
	if f != nil {
		attachWarning(plan, *f)
	}
	if !sent {
		s.log.Warn().
			Str("event_id", plan.EventID).
			Str("subscriber_id", entry.SubscriberID).
			Str("pickup_id", pickupID).
			Msg("approaching notification suppressed, request left requested")
		return nil
	}
	_, err := s.pickups.MarkNotified(ctx, plan.EventID, entry.SubscriberID)
	if errors.Is(err, domain.ErrNotFound) {
		// canceled while the notification was in flight
		return nil
	}
	return err
}

func attachWarning(plan *domain.DispatchPlan, f domain.DeliveryFailure) {
	if entry, ok := plan.Entry(f.Command.SubscriberID); ok {
		entry.Warnings = append(entry.Warnings, f.Err.Error())
	}
}

func clonePlan(p *domain.DispatchPlan) *domain.DispatchPlan {
	out := *p
	out.Entries = make([]domain.PlanEntry, len(p.Entries))
	for i, e := range p.Entries {
		e.Warnings = slices.Clone(e.Warnings)
		out.Entries[i] = e
	}
	return &out
}
