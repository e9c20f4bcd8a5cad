package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/99minutos/event-pickup/internal/core/domain"
	"github.com/99minutos/event-pickup/internal/core/ports"
)

// PickupService owns the pickup request lifecycle. It is the only component
// that changes a request's status, and it serializes all mutations of one
// (event, subscriber) pair.
type PickupService struct {
	repo  ports.PickupRepository
	locks *keyedMutex
	log   zerolog.Logger
}

func NewPickupService(repo ports.PickupRepository, log zerolog.Logger) *PickupService {
	return &PickupService{repo: repo, locks: newKeyedMutex(), log: log}
}

// Upsert records that stop is part of a plan at position sequence. An
// existing active request is reused with its status untouched; otherwise a
// new request is created in the requested state.
func (s *PickupService) Upsert(ctx context.Context, eventID string, stop domain.Stop, sequence int) (*domain.PickupRequest, error) {
	unlock := s.locks.Lock(pickupKey(eventID, stop.SubscriberID))
	defer unlock()

	now := time.Now().UTC()
	existing, err := s.repo.FindActive(ctx, eventID, stop.SubscriberID)
	switch {
	case err == nil:
		existing.Location = stop.Location
		existing.Sequence = &sequence
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("upsert pickup: update: %w", err)
		}
		s.log.Debug().Str("event_id", eventID).Str("subscriber_id", stop.SubscriberID).Int("sequence", sequence).Msg("pickup request reused")
		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("upsert pickup: find: %w", err)
	}

	req := &domain.PickupRequest{
		ID:           uuid.NewString(),
		SubscriberID: stop.SubscriberID,
		EventID:      eventID,
		Location:     stop.Location,
		Status:       domain.PickupRequested,
		Sequence:     &sequence,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("upsert pickup: create: %w", err)
	}
	s.log.Info().Str("event_id", eventID).Str("subscriber_id", stop.SubscriberID).Int("sequence", sequence).Msg("pickup requested")
	return req, nil
}

// MarkNotified moves a requested pickup to notified.
func (s *PickupService) MarkNotified(ctx context.Context, eventID, subscriberID string) (*domain.PickupRequest, error) {
	return s.transition(ctx, eventID, subscriberID, domain.PickupNotified)
}

// Complete moves a notified pickup to completed.
func (s *PickupService) Complete(ctx context.Context, eventID, subscriberID string) (*domain.PickupRequest, error) {
	return s.transition(ctx, eventID, subscriberID, domain.PickupCompleted)
}

// Cancel moves a requested or notified pickup to canceled.
func (s *PickupService) Cancel(ctx context.Context, eventID, subscriberID string) (*domain.PickupRequest, error) {
	return s.transition(ctx, eventID, subscriberID, domain.PickupCanceled)
}

// CancelAbsent cancels every active request of eventID whose subscriber is
// not on roster.
func (s *PickupService) CancelAbsent(ctx context.Context, eventID string, roster []domain.Stop) ([]*domain.PickupRequest, error) {
	active, err := s.repo.ListActive(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("cancel absent: list: %w", err)
	}

	onRoster := lo.SliceToMap(roster, func(st domain.Stop) (string, struct{}) {
		return st.SubscriberID, struct{}{}
	})

	var canceled []*domain.PickupRequest
	for _, req := range active {
		if _, ok := onRoster[req.SubscriberID]; ok {
			continue
		}
		c, err := s.Cancel(ctx, eventID, req.SubscriberID)
		if errors.Is(err, domain.ErrNotFound) {
			// canceled or completed concurrently
			continue
		}
		if err != nil {
			return canceled, fmt.Errorf("cancel absent: %w", err)
		}
		canceled = append(canceled, c)
	}
	return canceled, nil
}

// ListActive returns the non-terminal requests of eventID.
func (s *PickupService) ListActive(ctx context.Context, eventID string) ([]*domain.PickupRequest, error) {
	reqs, err := s.repo.ListActive(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}
	return reqs, nil
}

func (s *PickupService) transition(ctx context.Context, eventID, subscriberID string, next domain.PickupStatus) (*domain.PickupRequest, error) {
	unlock := s.locks.Lock(pickupKey(eventID, subscriberID))
	defer unlock()

	req, err := s.repo.FindActive(ctx, eventID, subscriberID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.NotFoundError{EventID: eventID, SubscriberID: subscriberID}
	}
	if err != nil {
		return nil, fmt.Errorf("%s pickup: find: %w", next, err)
	}

	if !req.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s pickup: %w (from %s to %s)", next, domain.ErrInvalidTransition, req.Status, next)
	}

	prev := req.Status
	req.Status = next
	req.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("%s pickup: update: %w", next, err)
	}

	s.log.Info().
		Str("event_id", eventID).
		Str("subscriber_id", subscriberID).
		Str("from", string(prev)).
		Str("to", string(next)).
		Msg("pickup status changed")
	return req, nil
}
