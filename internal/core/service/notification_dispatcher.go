package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/99minutos/event-pickup/internal/core/domain"
	"github.com/99minutos/event-pickup/internal/core/ports"
)

const (
	defaultNotifyTimeout     = 5 * time.Second
	defaultNotifyConcurrency = 8
)

// NotifierOptions tunes notification delivery.
type NotifierOptions struct {
	// Timeout bounds a single delivery so a stalled sink cannot hold up
	// the dispatch. Defaults to 5s.
	Timeout time.Duration
	// Concurrency caps the fan-out of the commenced broadcast. Defaults to 8.
	Concurrency int
}

// NotificationDispatcher turns plan entries into notification commands and
// hands them to a sink. Each command is delivered at most once and never
// retried; failures are logged and reported back, never returned as errors.
type NotificationDispatcher struct {
	sink        ports.NotificationSink
	dedup       ports.DeliveryDeduper
	timeout     time.Duration
	concurrency int
	log         zerolog.Logger
}

// NewNotificationDispatcher returns a dispatcher writing to sink. dedup may
// be nil, in which case only the sink's own semantics apply.
func NewNotificationDispatcher(sink ports.NotificationSink, dedup ports.DeliveryDeduper, opts NotifierOptions, log zerolog.Logger) *NotificationDispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultNotifyTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultNotifyConcurrency
	}
	return &NotificationDispatcher{
		sink:        sink,
		dedup:       dedup,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		log:         log,
	}
}

// Commence broadcasts a commenced command to every stop of plan and returns
// once all deliveries have finished. Failures come back in plan order.
func (d *NotificationDispatcher) Commence(ctx context.Context, plan *domain.DispatchPlan) []domain.DeliveryFailure {
	results := make([]error, len(plan.Entries))
	cmds := make([]domain.NotificationCommand, len(plan.Entries))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, entry := range plan.Entries {
		cmds[i] = domain.NotificationCommand{
			EventID:      plan.EventID,
			SubscriberID: entry.SubscriberID,
			PickupID:     entry.PickupID,
			Kind:         domain.NotificationCommenced,
			Sequence:     entry.Sequence,
		}
		i := i
		g.Go(func() error {
			_, results[i] = d.deliver(ctx, cmds[i])
			return nil
		})
	}
	_ = g.Wait()

	var failures []domain.DeliveryFailure
	for i, err := range results {
		if err != nil {
			failures = append(failures, domain.DeliveryFailure{Command: cmds[i], Err: err})
		}
	}
	return failures
}

// Approach sends the approaching command for entry, including its ETA.
// sent is false when the command was suppressed as a duplicate; a failed
// delivery still counts as sent.
func (d *NotificationDispatcher) Approach(ctx context.Context, eventID string, entry domain.PlanEntry) (sent bool, failure *domain.DeliveryFailure) {
	cmd := domain.NotificationCommand{
		EventID:      eventID,
		SubscriberID: entry.SubscriberID,
		PickupID:     entry.PickupID,
		Kind:         domain.NotificationApproaching,
		ETAMinutes:   entry.ETAMinutes,
		Sequence:     entry.Sequence,
	}
	sent, err := d.deliver(ctx, cmd)
	if err != nil {
		return sent, &domain.DeliveryFailure{Command: cmd, Err: err}
	}
	return sent, nil
}

// deliver reports whether cmd was handed to the sink.
func (d *NotificationDispatcher) deliver(ctx context.Context, cmd domain.NotificationCommand) (bool, error) {
	logger := d.log.With().
		Str("event_id", cmd.EventID).
		Str("subscriber_id", cmd.SubscriberID).
		Str("pickup_id", cmd.PickupID).
		Str("kind", string(cmd.Kind)).
		Logger()

	if d.dedup != nil {
		isDup, err := d.dedup.IsDuplicate(ctx, cmd)
		if err != nil {
			logger.Warn().Err(err).Msg("dedup check failed, delivering anyway")
		} else if isDup {
			logger.Debug().Msg("duplicate notification skipped")
			return false, nil
		}
		// Marked before sending: a crash after this point loses the
		// notification instead of sending it twice.
		if err := d.dedup.Mark(ctx, cmd); err != nil {
			logger.Warn().Err(err).Msg("failed to set dedup key")
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// The sink runs on its own goroutine so that one ignoring ctx still
	// cannot hold the caller past the timeout.
	done := make(chan error, 1)
	go func() { done <- d.sink.Deliver(sendCtx, cmd) }()

	var err error
	select {
	case err = <-done:
	case <-sendCtx.Done():
		err = sendCtx.Err()
	}
	if err != nil {
		logger.Warn().Err(err).Msg("notification delivery failed")
		return true, fmt.Errorf("deliver %s to %s: %w", cmd.Kind, cmd.SubscriberID, err)
	}
	logger.Debug().Msg("notification delivered")
	return true, nil
}
