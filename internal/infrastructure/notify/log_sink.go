package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

// LogSink writes every command to the structured log. It is the sink used
// when no Redis is configured.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(_ context.Context, cmd domain.NotificationCommand) error {
	ev := s.log.Info().
		Str("event_id", cmd.EventID).
		Str("subscriber_id", cmd.SubscriberID).
		Str("kind", string(cmd.Kind)).
		Int("sequence", cmd.Sequence)
	if cmd.ETAMinutes != nil {
		ev = ev.Float64("eta_minutes", *cmd.ETAMinutes)
	}
	ev.Msg("pickup notification")
	return nil
}
