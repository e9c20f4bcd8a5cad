package notify

import (
	"context"

	"github.com/99minutos/event-pickup/internal/api/metrics"
	"github.com/99minutos/event-pickup/internal/core/domain"
	"github.com/99minutos/event-pickup/internal/core/ports"
)

// Instrumented counts deliveries of the wrapped sink by kind and result.
type Instrumented struct {
	next ports.NotificationSink
}

func NewInstrumented(next ports.NotificationSink) *Instrumented {
	return &Instrumented{next: next}
}

func (s *Instrumented) Deliver(ctx context.Context, cmd domain.NotificationCommand) error {
	err := s.next.Deliver(ctx, cmd)
	result := "delivered"
	if err != nil {
		result = "failed"
	}
	metrics.NotificationsTotal.WithLabelValues(string(cmd.Kind), result).Inc()
	return err
}
