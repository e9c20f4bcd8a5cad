package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/event-pickup/internal/api/metrics"
	"github.com/99minutos/event-pickup/internal/core/domain"
	"github.com/99minutos/event-pickup/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes pickup signals to a fixed set of workers using consistent
// hashing on (event, subscriber), so signals for one pickup are applied in
// arrival order.
type Dispatcher struct {
	workers   []chan ports.SignalInput
	processor ports.SignalProcessor
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.SignalProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.SignalInput, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.SignalInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue sends a signal to the worker responsible for its pickup.
// The call blocks once that worker's buffer is full.
func (d *Dispatcher) Enqueue(signal ports.SignalInput) {
	idx := d.shardIndex(signal.EventID, signal.SubscriberID)
	d.workers[idx] <- signal
	metrics.SignalQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// EnqueueBatch enqueues multiple signals preserving per-pickup ordering.
func (d *Dispatcher) EnqueueBatch(signals []ports.SignalInput) {
	for _, s := range signals {
		d.Enqueue(s)
	}
}

// shardIndex maps a pickup deterministically to a worker index.
func (d *Dispatcher) shardIndex(eventID, subscriberID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(eventID))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(subscriberID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.SignalInput) {
	defer d.wg.Done()
	depth := metrics.SignalQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case signal, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			if err := d.processor.ProcessSignal(ctx, signal); err != nil {
				metrics.SignalsErrorsTotal.WithLabelValues(errorReason(err)).Inc()
				d.log.Error().Err(err).
					Str("event_id", signal.EventID).
					Str("subscriber_id", signal.SubscriberID).
					Str("kind", string(signal.Kind)).
					Int("worker_id", id).
					Msg("signal processing failed")
				continue
			}
			metrics.SignalsProcessedTotal.WithLabelValues(string(signal.Kind)).Inc()
		}
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
