package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/tenantgrid/authd/internal/api/metrics"
	"github.com/tenantgrid/authd/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Consumer handles a single domain event. Errors are logged and
// swallowed: event handling is telemetry, never part of the request's
// failure domain.
type Consumer interface {
	Consume(ctx context.Context, event domain.Event) error
}

// Dispatcher routes domain events to a fixed set of workers using
// consistent hashing on the user id, preserving per-user ordering.
// Publish never blocks: when a worker's buffer is full the event is
// dropped and counted.
type Dispatcher struct {
	workers  []chan domain.Event
	consumer Consumer
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, consumer Consumer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.Event, numWorkers),
		consumer: consumer,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Publish hands an event to the worker responsible for its user id.
func (d *Dispatcher) Publish(event domain.Event) {
	select {
	case d.workers[d.shardIndex(event.UserID)] <- event:
	default:
		metrics.EventsDroppedTotal.WithLabelValues(string(event.Kind)).Inc()
		d.log.Warn().Str("kind", string(event.Kind)).Msg("event queue full, dropping event")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.consumer.Consume(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("kind", string(event.Kind)).
					Int("worker_id", id).
					Msg("event handling failed")
			}
		}
	}
}
