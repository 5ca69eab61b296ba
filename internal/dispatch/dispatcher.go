package dispatch

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/velic0/game-telemetry/internal/deadletter"
	"github.com/velic0/game-telemetry/internal/domain"
	"github.com/velic0/game-telemetry/internal/jsonlog"
	"github.com/velic0/game-telemetry/internal/metrics"
	"github.com/velic0/game-telemetry/internal/sink"
)

// ChunkSize is the sink-imposed cap on records per delivery call.
const ChunkSize = 500

// deliveryTimeout bounds a single chunk delivery so a stuck sink cannot
// wedge the background loop.
const deliveryTimeout = 30 * time.Second

var (
	ErrStopped       = errors.New("dispatcher stopped")
	errQueueOverflow = errors.New("dispatch queue full")
)

type Config struct {
	QueueSize int
}

// Dispatcher forwards accepted events to the sink from a background loop,
// capturing failures in the dead-letter store. The request path hands
// work off via Enqueue and never waits for delivery.
type Dispatcher struct {
	sink   sink.Sink
	dead   *deadletter.Store
	logger *jsonlog.Logger
	met    *metrics.Metrics

	in     chan []domain.Event
	stopCh chan struct{}
	doneCh chan struct{}
}

func New(s sink.Sink, dead *deadletter.Store, logger *jsonlog.Logger, met *metrics.Metrics, cfg Config) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10_000
	}
	return &Dispatcher{
		sink:   s,
		dead:   dead,
		logger: logger,
		met:    met,
		in:     make(chan []domain.Event, cfg.QueueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	go d.loop()
}

// Stop drains queued work, then shuts the loop down. Returns ctx.Err()
// when the drain does not finish in time.
func (d *Dispatcher) Stop(ctx context.Context) error {
	select {
	case <-d.stopCh:
	default:
		close(d.stopCh)
	}

	select {
	case <-d.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue schedules events for delivery and returns immediately. When the
// dispatcher is stopped or the queue is full the events go straight to
// the dead-letter store; the caller has already been acknowledged and
// must not see the failure.
func (d *Dispatcher) Enqueue(events []domain.Event) {
	if len(events) == 0 {
		return
	}

	select {
	case <-d.stopCh:
		d.capture(events, ErrStopped)
		return
	default:
	}

	select {
	case d.in <- events:
	default:
		d.capture(events, errQueueOverflow)
	}
}

// SendBatch splits events into consecutive chunks of at most ChunkSize
// and delivers each chunk independently. A failed chunk dead-letters its
// events but later chunks are still attempted. True only when every
// chunk succeeded; empty input is a trivial success with no sink call.
func (d *Dispatcher) SendBatch(ctx context.Context, events []domain.Event) bool {
	if len(events) == 0 {
		return true
	}

	ok := true
	for start := 0; start < len(events); start += ChunkSize {
		end := start + ChunkSize
		if end > len(events) {
			end = len(events)
		}
		chunk := events[start:end]

		if err := d.sink.SendBatch(ctx, chunk); err != nil {
			d.capture(chunk, err)
			ok = false
			continue
		}
		if d.met != nil {
			d.met.EventsDelivered.Add(float64(len(chunk)))
		}
	}
	return ok
}

// Send delivers one event, dead-lettering it on failure.
func (d *Dispatcher) Send(ctx context.Context, e domain.Event) bool {
	if err := d.sink.Send(ctx, e); err != nil {
		d.capture([]domain.Event{e}, err)
		return false
	}
	if d.met != nil {
		d.met.EventsDelivered.Inc()
	}
	return true
}

func (d *Dispatcher) loop() {
	defer close(d.doneCh)

	for {
		select {
		case <-d.stopCh:
			// Drain whatever was queued before the stop signal.
			for {
				select {
				case events := <-d.in:
					d.deliver(events)
				default:
					return
				}
			}

		case events := <-d.in:
			d.deliver(events)
		}
	}
}

func (d *Dispatcher) deliver(events []domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	d.SendBatch(ctx, events)
}

func (d *Dispatcher) capture(events []domain.Event, err error) {
	for _, e := range events {
		d.dead.Record(e, err)
	}
	if d.met != nil {
		d.met.DeliveryFailed.Add(float64(len(events)))
		d.met.DeadLetterSize.Set(float64(d.dead.Len()))
	}
	if d.logger != nil {
		d.logger.Error(err, jsonlog.Fields{
			"component": "dispatcher",
			"events":    strconv.Itoa(len(events)),
		})
	}
}
