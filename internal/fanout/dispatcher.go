package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/landhub-backend/pkg/config"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
	"github.com/angelmondragon/landhub-backend/pkg/metrics"
)

// Dispatcher queues events in memory and hands them to a Sink from a fixed
// pool of workers. A full queue drops the event.
type Dispatcher struct {
	sink    Sink
	logg    *logger.Logger
	metrics *metrics.FanoutMetrics
	timeout time.Duration
	workers int

	queue chan queuedEvent
	wg    sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

type queuedEvent struct {
	ctx   context.Context
	event Event
}

// NewDispatcher sizes the queue and worker pool from cfg.
func NewDispatcher(cfg config.FanoutConfig, sink Sink, logg *logger.Logger, m *metrics.FanoutMetrics) (*Dispatcher, error) {
	if sink == nil {
		return nil, fmt.Errorf("fanout sink required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.QueueSize <= 0 {
		return nil, fmt.Errorf("fanout queue size must be positive")
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("fanout workers must be positive")
	}
	timeout := cfg.DeliverTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		sink:    sink,
		logg:    logg,
		metrics: m,
		timeout: timeout,
		workers: cfg.Workers,
		queue:   make(chan queuedEvent, cfg.QueueSize),
	}, nil
}

// Start launches the workers. Calling it twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
}

// Publish enqueues event. The request context only contributes log fields;
// its cancellation does not reach the sink.
func (d *Dispatcher) Publish(ctx context.Context, event Event) {
	if ctx == nil {
		ctx = context.Background()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ctx, event, "dispatcher closed")
		return
	}

	select {
	case d.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		d.metrics.SetQueueDepth(len(d.queue))
	default:
		d.drop(ctx, event, "fanout queue full")
	}
}

func (d *Dispatcher) drop(ctx context.Context, event Event, reason string) {
	d.metrics.IncDropped()
	fields := map[string]any{
		"event_type":     event.Type,
		"target_user_id": event.TargetUserID.String(),
		"listing_id":     event.ListingID.String(),
	}
	d.logg.Warn(d.logg.WithFields(ctx, fields), reason+", notification dropped")
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for item := range d.queue {
		d.metrics.SetQueueDepth(len(d.queue))
		d.deliver(item)
	}
}

func (d *Dispatcher) deliver(item queuedEvent) {
	ctx, cancel := context.WithTimeout(item.ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.metrics.IncFailed(string(item.event.Type))
			d.logg.Error(ctx, "fanout sink panicked", fmt.Errorf("panic: %v", r))
		}
	}()

	if err := d.sink.Deliver(ctx, item.event); err != nil {
		d.metrics.IncFailed(string(item.event.Type))
		fields := map[string]any{
			"event_type":     item.event.Type,
			"target_user_id": item.event.TargetUserID.String(),
		}
		d.logg.Error(d.logg.WithFields(ctx, fields), "fanout delivery failed", err)
		return
	}
	d.metrics.IncDelivered(string(item.event.Type))
}

// Close stops accepting events and waits for queued ones to drain, or for ctx
// to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("fanout drain interrupted"), ctx.Err())
	}
}
