package events

import (
	"context"
	"sync"
	"time"

	"circular-storefront/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatusChanged is published after an order status write that the customer
// should hear about.
type StatusChanged struct {
	OrderID           string
	RecipientEmail    string
	RecipientName     string
	NewStatus         model.OrderStatus
	TotalAmount       decimal.Decimal
	Currency          string
	TrackingNumber    string
	TrackingCarrier   string
	EstimatedDelivery *time.Time
}

type Handler func(ctx context.Context, evt StatusChanged) error

// Publisher is what the order workflow depends on.
type Publisher interface {
	// Publish enqueues evt without blocking. It reports false when the
	// event was dropped.
	Publish(evt StatusChanged) bool
}

type DispatcherOptions struct {
	Buffer  int
	Workers int
	Timeout time.Duration
}

// Dispatcher delivers StatusChanged events to a handler from a fixed pool of
// workers. Delivery is at-most-once: a handler error is logged and the event
// is gone.
type Dispatcher struct {
	queue   chan StatusChanged
	handler Handler
	timeout time.Duration
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(handler Handler, opts DispatcherOptions, log *zap.Logger) *Dispatcher {
	if opts.Buffer < 0 {
		opts.Buffer = 0
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	d := &Dispatcher{
		queue:   make(chan StatusChanged, opts.Buffer),
		handler: handler,
		timeout: opts.Timeout,
		log:     log,
	}

	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.work()
	}
	return d
}

func (d *Dispatcher) Publish(evt StatusChanged) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}

	select {
	case d.queue <- evt:
		return true
	default:
		d.log.Warn("notification queue full, dropping event",
			zap.String("order_id", evt.OrderID),
			zap.String("status", string(evt.NewStatus)))
		return false
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for evt := range d.queue {
		d.deliver(evt)
	}
}

func (d *Dispatcher) deliver(evt StatusChanged) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification handler panicked",
				zap.String("order_id", evt.OrderID), zap.Any("panic", r))
		}
	}()

	if err := d.handler(ctx, evt); err != nil {
		d.log.Warn("order notification failed",
			zap.String("order_id", evt.OrderID),
			zap.String("status", string(evt.NewStatus)),
			zap.Error(err))
	}
}

// Close stops accepting events and waits for queued ones to be handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}
