// Package inproc dispatches deliveries on goroutines inside the process.
// Submission never blocks the hook path; when the in-flight cap is reached
// the delivery is dropped with a log line.
package inproc

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/Kondo2021/redmine-messenger/internal/adapter/webhook"
	"github.com/Kondo2021/redmine-messenger/internal/port/dispatch"
	"github.com/Kondo2021/redmine-messenger/internal/wire"
)

// Dispatcher runs each delivery on its own goroutine, bounded by a
// semaphore.
type Dispatcher struct {
	transport *webhook.Transport
	sem       *semaphore.Weighted
	max       int64
	logger    *slog.Logger
}

var _ dispatch.Dispatcher = (*Dispatcher)(nil)

// New builds a dispatcher allowing at most maxInFlight concurrent
// deliveries.
func New(transport *webhook.Transport, maxInFlight int, logger *slog.Logger) *Dispatcher {
	if maxInFlight <= 0 {
		maxInFlight = 16
	}
	return &Dispatcher{
		transport: transport,
		sem:       semaphore.NewWeighted(int64(maxInFlight)),
		max:       int64(maxInFlight),
		logger:    logger,
	}
}

// Submit starts the delivery and returns immediately. A saturated
// dispatcher drops the request rather than stall the caller.
func (d *Dispatcher) Submit(req wire.Request) {
	if !d.sem.TryAcquire(1) {
		d.logger.Warn("dispatcher saturated, delivery dropped", "url", req.URL)
		return
	}
	go func() {
		defer d.sem.Release(1)
		d.transport.Deliver(context.Background(), req)
	}()
}

// Close waits for in-flight deliveries to finish.
func (d *Dispatcher) Close(ctx context.Context) error {
	if err := d.sem.Acquire(ctx, d.max); err != nil {
		return err
	}
	d.sem.Release(d.max)
	return nil
}
