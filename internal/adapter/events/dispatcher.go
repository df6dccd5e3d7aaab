package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

var ErrDispatcherClosed = errors.New("event dispatcher closed")

const sendTimeout = 5 * time.Second

// Sink delivers a single event to its destination.
type Sink interface {
	Send(ctx context.Context, event domain.Event) error
	Close() error
}

// Dispatcher queues events and hands them to a pool of workers, so request
// handlers never wait on the broker.
type Dispatcher struct {
	queue  chan domain.Event
	sink   Sink
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sink Sink, workers, queueSize int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		queue:  make(chan domain.Event, queueSize),
		sink:   sink,
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id)
		}(i)
	}
	return d
}

func (d *Dispatcher) Publish(ctx context.Context, event domain.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) workerLoop(id int) {
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)

		if err := d.sink.Send(ctx, event); err != nil {
			d.logger.Error("send event failed",
				zap.Int("worker", id),
				zap.String("type", string(event.Type)),
				zap.Int64("entity_id", event.EntityID),
				zap.Error(err),
			)
		}

		cancel()
	}
}

// Close stops accepting events, drains the queue and closes the sink.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	return d.sink.Close()
}
