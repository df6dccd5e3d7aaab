package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	closed bool
}

func (r *recordingSink) Send(ctx context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestDispatcher_DeliversAllBeforeClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 4, 16, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := d.Publish(context.Background(), domain.NewEvent(domain.EventInventoryCreated, id, nil)); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 50 {
		t.Errorf("expected 50 events, got %d", len(sink.events))
	}
	if !sink.closed {
		t.Error("expected sink to be closed")
	}
}

func TestDispatcher_PublishAfterClose(t *testing.T) {
	d := NewDispatcher(&recordingSink{}, 1, 1, nil)
	d.Close()

	err := d.Publish(context.Background(), domain.NewEvent(domain.EventOrderDeleted, 1, nil))
	if !errors.Is(err, ErrDispatcherClosed) {
		t.Errorf("expected ErrDispatcherClosed, got: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got: %v", err)
	}
}

func TestEventKey_GroupsByEntity(t *testing.T) {
	a := eventKey(domain.NewEvent(domain.EventOrderCreated, 7, nil))
	b := eventKey(domain.NewEvent(domain.EventOrderItemAdded, 7, nil))
	if string(a) != "order:7" || string(a) != string(b) {
		t.Errorf("expected both keys to be order:7, got %q and %q", a, b)
	}
}
