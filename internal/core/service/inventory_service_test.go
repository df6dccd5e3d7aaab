package service

import (
	"context"
	"errors"
	"testing"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

func newInventoryFixture(strategy CacheStrategy) (*InventoryService, *mockStore, *mockPublisher) {
	store := newMockStore()
	events := &mockPublisher{}
	cache := NewInventoryCache(store, CacheOptions{SlidingWindow: DefaultSlidingWindow, Strategy: strategy})
	return NewInventoryService(store, cache, events, nil), store, events
}

func TestInventoryService_ListReflectsEveryWrite(t *testing.T) {
	for _, strategy := range []CacheStrategy{CacheStrategyInvalidate, CacheStrategyRehydrate} {
		t.Run(string(strategy), func(t *testing.T) {
			svc, _, events := newInventoryFixture(strategy)
			ctx := context.Background()

			svc.List(ctx) // prime

			created, err := svc.Create(ctx, domain.InventoryItem{Name: "Pallet Jack", Quantity: 12})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			items, _ := svc.List(ctx)
			if len(items) != 1 || items[0].ID != created.ID {
				t.Fatalf("expected created item in listing, got %+v", items)
			}

			if _, err := svc.Update(ctx, created.ID, domain.InventoryItem{Name: "Pallet Jack", Quantity: 3}); err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			items, _ = svc.List(ctx)
			if items[0].Quantity != 3 {
				t.Errorf("expected updated quantity, got %d", items[0].Quantity)
			}

			if err := svc.Delete(ctx, created.ID); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			items, _ = svc.List(ctx)
			if len(items) != 0 {
				t.Errorf("expected empty listing after delete, got %+v", items)
			}

			got := events.types()
			want := []domain.EventType{domain.EventInventoryCreated, domain.EventInventoryUpdated, domain.EventInventoryDeleted}
			if len(got) != len(want) {
				t.Fatalf("expected events %v, got %v", want, got)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
				}
			}
		})
	}
}

func TestInventoryService_CreateRequiresName(t *testing.T) {
	svc, _, _ := newInventoryFixture(CacheStrategyInvalidate)

	_, err := svc.Create(context.Background(), domain.InventoryItem{Quantity: 1})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestInventoryService_UpdateIDMismatch(t *testing.T) {
	svc, store, _ := newInventoryFixture(CacheStrategyInvalidate)
	item := store.seed(domain.InventoryItem{Name: "Crate"})[0]

	_, err := svc.Update(context.Background(), item.ID, domain.InventoryItem{ID: item.ID + 1, Name: "Crate"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestInventoryService_UpdateConflictOnLiveRow(t *testing.T) {
	svc, store, _ := newInventoryFixture(CacheStrategyInvalidate)
	item := store.seed(domain.InventoryItem{Name: "Crate"})[0]
	store.updateHook = func(domain.InventoryItem) (domain.InventoryItem, error) {
		return domain.InventoryItem{}, domain.ErrOptimisticLock
	}

	_, err := svc.Update(context.Background(), item.ID, domain.InventoryItem{Name: "Crate", Quantity: 2})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got: %v", err)
	}
}

func TestInventoryService_UpdateConflictOnDeletedRow(t *testing.T) {
	svc, store, events := newInventoryFixture(CacheStrategyInvalidate)
	item := store.seed(domain.InventoryItem{Name: "Crate"})[0]
	store.updateHook = func(it domain.InventoryItem) (domain.InventoryItem, error) {
		// Someone deletes the row between our read and our write.
		store.DeleteInventoryItem(context.Background(), it.ID)
		return domain.InventoryItem{}, domain.ErrOptimisticLock
	}

	_, err := svc.Update(context.Background(), item.ID, domain.InventoryItem{Name: "Crate"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
	if len(events.types()) != 0 {
		t.Errorf("failed update must not publish events")
	}
}

func TestInventoryService_StaleClientVersion(t *testing.T) {
	svc, store, _ := newInventoryFixture(CacheStrategyInvalidate)
	item := store.seed(domain.InventoryItem{Name: "Crate"})[0]
	ctx := context.Background()

	if _, err := svc.Update(ctx, item.ID, domain.InventoryItem{Name: "Crate", Quantity: 1}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	_, err := svc.Update(ctx, item.ID, domain.InventoryItem{Name: "Crate", Quantity: 2, Version: item.Version})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for stale version, got: %v", err)
	}
}

func TestInventoryService_GetBypassesCache(t *testing.T) {
	svc, store, _ := newInventoryFixture(CacheStrategyInvalidate)
	item := store.seed(domain.InventoryItem{Name: "Crate"})[0]
	ctx := context.Background()

	if _, err := svc.Get(ctx, item.ID); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if store.listCalls.Load() != 0 {
		t.Errorf("Get should not load the collection")
	}
	if _, err := svc.Get(ctx, item.ID+1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestInventoryService_DeleteMissing(t *testing.T) {
	svc, _, _ := newInventoryFixture(CacheStrategyInvalidate)

	err := svc.Delete(context.Background(), 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}
