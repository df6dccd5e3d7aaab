package service

import (
	"context"
	"errors"
	"testing"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

func TestReconcile_AttachReturnsServerValues(t *testing.T) {
	store := newMockStore()
	existing := store.seed(domain.InventoryItem{Name: "Pallet Jack", Quantity: 12, Location: "Warehouse A"})[0]
	r := NewOrderReconciler(store, nil)

	out, err := r.Reconcile(context.Background(), []domain.InventoryItem{
		{ID: existing.ID, Name: "Client Name", Quantity: 999},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out))
	}
	if out[0].ID != existing.ID || out[0].Name != "Pallet Jack" || out[0].Quantity != 12 {
		t.Errorf("expected persisted values, got %+v", out[0])
	}
}

func TestReconcile_NewAndDanglingBecomeCreates(t *testing.T) {
	store := newMockStore()
	r := NewOrderReconciler(store, nil)

	out, err := r.Reconcile(context.Background(), []domain.InventoryItem{
		{Name: "New", Quantity: 1, Location: "Dock"},
		{ID: 9999, Name: "Ghost", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out))
	}
	if !out[0].IsNew() || out[0].Name != "New" || out[0].Location != "Dock" {
		t.Errorf("expected submitted values for new item, got %+v", out[0])
	}
	if !out[1].IsNew() || out[1].Name != "Ghost" || out[1].Quantity != 2 {
		t.Errorf("expected dangling reference to become a create, got %+v", out[1])
	}
}

func TestReconcile_PreservesOrderAndDuplicates(t *testing.T) {
	store := newMockStore()
	seeded := store.seed(domain.InventoryItem{Name: "A"}, domain.InventoryItem{Name: "B"})
	r := NewOrderReconciler(store, nil)

	out, _ := r.Reconcile(context.Background(), []domain.InventoryItem{
		{ID: seeded[1].ID},
		{Name: "C"},
		{ID: seeded[0].ID},
		{ID: seeded[1].ID},
	})

	names := []string{"B", "C", "A", "B"}
	if len(out) != len(names) {
		t.Fatalf("expected %d items, got %d", len(names), len(out))
	}
	for i, want := range names {
		if out[i].Name != want {
			t.Errorf("position %d: expected %q, got %q", i, want, out[i].Name)
		}
	}
}

func TestReconcile_EmptyInput(t *testing.T) {
	r := NewOrderReconciler(newMockStore(), nil)

	out, err := r.Reconcile(context.Background(), nil)
	if err != nil || out == nil || len(out) != 0 {
		t.Errorf("expected empty non-nil result, got %v, %v", out, err)
	}
}

func TestReconcile_LookupFailure(t *testing.T) {
	store := newMockStore()
	store.lookupErr = errors.New("connection reset")
	r := NewOrderReconciler(store, nil)

	_, err := r.Reconcile(context.Background(), []domain.InventoryItem{{ID: 1}})
	if !errors.Is(err, store.lookupErr) {
		t.Errorf("expected lookup error, got: %v", err)
	}
}
