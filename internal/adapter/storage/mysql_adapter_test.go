package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

func getMySQLAdapter(t *testing.T) (*MySQLAdapter, *sql.DB) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/logitrack?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("MySQL not available: %v", err)
	}

	adapter := NewMySQLAdapter(db)
	if err := adapter.Migrate(context.Background()); err != nil {
		db.Close()
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return adapter, db
}

func TestMySQLInventory_CreateGetDelete(t *testing.T) {
	adapter, _ := getMySQLAdapter(t)
	ctx := context.Background()

	created, err := adapter.CreateInventoryItem(ctx, domain.InventoryItem{
		Name:     "Forklift " + time.Now().Format("150405.000"),
		Quantity: 3,
		Location: "Dock 4",
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.Version != 1 {
		t.Errorf("expected version 1, got %d", created.Version)
	}

	got, err := adapter.GetInventoryItem(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem failed: %v", err)
	}
	if got == nil || got.Name != created.Name || got.Quantity != 3 {
		t.Errorf("unexpected item: %+v", got)
	}

	if err := adapter.DeleteInventoryItem(ctx, created.ID); err != nil {
		t.Fatalf("DeleteInventoryItem failed: %v", err)
	}
	if err := adapter.DeleteInventoryItem(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got: %v", err)
	}

	exists, err := adapter.InventoryItemExists(ctx, created.ID)
	if err != nil {
		t.Fatalf("InventoryItemExists failed: %v", err)
	}
	if exists {
		t.Error("expected item to be gone")
	}
}

func TestMySQLInventory_GetNotFound(t *testing.T) {
	adapter, _ := getMySQLAdapter(t)

	item, err := adapter.GetInventoryItem(context.Background(), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item != nil {
		t.Error("expected nil for nonexistent item")
	}
}

func TestMySQLInventory_UpdateOptimisticLock(t *testing.T) {
	adapter, _ := getMySQLAdapter(t)
	ctx := context.Background()

	created, err := adapter.CreateInventoryItem(ctx, domain.InventoryItem{Name: "Lock Test", Quantity: 100})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer adapter.DeleteInventoryItem(ctx, created.ID)

	created.Quantity = 90
	updated, err := adapter.UpdateInventoryItem(ctx, created)
	if err != nil {
		t.Fatalf("UpdateInventoryItem failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("expected version 2, got %d", updated.Version)
	}

	// created still carries version 1
	_, err = adapter.UpdateInventoryItem(ctx, created)
	if !errors.Is(err, domain.ErrOptimisticLock) {
		t.Errorf("expected ErrOptimisticLock, got: %v", err)
	}
}

func TestMySQLOrder_CreateAttachesAndDeleteDetaches(t *testing.T) {
	adapter, _ := getMySQLAdapter(t)
	ctx := context.Background()

	existing, err := adapter.CreateInventoryItem(ctx, domain.InventoryItem{Name: "Pallet Jack", Quantity: 12, Location: "Warehouse A"})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	order, err := adapter.CreateOrder(ctx, domain.Order{
		CustomerName: "Acme",
		DatePlaced:   time.Now().UTC().Truncate(time.Second),
		Items: []domain.InventoryItem{
			{ID: existing.ID},
			{Name: "Shrink Wrap", Quantity: 40},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	stored, err := adapter.GetOrder(ctx, order.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if len(stored.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(stored.Items))
	}
	var newItemID int64
	for _, it := range stored.Items {
		if it.OrderID == nil || *it.OrderID != order.ID {
			t.Errorf("item %d not attached to order %d", it.ID, order.ID)
		}
		if it.ID != existing.ID {
			newItemID = it.ID
		}
	}

	if err := adapter.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder failed: %v", err)
	}
	if err := adapter.DeleteOrder(ctx, order.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}

	item, err := adapter.GetInventoryItem(ctx, existing.ID)
	if err != nil || item == nil {
		t.Fatalf("item should survive order delete: %v", err)
	}
	if item.OrderID != nil {
		t.Errorf("expected item detached, got order %d", *item.OrderID)
	}

	adapter.DeleteInventoryItem(ctx, existing.ID)
	adapter.DeleteInventoryItem(ctx, newItemID)
}

func TestMySQLOrder_CreateWithVanishedItemRollsBack(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	ctx := context.Background()

	name := "Rollback " + time.Now().Format("150405.000")
	_, err := adapter.CreateOrder(ctx, domain.Order{
		CustomerName: name,
		DatePlaced:   time.Now().UTC(),
		Items:        []domain.InventoryItem{{ID: -42}},
	})
	if err == nil {
		t.Fatal("expected error for missing item")
	}

	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE customer_name = ?`, name).Scan(&count)
	if count != 0 {
		t.Errorf("expected no order rows, got %d", count)
	}
}
