package port

import (
	"context"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

type InventoryRepository interface {
	// ListInventory returns every item ordered by id
	ListInventory(ctx context.Context) ([]domain.InventoryItem, error)

	// GetInventoryItem retrieves an item by id, nil when it does not exist
	GetInventoryItem(ctx context.Context, id int64) (*domain.InventoryItem, error)

	// InventoryItemExists reports whether an item with the id is stored
	InventoryItemExists(ctx context.Context, id int64) (bool, error)

	// CreateInventoryItem inserts the item and returns it with its assigned id
	CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error)

	// UpdateInventoryItem updates with version check for optimistic locking
	UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error)

	// DeleteInventoryItem removes the item, domain.ErrNotFound when absent
	DeleteInventoryItem(ctx context.Context, id int64) error
}

type OrderRepository interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)

	// GetOrder retrieves an order with its items, nil when it does not exist
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)

	// CreateOrder persists the order in one transaction. Items with id 0 are
	// inserted, the rest are attached to the new order.
	CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error)

	// DeleteOrder removes the order and detaches its items
	DeleteOrder(ctx context.Context, id int64) error

	// AttachItem points the item at the order
	AttachItem(ctx context.Context, orderID, itemID int64) error

	// DetachItem clears the item's order reference if it belongs to the order
	DetachItem(ctx context.Context, orderID, itemID int64) error
}

// DatabaseRepository is the full store used by the server.
type DatabaseRepository interface {
	InventoryRepository
	OrderRepository

	Ping(ctx context.Context) error
}
