package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

// MemoryAdapter is a process-local store with the same semantics as
// MySQLAdapter. Used for local runs and tests.
type MemoryAdapter struct {
	mu         sync.RWMutex
	items      map[int64]domain.InventoryItem
	orders     map[int64]domain.Order
	nextItemID int64
	nextOrder  int64
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		items:  make(map[int64]domain.InventoryItem),
		orders: make(map[int64]domain.Order),
	}
}

func (m *MemoryAdapter) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryAdapter) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(m.items))
	for _, it := range m.items {
		items = append(items, it.Clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *MemoryAdapter) GetInventoryItem(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	it = it.Clone()
	return &it, nil
}

func (m *MemoryAdapter) InventoryItemExists(ctx context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.items[id]
	return ok, nil
}

func (m *MemoryAdapter) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertLocked(item, nil), nil
}

func (m *MemoryAdapter) insertLocked(item domain.InventoryItem, orderID *int64) domain.InventoryItem {
	m.nextItemID++
	now := time.Now().UTC()
	item.ID = m.nextItemID
	item.OrderID = nil
	if orderID != nil {
		id := *orderID
		item.OrderID = &id
	}
	item.Version = 1
	item.CreatedAt = now
	item.UpdatedAt = now
	m.items[item.ID] = item
	return item.Clone()
}

func (m *MemoryAdapter) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[item.ID]
	if !ok || current.Version != item.Version {
		return domain.InventoryItem{}, domain.ErrOptimisticLock
	}
	current.Name = item.Name
	current.Quantity = item.Quantity
	current.Location = item.Location
	current.Version++
	current.UpdatedAt = time.Now().UTC()
	m.items[item.ID] = current
	return current.Clone(), nil
}

func (m *MemoryAdapter) DeleteInventoryItem(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := make([]domain.Order, 0, len(m.orders))
	for id := range m.orders {
		orders = append(orders, m.orderLocked(id))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (m *MemoryAdapter) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.orders[id]; !ok {
		return nil, nil
	}
	o := m.orderLocked(id)
	return &o, nil
}

// orderLocked assembles the order with its items, the way a join would.
func (m *MemoryAdapter) orderLocked(id int64) domain.Order {
	o := m.orders[id]
	o.Items = make([]domain.InventoryItem, 0)
	for _, it := range m.items {
		if it.OrderID != nil && *it.OrderID == id {
			o.Items = append(o.Items, it.Clone())
		}
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })
	return o
}

func (m *MemoryAdapter) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate before touching anything so a failure leaves no partial order.
	for _, it := range order.Items {
		if it.IsNew() {
			continue
		}
		if _, ok := m.items[it.ID]; !ok {
			return domain.Order{}, fmt.Errorf("attach inventory item %d: item no longer exists", it.ID)
		}
	}

	m.nextOrder++
	orderID := m.nextOrder
	m.orders[orderID] = domain.Order{
		ID:           orderID,
		CustomerName: order.CustomerName,
		DatePlaced:   order.DatePlaced,
	}

	items := make([]domain.InventoryItem, 0, len(order.Items))
	for _, it := range order.Items {
		if it.IsNew() {
			items = append(items, m.insertLocked(it, &orderID))
			continue
		}
		m.attachLocked(orderID, it.ID)
		items = append(items, m.items[it.ID].Clone())
	}

	order.ID = orderID
	order.Items = items
	return order, nil
}

func (m *MemoryAdapter) attachLocked(orderID, itemID int64) {
	it := m.items[itemID]
	id := orderID
	it.OrderID = &id
	it.Version++
	it.UpdatedAt = time.Now().UTC()
	m.items[itemID] = it
}

func (m *MemoryAdapter) DeleteOrder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return domain.ErrNotFound
	}
	for itemID, it := range m.items {
		if it.OrderID != nil && *it.OrderID == id {
			it.OrderID = nil
			it.Version++
			m.items[itemID] = it
		}
	}
	delete(m.orders, id)
	return nil
}

func (m *MemoryAdapter) AttachItem(ctx context.Context, orderID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[orderID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := m.items[itemID]; !ok {
		return domain.ErrNotFound
	}
	m.attachLocked(orderID, itemID)
	return nil
}

func (m *MemoryAdapter) DetachItem(ctx context.Context, orderID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[itemID]
	if !ok || it.OrderID == nil || *it.OrderID != orderID {
		return domain.ErrNotFound
	}
	it.OrderID = nil
	it.Version++
	it.UpdatedAt = time.Now().UTC()
	m.items[itemID] = it
	return nil
}
