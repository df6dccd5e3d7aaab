package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

// Mock store implementing InventoryRepository and OrderRepository
type mockStore struct {
	mu        sync.Mutex
	items     map[int64]domain.InventoryItem
	orders    map[int64]domain.Order
	nextItem  int64
	nextOrder int64

	listCalls atomic.Int32

	// updateHook runs instead of the versioned update when set.
	updateHook func(item domain.InventoryItem) (domain.InventoryItem, error)
	lookupErr  error
	createErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		items:  make(map[int64]domain.InventoryItem),
		orders: make(map[int64]domain.Order),
	}
}

func (m *mockStore) seed(items ...domain.InventoryItem) []domain.InventoryItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.InventoryItem, 0, len(items))
	for _, it := range items {
		m.nextItem++
		it.ID = m.nextItem
		it.Version = 1
		m.items[it.ID] = it
		out = append(out, it)
	}
	return out
}

func (m *mockStore) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	m.listCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.InventoryItem, 0, len(m.items))
	for _, it := range m.items {
		items = append(items, it.Clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *mockStore) GetInventoryItem(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	it = it.Clone()
	return &it, nil
}

func (m *mockStore) InventoryItemExists(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	return ok, nil
}

func (m *mockStore) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	return m.seed(item)[0], nil
}

func (m *mockStore) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	if m.updateHook != nil {
		return m.updateHook(item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[item.ID]
	if !ok || current.Version != item.Version {
		return domain.InventoryItem{}, domain.ErrOptimisticLock
	}
	item.Version++
	m.items[item.ID] = item
	return item, nil
}

func (m *mockStore) DeleteInventoryItem(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := make([]domain.Order, 0, len(m.orders))
	for id := range m.orders {
		orders = append(orders, m.orderLocked(id))
	}
	return orders, nil
}

func (m *mockStore) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return nil, nil
	}
	o := m.orderLocked(id)
	return &o, nil
}

func (m *mockStore) orderLocked(id int64) domain.Order {
	o := m.orders[id]
	o.Items = nil
	for _, it := range m.items {
		if it.OrderID != nil && *it.OrderID == id {
			o.Items = append(o.Items, it.Clone())
		}
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })
	return o
}

func (m *mockStore) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if m.createErr != nil {
		return domain.Order{}, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextOrder++
	order.ID = m.nextOrder
	orderID := order.ID
	m.orders[orderID] = domain.Order{ID: orderID, CustomerName: order.CustomerName, DatePlaced: order.DatePlaced}
	for i, it := range order.Items {
		if it.IsNew() {
			m.nextItem++
			it.ID = m.nextItem
			it.Version = 1
		}
		it.OrderID = &orderID
		m.items[it.ID] = it
		order.Items[i] = it
	}
	return order, nil
}

func (m *mockStore) DeleteOrder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return domain.ErrNotFound
	}
	for itemID, it := range m.items {
		if it.OrderID != nil && *it.OrderID == id {
			it.OrderID = nil
			m.items[itemID] = it
		}
	}
	delete(m.orders, id)
	return nil
}

func (m *mockStore) AttachItem(ctx context.Context, orderID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return domain.ErrNotFound
	}
	it.OrderID = &orderID
	m.items[itemID] = it
	return nil
}

func (m *mockStore) DetachItem(ctx context.Context, orderID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok || it.OrderID == nil || *it.OrderID != orderID {
		return domain.ErrNotFound
	}
	it.OrderID = nil
	m.items[itemID] = it
	return nil
}

// Mock IdempotencyRepository
type mockIdempotency struct {
	mu       sync.Mutex
	keys     map[string]bool
	released []string
}

func newMockIdempotency() *mockIdempotency {
	return &mockIdempotency{keys: make(map[string]bool)}
}

func (m *mockIdempotency) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *mockIdempotency) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	m.released = append(m.released, key)
	return nil
}

// Mock EventPublisher
type mockPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) types() []domain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}
