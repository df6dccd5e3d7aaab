package domain

import "time"

type InventoryItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Location  string    `json:"location"`
	OrderID   *int64    `json:"orderId,omitempty"`
	Version   int       `json:"version"` // optimistic locking
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsNew reports whether the item has not been persisted yet.
func (i InventoryItem) IsNew() bool {
	return i.ID == 0
}

// Clone returns a copy that shares no memory with i.
func (i InventoryItem) Clone() InventoryItem {
	if i.OrderID != nil {
		id := *i.OrderID
		i.OrderID = &id
	}
	return i
}

// CloneItems deep-copies a slice of items. A nil input yields an empty slice.
func CloneItems(items []InventoryItem) []InventoryItem {
	out := make([]InventoryItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
