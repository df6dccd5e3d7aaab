package domain

import (
	"fmt"
	"time"
)

type Order struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customerName"`
	DatePlaced   time.Time       `json:"datePlaced"`
	Items        []InventoryItem `json:"items"`
}

// AddItem appends item unless an item with the same identity is already
// present. Unsaved items (ID 0) have no identity yet and are always appended.
func (o *Order) AddItem(item InventoryItem) bool {
	if !item.IsNew() && o.HasItem(item.ID) {
		return false
	}
	o.Items = append(o.Items, item)
	return true
}

// RemoveItem drops the item with the given id. It reports whether anything was removed.
func (o *Order) RemoveItem(itemID int64) bool {
	for i, it := range o.Items {
		if it.ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (o *Order) HasItem(itemID int64) bool {
	for _, it := range o.Items {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

func (o Order) Summary() string {
	return fmt.Sprintf("Order #%d for %s | Items: %d | Placed: %s",
		o.ID, o.CustomerName, len(o.Items), o.DatePlaced.Format(time.DateOnly))
}
