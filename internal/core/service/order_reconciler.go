package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

type ItemLookup interface {
	GetInventoryItem(ctx context.Context, id int64) (*domain.InventoryItem, error)
}

// OrderReconciler resolves the item references submitted with a new order.
type OrderReconciler struct {
	items  ItemLookup
	logger *zap.Logger
}

func NewOrderReconciler(items ItemLookup, logger *zap.Logger) *OrderReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderReconciler{items: items, logger: logger}
}

// Reconcile maps each candidate, in order, to either the persisted item with
// the same id (attach) or a new item built from the submitted values (create).
// A non-zero id that matches nothing is treated as a create and gets a fresh id.
// The output is not deduplicated. Only lookup failures are returned as errors.
func (r *OrderReconciler) Reconcile(ctx context.Context, candidates []domain.InventoryItem) ([]domain.InventoryItem, error) {
	out := make([]domain.InventoryItem, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.IsNew() {
			out = append(out, newItemFrom(candidate))
			continue
		}

		existing, err := r.items.GetInventoryItem(ctx, candidate.ID)
		if err != nil {
			return nil, fmt.Errorf("lookup inventory item %d: %w", candidate.ID, err)
		}
		if existing != nil {
			out = append(out, existing.Clone())
			continue
		}

		r.logger.Warn("order references unknown inventory item, creating a new one",
			zap.Int64("submitted_id", candidate.ID),
			zap.String("name", candidate.Name),
		)
		out = append(out, newItemFrom(candidate))
	}
	return out, nil
}

func newItemFrom(candidate domain.InventoryItem) domain.InventoryItem {
	return domain.InventoryItem{
		Name:     candidate.Name,
		Quantity: candidate.Quantity,
		Location: candidate.Location,
	}
}
