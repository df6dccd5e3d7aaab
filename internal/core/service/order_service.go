package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/port"
)

const idempotencyKeyPrefix = "idempotency:order:"

type OrderService struct {
	repo        port.OrderRepository
	items       ItemLookup
	reconciler  *OrderReconciler
	cache       *InventoryCache
	idempotency port.IdempotencyRepository
	events      port.EventPublisher
	logger      *zap.Logger
}

// NewOrderService wires the order use cases. idempotency and events may be nil.
func NewOrderService(
	repo port.OrderRepository,
	items ItemLookup,
	cache *InventoryCache,
	idempotency port.IdempotencyRepository,
	events port.EventPublisher,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		repo:        repo,
		items:       items,
		reconciler:  NewOrderReconciler(items, logger),
		cache:       cache,
		idempotency: idempotency,
		events:      events,
		logger:      logger,
	}
}

func (s *OrderService) List(ctx context.Context) (orders []domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.List")
	defer func() { endSpan(span, err) }()

	orders, err = s.repo.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (order domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, err) }()

	found, err := s.find(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return *found, nil
}

func (s *OrderService) Summary(ctx context.Context, id int64) (string, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return order.Summary(), nil
}

func (s *OrderService) find(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	if order == nil {
		return nil, domain.NotFound("Order with ID %d not found.", id)
	}
	return order, nil
}

// Create persists a new order. Submitted items are reconciled first: known
// ids are attached, everything else is created with the order. When
// idempotencyKey is set, a second request with the same key is rejected.
func (s *OrderService) Create(ctx context.Context, order *domain.Order, idempotencyKey string) (created domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Create")
	defer func() { endSpan(span, err) }()

	if order == nil {
		return domain.Order{}, domain.Invalid("Order payload is required.")
	}
	if strings.TrimSpace(order.CustomerName) == "" {
		return domain.Order{}, domain.Invalid("The CustomerName field is required.")
	}
	for _, item := range order.Items {
		if item.IsNew() && strings.TrimSpace(item.Name) == "" {
			return domain.Order{}, domain.Invalid("The Name field is required for new items.")
		}
	}

	if idempotencyKey != "" && s.idempotency != nil {
		key := idempotencyKeyPrefix + idempotencyKey
		ok, claimErr := s.idempotency.SetIdempotency(ctx, key)
		if claimErr != nil {
			return domain.Order{}, fmt.Errorf("idempotency check failed: %w", claimErr)
		}
		if !ok {
			return domain.Order{}, domain.ErrDuplicateRequest
		}
		defer func() {
			if err == nil {
				return
			}
			if releaseErr := s.idempotency.ReleaseIdempotency(context.WithoutCancel(ctx), key); releaseErr != nil {
				s.logger.Error("release idempotency key failed", zap.String("key", key), zap.Error(releaseErr))
			}
		}()
	}

	draft := domain.Order{
		CustomerName: order.CustomerName,
		DatePlaced:   order.DatePlaced,
	}
	if draft.DatePlaced.IsZero() {
		draft.DatePlaced = time.Now().UTC()
	}

	items, err := s.reconciler.Reconcile(ctx, order.Items)
	if err != nil {
		return domain.Order{}, &StorageError{Op: "reconcile order items", Err: err}
	}
	// Unknown ids fall back to creation and need a name too.
	for _, item := range items {
		if item.IsNew() && strings.TrimSpace(item.Name) == "" {
			return domain.Order{}, domain.Invalid("The Name field is required for new items.")
		}
	}
	draft.Items = items

	created, err = s.repo.CreateOrder(ctx, draft)
	if err != nil {
		return domain.Order{}, &StorageError{Op: "create order", Err: err}
	}

	// Attached items may repeat; the stored graph is the answer.
	if stored, getErr := s.repo.GetOrder(ctx, created.ID); getErr != nil {
		s.logger.Warn("reload created order failed", zap.Int64("id", created.ID), zap.Error(getErr))
	} else if stored != nil {
		created = *stored
	}

	syncCache(ctx, s.cache, s.logger)
	publish(ctx, s.events, s.logger, domain.NewEvent(domain.EventOrderCreated, created.ID, created))
	s.logger.Info("order created",
		zap.Int64("id", created.ID),
		zap.String("customer", created.CustomerName),
		zap.Int("items", len(created.Items)),
	)
	return created, nil
}

// Delete removes the order. Its items stay in inventory without an owner.
func (s *OrderService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, err) }()

	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	err = s.repo.DeleteOrder(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Order with ID %d not found.", id)
	}
	if err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}

	syncCache(ctx, s.cache, s.logger)
	publish(ctx, s.events, s.logger, domain.NewEvent(domain.EventOrderDeleted, id, nil))
	s.logger.Info("order deleted", zap.Int64("id", id))
	return nil
}

// AddItem attaches an existing inventory item to the order. Adding an item
// that is already part of the order changes nothing.
func (s *OrderService) AddItem(ctx context.Context, orderID, itemID int64) (order domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.AddItem", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("inventory.id", itemID),
	))
	defer func() { endSpan(span, err) }()

	found, err := s.find(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	item, err := s.items.GetInventoryItem(ctx, itemID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get inventory item %d: %w", itemID, err)
	}
	if item == nil {
		return domain.Order{}, domain.NotFound("Inventory item with ID %d not found.", itemID)
	}

	item.OrderID = &orderID
	if !found.AddItem(*item) {
		return *found, nil
	}

	if err := s.repo.AttachItem(ctx, orderID, itemID); err != nil {
		return domain.Order{}, fmt.Errorf("attach item %d to order %d: %w", itemID, orderID, err)
	}

	syncCache(ctx, s.cache, s.logger)
	publish(ctx, s.events, s.logger, domain.NewEvent(domain.EventOrderItemAdded, orderID, map[string]int64{"itemId": itemID}))
	return *found, nil
}

func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID int64) (order domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.RemoveItem", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("inventory.id", itemID),
	))
	defer func() { endSpan(span, err) }()

	found, err := s.find(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !found.RemoveItem(itemID) {
		return domain.Order{}, domain.NotFound("Inventory item with ID %d is not part of order %d.", itemID, orderID)
	}

	if err := s.repo.DetachItem(ctx, orderID, itemID); err != nil {
		return domain.Order{}, fmt.Errorf("detach item %d from order %d: %w", itemID, orderID, err)
	}

	syncCache(ctx, s.cache, s.logger)
	publish(ctx, s.events, s.logger, domain.NewEvent(domain.EventOrderItemRemoved, orderID, map[string]int64{"itemId": itemID}))
	return *found, nil
}
