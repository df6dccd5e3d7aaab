package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/port"
)

type InventoryService struct {
	repo   port.InventoryRepository
	cache  *InventoryCache
	events port.EventPublisher
	logger *zap.Logger
}

func NewInventoryService(repo port.InventoryRepository, cache *InventoryCache, events port.EventPublisher, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		repo:   repo,
		cache:  cache,
		events: events,
		logger: logger,
	}
}

// List serves the whole collection from the cache.
func (s *InventoryService) List(ctx context.Context) (items []domain.InventoryItem, err error) {
	ctx, span := tracer.Start(ctx, "InventoryService.List")
	defer func() { endSpan(span, err) }()

	return s.cache.GetAll(ctx)
}

// Get always reads the store.
func (s *InventoryService) Get(ctx context.Context, id int64) (item domain.InventoryItem, err error) {
	ctx, span := tracer.Start(ctx, "InventoryService.Get", trace.WithAttributes(attribute.Int64("inventory.id", id)))
	defer func() { endSpan(span, err) }()

	found, err := s.repo.GetInventoryItem(ctx, id)
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("get inventory item %d: %w", id, err)
	}
	if found == nil {
		return domain.InventoryItem{}, domain.NotFound("Inventory item with ID %d not found.", id)
	}
	return *found, nil
}

func (s *InventoryService) Create(ctx context.Context, item domain.InventoryItem) (created domain.InventoryItem, err error) {
	ctx, span := tracer.Start(ctx, "InventoryService.Create")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(item.Name) == "" {
		return domain.InventoryItem{}, domain.Invalid("The Name field is required.")
	}

	// Ownership changes go through orders.
	item.ID = 0
	item.OrderID = nil
	item.Version = 0

	created, err = s.repo.CreateInventoryItem(ctx, item)
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("create inventory item: %w", err)
	}

	syncCache(ctx, s.cache, s.logger)
	publish(ctx, s.events, s.logger, domain.NewEvent(domain.EventInventoryCreated, created.ID, created))
	s.logger.Info("inventory item created", zap.Int64("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// Update replaces name, quantity and location of the item. A zero body id
// takes the path id. A zero version means the version read just before the
// write is expected.
func (s *InventoryService) Update(ctx context.Context, id int64, item domain.InventoryItem) (updated domain.InventoryItem, err error) {
	ctx, span := tracer.Start(ctx, "InventoryService.Update", trace.WithAttributes(attribute.Int64("inventory.id", id)))
	defer func() { endSpan(span, err) }()

	if item.ID == 0 {
		item.ID = id
	}
	if item.ID != id {
		return domain.InventoryItem{}, domain.Invalid("Route id %d does not match item id %d.", id, item.ID)
	}
	if strings.TrimSpace(item.Name) == "" {
		return domain.InventoryItem{}, domain.Invalid("The Name field is required.")
	}

	existing, err := s.repo.GetInventoryItem(ctx, id)
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("get inventory item %d: %w", id, err)
	}
	if existing == nil {
		return domain.InventoryItem{}, domain.NotFound("Inventory item with ID %d not found.", id)
	}

	if item.Version == 0 {
		item.Version = existing.Version
	}
	item.OrderID = existing.OrderID
	item.CreatedAt = existing.CreatedAt

	updated, err = s.repo.UpdateInventoryItem(ctx, item)
	if errors.Is(err, domain.ErrOptimisticLock) {
		return domain.InventoryItem{}, s.resolveConflict(ctx, id)
	}
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("update inventory item %d: %w", id, err)
	}

	syncCache(ctx, s.cache, s.logger)
	publish(ctx, s.events, s.logger, domain.NewEvent(domain.EventInventoryUpdated, updated.ID, updated))
	return updated, nil
}

// resolveConflict decides what a failed versioned update means: the row was
// deleted underneath us, or someone else changed it first.
func (s *InventoryService) resolveConflict(ctx context.Context, id int64) error {
	exists, err := s.repo.InventoryItemExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check inventory item %d after conflict: %w", id, err)
	}
	if !exists {
		return domain.NotFound("Inventory item with ID %d not found.", id)
	}
	s.logger.Warn("inventory update conflict", zap.Int64("id", id))
	return fmt.Errorf("update inventory item %d: %w", id, domain.ErrConflict)
}

func (s *InventoryService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "InventoryService.Delete", trace.WithAttributes(attribute.Int64("inventory.id", id)))
	defer func() { endSpan(span, err) }()

	err = s.repo.DeleteInventoryItem(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Inventory item with ID %d not found.", id)
	}
	if err != nil {
		return fmt.Errorf("delete inventory item %d: %w", id, err)
	}

	syncCache(ctx, s.cache, s.logger)
	publish(ctx, s.events, s.logger, domain.NewEvent(domain.EventInventoryDeleted, id, nil))
	s.logger.Info("inventory item deleted", zap.Int64("id", id))
	return nil
}

// CacheStats exposes the inventory cache counters.
func (s *InventoryService) CacheStats() CacheStats {
	return s.cache.Stats()
}
