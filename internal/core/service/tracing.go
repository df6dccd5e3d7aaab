package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/port"
)

var tracer = otel.Tracer("github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/service")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func publish(ctx context.Context, events port.EventPublisher, logger *zap.Logger, event domain.Event) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed", zap.String("type", string(event.Type)), zap.Int64("entity_id", event.EntityID), zap.Error(err))
	}
}

func syncCache(ctx context.Context, cache *InventoryCache, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.AfterWrite(ctx); err != nil {
		// The entry is already dropped; the next read reloads it.
		logger.Warn("rehydrate inventory cache failed", zap.Error(err))
	}
}
