package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

// LogSink writes events to the log. Used when no broker is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (l *LogSink) Send(ctx context.Context, event domain.Event) error {
	l.logger.Info("domain event",
		zap.String("type", string(event.Type)),
		zap.Int64("entity_id", event.EntityID),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}

func (l *LogSink) Close() error {
	return nil
}
