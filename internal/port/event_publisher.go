package port

import (
	"context"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
