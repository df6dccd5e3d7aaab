package port

import (
	"context"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

type Authenticator interface {
	// Authenticate verifies a bearer token and returns the caller identity
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}
