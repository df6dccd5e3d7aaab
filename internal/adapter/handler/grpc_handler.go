package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	HealthServiceName = "logitrack.OrderManagement"

	defaultHealthInterval = 10 * time.Second
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// GRPCHandler serves grpc.health.v1.Health and keeps its status in line with the store.
type GRPCHandler struct {
	health  *health.Server
	checker HealthChecker
	logger  *zap.Logger
}

func NewGRPCHandler(checker HealthChecker, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{
		health:  health.NewServer(),
		checker: checker,
		logger:  logger,
	}
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

// Watch probes the store every interval until ctx is done. A non-positive
// interval falls back to 10s.
func (h *GRPCHandler) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	h.probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.probe(ctx)
		}
	}
}

func (h *GRPCHandler) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.checker.Ping(ctx); err != nil {
		h.logger.Warn("store health probe failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(HealthServiceName, status)
}

// Shutdown flips every service to NOT_SERVING so clients drain before the listener stops.
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
}
