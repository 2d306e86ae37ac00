package grpc

import (
	"context"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ProductsService — имя сервиса в grpc.health.v1.
const ProductsService = "ferreteria.products"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter держит статус ProductsService в соответствии с доступностью Postgres.
type HealthReporter struct {
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   logger.Logger
	serving  bool
}

func NewHealthReporter(health *health.Server, pinger Pinger, interval time.Duration, logger logger.Logger) *HealthReporter {
	return &HealthReporter{
		health:   health,
		pinger:   pinger,
		interval: interval,
		timeout:  min(interval, 5*time.Second),
		logger:   logger,
	}
}

// Run проверяет базу сразу и затем каждые interval, пока не отменён ctx.
func (h *HealthReporter) Run(ctx context.Context) {
	h.Check(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

func (h *HealthReporter) Check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	err := h.pinger.Ping(pingCtx)
	cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		if h.serving {
			h.logger.Warnf("database ping failed, %s is NOT_SERVING: %v", ProductsService, err)
		}
	} else if !h.serving {
		h.logger.Infof("%s is SERVING", ProductsService)
	}

	h.serving = err == nil
	h.health.SetServingStatus(ProductsService, status)
}
