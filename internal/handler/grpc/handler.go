// Package grpc exposes the record store's gRPC surface: the standard
// health service, driven by database reachability.
package grpc

import (
	"context"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/store"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service entry clients probe. The empty name
// reports the same status.
const ServiceName = "walletsync.RecordStore"

const (
	defaultProbeInterval = 5 * time.Second
	probeTimeout         = 2 * time.Second
)

// Handler is the root gRPC transport handler.
type Handler struct {
	health *health.Server
	pinger store.Pinger

	// probeInterval is how often the database is pinged.
	probeInterval time.Duration

	logger *logger.Logger
}

// NewHandler returns a handler whose health status starts NOT_SERVING until
// the first successful ping.
func NewHandler(pinger store.Pinger, logger *logger.Logger) *Handler {
	logger.Debug().Msg("gRPC handler created")

	h := &Handler{
		health:        health.NewServer(),
		pinger:        pinger,
		probeInterval: defaultProbeInterval,
		logger:        logger,
	}
	h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Register attaches the health service to server.
func (h *Handler) Register(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, h.health)
}

// Watch pings the database until ctx is done, flipping the health status
// on every change. On return the status is NOT_SERVING.
func (h *Handler) Watch(ctx context.Context) {
	ticker := time.NewTicker(h.probeInterval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		status := h.probe(ctx)
		if status != last {
			h.logger.Info().Str("status", status.String()).Msg("record store health changed")
			h.setStatus(status)
			last = status
		}

		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

func (h *Handler) probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := h.pinger.PingContext(ctx); err != nil {
		h.logger.Debug().Err(err).Msg("database ping failed")
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

func (h *Handler) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}
