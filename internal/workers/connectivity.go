package workers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	defaultConnectivityInterval = 10 * time.Second
	probeTimeout                = 3 * time.Second
)

// ConnectivityMonitor probes the record store's gRPC health service and
// reports SERVING as available. Listeners hear about the first result and
// every change after it.
type ConnectivityMonitor struct {
	address  string
	service  string
	interval time.Duration

	listeners []ConnectivityListener
	available atomic.Bool

	logger *logger.Logger
}

// NewConnectivityMonitor probes address every interval, asking for the
// status of service.
func NewConnectivityMonitor(address, service string, interval time.Duration, logger *logger.Logger, listeners ...ConnectivityListener) *ConnectivityMonitor {
	if interval <= 0 {
		interval = defaultConnectivityInterval
	}
	return &ConnectivityMonitor{
		address:   address,
		service:   service,
		interval:  interval,
		listeners: listeners,
		logger:    logger,
	}
}

// Available returns the last probe result.
func (m *ConnectivityMonitor) Available() bool {
	return m.available.Load()
}

func (m *ConnectivityMonitor) Run(ctx context.Context) error {
	conn, err := grpc.NewClient(m.address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connectivity monitor: %w", err)
	}
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	first := true
	for {
		available := m.probe(ctx, client)
		if ctx.Err() != nil {
			return nil
		}
		if first || available != m.available.Load() {
			m.available.Store(available)
			m.logger.Info().Bool("available", available).Msg("record store connectivity changed")
			for _, l := range m.listeners {
				l.ConnectivityChanged(available)
			}
			first = false
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Probe checks the health service once.
func (m *ConnectivityMonitor) Probe(ctx context.Context) bool {
	conn, err := grpc.NewClient(m.address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return false
	}
	defer conn.Close()
	return m.probe(ctx, healthpb.NewHealthClient(conn))
}

func (m *ConnectivityMonitor) probe(ctx context.Context, client healthpb.HealthClient) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: m.service})
	if err != nil {
		m.logger.Debug().Err(err).Str("address", m.address).Msg("health probe failed")
		return false
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}
