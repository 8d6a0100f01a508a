package workers

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const testService = "walletsync.RecordStore"

func startHealthServer(t *testing.T) (string, *health.Server) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go srv.Serve(l)
	t.Cleanup(srv.Stop)

	return l.Addr().String(), hs
}

func TestConnectivityMonitor_FollowsHealth(t *testing.T) {
	addr, hs := startHealthServer(t)
	hs.SetServingStatus(testService, healthpb.HealthCheckResponse_SERVING)

	rec := &recorder{}
	m := NewConnectivityMonitor(addr, testService, 10*time.Millisecond, logger.Nop(), rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, m.Available, 2*time.Second, 5*time.Millisecond)

	hs.SetServingStatus(testService, healthpb.HealthCheckResponse_NOT_SERVING)
	assert.Eventually(t, func() bool { return !m.Available() }, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	conn, _, _ := rec.snapshot()
	assert.Equal(t, []bool{true, false}, conn)
}

func TestConnectivityMonitor_UnreachableIsUnavailable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	m := NewConnectivityMonitor(addr, testService, time.Hour, logger.Nop())

	assert.False(t, m.Probe(context.Background()))
}
