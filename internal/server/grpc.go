package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/MKhiriev/wallet-cloud-sync/internal/config"
	myGRPC "github.com/MKhiriev/wallet-cloud-sync/internal/handler/grpc"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"

	"google.golang.org/grpc"
)

type grpcServer struct {
	handler *myGRPC.Handler
	address string

	server *grpc.Server

	// watchCtx bounds the health probe loop; stopWatch ends it.
	watchCtx  context.Context
	stopWatch context.CancelFunc

	logger *logger.Logger
}

func newGRPCServer(handler *myGRPC.Handler, cfg config.Server, logger *logger.Logger) *grpcServer {
	server := grpc.NewServer()
	handler.Register(server)

	watchCtx, stopWatch := context.WithCancel(context.Background())
	return &grpcServer{
		handler:   handler,
		address:   cfg.GRPCAddress,
		server:    server,
		watchCtx:  watchCtx,
		stopWatch: stopWatch,
		logger:    logger,
	}
}

func (g *grpcServer) name() string { return "grpc" }

func (g *grpcServer) serve() error {
	listener, err := net.Listen("tcp", g.address)
	if err != nil {
		return fmt.Errorf("gRPC listen on %s: %w", g.address, err)
	}

	go g.handler.Watch(g.watchCtx)

	g.logger.Info().Str("address", g.address).Msg("Launching GRPC server")
	if err := g.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (g *grpcServer) shutdown(ctx context.Context) error {
	g.logger.Info().Msg("GRPC server Shutdown")
	g.stopWatch()

	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		g.server.Stop()
		return ctx.Err()
	}
}
