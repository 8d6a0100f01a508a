package server

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/config"
	"github.com/MKhiriev/wallet-cloud-sync/internal/handler"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

type server struct {
	transports []transport
	logger     *logger.Logger
}

func NewServer(handlers *handler.Handlers, cfg config.Server, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")
	servers := &server{logger: logger}

	if cfg.HTTPAddress != "" && handlers.HTTP != nil {
		servers.transports = append(servers.transports, newHTTPServer(handlers.HTTP.Init(), cfg, logger))
	}
	if cfg.GRPCAddress != "" && handlers.GRPC != nil {
		servers.transports = append(servers.transports, newGRPCServer(handlers.GRPC, cfg, logger))
	}

	if len(servers.transports) == 0 {
		return nil, errNoServersAreCreated
	}

	return servers, nil
}

// Run starts every transport. The first transport failure or the end of
// ctx shuts all of them down.
func (s *server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, t := range s.transports {
		g.Go(func() error {
			if err := t.serve(); err != nil {
				return fmt.Errorf("%s server: %w", t.name(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		for _, t := range s.transports {
			if err := t.shutdown(shutdownCtx); err != nil {
				s.logger.Err(err).Str("transport", t.name()).Msg("shutdown failed")
			}
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info().Msg("server Shutdown gracefully")
	return err
}
