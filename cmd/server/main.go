package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/wallet-cloud-sync/internal/config"
	"github.com/MKhiriev/wallet-cloud-sync/internal/handler"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/server"
	"github.com/MKhiriev/wallet-cloud-sync/internal/service"
	"github.com/MKhiriev/wallet-cloud-sync/internal/store"
	"github.com/MKhiriev/wallet-cloud-sync/internal/tracing"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("wallet-sync-server")
	cfg, err := config.GetServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: "wallet-sync-server",
		Version:     buildVersion,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("error creating tracer")
	}
	defer tracer.Shutdown(context.Background())

	storages, err := store.NewStorages(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer storages.Close()

	services, err := service.NewServices(storages, cfg, buildInfo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	handlers, err := handler.NewHandlers(services, storages, tracer, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	if err = srv.Run(ctx); err != nil {
		log.Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
