package http

import (
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/service"
	"github.com/MKhiriev/wallet-cloud-sync/internal/tracing"
)

type Handler struct {
	services *service.Services
	tracer   *tracing.Tracer

	// requestTimeout bounds every routed request; zero disables it.
	requestTimeout time.Duration

	logger *logger.Logger
}

func NewHandler(services *service.Services, tracer *tracing.Tracer, requestTimeout time.Duration, logger *logger.Logger) *Handler {
	if tracer == nil {
		tracer = tracing.Nop()
	}

	logger.Info().Msg("http handler created")
	return &Handler{
		services:       services,
		tracer:         tracer,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}
