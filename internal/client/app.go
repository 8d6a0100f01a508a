package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/MKhiriev/wallet-cloud-sync/internal/adapter"
	"github.com/MKhiriev/wallet-cloud-sync/internal/config"
	"github.com/MKhiriev/wallet-cloud-sync/internal/crypto"
	"github.com/MKhiriev/wallet-cloud-sync/internal/engine"
	grpchandler "github.com/MKhiriev/wallet-cloud-sync/internal/handler/grpc"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/store"
	"github.com/MKhiriev/wallet-cloud-sync/internal/tracing"
	"github.com/MKhiriev/wallet-cloud-sync/internal/tui"
	"github.com/MKhiriev/wallet-cloud-sync/internal/utils"
	"github.com/MKhiriev/wallet-cloud-sync/internal/workers"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	"golang.org/x/sync/errgroup"
)

const serviceName = "wallet-cloud-sync-client"

var ErrNoLogin = errors.New("login and password are required")

// App is the sync client process.
type App struct {
	cfg *config.ClientConfig

	db           *store.DB
	remote       *adapter.RecordStoreClient
	tracer       *tracing.Tracer
	traceOutput  io.Closer
	coordinators []*engine.Coordinator
	connectivity *workers.ConnectivityMonitor
	credentials  *workers.CredentialMonitor
	workers      *workers.Workers
	ui           UI

	logger *logger.Logger
}

var _ Client = (*App)(nil)

// NewApp derives the wallet keys, opens and migrates the local store and
// wires a coordinator per configured domain with the background monitors.
func NewApp(ctx context.Context, cfg *config.ClientConfig, buildInfo models.AppBuildInfo, log *logger.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: log}

	tracer, traceOutput, err := newTracer(ctx, cfg, buildInfo)
	if err != nil {
		return nil, fmt.Errorf("create tracer: %w", err)
	}
	a.tracer, a.traceOutput = tracer, traceOutput

	master, err := crypto.DeriveMasterSecret(cfg.App.Passphrase, cfg.App.WalletID)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("derive master secret: %w", err)
	}
	keys, err := crypto.DeriveKeyRing(master)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("derive keys: %w", err)
	}
	codec, err := crypto.NewCodec(keys.EncryptionKey)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create codec: %w", err)
	}

	db, err := store.NewConnectSQLite(ctx, cfg.Storage.Local, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open local store: %w", err)
	}
	a.db = db
	if err = db.Migrate(); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate local store: %w", err)
	}
	local := store.NewLocalStore(db, log)

	a.remote, err = adapter.NewRecordStoreClient(cfg.Adapter, tracer, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create record store client: %w", err)
	}
	var remote engine.RemoteRecordStore = a.remote
	if cfg.Sync.SharedRateLimit > 0 {
		remote = engine.NewLimitedRemote(a.remote, engine.NewSharedLimiter(cfg.Sync.SharedRateLimit, cfg.Sync.SharedRateBurst))
	}

	domains, err := engine.LookupDomains(cfg.Sync.Domains)
	if err != nil {
		a.Close()
		return nil, err
	}

	var uploadDelay engine.UploadDelayRange
	if cfg.Sync.UploadDelay {
		uploadDelay = engine.UploadDelayRange{Min: cfg.Sync.UploadDelayMin, Max: cfg.Sync.UploadDelayMax}
	}

	var (
		connListeners  []workers.ConnectivityListener
		credListeners  []workers.CredentialsListener
		queueListeners []workers.QueueListener
		uiDomains      []tui.Domain
	)
	for _, d := range domains {
		coordinator, err := engine.NewCoordinator(engine.Deps{
			Domain:      d,
			Container:   keys.ContainerName(d.Name),
			RecordKey:   keys.RecordKey,
			Local:       local,
			Remote:      remote,
			Codec:       codec,
			ToggleDelay: cfg.Sync.ToggleDelay,
			UploadDelay: uploadDelay,
			PageSize:    cfg.Sync.DownloadPageSize,
			RecheckCredentials: func() {
				if a.credentials != nil {
					a.credentials.Recheck()
				}
			},
			Logger: log,
			Tracer: tracer,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create %s coordinator: %w", d.Name, err)
		}
		a.coordinators = append(a.coordinators, coordinator)
		connListeners = append(connListeners, coordinator)
		credListeners = append(credListeners, coordinator)
		queueListeners = append(queueListeners, coordinator)
		uiDomains = append(uiDomains, coordinator)
	}

	a.connectivity = workers.NewConnectivityMonitor(cfg.Adapter.GRPCAddress, grpchandler.ServiceName,
		cfg.Workers.ConnectivityInterval, log.WithComponent("connectivity"), connListeners...)
	a.credentials = workers.NewCredentialMonitor(workers.CredentialConfig{
		File:     cfg.Adapter.CredentialsFile,
		Login:    cfg.Adapter.Login,
		AuthHash: authHash(cfg),
		Interval: cfg.Workers.CredentialCheckInterval,
	}, a.remote, a.remote, log.WithComponent("credentials"), credListeners...)
	queue := workers.NewQueueMonitor(local, models.SubKinds, cfg.Workers.QueuePollInterval,
		log.WithComponent("queue"), queueListeners...)

	a.workers = workers.NewWorkers(a.connectivity, a.credentials, queue)
	a.ui = tui.New(uiDomains, buildInfo, log)

	return a, nil
}

// Run starts the coordinators and monitors and shows the dashboard. It
// returns when the dashboard exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	connected := a.connectivity.Probe(ctx)
	hasCredentials := a.credentials.Check(ctx)
	a.logger.Info().Bool("connected", connected).Bool("credentials", hasCredentials).Msg("starting sync")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, c := range a.coordinators {
		if err := c.Start(ctx, connected, hasCredentials); err != nil {
			return fmt.Errorf("start %s sync: %w", c.Domain().Name, err)
		}
	}
	defer func() {
		for _, c := range a.coordinators {
			c.Close()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.workers.Run(gctx)
	})
	g.Go(func() error {
		// the dashboard ends the process
		defer cancel()
		return a.ui.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		a.logger.Err(err).Str("func", "App.Run").Msg("client stopped with error")
		return err
	}
	a.logger.Info().Msg("client stopped")
	return nil
}

// Register creates the account of the configured login and stores the
// issued token in the credentials file.
func (a *App) Register(ctx context.Context) error {
	if a.cfg.Adapter.Login == "" || a.cfg.Adapter.Password == "" {
		return ErrNoLogin
	}

	token, err := a.remote.Register(ctx, a.cfg.Adapter.Login, authHash(a.cfg))
	if err != nil {
		return fmt.Errorf("register %q: %w", a.cfg.Adapter.Login, err)
	}
	if err = a.credentials.StoreToken(token); err != nil {
		return err
	}

	a.logger.Info().Str("login", a.cfg.Adapter.Login).Msg("account registered")
	return nil
}

// Close releases the local store and flushes spans.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close local store")
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			a.logger.Warn().Err(err).Msg("flush spans")
		}
	}
	if a.traceOutput != nil {
		a.traceOutput.Close()
	}
}

func authHash(cfg *config.ClientConfig) string {
	if cfg.Adapter.Password == "" {
		return ""
	}
	return utils.HashString(cfg.Adapter.Password, cfg.App.PasswordHashKey)
}

// newTracer builds the client tracer. The dashboard owns stdout, so the
// stdout exporter writes next to the log file instead.
func newTracer(ctx context.Context, cfg *config.ClientConfig, buildInfo models.AppBuildInfo) (*tracing.Tracer, io.Closer, error) {
	tc := tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: serviceName,
		Version:     buildInfo.BuildVersion(),
		SampleRate:  cfg.Tracing.SampleRate,
	}

	var out *os.File
	if tc.Enabled && tc.Exporter == tracing.ExporterStdout {
		path := cfg.App.LogFile
		if path == "" {
			path = "logs"
		}
		f, err := os.OpenFile(path+".traces", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, err
		}
		out, tc.Output = f, f
	}

	tracer, err := tracing.New(ctx, tc)
	if err != nil {
		if out != nil {
			out.Close()
		}
		return nil, nil, err
	}
	if out == nil {
		return tracer, nil, nil
	}
	return tracer, out, nil
}
