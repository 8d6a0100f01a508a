package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/wallet-cloud-sync/internal/client"
	"github.com/MKhiriev/wallet-cloud-sync/internal/config"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

// Usage:
//
//	client [flags]           run the sync dashboard
//	client register [flags]  create the account and store its token
func main() {
	printBuildInfo()

	register := len(os.Args) > 1 && os.Args[1] == "register"
	if register {
		// config flags are parsed from os.Args
		os.Args = append(os.Args[:1], os.Args[2:]...)
	}

	cfg, err := config.GetClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting configs: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewClientLogger("wallet-sync-client", cfg.App.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	app, err := client.NewApp(ctx, cfg, buildInfo, log)
	if err != nil {
		log.Err(err).Msg("init client app error")
		fmt.Fprintf(os.Stderr, "init client: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if register {
		if err = app.Register(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "register: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Account registered, token stored in", cfg.Adapter.CredentialsFile)
		return
	}

	if err = app.Run(ctx); err != nil {
		log.Err(err).Msg("client run error")
		fmt.Fprintf(os.Stderr, "client: %v\n", err)
		os.Exit(1)
	}
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
