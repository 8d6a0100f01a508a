package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds a host and port. It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// parseFlags parses command-line configuration flags from args.
//
// Flags:
//
//	-a               server HTTP listen address [host]:[port]
//	-grpc-address    server gRPC listen address [host]:[port]
//	-d               server database DSN
//	-local-db        client SQLite database path
//	-remote          client record store base address
//	-remote-grpc     client health probe address [host]:[port]
//	-c/-config       JSON or YAML config file path
//	-wallet          client wallet id
//	-credentials     client token file
//	-token-sign-key  server token signing key
//	-token-duration  server token duration (e.g. "1h")
//	-request-timeout request timeout (e.g. "30s")
//	-toggle-delay    enable/disable debounce (e.g. "30s")
//	-upload-delay    randomize the delay before backup uploads
//	-trace           span exporter: none, stdout or otlp
func parseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("wallet-cloud-sync", flag.ContinueOnError)

	var serverAddress, grpcServerAddress, remoteGRPC NetAddress
	var databaseDSN, localDB, remote, configPath, walletID, credentials string
	var tokenSignKey, traceExporter string
	var tokenDuration, requestTimeout, toggleDelay time.Duration
	var uploadDelay bool

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.Var(&grpcServerAddress, "grpc-address", "Net grpc server address host:port")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&localDB, "local-db", "", "Local SQLite database path")
	fs.StringVar(&remote, "remote", "", "Record store base address")
	fs.Var(&remoteGRPC, "remote-grpc", "Record store health address host:port")
	fs.StringVar(&configPath, "c", "", "Config file path")
	fs.StringVar(&configPath, "config", "", "Config file path (alias)")
	fs.StringVar(&walletID, "wallet", "", "Wallet id")
	fs.StringVar(&credentials, "credentials", "", "Token file path")
	fs.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	fs.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.DurationVar(&toggleDelay, "toggle-delay", 0, "Enable/disable debounce (e.g., 30s)")
	fs.BoolVar(&uploadDelay, "upload-delay", false, "Randomize the delay before backup uploads")
	fs.StringVar(&traceExporter, "trace", "", "Span exporter: none, stdout, otlp")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			TokenSignKey:  tokenSignKey,
			TokenDuration: tokenDuration,
			WalletID:      walletID,
		},
		Storage: Storage{
			DB:    DB{DSN: databaseDSN},
			Local: Local{Path: localDB},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			GRPCAddress:    grpcServerAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:     remote,
			GRPCAddress:     remoteGRPC.String(),
			RequestTimeout:  requestTimeout,
			CredentialsFile: credentials,
		},
		Sync: Sync{
			ToggleDelay: toggleDelay,
			UploadDelay: uploadDelay,
		},
		Tracing: Tracing{
			Enabled:  traceExporter != "" && traceExporter != "none",
			Exporter: traceExporter,
		},
		FilePath: configPath,
	}, nil
}

// String returns "host:port", or "" when the address is unset.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses "host:port". The host must be "localhost" or an IP address.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		if ip := net.ParseIP(host); ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
