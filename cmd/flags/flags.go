// Package flags holds the shared CLI flag definitions and the helpers that
// turn parsed flags into logger and server configuration.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/veridoc/document-registry-backend/common"
	"github.com/veridoc/document-registry-backend/httpserver"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String("metrics-addr")
	enablePprof := cCtx.Bool("pprof")
	drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var RpcAddrFlag = &cli.StringFlag{
	Name:  "rpc-addr",
	Value: "http://127.0.0.1:8545",
	Usage: "address to connect to RPC",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var ContractAddressFlag = &cli.StringFlag{
	Name:     "contract-address",
	Required: true,
	Usage:    "address of the deployed document storage contract, 0x-prefixed hex",
}

var ChainIDFlag = &cli.Int64Flag{
	Name:  "chain-id",
	Value: 1337,
	Usage: "chain id of the target ledger",
}

var GasLimitFlag = &cli.Uint64Flag{
	Name:  "gas-limit",
	Value: 3_000_000,
	Usage: "fixed gas limit for ledger writes",
}

var GasPriceGweiFlag = &cli.Int64Flag{
	Name:  "gas-price-gwei",
	Value: 50,
	Usage: "legacy gas price in gwei for ledger writes",
}

var TxTimeoutSecondsFlag = &cli.Int64Flag{
	Name:  "tx-timeout-seconds",
	Value: 120,
	Usage: "seconds to wait for ledger write finalization",
}

var ContentStoreFlag = &cli.StringFlag{
	Name:  "content-store",
	Value: "ipfs://127.0.0.1:5001",
	Usage: "content store location URI (ipfs://host:port, s3://bucket/prefix, file:///path)",
}

var DBDsnFlag = &cli.StringFlag{
	Name:     "db-dsn",
	Required: true,
	EnvVars:  []string{"DATABASE_DSN"},
	Usage:    "PostgreSQL connection string",
}

var JWTSecretFlag = &cli.StringFlag{
	Name:     "jwt-secret",
	Required: true,
	EnvVars:  []string{"JWT_SECRET"},
	Usage:    "HMAC secret for bearer token verification",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "document-registry",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
