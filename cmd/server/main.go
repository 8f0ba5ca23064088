// The server command runs the document registry backend: it connects to the
// ledger RPC endpoint and the local database, applies pending migrations,
// and serves the registration, verification and flag API.
package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	"github.com/veridoc/document-registry-backend/cmd/flags"
	"github.com/veridoc/document-registry-backend/contentstore"
	"github.com/veridoc/document-registry-backend/httpserver"
	"github.com/veridoc/document-registry-backend/interfaces"
	"github.com/veridoc/document-registry-backend/ledger"
	"github.com/veridoc/document-registry-backend/migrations"
	"github.com/veridoc/document-registry-backend/notary"
	"github.com/veridoc/document-registry-backend/store"
)

var cliFlags = append([]cli.Flag{
	flags.RpcAddrFlag,
	flags.ListenAddrFlag,
	flags.ContractAddressFlag,
	flags.ChainIDFlag,
	flags.GasLimitFlag,
	flags.GasPriceGweiFlag,
	flags.TxTimeoutSecondsFlag,
	flags.ContentStoreFlag,
	flags.DBDsnFlag,
	flags.JWTSecretFlag,
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "document-registry-server",
		Usage: "Serve the document registry API",
		Flags: cliFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			ctx := context.Background()

			rpcAddress := cCtx.String(flags.RpcAddrFlag.Name)
			listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
			contractAddr := cCtx.String(flags.ContractAddressFlag.Name)
			dsn := cCtx.String(flags.DBDsnFlag.Name)
			jwtSecret := cCtx.String(flags.JWTSecretFlag.Name)
			storeURI := cCtx.String(flags.ContentStoreFlag.Name)

			if !gethcommon.IsHexAddress(contractAddr) {
				logger.Error("Invalid contract address", "address", contractAddr)
				return cli.Exit("contract-address must be a 20-byte hex address", 1)
			}

			logger.Info("Connecting to ledger RPC", "address", rpcAddress)
			ethClient, err := ethclient.Dial(rpcAddress)
			if err != nil {
				logger.Error("Failed to dial RPC", "err", err)
				return err
			}

			ledgerClient, err := ledger.NewClient(ethClient, ethClient,
				gethcommon.HexToAddress(contractAddr), ledger.Config{
					ChainID:       big.NewInt(cCtx.Int64(flags.ChainIDFlag.Name)),
					GasLimit:      cCtx.Uint64(flags.GasLimitFlag.Name),
					GasPriceGwei:  cCtx.Int64(flags.GasPriceGweiFlag.Name),
					TxWaitTimeout: time.Duration(cCtx.Int64(flags.TxTimeoutSecondsFlag.Name)) * time.Second,
				}, logger)
			if err != nil {
				logger.Error("Failed to create ledger client", "err", err)
				return err
			}

			logger.Info("Applying database migrations")
			if err := migrations.Up(ctx, dsn); err != nil {
				logger.Error("Migrations failed", "err", err)
				return err
			}

			db, err := store.New(ctx, dsn)
			if err != nil {
				logger.Error("Failed to connect to database", "err", err)
				return err
			}
			defer db.Close()

			contentStore, err := contentstore.NewFactory(logger).StoreFor(interfaces.ContentStoreLocation(storeURI))
			if err != nil {
				logger.Error("Failed to create content store", "uri", storeURI, "err", err)
				return err
			}
			if !contentStore.Available(ctx) {
				logger.Warn("Content store backend not reachable at startup", "backend", contentStore.Name())
			}

			docs := store.NewDocumentRepo(db)
			audit := store.NewAuditRepo(db)
			dir := store.NewIdentityRepo(db)

			registration := notary.NewRegistrationService(contentStore, ledgerClient, docs, dir, logger)
			verification := notary.NewVerificationService(ledgerClient, audit, dir, logger)
			flagSvc := notary.NewFlagService(ledgerClient, docs, audit, dir, logger)

			auth := httpserver.NewAuthenticator([]byte(jwtSecret), dir)
			handler := httpserver.NewHandler(registration, verification, flagSvc, logger)

			cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
			server := httpserver.New(cfg, handler, auth)
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
