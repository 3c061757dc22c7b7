package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/D9J9V/UniCow/params"
	"github.com/D9J9V/UniCow/pkg/api"
	"github.com/D9J9V/UniCow/pkg/batch"
	"github.com/D9J9V/UniCow/pkg/core"
	"github.com/D9J9V/UniCow/pkg/crypto"
	"github.com/D9J9V/UniCow/pkg/intake"
	"github.com/D9J9V/UniCow/pkg/storage"
	"github.com/D9J9V/UniCow/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("") // "" loads .env from the current directory

	logger, err := util.NewLoggerWithFile(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("operator_starting", "log_file", cfg.LogFile)

	store, err := storage.NewPebbleStore(cfg.Storage.DBPath)
	if err != nil {
		sugar.Fatalw("open_store_failed", "path", cfg.Storage.DBPath, "err", err)
	}
	defer store.Close()

	domain := crypto.EIP712Domain{
		Name:              "UniCow",
		Version:           "1",
		ChainID:           big.NewInt(cfg.Chain.ChainID),
		VerifyingContract: common.HexToAddress(cfg.Chain.VerifyingContract),
	}
	pool := intake.NewPool(crypto.NewEIP712Signer(domain))
	engine := core.NewEngine(sugar, cfg.Matching.MaxBatchOrders)

	server := api.NewServer(pool, store, cfg.Server.AllowedOrigins, sugar)
	runner := batch.NewRunner(pool, engine, store, server, cfg.Matching.WindowInterval, sugar)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := runner.Run(ctx); err != nil && err != context.Canceled {
			sugar.Errorw("runner_exited", "err", err)
		}
	}()

	go func() {
		if err := server.Start(cfg.Server.ListenAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("operator_running",
		"listen", cfg.Server.ListenAddr,
		"window", cfg.Matching.WindowInterval.String(),
		"max_batch_orders", cfg.Matching.MaxBatchOrders,
		"chain_id", cfg.Chain.ChainID,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	sugar.Infow("operator_shutting_down")
}
