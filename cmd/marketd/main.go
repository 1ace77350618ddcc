package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"brickmarket/config"
	"brickmarket/core/events"
	"brickmarket/core/state"
	"brickmarket/gateway"
	"brickmarket/native/access"
	"brickmarket/native/catalog"
	"brickmarket/native/escrow"
	"brickmarket/native/market"
	"brickmarket/native/rewards"
	"brickmarket/native/settlement"
	"brickmarket/observability/logging"
	"brickmarket/storage"
	"brickmarket/token"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.Setup("marketd", cfg.Environment)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "market"))
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	ledger := token.NewLedger(manager)

	services := gateway.Services{
		Market:  market.NewEngine(manager, ledger),
		Catalog: catalog.NewEngine(manager, ledger, ledger),
		Rewards: rewards.NewEngine(manager, ledger),
		Access:  access.NewEngine(manager, ledger),
		Escrow:  escrow.NewEngine(manager, ledger),
		Ledger:  ledger,
	}
	services.Settlement = settlement.NewEngine(manager, ledger, services.Rewards)

	emitter := events.NewLogEmitter(logger)
	services.Market.SetEmitter(emitter)
	services.Catalog.SetEmitter(emitter)
	services.Rewards.SetEmitter(emitter)
	services.Access.SetEmitter(emitter)
	services.Escrow.SetEmitter(emitter)
	services.Settlement.SetEmitter(emitter)

	server := gateway.NewServer(services, gateway.Config{
		LogRequests:      cfg.LogRequests,
		EscrowDefaultTTL: cfg.EscrowDefaultTTL,
	}, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("gateway listening", slog.String("address", cfg.ListenAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("gateway stopped", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("shutdown complete")
}
