package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mynt-trade-bot-go/internal/config"
	"mynt-trade-bot-go/internal/database"
	"mynt-trade-bot-go/internal/exchange"
	"mynt-trade-bot-go/internal/logger"
	"mynt-trade-bot-go/internal/manager"
	"mynt-trade-bot-go/internal/notify"
	"mynt-trade-bot-go/internal/store"
	"mynt-trade-bot-go/internal/strategy"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize exchange client
	var venue exchange.Exchange = exchange.NewRestClient(&cfg.Exchange, log)
	if cfg.Trading.IsDryRunning {
		log.Warn("Dry run enabled. Orders will be simulated.")
		venue = exchange.NewDryRun(venue, log)
	}

	strat, err := strategy.New(cfg.Trading.Strategy, log)
	if err != nil {
		log.Fatal("Failed to construct strategy", zap.Error(err))
	}
	log.Info("Strategy selected", zap.String("strategy", strat.Name()))

	notifier := notify.New(&cfg.Notification, log)
	st := store.NewStore(db, log)
	tradeManager := manager.NewManager(log, &cfg.Trading, st, venue, strat, notifier)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	run(ctx, log, &cfg.Trading, tradeManager)
	log.Info("Bot has been shut down.")
}

// run drives the two cycles on independent cadences until the context is
// cancelled. Reconciliation typically runs more frequently than signals; the
// manager serializes the two internally.
func run(ctx context.Context, log *zap.Logger, cfg *config.Trading, tradeManager *manager.Manager) {
	signalInterval := time.Duration(cfg.SignalInterval) * time.Second
	reconcileInterval := time.Duration(cfg.ReconcileInterval) * time.Second

	signalTicker := time.NewTicker(signalInterval)
	defer signalTicker.Stop()
	reconcileTicker := time.NewTicker(reconcileInterval)
	defer reconcileTicker.Stop()

	log.Info("Starting trade loop",
		zap.Duration("signal_interval", signalInterval),
		zap.Duration("reconcile_interval", reconcileInterval),
	)

	// First signal cycle fires immediately so the bot starts working
	// without waiting out a full interval.
	if err := tradeManager.CheckStrategySignals(ctx); err != nil {
		log.Error("Signal cycle failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping trade loop...")
			return
		case <-signalTicker.C:
			if err := tradeManager.CheckStrategySignals(ctx); err != nil {
				log.Error("Signal cycle failed", zap.Error(err))
			}
		case <-reconcileTicker.C:
			if err := tradeManager.UpdateRunningTrades(ctx); err != nil {
				log.Error("Reconcile cycle failed", zap.Error(err))
			}
		}
	}
}
