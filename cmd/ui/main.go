package main

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"mynt-trade-bot-go/internal/config"
	"mynt-trade-bot-go/internal/database"
	"mynt-trade-bot-go/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database the trader writes to
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	mux := http.NewServeMux()
	apiHandler := NewAPIHandler(log, db)
	mux.HandleFunc("/api/status", apiHandler.StatusHandler)
	mux.HandleFunc("/api/trades", apiHandler.TradesHandler)
	mux.HandleFunc("/api/traders", apiHandler.TradersHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting UI server", zap.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("UI server failed", zap.Error(err))
	}
}
