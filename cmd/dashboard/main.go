package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trading-dashboard-go/internal/chart"
	"trading-dashboard-go/internal/config"
	"trading-dashboard-go/internal/database"
	"trading-dashboard-go/internal/logger"
	"trading-dashboard-go/internal/portfolio"
	"trading-dashboard-go/internal/risk"
	"trading-dashboard-go/internal/terminal"
	"trading-dashboard-go/internal/wallet"

	"go.uber.org/zap"
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
	log.Info("Configuration loaded")

	// Open the trade journal
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open trade journal database", zap.Error(err))
	}

	// Simulation engine
	sim := portfolio.NewRandomWalk(
		cfg.Simulation.MaxStepPercent,
		cfg.Simulation.TradeProbability,
		cfg.Simulation.Symbols,
		time.Now().UnixNano(),
	)
	engine, err := portfolio.NewEngine(log.Named("engine"), sim, sim, db,
		cfg.Simulation.InitialValue,
		time.Duration(cfg.Simulation.TickInterval)*time.Second)
	if err != nil {
		log.Fatal("Failed to create simulation engine", zap.Error(err))
	}

	// Risk presets
	riskMgr, err := risk.NewManager(cfg.Risk.DefaultTimeframe, log.Named("risk"))
	if err != nil {
		log.Fatal("Failed to create risk manager", zap.Error(err))
	}

	// Terminal interpreter over the engine and risk views
	term := terminal.NewInterpreter(engine, riskMgr)

	// Wallet provider; a missing RPC URL is the "not installed" state.
	var provider wallet.Provider
	client, err := wallet.NewClient(&cfg.Wallet, log.Named("wallet"))
	switch {
	case err == nil:
		provider = client
	case errors.Is(err, wallet.ErrNotConfigured):
		log.Warn("Wallet RPC endpoint not configured, wallet features disabled")
	default:
		log.Fatal("Failed to create wallet client", zap.Error(err))
	}
	monitor := wallet.NewMonitor(provider, &cfg.Wallet, log.Named("wallet"))

	// Chart widget with random-walk fallback
	var primary chart.Source
	if cfg.Chart.QuoteURL != "" {
		primary = chart.NewQuoteSource(cfg.Chart.QuoteURL, log.Named("chart"))
	}
	widget := chart.NewWidget(chart.Config{
		Symbol:   cfg.Chart.DefaultSymbol,
		Interval: cfg.Chart.DefaultInterval,
		Theme:    cfg.Chart.Theme,
	}, primary, chart.NewFallbackSource(0), log.Named("chart"))
	widget.OnReady(func() {
		log.Info("Chart widget served its first data")
	})

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	go engine.Run(ctx)
	go monitor.Run(ctx)

	// Feed trade results into the daily risk accumulator and keep the wallet
	// event channel drained. Both loops end when their channel closes.
	updates, unsubscribe := engine.Subscribe()
	go func() {
		defer unsubscribe()
		feedRiskAccumulator(updates, riskMgr, log.Named("risk"))
	}()
	go drainWalletEvents(monitor.Events(), log.Named("wallet"))

	// Setup HTTP server
	mux := http.NewServeMux()
	apiHandler := NewAPIHandler(log.Named("api"), db, engine, term, riskMgr, monitor, widget)
	apiHandler.RegisterRoutes(mux)

	// Static file serving for CSS, JS, etc.
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	// HTML template serving
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/templates/index.html")
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting dashboard server", zap.String("address", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Dashboard server failed", zap.Error(err))
	}
	log.Info("Dashboard has been shut down.")
}
