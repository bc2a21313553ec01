package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trading-dashboard-go/internal/config"
	"trading-dashboard-go/internal/logger"
	"trading-dashboard-go/internal/portfolio"
	"trading-dashboard-go/internal/risk"
	"trading-dashboard-go/internal/terminal"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The console shares stdout with the prompt, so default to errors only.
	level := cfg.Logger.Level
	if level == "info" {
		level = "error"
	}
	log, err := logger.NewLogger(level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// In-memory simulation only; the console keeps no journal.
	sim := portfolio.NewRandomWalk(
		cfg.Simulation.MaxStepPercent,
		cfg.Simulation.TradeProbability,
		cfg.Simulation.Symbols,
		time.Now().UnixNano(),
	)
	engine, err := portfolio.NewEngine(log, sim, sim, nil,
		cfg.Simulation.InitialValue,
		time.Duration(cfg.Simulation.TickInterval)*time.Second)
	if err != nil {
		log.Fatal("Failed to create simulation engine", zap.Error(err))
	}

	riskMgr, err := risk.NewManager(cfg.Risk.DefaultTimeframe, log)
	if err != nil {
		log.Fatal("Failed to create risk manager", zap.Error(err))
	}

	term := terminal.NewInterpreter(engine, riskMgr)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		cancel()
	}()

	go engine.Run(ctx)

	fmt.Println("trading console - type 'help' for commands, Ctrl-D to exit")
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		default:
		}

		if out := term.Execute(scanner.Text()); out != "" {
			fmt.Println(out)
		}
		fmt.Print("> ")
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read error: %v\n", err)
	}
	fmt.Println()
}
