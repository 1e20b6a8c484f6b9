package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"talentlens/internal/cli"
	"talentlens/internal/config"
	"talentlens/internal/errors"
)

func main() {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Hot-reload external prompt template files while running
	if watcher, err := config.NewPromptWatcher(cfg, logger); err != nil {
		logger.Warn("Prompt file watching disabled", "error", err.Error())
	} else if watcher != nil {
		defer watcher.Stop()
	}

	// Log startup
	logger.Info("Starting talentlens application",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"ai_model", cfg.AI.Model)

	// Execute command with cancellable context
	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Application execution failed")
		os.Exit(1)
	}
}
