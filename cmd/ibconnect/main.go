package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pflag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ecosystem-trading/ibconnect/internal/app"
	"github.com/ecosystem-trading/ibconnect/internal/config"
	"github.com/ecosystem-trading/ibconnect/pkg/logger"
)

func main() {
	configPath := pflag.String("config", "", "path to config file")
	pflag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialise the logger
	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Logging.DevMode {
		cfg.Print()
	}

	// 3. Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("starting service",
		zap.String("service.name", cfg.ServiceName),
		zap.String("service.version", cfg.ServiceVersion),
	)

	// 4. Run the application
	if err := app.Run(ctx, cfg, log); err != nil {
		log.Error("application exited with error", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}

	log.Info("shutdown complete")
}
