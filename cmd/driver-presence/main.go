package main

import (
	"context"
	"os"

	"github.com/Temutjin2k/driver-presence/config"
	"github.com/Temutjin2k/driver-presence/internal/app"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
)

func main() {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil || flags.Help {
		flags.PrintHelp()
		if err != nil {
			os.Exit(2)
		}
		return
	}

	ctx := context.Background()
	log := logger.InitLogger("driver-presence", logger.LevelDebug)

	cfg, err := config.NewConfig(flags.ConfigPath, flags.Mode)
	if err != nil {
		log.Error(ctx, "failed to configure application", err)
		flags.PrintHelp()
		os.Exit(1)
	}

	// Printing configuration
	config.PrintConfig(cfg)

	log = logger.InitLogger(string(cfg.Mode), cfg.LogLevel)

	// Creating application
	application, err := app.NewApplication(ctx, *cfg, log)
	if err != nil {
		log.Error(ctx, "failed to init application", err)
		os.Exit(1)
	}

	// Running the application
	if err = application.Run(ctx); err != nil {
		log.Error(ctx, "failed to run application", err)
		os.Exit(1)
	}
}
