package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/quantmind-br/tytm/internal/cmd"
	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/logging"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(core.ExitGeneral)
	}

	log := logging.NewLogger(logging.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Paths.LogFile,
		NoColor: cfg.Logging.Color == "never",
	})

	rootCmd := cmd.NewRootCmd(cfg, log, version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		if ctx.Err() != nil {
			os.Exit(core.ExitInterrupted)
		}
		os.Exit(core.ExitCodeFor(err))
	}
}
