// main is the entry point of mcstatus.
// It parses the command line, sets up logging and runs the selected command
// until it completes or the process receives SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/logger"
)

func main() {
	cfg := config.Parse()

	closer := logger.Setup(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, cfg, os.Stdout)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		log.Warn().Msg("Interrupted")
	default:
		log.Error().Err(err).Str("command", cfg.Command).Msg("Command failed")
	}

	_ = closer.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	switch cfg.Command {
	case config.CommandPing:
		return runPing(ctx, stdout, cfg.Ping)
	case config.CommandScan:
		return runScan(ctx, stdout, cfg.Scan)
	case config.CommandServe:
		return runServe(ctx, cfg.Serve)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}
