package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"facility-locator/internal/config"
	"facility-locator/internal/logging"
	"facility-locator/internal/server"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var interruptSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal().Err(err).Msg("fatal error")
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("facility-locator", pflag.ContinueOnError)
	config.AddFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	if err := logging.Setup(cfg.Log.Level, cfg.Log.Console); err != nil {
		return fmt.Errorf("cannot set up logging: %w", err)
	}
	log.Info().Str("version", version).Msg("facility locator starting")

	srv, err := server.New(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	actualAddr, err := srv.Listen()
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Info().Str("addr", actualAddr).Msg("listening")

	ctx, stop := signal.NotifyContext(context.Background(), interruptSignals...)
	defer stop()

	waitGroup, ctx := errgroup.WithContext(ctx)

	waitGroup.Go(srv.Serve)

	waitGroup.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("graceful shutdown HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not gracefully shutdown the server: %w", err)
		}

		log.Info().Msg("server stopped")
		return nil
	})

	return waitGroup.Wait()
}
