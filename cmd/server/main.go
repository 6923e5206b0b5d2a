// Command server runs the sample protected API behind the configured
// security pipeline.
//
// Configuration is read from a YAML file (-config, MOCKAUTH_CONFIG,
// ./mockauth.yaml or /etc/mockauth/mockauth.yaml) with MOCKAUTH_*
// environment overrides. See pkg/config for the full list.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rhuss/mockauth/pkg/config"
	"github.com/rhuss/mockauth/pkg/debug"
	"github.com/rhuss/mockauth/pkg/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})

	if cfg.Auth.Type == "jwt" && cfg.Auth.JWT.AllowUnsigned {
		slog.Warn("accepting unsigned JWTs; do not expose this server")
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
