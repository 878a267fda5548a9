// cmd/authgateway/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"authgateway/internal/config"
	"authgateway/internal/server"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, logLevel string

	cmd := &cobra.Command{
		Use:   "authgateway",
		Short: "API gateway login service",
		Long: `authgateway authenticates callers with a username and password or a TLS
client certificate and issues a signed session token as an HttpOnly cookie.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				if err := os.Setenv(config.EnvPrefix+"_LOG_LEVEL", logLevel); err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	srv, err := server.NewFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if serveErr == nil {
			return nil
		}
	}

	if err := srv.Stop(context.Background()); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return serveErr
}
