package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/streamfusion/internal/config"
	"github.com/example/streamfusion/internal/runstore"
	"github.com/example/streamfusion/internal/server"
	"github.com/example/streamfusion/pkg/logging"
)

// NewServeCommand builds the "serve" subcommand, which hosts the run
// API until it receives SIGINT/SIGTERM.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the stream-fusion run API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			return runServe(configPath)
		},
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.SetLevelFromString(cfg.LogLevel)

	store := runstore.New()
	srv := server.New(cfg, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logging.Infof("shutting down streamfusion server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Errorf("graceful shutdown failed: %v", err)
		}
	}()

	logging.Infof("streamfusion listening on %s (%d named pipelines)", cfg.Server.Addr, len(cfg.Pipelines))
	if err := srv.ListenAndServe(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
