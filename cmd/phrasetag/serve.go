package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrasetag/phrasetag/internal/config"
	"github.com/phrasetag/phrasetag/internal/logging"
	"github.com/phrasetag/phrasetag/internal/observability"
	"github.com/phrasetag/phrasetag/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var listenOverride string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tagging API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return errors.New("config path is required")
			}
			cfg, err := loadServeConfig(configPath, listenOverride)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, watch, func() (*config.Config, error) {
				return loadServeConfig(configPath, listenOverride)
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&listenOverride, "listen", "", "Override server.listen")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload phrase sets when the config or phrase files change")

	return cmd
}

func loadServeConfig(path, listenOverride string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if listenOverride != "" {
		cfg.Server.Listen = listenOverride
	}
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer(ctx context.Context, cfg *config.Config, watch bool, load server.Loader) error {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Logging.MatchLog != "" {
		matchLog, closer, err := logging.OpenMatchLog(cfg.ResolvePath(cfg.Logging.MatchLog))
		if err != nil {
			return err
		}
		defer func() { _ = closer() }()
		srv.SetMatchLogger(matchLog)
	}

	metricsSrv := startMetrics(cfg, srv, logger)
	defer func() {
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(context.Background())
		}
	}()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpSrv.ListenAndServe()
	}()
	logger.Info("listening", "addr", cfg.Server.Listen, "config", cfg.Path(), "sets", len(srv.Engine().Sets))

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.SweepIdle(signalCtx, time.Minute)

	if watch {
		go func() {
			if err := srv.Watch(signalCtx, cfg.Files(), load); err != nil {
				logger.Error("watch stopped", "error", err)
			}
		}()
	}

	select {
	case <-signalCtx.Done():
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// startMetrics mounts /metrics on the API mux, or on its own listener when
// metrics.listen is set.
func startMetrics(cfg *config.Config, srv *server.Server, logger *slog.Logger) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	srv.SetMetrics(metrics)

	if cfg.Metrics.Listen == "" {
		srv.Handle("/metrics", metrics.Handler(reg))
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	metricsSrv := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener stopped", "error", err)
		}
	}()
	return metricsSrv
}
