package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"factionbot/internal/bot"
	"factionbot/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to the guild and serve commands",
		RunE:  serveRun,
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {

	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errors.New("no config found in context")
	}
	commonRun(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	b, err := bot.CreateBot(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("could not create bot: %w", err)
	}

	if cfg.MetricsAddr != "" {
		metricsServer := startMetrics(cfg.MetricsAddr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("Could not stop metrics listener")
			}
		}()
	}

	// Wait for interrupt/termination signal
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return b.Run(ctx)
}

func startMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics listener failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("Serving prometheus metrics")
	return server
}
