// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/ik5/audconv"
	"github.com/ik5/audconv/internal/discovery"
	"github.com/ik5/audconv/internal/metrics"
	"github.com/ik5/audconv/internal/server"
)

const shutdownTimeout = 30 * time.Second

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	var appMetrics *metrics.Metrics
	if cfg.HTTP.Metrics {
		appMetrics = metrics.NewMetrics()
	}

	opts := options(cfg, logger)
	if appMetrics != nil {
		opts.Converter.Metrics = appMetrics
	}

	backends := audconv.NewBackends(opts)
	if cfg.EngineB.Preload {
		if err := backends.CLI.Load(ctx); err != nil {
			// The engine retries on the first conversion that needs it.
			logger.Warn("ffmpeg preload failed", slog.String("error", err.Error()))
		} else {
			logger.Info("ffmpeg loaded", slog.String("version", backends.CLI.Version()))
		}
	}

	conv, err := audconv.NewWith(opts, backends)
	if err != nil {
		return err
	}

	httpServer := server.NewHTTPServer(server.Config{
		Address:       cfg.HTTP.ListenAddress(),
		ReadTimeout:   cfg.HTTP.GetReadTimeout(),
		WriteTimeout:  cfg.HTTP.GetWriteTimeout(),
		MaxConcurrent: cfg.HTTP.MaxConcurrent,
		MaxUploadSize: cfg.Conversion.MaxInputSize,
		Logger:        logger,
		Metrics:       appMetrics,
	}, conv)
	if err := httpServer.Start(); err != nil {
		return err
	}

	if cfg.Discovery.Enabled {
		adv := discovery.NewAdvertiser(discovery.Config{
			Instance: cfg.Discovery.Instance,
			Service:  cfg.Discovery.Service,
			Port:     cfg.HTTP.Port,
			Formats:  formatIDs(),
			Logger:   logger,
		})
		if err := adv.Advertise(ctx); err != nil {
			logger.Warn("mDNS advertisement failed", slog.String("error", err.Error()))
		} else {
			defer adv.Stop()
		}
	}

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", cfg.HTTP.ListenAddress()),
	)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Service stopped")
	return nil
}
