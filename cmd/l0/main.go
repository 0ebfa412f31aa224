// Command l0 converts the raw disdrometer files of a campaign into L0A
// tabular and L0B gridded products. Settings come from the environment; see
// internal/config.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/disdro-l0/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disdro-l0/internal/adapter/kafka"
	"github.com/couchcryptid/disdro-l0/internal/config"
	"github.com/couchcryptid/disdro-l0/internal/gridded"
	"github.com/couchcryptid/disdro-l0/internal/observability"
	"github.com/couchcryptid/disdro-l0/internal/pipeline"
	"github.com/couchcryptid/disdro-l0/internal/product"
	"github.com/couchcryptid/disdro-l0/internal/readers"
	"github.com/couchcryptid/disdro-l0/internal/registry"
	"github.com/couchcryptid/disdro-l0/internal/standards"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 2
	}

	logger, logCloser := observability.NewLogger(cfg)
	defer logCloser.Close()
	metrics := observability.NewMetrics()

	reg, err := registry.New(readers.Manifest())
	if err != nil {
		logger.Error("build reader registry", "error", err)
		return 2
	}
	catalog := standards.Default()
	builder := gridded.NewBuilder(catalog, clockwork.NewRealClock())
	products := product.NewStore(logger)

	// Station events go to the log and, when brokers are configured, to Kafka.
	reporters := []pipeline.Reporter{observability.NewLogReporter(logger)}
	var events *kafkaadapter.EventWriter
	if len(cfg.KafkaBrokers) > 0 {
		events = kafkaadapter.NewEventWriter(cfg, logger)
		reporters = append(reporters, events)
		logger.Info("station events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaEventsTopic)
	}

	p := pipeline.New(reg, catalog, builder, products, pipeline.MultiReporter(reporters...), logger, metrics)
	if err := p.Init(); err != nil {
		logger.Error("reader contract check failed", "error", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	summary, runErr := p.Run(ctx, pipeline.Campaign{
		RawDir:       cfg.RawDir,
		ProcessedDir: cfg.ProcessedDir,
		Stations:     cfg.Stations,
	}, pipeline.Options{
		Force:         cfg.Force,
		Verbose:       cfg.Verbose,
		Parallel:      cfg.Parallel,
		Workers:       cfg.Workers,
		DebuggingMode: cfg.DebuggingMode,
		Stages:        pipeline.Stage(cfg.Stages),
	})

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if events != nil {
		if err := events.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	switch {
	case runErr == nil:
		logger.Info("shutdown complete", "done", summary.Done, "failed", summary.Failed)
		return 0
	case errors.Is(runErr, pipeline.ErrAllStationsFailed):
		logger.Error("no station converted", "failed", summary.Failed)
		return 1
	default:
		logger.Error("run failed", "error", runErr)
		return 2
	}
}
