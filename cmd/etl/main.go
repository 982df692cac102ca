package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	fileadapter "github.com/couchcryptid/forma-etl/internal/adapter/file"
	httpadapter "github.com/couchcryptid/forma-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/forma-etl/internal/adapter/kafka"
	"github.com/couchcryptid/forma-etl/internal/codec"
	"github.com/couchcryptid/forma-etl/internal/config"
	"github.com/couchcryptid/forma-etl/internal/observability"
	"github.com/couchcryptid/forma-etl/internal/pipeline"
	"github.com/couchcryptid/forma-etl/internal/temporal"
	"github.com/couchcryptid/forma-etl/internal/trend"
	"github.com/google/uuid"
)

type extractor interface {
	pipeline.BatchExtractor
	io.Closer
}

type loader interface {
	pipeline.BatchLoader
	io.Closer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()

	bundleCodec, err := codec.New()
	if err != nil {
		logger.Error("failed to create bundle codec", "error", err)
		os.Exit(1)
	}
	defer bundleCodec.Close()

	source, sink, err := newAdapters(cfg, logger)
	if err != nil {
		logger.Error("failed to create adapters", "error", err)
		os.Exit(1)
	}

	params := cfg.Params()
	transformer := pipeline.NewTransformer(bundleCodec, params, temporal.New(), trend.New(params.MissingValue), logger, metrics)

	p := pipeline.New(source, transformer, sink, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline. A finite source ends the run once it is drained.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
		stop()
	}()

	<-ctx.Done()
	logger.Info("shutting down", "bundles", p.Stats().Bundles, "records", p.Stats().Records)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := source.Close(); err != nil {
		logger.Error("source close error", "error", err)
	}
	if err := sink.Close(); err != nil {
		logger.Error("sink close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func newAdapters(cfg *config.Config, logger *slog.Logger) (extractor, loader, error) {
	if !cfg.FileMode() {
		logger.Info("kafka mode", "source_topic", cfg.KafkaSourceTopic, "sink_topic", cfg.KafkaSinkTopic)
		return kafkaadapter.NewReader(cfg, logger), kafkaadapter.NewWriter(cfg, logger), nil
	}

	logger.Info("file mode", "source_dir", cfg.SourceDir, "sink_dir", cfg.SinkDir, "watch", cfg.Watch)
	source, err := fileadapter.NewSource(cfg.SourceDir, cfg.Watch, logger)
	if err != nil {
		return nil, nil, err
	}
	sink, err := fileadapter.NewDirSink(cfg.SinkDir)
	if err != nil {
		source.Close()
		return nil, nil, err
	}
	return source, sink, nil
}
