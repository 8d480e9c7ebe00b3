package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"orderpick/internal/archive"
	"orderpick/internal/config"
	"orderpick/internal/domain"
	"orderpick/internal/httpapi"
	"orderpick/internal/ingest"
	"orderpick/internal/observability"
	"orderpick/internal/picking"
	"orderpick/internal/pkg/breaker"
	"orderpick/internal/resolver"
	"orderpick/internal/retention"
	"orderpick/internal/search"
	"orderpick/internal/source"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	metrics := observability.NewProm(registry)

	var store domain.ArchiveStore
	switch cfg.StoreDriver {
	case config.DriverMemory:
		store = archive.NewMemory()
	default:
		store = archive.NewPostgres(cfg.DSN(), logger)
	}

	// A store that fails to open disables the archive but not the app.
	if err := store.Init(ctx); err != nil {
		logger.Warn("archive disabled", zap.Error(err))
	}

	cleaner := retention.New(store, cfg.Retention.Horizon, logger)
	if store.Ready() {
		cleaner.InitAutoCleanup(ctx)
	}

	archiver := archive.NewArchiver(store, cleaner, cfg.Retention.TriggerCount, logger, metrics)
	engine := search.NewEngine(store, logger, metrics)

	res, err := resolver.New(engine, cfg.SenderPostcodes, cfg.ResolveCacheCap, logger, metrics)
	if err != nil {
		logger.Fatal("resolver init", zap.Error(err))
	}
	if store.Ready() {
		res.Warm(ctx)
	}

	tags := source.NewTagFilter(cfg.TagMatchFields)
	sources := map[string]source.OrderSource{}
	if cfg.Selro.BaseURL != "" {
		sources["selro"] = source.NewClient("selro", cfg.Selro.BaseURL, cfg.Selro.APIKey, tags)
	}
	if cfg.Veeqo.BaseURL != "" {
		sources["veeqo"] = source.NewClient("veeqo", cfg.Veeqo.BaseURL, cfg.Veeqo.APIKey, tags)
	}

	session := picking.NewSession(archiver, res, breaker.New(cfg.Breaker), cfg.Retry, logger)

	if cfg.IngestEnabled() {
		if err := ingest.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, 1, 1, logger); err != nil {
			logger.Warn("order feed topic not ready", zap.Error(err))
		}
		reader := kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.Group,
		})
		defer reader.Close()

		handler := ingest.NewHandler(archiver, breaker.New(cfg.Breaker), cfg.Retry, logger, metrics)
		consumer := ingest.NewConsumer(handler, reader, cfg.Kafka.Workers, logger)
		go consumer.Start(ctx)
	}

	server := httpapi.New(store, engine, res, archiver, cleaner, session, sources, logger, metrics)
	server.MountMetrics(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	if closer, ok := store.(interface{ Close() }); ok {
		closer.Close()
	}
	logger.Info("server stopped")
}
