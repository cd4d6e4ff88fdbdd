// v2
// cmd/insight/main.go
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

	"github.com/anappleaday1984/cdp-visualization/internal/api"
	"github.com/anappleaday1984/cdp-visualization/internal/cache"
	"github.com/anappleaday1984/cdp-visualization/internal/config"
	"github.com/anappleaday1984/cdp-visualization/internal/health"
	"github.com/anappleaday1984/cdp-visualization/internal/ingest"
	"github.com/anappleaday1984/cdp-visualization/internal/logging"
	"github.com/anappleaday1984/cdp-visualization/internal/metrics"
	"github.com/anappleaday1984/cdp-visualization/internal/models"
	"github.com/anappleaday1984/cdp-visualization/internal/simulation"
	"github.com/anappleaday1984/cdp-visualization/internal/store"
)

// metricsObserver feeds cache hit/miss events into the registry.
type metricsObserver struct{}

func (metricsObserver) CacheHit()  { metrics.CacheHit() }
func (metricsObserver) CacheMiss() { metrics.CacheMiss() }

// appendInvalidating drops the summary cache whenever ingest lands a
// new record, so cached aggregates never outlive the data they were
// computed from.
type appendInvalidating struct {
	store *store.BehaviorStore
	cache *cache.Cache[store.Summary]
}

func (a appendInvalidating) Append(rec models.BehaviorRecord) error {
	if err := a.store.Append(rec); err != nil {
		return err
	}
	a.cache.Invalidate()
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	lg, err := logging.New(cfg.LogFilePath)
	if err != nil {
		slog.Error("logger init failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer lg.Close()
	log := lg.Logger

	log.Info("config loaded",
		slog.String("listen", cfg.ListenAddress),
		slog.String("behaviorFile", cfg.BehaviorPath()),
		slog.String("intelFile", cfg.IntelPath()),
		slog.Bool("ingestEnabled", cfg.IngestEnabled),
		slog.String("modelVersion", cfg.ModelVersion))

	behaviorStore, err := store.NewBehaviorStore(cfg.BehaviorPath(), log)
	if err != nil {
		log.Error("behavior store init failed", slog.Any("err", err))
		os.Exit(1)
	}
	report := behaviorStore.Report()
	if report.Skipped > 0 {
		log.Warn("behavior load skipped records",
			slog.Int("kept", report.Kept),
			slog.Int("skipped", report.Skipped))
	}

	engine := simulation.New(simulation.Config{
		ModelVersion:      cfg.ModelVersion,
		SensitivePersonas: cfg.SensitivePersonas,
	})

	summaryCache := cache.New[store.Summary](cfg.CacheTTL, metricsObserver{})
	healthState := health.NewState(time.Now(), cfg.ModelVersion)

	h := &api.Handlers{
		Log:          log,
		Store:        behaviorStore,
		Engine:       engine,
		SummaryCache: summaryCache,
		Health:       healthState,
		BehaviorPath: cfg.BehaviorPath(),
		IntelPath:    cfg.IntelPath(),
	}
	srv := api.NewServer(cfg.ListenAddress, cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout, log, api.NewRouter(h))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var consumer *ingest.Consumer
	consumerDone := make(chan struct{})
	if cfg.IngestEnabled {
		consumer, err = ingest.NewConsumer(ingest.ConsumerConfig{
			Brokers:     cfg.KafkaBrokers,
			Topic:       cfg.BehaviorTopic,
			GroupID:     cfg.BehaviorGroupID,
			PollTimeout: cfg.IngestPollTimeout,
		}, appendInvalidating{store: behaviorStore, cache: summaryCache}, log)
		if err != nil {
			log.Error("consumer init failed", slog.Any("err", err))
			os.Exit(1)
		}
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("consumer stopped", slog.Any("err", err))
			}
		}()
	} else {
		close(consumerDone)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("err", err))
		}
	}()
	healthState.SetReady(true)
	log.Info("insight service started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	healthState.SetReady(false)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.Any("err", err))
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Error("consumer close error", slog.Any("err", err))
		}
	}
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warn("consumer did not stop before shutdown deadline")
	}
	log.Info("insight service stopped")
}
