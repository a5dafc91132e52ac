package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samirrijal/mapframe/internal/adapters/filecache"
	natsadapter "github.com/samirrijal/mapframe/internal/adapters/nats"
	"github.com/samirrijal/mapframe/internal/adapters/nominatim"
	"github.com/samirrijal/mapframe/internal/adapters/overpass"
	"github.com/samirrijal/mapframe/internal/adapters/postgres"
	"github.com/samirrijal/mapframe/internal/adapters/render"
	"github.com/samirrijal/mapframe/internal/adapters/valkey"
	"github.com/samirrijal/mapframe/internal/core/ports"
	"github.com/samirrijal/mapframe/internal/core/usecases"
	"github.com/samirrijal/mapframe/internal/pkg/config"
	"github.com/samirrijal/mapframe/internal/pkg/logging"
	"github.com/samirrijal/mapframe/internal/pkg/telemetry"
	"github.com/samirrijal/mapframe/internal/themes"
)

// The worker pulls queued render jobs off NATS JetStream and runs the full
// poster pipeline for each one. Run several replicas to render in parallel;
// the work-queue stream delivers each job to exactly one of them.
func main() {
	cfg, err := config.Load("mapframe-worker")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if !cfg.NATS.Enabled {
		log.Fatal("the worker needs a job queue: set nats.enabled (MAPFRAME_NATS_ENABLED=true)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	cache, closeCache, err := newCacheStore(ctx, cfg)
	if err != nil {
		log.Fatalf("cache backend: %v", err)
	}
	defer closeCache()

	client := overpass.NewClient(cfg.Overpass.Endpoint, time.Duration(cfg.Overpass.TimeoutSeconds)*time.Second, cfg.Overpass.MaxRetries)
	fetcher := overpass.NewFetcher(client, cache,
		time.Duration(cfg.Overpass.NetworkDelayMS)*time.Millisecond,
		time.Duration(cfg.Overpass.FeatureDelayMS)*time.Millisecond)
	geocoder := nominatim.New(cfg.Nominatim.Endpoint, cfg.Nominatim.UserAgent,
		time.Duration(cfg.Nominatim.TimeoutSeconds)*time.Second,
		time.Duration(cfg.Nominatim.DelayMS)*time.Millisecond, cache)

	fonts, err := render.LoadFonts(cfg.Render.FontsDir)
	if err != nil {
		log.Fatalf("fonts: %v", err)
	}
	compositor := render.NewCompositor(fonts).
		WithFontDownloads(render.NewFontDownloader(render.GoogleFontsEndpoint, 30*time.Second), cfg.Render.FontsDir)
	registry := themes.NewRegistry(cfg.Render.ThemesDir)

	posterSvc := usecases.NewPosterService(geocoder, fetcher, registry, compositor, cfg.Render.OutputDir)

	// Queue for status updates and progress events, consumer for job delivery.
	queue, err := natsadapter.NewQueue(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats queue: %v", err)
	}
	defer queue.Close()

	jobSvc := usecases.NewJobService(cache, queue, posterSvc)

	consumer, err := natsadapter.NewConsumer(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats consumer: %v", err)
	}
	defer consumer.Close()

	if err := consumer.ConsumeJobs(ctx, jobSvc.HandleJob); err != nil {
		log.Fatalf("subscribe jobs: %v", err)
	}

	slog.Info("poster worker started",
		"nats", cfg.NATS.URL,
		"cache_backend", cfg.Cache.Backend,
		"output_dir", cfg.Render.OutputDir,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining", "signal", sig.String())
	cancel()
	// Give an in-flight render a moment to publish its final status
	time.Sleep(2 * time.Second)
}

// newCacheStore builds the configured cache backend. The returned closer is
// always safe to call.
func newCacheStore(ctx context.Context, cfg *config.Config) (ports.CacheStore, func(), error) {
	switch cfg.Cache.Backend {
	case "file":
		store, err := filecache.New(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "valkey":
		cache, err := valkey.New(cfg.Cache.Valkey.Addr)
		if err != nil {
			return nil, nil, err
		}
		return cache, cache.Close, nil
	case "postgres":
		db, err := postgres.New(ctx, cfg.Cache.Postgres.DSN())
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewCacheRepo(db), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}
