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

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapframe/internal/adapters/filecache"
	"github.com/samirrijal/mapframe/internal/adapters/http"
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

func main() {
	cfg, err := config.Load("mapframe-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache backend
	cache, closeCache, err := newCacheStore(ctx, cfg)
	if err != nil {
		log.Fatalf("cache backend: %v", err)
	}
	defer closeCache()

	// Geodata + geocoding
	client := overpass.NewClient(cfg.Overpass.Endpoint, time.Duration(cfg.Overpass.TimeoutSeconds)*time.Second, cfg.Overpass.MaxRetries)
	fetcher := overpass.NewFetcher(client, cache,
		time.Duration(cfg.Overpass.NetworkDelayMS)*time.Millisecond,
		time.Duration(cfg.Overpass.FeatureDelayMS)*time.Millisecond)
	geocoder := nominatim.New(cfg.Nominatim.Endpoint, cfg.Nominatim.UserAgent,
		time.Duration(cfg.Nominatim.TimeoutSeconds)*time.Second,
		time.Duration(cfg.Nominatim.DelayMS)*time.Millisecond, cache)

	// Rendering
	fonts, err := render.LoadFonts(cfg.Render.FontsDir)
	if err != nil {
		log.Fatalf("fonts: %v", err)
	}
	compositor := render.NewCompositor(fonts).
		WithFontDownloads(render.NewFontDownloader(render.GoogleFontsEndpoint, 30*time.Second), cfg.Render.FontsDir)
	registry := themes.NewRegistry(cfg.Render.ThemesDir)

	posterSvc := usecases.NewPosterService(geocoder, fetcher, registry, compositor, cfg.Render.OutputDir)

	// NATS: the job queue and a raw connection for the WebSocket relay
	var (
		queue    ports.JobQueue
		natsConn *nats.Conn
	)
	if cfg.NATS.Enabled {
		q, err := natsadapter.NewQueue(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, async rendering disabled", "error", err)
		} else {
			defer q.Close()
			queue = q
			if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
				slog.Warn("nats relay connection failed, progress feed disabled", "error", err)
			} else {
				defer nc.Close()
				natsConn = nc
			}
		}
	}

	jobSvc := usecases.NewJobService(cache, queue, posterSvc)

	deps := &http.Dependencies{
		Posters:   posterSvc,
		Jobs:      jobSvc,
		Themes:    registry,
		Geocoder:  geocoder,
		Cache:     cache,
		NATS:      natsConn,
		OutputDir: cfg.Render.OutputDir,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "MapFrame API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "cache_backend", cfg.Cache.Backend)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
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
