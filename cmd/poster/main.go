package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/samirrijal/mapframe/internal/adapters/filecache"
	"github.com/samirrijal/mapframe/internal/adapters/nominatim"
	"github.com/samirrijal/mapframe/internal/adapters/overpass"
	"github.com/samirrijal/mapframe/internal/adapters/postgres"
	"github.com/samirrijal/mapframe/internal/adapters/render"
	"github.com/samirrijal/mapframe/internal/adapters/valkey"
	"github.com/samirrijal/mapframe/internal/core/domain"
	"github.com/samirrijal/mapframe/internal/core/ports"
	"github.com/samirrijal/mapframe/internal/core/usecases"
	"github.com/samirrijal/mapframe/internal/pkg/config"
	"github.com/samirrijal/mapframe/internal/pkg/logging"
	"github.com/samirrijal/mapframe/internal/themes"
)

const usageText = `mapframe poster — generate a city map poster

Examples:
  poster --city Bilbao --country Spain
  poster -c "Donostia / San Sebastián" -C Spain -t noir -d 12000
  poster --city Paris --country France --width 18 --height 24 --format svg
  poster --city Tokyo --country Japan --display-city 東京 --font-family "Noto Sans JP"
  poster --city Bilbao --country Spain --latitude 43.263 --longitude -2.935
  poster --city Bilbao --country Spain --all-themes
  poster --list-themes

Flags:
`

func main() {
	var (
		city           string
		country        string
		countryLabel   string
		displayCity    string
		displayCountry string
		theme          string
		fontFamily     string
		format         string
		textOptions    string
		distance       float64
		width          float64
		height         float64
		lat            float64
		lon            float64
		allThemes      bool
		listThemes     bool
	)

	flag.StringVar(&city, "city", "", "city to map (required)")
	flag.StringVar(&city, "c", "", "shorthand for --city")
	flag.StringVar(&country, "country", "", "country the city is in (required)")
	flag.StringVar(&country, "C", "", "shorthand for --country")
	flag.StringVar(&countryLabel, "country-label", "", "override the country text on the poster")
	flag.StringVar(&displayCity, "display-city", "", "override the city text on the poster")
	flag.StringVar(&displayCountry, "display-country", "", "override the country text (takes precedence over --country-label)")
	flag.StringVar(&theme, "theme", themes.DefaultTheme, "color theme")
	flag.StringVar(&theme, "t", themes.DefaultTheme, "shorthand for --theme")
	flag.StringVar(&fontFamily, "font-family", "", "Google Fonts family for the poster text")
	flag.StringVar(&format, "format", "png", "output format: png, svg, or pdf")
	flag.StringVar(&textOptions, "text-options", string(domain.TextKeepAll), "poster text mode: keep_all, no_coords, no_country, no_city_country, or clear_all")
	flag.Float64Var(&distance, "distance", domain.DefaultDistance, "map radius in meters")
	flag.Float64Var(&distance, "d", domain.DefaultDistance, "shorthand for --distance")
	flag.Float64Var(&width, "width", domain.DefaultWidthIn, "poster width in inches (max 20)")
	flag.Float64Var(&height, "height", domain.DefaultHeightIn, "poster height in inches (max 20)")
	flag.Float64Var(&lat, "latitude", 0, "center latitude, skips geocoding (needs --longitude)")
	flag.Float64Var(&lon, "longitude", 0, "center longitude, skips geocoding (needs --latitude)")
	flag.BoolVar(&allThemes, "all-themes", false, "render the poster once per available theme")
	flag.BoolVar(&listThemes, "list-themes", false, "print available themes and exit")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		flag.PrintDefaults()
	}

	if len(os.Args) == 1 {
		flag.Usage()
		os.Exit(0)
	}
	flag.Parse()

	cfg, err := config.Load("mapframe")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	registry := themes.NewRegistry(cfg.Render.ThemesDir)

	if listThemes {
		printThemes(registry)
		return
	}

	if city == "" || country == "" {
		fmt.Fprintln(os.Stderr, "error: --city and --country are required")
		flag.Usage()
		os.Exit(2)
	}

	// A coordinate pair bypasses geocoding; half a pair is a mistake.
	passed := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { passed[f.Name] = true })
	if passed["latitude"] != passed["longitude"] {
		log.Fatal("--latitude and --longitude must be given together")
	}

	req := &domain.PosterRequest{
		City:           city,
		Country:        country,
		CountryLabel:   countryLabel,
		DisplayCity:    displayCity,
		DisplayCountry: displayCountry,
		Theme:          theme,
		DistanceMeters: distance,
		WidthIn:        width,
		HeightIn:       height,
		FontFamily:     fontFamily,
		Format:         domain.OutputFormat(format),
		TextMode:       domain.TextMode(textOptions),
	}
	if passed["latitude"] {
		req.Point = &domain.GeoPoint{Lat: lat, Lon: lon}
	}

	// Ctrl-C aborts the in-flight fetch instead of leaving it to time out.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	svc := usecases.NewPosterService(geocoder, fetcher, registry, compositor, cfg.Render.OutputDir)

	if allThemes {
		renderAllThemes(ctx, svc, registry, req)
		return
	}

	result, err := renderOne(ctx, svc, req)
	if err != nil {
		log.Fatalf("render failed: %v", err)
	}
	fmt.Printf("\nPoster saved: %s (%.1fs)\n", result.File, result.Elapsed)
}

// renderOne runs a single render with a progress bar over the four fetch
// steps. Geodata comes out of the cache on repeat runs, so the bar may fly.
func renderOne(ctx context.Context, svc *usecases.PosterService, req *domain.PosterRequest) (*domain.RenderResult, error) {
	bar := progressbar.Default(4, "fetching map data")
	progress := func(stage domain.Stage, message string) {
		switch stage {
		case domain.StageGeocode:
			fmt.Println(message)
		case domain.StageNetwork, domain.StageWater, domain.StageParks, domain.StageRail:
			bar.Describe(message)
			_ = bar.Add(1)
		case domain.StageCompose:
			_ = bar.Finish()
			fmt.Println("composing layers")
		case domain.StageRender:
			fmt.Println(message)
		}
	}

	clone := *req
	return svc.Render(ctx, &clone, progress)
}

// renderAllThemes renders the same place once per theme. The first render
// fills the geodata cache; the rest only re-style and re-draw.
func renderAllThemes(ctx context.Context, svc *usecases.PosterService, registry *themes.Registry, req *domain.PosterRequest) {
	names, err := registry.Available()
	if err != nil {
		log.Fatalf("list themes: %v", err)
	}

	fmt.Printf("Rendering %s in all %d themes\n", req.City, len(names))

	failed := 0
	for i, name := range names {
		fmt.Printf("\n[%d/%d] %s\n", i+1, len(names), name)
		themed := *req
		themed.Theme = name
		result, err := renderOne(ctx, svc, &themed)
		if err != nil {
			failed++
			log.Printf("theme %s failed: %v", name, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		fmt.Printf("saved %s\n", result.File)
	}

	if failed > 0 {
		log.Fatalf("%d of %d themes failed", failed, len(names))
	}
	fmt.Printf("\nAll %d posters rendered\n", len(names))
}

func printThemes(registry *themes.Registry) {
	names, err := registry.Available()
	if err != nil {
		log.Fatalf("list themes: %v", err)
	}
	fmt.Printf("Available themes (%d):\n", len(names))
	for _, name := range names {
		theme, err := registry.Load(name)
		if err != nil {
			fmt.Printf("  %-18s (unreadable: %v)\n", name, err)
			continue
		}
		fmt.Printf("  %-18s %s\n", name, theme.Description)
	}
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
