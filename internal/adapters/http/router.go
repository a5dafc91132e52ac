package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapframe/internal/pkg/metrics"
)

// renderTimeout bounds a synchronous render. A cold cache means up to four
// remote fetches with courtesy delays between them, so this is generous.
const renderTimeout = 5 * time.Minute

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 30 requests per minute per IP. Renders are expensive;
	// a poster gallery has no business hammering this API.
	app.Use(limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout, except the render endpoint
	v1 := app.Group("/v1")
	v1.Get("/themes", timeout.NewWithContext(ListThemesHandler(deps), 15*time.Second))
	v1.Get("/themes/:name", timeout.NewWithContext(GetThemeHandler(deps), 15*time.Second))
	v1.Get("/geocode", timeout.NewWithContext(GeocodeHandler(deps), 15*time.Second))
	v1.Post("/posters", timeout.NewWithContext(CreatePosterHandler(deps), renderTimeout))
	v1.Get("/jobs", timeout.NewWithContext(ListJobsHandler(deps), 15*time.Second))
	v1.Get("/jobs/:id", timeout.NewWithContext(GetJobHandler(deps), 15*time.Second))
	v1.Get("/jobs/:id/file", timeout.NewWithContext(JobFileHandler(deps), 30*time.Second))

	// Rendered posters as static files
	if deps.OutputDir != "" {
		app.Static("/files", deps.OutputDir, fiber.Static{
			Browse:   false,
			MaxAge:   int((24 * time.Hour).Seconds()),
			Download: false,
		})
	}

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket progress relay
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/progress", websocket.New(ProgressSocketHandler(deps.NATS)))
}
