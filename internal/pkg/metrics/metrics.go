package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapframe",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapframe",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapframe",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Pipeline metrics
	OverpassRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapframe",
		Subsystem: "overpass",
		Name:      "requests_total",
		Help:      "Total Overpass API requests by layer and outcome",
	}, []string{"layer", "status"})

	OverpassRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapframe",
		Subsystem: "overpass",
		Name:      "request_duration_seconds",
		Help:      "Duration of Overpass API requests",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"layer"})

	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapframe",
		Subsystem: "geocode",
		Name:      "requests_total",
		Help:      "Total Nominatim geocoding requests by outcome",
	}, []string{"status"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapframe",
		Subsystem: "render",
		Name:      "duration_seconds",
		Help:      "Time spent rasterising a poster scene",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 180},
	}, []string{"format"})

	PostersRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapframe",
		Subsystem: "render",
		Name:      "posters_total",
		Help:      "Total posters rendered by theme and format",
	}, []string{"theme", "format"})

	JobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mapframe",
		Subsystem: "jobs",
		Name:      "enqueued_total",
		Help:      "Total render jobs published to the queue",
	})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapframe",
		Subsystem: "jobs",
		Name:      "processed_total",
		Help:      "Total render jobs completed by final state",
	}, []string{"state"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapframe",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapframe",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"kind"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapframe",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"kind"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapframe",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapframe",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapframe",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from pgx pool stats.
// The interface indirection keeps pgxpool out of this package's imports.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
