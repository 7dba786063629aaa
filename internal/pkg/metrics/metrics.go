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
		Namespace: "sundaydrive",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sundaydrive",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sundaydrive",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Discovery metrics
	DiscoveryRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sundaydrive",
		Subsystem: "discovery",
		Name:      "runs_total",
		Help:      "Detour discovery runs by outcome (ok, empty, error, stale, busy, tour_active, incomplete)",
	}, []string{"outcome"})

	DiscoveredPOIs = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sundaydrive",
		Subsystem: "discovery",
		Name:      "pois_per_run",
		Help:      "Points of interest resolved per discovery run",
		Buckets:   []float64{0, 1, 2, 3, 5, 8},
	})

	GeocodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sundaydrive",
		Subsystem: "geocode",
		Name:      "failures_total",
		Help:      "Geocoding lookups that errored, by provider",
	}, []string{"provider"})

	GeocodeMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sundaydrive",
		Subsystem: "geocode",
		Name:      "not_found_total",
		Help:      "Geocoding lookups with no match, by provider",
	}, []string{"provider"})

	CompletionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sundaydrive",
		Subsystem: "llm",
		Name:      "completion_duration_seconds",
		Help:      "Latency of text-completion calls",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 30},
	}, []string{"purpose", "outcome"})

	Narrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sundaydrive",
		Subsystem: "narration",
		Name:      "total",
		Help:      "Narrations produced, by outcome (fact, fallback)",
	}, []string{"outcome"})

	SpeechSyntheses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sundaydrive",
		Subsystem: "speech",
		Name:      "syntheses_total",
		Help:      "Speech syntheses by outcome (ok, error, flushed)",
	}, []string{"outcome"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sundaydrive",
		Subsystem: "session",
		Name:      "active",
		Help:      "Drive sessions currently held in memory",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sundaydrive",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sundaydrive",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sundaydrive",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Gazetteer pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sundaydrive",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sundaydrive",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sundaydrive",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// ObserveCompletion records one completion call.
func ObserveCompletion(purpose string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	CompletionDuration.WithLabelValues(purpose, outcome).Observe(time.Since(start).Seconds())
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// Route pattern, not the raw path, to keep session IDs out of label values.
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

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	// Matches *pgxpool.Stat without importing pgx here.
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
