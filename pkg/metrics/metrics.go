// Package metrics provides Prometheus instrumentation for GiftBid.
//
// It pre-defines the standard HTTP metrics plus counters for the listing
// lifecycle (bids, sweeps, orders, reviews) and gives you helpers to
// register your own custom metrics.
//
// Wire it up once in internal/server:
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
//
// Then scrape http://localhost:8080/metrics from Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────
// Built-in HTTP metrics
// ─────────────────────────────────────────────

var (
	// RequestDuration tracks how long each HTTP request takes,
	// broken down by method, route path, and status code.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "giftbid",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets, // .005 .01 .025 .05 .1 .25 .5 1 2.5 5 10
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all HTTP requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftbid",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks how many requests are currently being served.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "giftbid",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// ResponseSize tracks the response body size in bytes.
	ResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "giftbid",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "Response body sizes in bytes.",
			Buckets:   []float64{100, 1_000, 10_000, 100_000, 1_000_000},
		},
		[]string{"method", "path"},
	)
)

// ─────────────────────────────────────────────
// Listing lifecycle metrics
// ─────────────────────────────────────────────

var (
	// BidsTotal counts bid attempts by outcome.
	BidsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftbid",
			Subsystem: "bids",
			Name:      "placed_total",
			Help:      "Total bid attempts by outcome.",
		},
		[]string{"outcome"}, // "accepted" | "rejected" | "conflict"
	)

	// SweepRuns counts auction-closing sweep executions.
	SweepRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "giftbid",
		Subsystem: "sweep",
		Name:      "runs_total",
		Help:      "Total auction-closing sweep runs.",
	})

	// SweepListings counts listings handled by the sweep, by outcome.
	SweepListings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftbid",
			Subsystem: "sweep",
			Name:      "listings_total",
			Help:      "Expired auctions processed by the sweep.",
		},
		[]string{"outcome"}, // "resolved" | "renewed" | "skipped"
	)

	// SweepDuration tracks how long a full sweep pass takes.
	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "giftbid",
		Subsystem: "sweep",
		Name:      "duration_seconds",
		Help:      "Duration of a full sweep pass in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// OrdersCreated counts successfully created orders.
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "giftbid",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Total orders created.",
	})

	// ReviewsWritten counts submitted reviews by flow.
	ReviewsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftbid",
			Subsystem: "reviews",
			Name:      "written_total",
			Help:      "Total reviews written.",
		},
		[]string{"flow"}, // "order" | "no_order"
	)

	// StoreConflicts counts lost conditional writes by collection.
	StoreConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftbid",
			Subsystem: "store",
			Name:      "conflicts_total",
			Help:      "Conditional writes that lost a race.",
		},
		[]string{"collection"}, // "listings" | "users" | "orders"
	)

	// PushEvents counts websocket listing-change broadcasts.
	PushEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "giftbid",
		Subsystem: "push",
		Name:      "events_total",
		Help:      "Listing-change events broadcast over websocket.",
	})

	// CacheHits / CacheMisses track browse cache effectiveness.
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftbid",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total cache hits.",
		},
		[]string{"driver"}, // "redis"
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftbid",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total cache misses.",
		},
		[]string{"driver"},
	)
)

// ─────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────

// DefaultRegistry is the Prometheus registry used by GiftBid.
// Register your own metrics against this.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	// Go runtime metrics (GC, goroutines, memory)
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	// OS process metrics (CPU, open FDs)
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		ResponseSize,
		BidsTotal,
		SweepRuns,
		SweepListings,
		SweepDuration,
		OrdersCreated,
		ReviewsWritten,
		StoreConflicts,
		PushEvents,
		CacheHits,
		CacheMisses,
	)
}

// Register lets you add your own prometheus.Collector to the registry.
func Register(c prometheus.Collector) error {
	return DefaultRegistry.Register(c)
}

// MustRegister panics if registration fails.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// ─────────────────────────────────────────────
// HTTP middleware
// ─────────────────────────────────────────────

// responseRecorder wraps http.ResponseWriter to capture status code and size.
type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// Middleware returns an http.Handler middleware that records Prometheus metrics
// for every request: duration histogram, total counter, in-flight gauge, response size.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path // raw path; normalize in high-cardinality APIs

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rr.status)

			RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
			RequestTotal.WithLabelValues(r.Method, path, status).Inc()
			ResponseSize.WithLabelValues(r.Method, path).Observe(float64(rr.size))
		})
	}
}

// ─────────────────────────────────────────────
// /metrics endpoint handler
// ─────────────────────────────────────────────

// Handler returns an http.HandlerFunc that exposes the Prometheus metrics page.
// Mount it on GET /metrics in your router.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true, // enables text/plain AND OpenMetrics formats
	})
	return h.ServeHTTP
}

// ─────────────────────────────────────────────
// Helpers for app code
// ─────────────────────────────────────────────

// ObserveSweep records a full sweep pass:
//
//	defer metrics.ObserveSweep(time.Now())
func ObserveSweep(start time.Time) {
	SweepRuns.Inc()
	SweepDuration.Observe(time.Since(start).Seconds())
}
