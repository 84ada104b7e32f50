// Package metrics holds the Prometheus collectors and HTTP instrumentation.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealcycle",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mealcycle",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method"},
	)

	ordersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mealcycle",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Total number of orders placed.",
		},
	)

	packsPurchased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mealcycle",
			Subsystem: "packs",
			Name:      "purchased_total",
			Help:      "Total number of meal packs purchased.",
		},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, ordersPlaced, packsPurchased)
}

// RegisterDBPool exposes the sql.DB pool gauges on the registry.
func RegisterDBPool(db *sql.DB) {
	Registry.MustRegister(collectors.NewDBStatsCollector(db, "mealcycle"))
}

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware instruments every request with a counter and latency histogram.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		httpRequests.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// OrderPlaced increments the order placement counter.
func OrderPlaced() { ordersPlaced.Inc() }

// PackPurchased increments the pack purchase counter.
func PackPurchased() { packsPurchased.Inc() }
