package observability

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"surveyadmin/internal/auth"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "surveyadmin"

// Collector owns a private registry so several routers can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	exportsTotal    *prometheus.CounterVec
	exportBytes     *prometheus.HistogramVec
	exportDuration  *prometheus.HistogramVec
}

func NewCollector(db *sql.DB) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "survey_exports_total",
				Help:      "Survey exports by format and outcome",
			},
			[]string{"format", "outcome"},
		),
		exportBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "survey_export_size_bytes",
				Help:      "Size of rendered survey exports",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"format"},
		),
		exportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "survey_export_duration_seconds",
				Help:      "Time spent loading and rendering survey exports",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"format"},
		),
	}

	c.registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.exportsTotal,
		c.exportBytes,
		c.exportDuration,
		collectors.NewGoCollector(),
	)
	if db != nil {
		c.registry.MustRegister(collectors.NewDBStatsCollector(db, namespace))
	}
	return c
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(auth.WithUserSlot(r.Context()))
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		path := normalizedPath(r.URL.Path)
		c.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		c.requestDuration.WithLabelValues(r.Method, path).Observe(elapsed.Seconds())

		userID := int64(0)
		if u, ok := auth.CurrentUser(r.Context()); ok {
			userID = u.ID
		}
		entry := map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
			"user_id":    userID,
			"method":     r.Method,
			"path":       path,
			"status":     rec.status,
			"latency_ms": float64(elapsed.Microseconds()) / 1000.0,
			"remote_ip":  strings.TrimSpace(r.RemoteAddr),
		}
		if exportID := rec.Header().Get("X-Export-ID"); exportID != "" {
			entry["export_id"] = exportID
		}
		b, _ := json.Marshal(entry)
		log.Printf("%s", string(b))
	})
}

// ObserveExport records one finished survey export.
func (c *Collector) ObserveExport(format string, ok bool, size int, elapsed time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	c.exportsTotal.WithLabelValues(format, outcome).Inc()
	c.exportDuration.WithLabelValues(format).Observe(elapsed.Seconds())
	if ok {
		c.exportBytes.WithLabelValues(format).Observe(float64(size))
	}
}

func (c *Collector) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func normalizedPath(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
