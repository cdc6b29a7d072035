package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "condo", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "condominium", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "condo", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "condo", Name: "backend_requests_total", Help: "Requests to the condominium backend."},
		[]string{"endpoint", "status"},
	)
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "condo", Name: "backend_request_duration_seconds",
			Help:    "Condominium backend request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "condo", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	CalendarSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "condo", Name: "calendar_skipped_reservations_total", Help: "Reservations left off the calendar."},
		[]string{"reason"},
	)
	ShareFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "condo", Name: "share_files_total", Help: "Shared files by outcome."},
		[]string{"outcome"}, // outcome: extracted|read_failed|extract_failed|passthrough
	)
)

// Serve starts a standalone /metrics listener on addr; empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, BackendRequests, BackendLatency, CacheEvents, CalendarSkips, ShareFiles)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveHTTP records one request; condominium is empty for routes outside a
// condominium.
func ObserveHTTP(route, method, condominium string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, condominium, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveBackend records one backend call; status 0 means no response.
func ObserveBackend(endpoint string, status int, dur time.Duration) {
	BackendRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	BackendLatency.WithLabelValues(endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveSkip(reason string) { CalendarSkips.WithLabelValues(reason).Inc() }

func ObserveShare(outcome string) { ShareFiles.WithLabelValues(outcome).Inc() }
