package observability

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	Navigations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "medharvest", Name: "navigations_total", Help: "Page navigations by outcome."},
		[]string{"fetcher", "outcome"}, // outcome: ok|retry|failed
	)
	NavLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medharvest", Name: "navigation_duration_seconds",
			Help:    "Page navigation duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"fetcher"},
	)
	EntitiesExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "medharvest", Name: "entities_extracted_total", Help: "Entities extracted by type."},
		[]string{"entity"},
	)
	FieldMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "medharvest", Name: "extraction_field_misses_total", Help: "Fields no selector candidate matched."},
		[]string{"entity", "field"},
	)
	UpsertBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "medharvest", Name: "upsert_batches_total", Help: "Upsert batches by outcome."},
		[]string{"entity", "outcome"}, // outcome: ok|failed
	)
	GeocodeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "medharvest", Name: "geocode_requests_total", Help: "Outbound geocoder requests."},
		[]string{"outcome"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "medharvest", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(InitRegistry()))

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
	reg.MustRegister(Navigations, NavLatency, EntitiesExtracted, FieldMisses, UpsertBatches, GeocodeRequests, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveNavigation(fetcher, outcome string, dur time.Duration) {
	Navigations.WithLabelValues(fetcher, outcome).Inc()
	if outcome == "ok" {
		NavLatency.WithLabelValues(fetcher).Observe(dur.Seconds())
	}
}

func ObserveUpsertBatch(entity string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	UpsertBatches.WithLabelValues(entity, outcome).Inc()
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
