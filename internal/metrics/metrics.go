// Package metrics exposes Prometheus counters for rank lookups and commands,
// served over HTTP next to a health probe.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "activity"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	rankLookups    *prometheus.CounterVec
	rankWindows    prometheus.Histogram
	lookupDuration prometheus.Histogram
	commands       *prometheus.CounterVec
	mirrorSyncs    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rankLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_lookups_total",
			Help:      "Rank lookups by outcome.",
		}, []string{"outcome"}),
		rankWindows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_lookup_windows",
			Help:      "Leaderboard windows read per rank lookup.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 400},
		}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_lookup_duration_seconds",
			Help:      "Wall time of rank lookups.",
			Buckets:   prometheus.DefBuckets,
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Handled bot commands.",
		}, []string{"command"}),
		mirrorSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_syncs_total",
			Help:      "Redis mirror syncs by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.rankLookups, m.rankWindows, m.lookupDuration, m.commands, m.mirrorSyncs)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveLookup records one finished rank lookup.
func (m *Metrics) ObserveLookup(outcome string, windows int, elapsed time.Duration) {
	m.rankLookups.WithLabelValues(outcome).Inc()
	if windows > 0 {
		m.rankWindows.Observe(float64(windows))
	}
	m.lookupDuration.Observe(elapsed.Seconds())
}

// CommandHandled counts a dispatched command.
func (m *Metrics) CommandHandled(command string) {
	m.commands.WithLabelValues(command).Inc()
}

// MirrorSynced counts a mirror sync, result is "ok" or "error".
func (m *Metrics) MirrorSynced(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mirrorSyncs.WithLabelValues(result).Inc()
}

// Router serves /metrics and /healthz.
func (m *Metrics) Router() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// NewServer builds the HTTP server for addr. The caller starts and stops it.
func (m *Metrics) NewServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
