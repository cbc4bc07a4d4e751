// Package metrics exposes crawl counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"broker-scout/internal/logger"
)

const namespace = "broker_scout"

// Navigation outcomes used as label values.
const (
	OutcomeSuccess = "success"
	OutcomeRetry   = "retry"
	OutcomeFailed  = "failed"
)

// Metrics holds the crawl collectors.
type Metrics struct {
	NavigationAttempts *prometheus.CounterVec
	NavigationSeconds  prometheus.Histogram
	ProfilesDiscovered prometheus.Gauge
	RecordsEmitted     prometheus.Counter
	ProfilesFailed     prometheus.Counter
	SinkErrors         *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg; nil means a fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		NavigationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_attempts_total",
			Help:      "Navigation attempts by outcome.",
		}, []string{"outcome"}),
		NavigationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "navigation_seconds",
			Help:      "Duration of a single navigation attempt.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 25, 45},
		}),
		ProfilesDiscovered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profiles_discovered",
			Help:      "Profile URLs queued by the last discovery.",
		}),
		RecordsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Broker records handed to the collector.",
		}),
		ProfilesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_failed_total",
			Help:      "Profiles skipped because navigation failed.",
		}),
		SinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Collector errors by sink.",
		}, []string{"sink"}),
		gatherer: reg,
	}
}

// ObserveNavigation records one attempt. Safe on a nil receiver.
func (m *Metrics) ObserveNavigation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.NavigationAttempts.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.NavigationSeconds.Observe(d.Seconds())
	}
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve runs a /metrics server until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics shutdown error", logger.Err(err))
		}
	}()

	go func() {
		log.Info("metrics listening", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", logger.Err(err))
		}
	}()
}
