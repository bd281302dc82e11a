package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sample results and discard reasons used as label values.
const (
	ResultOK    = "ok"
	ResultEmpty = "empty"
	ResultError = "error"

	DiscardStale   = "stale"
	DiscardStopped = "stopped"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	ticks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulsr",
			Subsystem: "monitor",
			Name:      "ticks_total",
			Help:      "Number of timer ticks, one sampling call each.",
		},
	)
	samples = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulsr",
			Subsystem: "monitor",
			Name:      "samples_total",
			Help:      "Completed sampling calls by result (ok, empty, error).",
		}, []string{"result"},
	)
	discarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulsr",
			Subsystem: "monitor",
			Name:      "discarded_total",
			Help:      "Completed sampling calls whose result was not applied.",
		}, []string{"reason"},
	)
	sampleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pulsr",
			Subsystem: "monitor",
			Name:      "sample_duration_seconds",
			Help:      "Latency of heartbeat sampling calls.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	healthy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pulsr",
			Subsystem: "monitor",
			Name:      "healthy",
			Help:      "1 while the current liveness token is non-empty, 0 otherwise.",
		},
	)
	inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pulsr",
			Subsystem: "monitor",
			Name:      "in_flight",
			Help:      "Sampling calls started but not yet completed.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{ticks, samples, discarded, sampleDuration, healthy, inFlight}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// HandlerFor serves metrics from a specific gatherer, e.g. a test registry.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Below are lightweight helpers used by the monitor to record metrics.
// They no-op if Register hasn't been called.

func IncTick() {
	if regOK.Load() {
		ticks.Inc()
	}
}

func ObserveSample(result string, seconds float64) {
	if regOK.Load() {
		samples.WithLabelValues(result).Inc()
		sampleDuration.Observe(seconds)
	}
}

func IncDiscarded(reason string) {
	if regOK.Load() {
		discarded.WithLabelValues(reason).Inc()
	}
}

func SetHealthy(ok bool) {
	if regOK.Load() {
		var v float64
		if ok {
			v = 1
		}
		healthy.Set(v)
	}
}

func AddInFlight(delta int) {
	if regOK.Load() {
		inFlight.Add(float64(delta))
	}
}
