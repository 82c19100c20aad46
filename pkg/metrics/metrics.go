// Package metrics exposes the engine's runtime counters and histograms
// through the default Prometheus registry, for scraping by the server's
// /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pullsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamfusion_pulls_total",
		Help: "Iterator pulls by dispatch backend and outcome: one per Next call, one per ToList materialization.",
	}, []string{"backend", "outcome"})

	fusionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamfusion_fusions_total",
		Help: "Adjacent Map steps fused during pipeline extension.",
	})

	fusionFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamfusion_fusion_fallbacks_total",
		Help: "Fusion attempts demoted to append because Compose failed.",
	})

	filterRejectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamfusion_filter_rejects_total",
		Help: "Elements dropped by a Filter step.",
	})

	compileLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamfusion_compile_duration_seconds",
		Help:    "Wall time spent lowering a pipeline into a CompiledNext.",
		Buckets: prometheus.DefBuckets,
	})

	compileFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamfusion_compile_failures_total",
		Help: "JIT compile attempts that returned a ConfigError.",
	})

	activeIterators = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamfusion_active_iterators",
		Help: "Iterators currently in the Streaming state.",
	})
)

// ObservePull records the result of one Iterator.Next call, or of one
// whole Iterator.ToList materialization. backend is "interpreted" or
// "compiled"; outcome is "value", "exhausted", or "error".
func ObservePull(backend, outcome string) {
	pullsTotal.WithLabelValues(backend, outcome).Inc()
}

// ObserveFusion records a successful map-over-map fusion.
func ObserveFusion() { fusionsTotal.Inc() }

// ObserveFusionFallback records a fusion attempt that fell back to
// append because the configured Composer failed.
func ObserveFusionFallback() { fusionFallbacksTotal.Inc() }

// ObserveFilterReject records one element dropped by a Filter step.
func ObserveFilterReject() { filterRejectsTotal.Inc() }

// ObserveCompile records the duration of one compile() call and whether
// it succeeded.
func ObserveCompile(d time.Duration, err error) {
	compileLatency.Observe(d.Seconds())
	if err != nil {
		compileFailuresTotal.Inc()
	}
}

// IteratorOpened increments the active-iterator gauge; call once per
// Iterator leaving the Fresh state.
func IteratorOpened() { activeIterators.Inc() }

// IteratorClosed decrements the active-iterator gauge; call once per
// Iterator entering Exhausted, Errored, or an explicit Close.
func IteratorClosed() { activeIterators.Dec() }
