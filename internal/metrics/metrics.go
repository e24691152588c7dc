// Package metrics exposes Prometheus metrics for terradraw-core,
// grounded on the teacher's internal/metrics.Provider (registry +
// build-info gauge + Handler/Register/Registerer) and
// internal/core/observability (the promauto counter/histogram vecs
// and the Observe* call shape), generalised from HTTP-proxy/cache
// metrics to feature-store and select-mode mutation metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BuildInfo is exposed as the app_build_info gauge, per the teacher's
// convention.
type BuildInfo struct {
	Version   string
	Revision  string
	Branch    string
	BuildDate string
}

// Config controls Init.
type Config struct {
	Namespace string
	Build     BuildInfo
}

// Provider owns a private Prometheus registry and every collector this
// module registers against it.
type Provider struct {
	reg *prometheus.Registry

	featureChangesTotal *prometheus.CounterVec
	modeSwitchesTotal   *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpDurationSeconds *prometheus.HistogramVec
	geoCacheResults     *prometheus.CounterVec
	spatialIndexSize    prometheus.Gauge
}

// Init builds a Provider with cfg.Namespace prefixing every metric
// name (empty namespace is allowed: plain names).
func Init(cfg Config) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ns := cfg.Namespace

	build := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: ns,
		Name:      "build_info",
		Help:      "Build info for this binary (value is always 1).",
	}, []string{"version", "revision", "branch", "build_date"})
	reg.MustRegister(build)
	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	build.WithLabelValues(v.Version, v.Revision, v.Branch, v.BuildDate).Set(1)

	p := &Provider{
		reg: reg,
		featureChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "feature_changes_total",
			Help:      "Store mutations observed via a mode's change batch, by mode and operation.",
		}, []string{"mode", "op"}),
		modeSwitchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "mode_switches_total",
			Help:      "Number of times the coordinator activated a mode.",
		}, []string{"mode"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total inspection-API HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "Inspection-API HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method", "route", "status"}),
		geoCacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "geocache_results_total",
			Help:      "geocache lookups by kind (centroid/bbox) and outcome (hit/miss).",
		}, []string{"kind", "outcome"}),
		spatialIndexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "spatial_index_features",
			Help:      "Number of distinct feature ids currently indexed by the spatial index.",
		}),
	}
	reg.MustRegister(
		p.featureChangesTotal,
		p.modeSwitchesTotal,
		p.httpRequestsTotal,
		p.httpDurationSeconds,
		p.geoCacheResults,
		p.spatialIndexSize,
	)
	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

// Register adds extra collectors (e.g. a client library's own metrics)
// to the same private registry.
func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

// Registerer exposes the private registry for callers that want to
// register their own collectors without importing Provider's internals.
func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// ObserveChange records one store mutation batch bucket; called from
// Coordinator.HandleChange after the spatial index / geocache sync.
func (p *Provider) ObserveChange(activeMode, op string, count int) {
	p.featureChangesTotal.WithLabelValues(activeMode, op).Add(float64(count))
}

// ObserveModeSwitch records a successful Coordinator.SetMode call.
func (p *Provider) ObserveModeSwitch(name string) {
	p.modeSwitchesTotal.WithLabelValues(name).Inc()
}

// ObserveHTTP records one inspection-API request.
func (p *Provider) ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	p.httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	p.httpDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveGeoCache records a geocache lookup outcome; wired as the
// geocache.Cache observer hook.
func (p *Provider) ObserveGeoCache(kind, outcome string) {
	p.geoCacheResults.WithLabelValues(kind, outcome).Inc()
}

// SetSpatialIndexSize records the spatial index's current feature count.
func (p *Provider) SetSpatialIndexSize(n int) {
	p.spatialIndexSize.Set(float64(n))
}
