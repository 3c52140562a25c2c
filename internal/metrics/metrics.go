// Package metrics exposes Prometheus instruments for upstream calls and
// classification passes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec   // endpoint, outcome
	UpstreamDuration *prometheus.HistogramVec // endpoint

	PatternsResolved *prometheus.CounterVec // direction, outcome

	VehiclesClassified *prometheus.CounterVec // direction, status
	VehiclesDropped    *prometheus.CounterVec // direction, reason
	ClassifyDuration   prometheus.Histogram

	CacheLookups *prometheus.CounterVec // result: hit|miss
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busmon_upstream_requests_total",
			Help: "Upstream API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "busmon_upstream_request_duration_seconds",
			Help:    "Latency of upstream API requests.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"endpoint"}),
		PatternsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busmon_patterns_resolved_total",
			Help: "Pattern resolutions per direction, ok or empty.",
		}, []string{"direction", "outcome"}),
		VehiclesClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busmon_vehicles_classified_total",
			Help: "Vehicles kept by the classifier, by status.",
		}, []string{"direction", "status"}),
		VehiclesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busmon_vehicles_dropped_total",
			Help: "Vehicles left out by the classifier, by reason.",
		}, []string{"direction", "reason"}),
		ClassifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busmon_classify_duration_seconds",
			Help:    "Duration of one classification pass.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busmon_response_cache_lookups_total",
			Help: "Response cache lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.UpstreamRequests, c.UpstreamDuration,
		c.PatternsResolved,
		c.VehiclesClassified, c.VehiclesDropped, c.ClassifyDuration,
		c.CacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// ObserveUpstream records one upstream call
func (c *Collector) ObserveUpstream(endpoint, outcome string, elapsed time.Duration) {
	c.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	c.UpstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObservePattern records whether a pattern resolved to any stops
func (c *Collector) ObservePattern(direction string, resolved bool) {
	outcome := "ok"
	if !resolved {
		outcome = "empty"
	}
	c.PatternsResolved.WithLabelValues(direction, outcome).Inc()
}

// ObserveClassification records the outcome of one classification pass
func (c *Collector) ObserveClassification(direction string, statuses map[string]int, dropped map[string]int, elapsed time.Duration) {
	for status, n := range statuses {
		c.VehiclesClassified.WithLabelValues(direction, status).Add(float64(n))
	}
	for reason, n := range dropped {
		c.VehiclesDropped.WithLabelValues(direction, reason).Add(float64(n))
	}
	c.ClassifyDuration.Observe(elapsed.Seconds())
}

// ObserveCache records a response cache hit or miss
func (c *Collector) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
