package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface on top of client_golang
// collectors registered in one registry.
type Prometheus struct {
	requests     *prometheus.CounterVec
	responses    *prometheus.CounterVec
	httpErrors   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	rateLimits   *prometheus.CounterVec
	rateLimitSec prometheus.Counter
	discovered   *prometheus.CounterVec
	stageErrors  *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	analyzed     *prometheus.CounterVec
	analysisSec  prometheus.Histogram
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blastradius_http_requests_total",
			Help: "HTTP attempts by host.",
		}, []string{"host"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blastradius_http_responses_total",
			Help: "HTTP responses by host and status class.",
		}, []string{"host", "class"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blastradius_http_errors_total",
			Help: "Transport-level HTTP failures by host.",
		}, []string{"host"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blastradius_http_request_duration_seconds",
			Help:    "HTTP attempt latency by host.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"host"}),
		rateLimits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blastradius_http_rate_limited_total",
			Help: "429 responses by host.",
		}, []string{"host"}),
		rateLimitSec: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blastradius_http_rate_limit_wait_seconds_total",
			Help: "Total time spent waiting on rate limits.",
		}),
		discovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blastradius_discovered_dependents_total",
			Help: "Dependents contributed by each discovery source.",
		}, []string{"source"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blastradius_discovery_stage_errors_total",
			Help: "Discovery stages that ended with an error.",
		}, []string{"source"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blastradius_discovery_stage_skipped_total",
			Help: "Discovery stages that did not run.",
		}, []string{"source", "reason"}),
		analyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blastradius_dependents_analyzed_total",
			Help: "Analyzed dependents by outcome.",
		}, []string{"outcome"}),
		analysisSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blastradius_dependent_analysis_duration_seconds",
			Help:    "Per-dependent analysis latency.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	reg.MustRegister(p.requests, p.responses, p.httpErrors, p.latency, p.rateLimits,
		p.rateLimitSec, p.discovered, p.stageErrors, p.skipped, p.analyzed, p.analysisSec)
	return p
}

func (p *Prometheus) OnRequest(_ context.Context, _, host, _ string) {
	p.requests.WithLabelValues(host).Inc()
}

func (p *Prometheus) OnResponse(_ context.Context, _, host, _ string, statusCode int, d time.Duration) {
	p.responses.WithLabelValues(host, statusClass(statusCode)).Inc()
	p.latency.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, host, _ string, _ error) {
	p.httpErrors.WithLabelValues(host).Inc()
}

func (p *Prometheus) OnRateLimited(_ context.Context, host, _ string, wait time.Duration) {
	p.rateLimits.WithLabelValues(host).Inc()
	p.rateLimitSec.Add(wait.Seconds())
}

func (p *Prometheus) OnStageComplete(_ context.Context, source string, added int, _ time.Duration, err error) {
	p.discovered.WithLabelValues(source).Add(float64(added))
	if err != nil {
		p.stageErrors.WithLabelValues(source).Inc()
	}
}

func (p *Prometheus) OnStageSkipped(_ context.Context, source, reason string) {
	p.skipped.WithLabelValues(source, reason).Inc()
}

func (p *Prometheus) OnDependentAnalyzed(_ context.Context, atRelease, now bool, d time.Duration, err error) {
	outcome := "not_impacted"
	switch {
	case err != nil:
		outcome = "error"
	case atRelease && now:
		outcome = "impacted_release_and_now"
	case atRelease:
		outcome = "impacted_at_release"
	case now:
		outcome = "impacted_now"
	}
	p.analyzed.WithLabelValues(outcome).Inc()
	p.analysisSec.Observe(d.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code == 429:
		return "429"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

var (
	_ HTTPHooks      = (*Prometheus)(nil)
	_ DiscoveryHooks = (*Prometheus)(nil)
	_ AnalysisHooks  = (*Prometheus)(nil)
)
