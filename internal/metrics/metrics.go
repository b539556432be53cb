// Package metrics instruments client authorize calls with Prometheus
// counters and histograms. A Registry constructed with Disabled() records
// nothing, so linking the library never forces a caller to expose a
// /metrics endpoint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Result labels the outcome of one Authorize call for pep_authorize_total.
type Result string

const (
	ResultOK                 Result = "ok"
	ResultTransportError     Result = "transport_error"
	ResultHTTPError          Result = "http_error"
	ResultMarshalError       Result = "marshal_error"
	ResultUnmarshalError     Result = "unmarshal_error"
	ResultPreProcessorError  Result = "preprocessor_error"
	ResultPostProcessorError Result = "postprocessor_error"
)

// Direction labels which way Hessian bytes moved for pep_hessian_bytes_total.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Registry wraps a *prometheus.Registry with the authorize-path metrics.
// A disabled Registry's methods are no-ops, matching the teacher's pattern
// of an Enabled flag gating otherwise-expensive instrumentation.
type Registry struct {
	enabled bool
	reg     *prometheus.Registry

	authorizeTotal    *prometheus.CounterVec
	authorizeDuration prometheus.Histogram
	hessianBytesTotal *prometheus.CounterVec
}

// New creates an enabled Registry backed by a fresh prometheus.Registry.
func New() *Registry {
	r := &Registry{enabled: true, reg: prometheus.NewRegistry()}

	r.authorizeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pep_authorize_total",
		Help: "Total number of Authorize calls by decision and result.",
	}, []string{"decision", "result"})

	r.authorizeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pep_authorize_duration_seconds",
		Help:    "Authorize call latency in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	r.hessianBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pep_hessian_bytes_total",
		Help: "Total Hessian-encoded bytes sent or received.",
	}, []string{"direction"})

	r.reg.MustRegister(r.authorizeTotal, r.authorizeDuration, r.hessianBytesTotal)
	return r
}

// Disabled returns a Registry whose recording methods are no-ops.
func Disabled() *Registry {
	return &Registry{enabled: false}
}

// Gatherer exposes the underlying collector set, e.g. for promhttp.Handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if !r.enabled {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// ObserveAuthorize records one completed Authorize call.
func (r *Registry) ObserveAuthorize(decision string, result Result, seconds float64) {
	if !r.enabled {
		return
	}
	r.authorizeTotal.WithLabelValues(decision, string(result)).Inc()
	r.authorizeDuration.Observe(seconds)
}

// AddHessianBytes records n bytes moved in the given direction.
func (r *Registry) AddHessianBytes(direction Direction, n int) {
	if !r.enabled || n <= 0 {
		return
	}
	r.hessianBytesTotal.WithLabelValues(string(direction)).Add(float64(n))
}
