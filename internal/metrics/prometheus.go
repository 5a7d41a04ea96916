// SPDX-License-Identifier: EPL-2.0

package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ik5/audconv/convert"
	"github.com/ik5/audconv/formats"
)

// Metrics contains all Prometheus metrics for the conversion service
type Metrics struct {
	gatherer prometheus.Gatherer

	// Conversion metrics
	ConversionsStarted  *prometheus.CounterVec
	ConversionsFinished *prometheus.CounterVec
	ConversionDuration  *prometheus.HistogramVec
	ActiveConversions   prometheus.Gauge
	InputBytes          prometheus.Histogram
	OutputBytes         prometheus.Histogram
	Normalizations      prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewMetricsWith registers the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry for both arguments.
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	sizeBuckets := prometheus.ExponentialBuckets(16<<10, 4, 9) // 16 KiB .. 1 GiB

	return &Metrics{
		gatherer: gatherer,

		ConversionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audconv_conversions_started_total",
			Help: "Total number of conversions started",
		}, []string{"format", "backend"}),
		ConversionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audconv_conversions_finished_total",
			Help: "Total number of conversions finished, by outcome and failing stage",
		}, []string{"format", "backend", "outcome", "stage"}),
		ConversionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audconv_conversion_duration_seconds",
			Help:    "Time spent in a conversion",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"format", "backend"}),
		ActiveConversions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "audconv_active_conversions",
			Help: "Current number of running conversions",
		}),
		InputBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "audconv_input_bytes",
			Help:    "Size of conversion inputs",
			Buckets: sizeBuckets,
		}),
		OutputBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "audconv_output_bytes",
			Help:    "Size of conversion outputs",
			Buckets: sizeBuckets,
		}),
		Normalizations: factory.NewCounter(prometheus.CounterOpts{
			Name: "audconv_normalizations_total",
			Help: "Total number of inputs normalized to WAV before conversion",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audconv_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audconv_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// Started implements convert.Recorder
func (m *Metrics) Started(format formats.Format, backend formats.Backend) {
	m.ConversionsStarted.WithLabelValues(format.String(), backend.String()).Inc()
	m.ActiveConversions.Inc()
}

// Finished implements convert.Recorder
func (m *Metrics) Finished(o convert.Outcome) {
	m.ActiveConversions.Dec()

	stage := ""
	if o.State == convert.Failed {
		stage = o.FailedIn.String()
	}

	m.ConversionsFinished.WithLabelValues(o.Format.String(), o.Backend.String(), o.State.String(), stage).Inc()
	m.ConversionDuration.WithLabelValues(o.Format.String(), o.Backend.String()).Observe(o.Elapsed.Seconds())
	m.InputBytes.Observe(float64(o.InputBytes))

	if o.State == convert.Succeeded {
		m.OutputBytes.Observe(float64(o.OutputBytes))
	}
	if o.Normalized {
		m.Normalizations.Inc()
	}
}

// RecordHTTPRequest records an HTTP API request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
