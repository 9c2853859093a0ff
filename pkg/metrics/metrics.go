package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records outcomes of pricing resolutions.
type PricingMetrics struct {
	resolutions *prometheus.CounterVec
	savings     *prometheus.HistogramVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_resolutions_total",
		Help: "Pricing resolutions by discount source.",
	}, []string{"source"})
	savings := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_line_savings_dollars",
		Help:    "Per-line savings produced by pricing resolutions.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100},
	}, []string{"source"})
	reg.MustRegister(resolutions, savings)
	return &PricingMetrics{
		resolutions: resolutions,
		savings:     savings,
	}
}

// ObserveResolution records one resolution and its line savings.
func (p *PricingMetrics) ObserveResolution(source string, savingsDollars float64) {
	if p == nil || p.resolutions == nil {
		return
	}
	label := normalizeLabel(source)
	p.resolutions.WithLabelValues(label).Inc()
	p.savings.WithLabelValues(label).Observe(savingsDollars)
}

// HTTPMetrics tracks request volume and latency for the API server.
type HTTPMetrics struct {
	inFlight prometheus.Gauge
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Requests currently being served.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Request duration by route and status class.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
	reg.MustRegister(inFlight, duration)
	return &HTTPMetrics{
		inFlight: inFlight,
		duration: duration,
	}
}

// RequestStarted marks a request in flight.
func (h *HTTPMetrics) RequestStarted() {
	if h == nil || h.inFlight == nil {
		return
	}
	h.inFlight.Inc()
}

// RequestFinished records the request duration and clears the in-flight slot.
func (h *HTTPMetrics) RequestFinished(route, status string, elapsed time.Duration) {
	if h == nil || h.inFlight == nil {
		return
	}
	h.inFlight.Dec()
	h.duration.WithLabelValues(normalizeLabel(route), normalizeLabel(status)).Observe(elapsed.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
