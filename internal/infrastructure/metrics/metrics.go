package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing, so components can be built without metrics in tests.
type Metrics struct {
	// Relay
	Generations *prometheus.CounterVec
	Shapes      *prometheus.CounterVec

	// LLM
	LLMRequests        *prometheus.CounterVec
	LLMTokens          *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec

	// HTTP
	HTTPRequests        *prometheus.CounterVec
	HTTPDurationSeconds *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec

	// Errors
	Errors *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_generations_total",
				Help: "Generation requests by mode and outcome",
			},
			[]string{"mode", "outcome"}, // outcome: ok|error|unknown_mode
		),
		Shapes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_shaped_responses_total",
				Help: "Provider responses by shaping result",
			},
			[]string{"kind"}, // kind: structured|raw
		),
		LLMRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_llm_requests_total",
				Help: "Number of LLM requests by model",
			},
			[]string{"model"},
		),
		LLMTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_llm_tokens_total",
				Help: "Tokens reported by the provider",
			},
			[]string{"model", "type"}, // type: prompt|completion
		),
		LLMDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "astra_llm_request_duration_seconds",
				Help:    "Duration of LLM requests",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s..128s
			},
			[]string{"model"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path"},
		),
		HTTPDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of HTTP request errors.",
			},
			[]string{"method", "path", "status"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astra_errors_total",
				Help: "Errors encountered in components",
			},
			[]string{"component", "type"},
		),
	}

	reg.MustRegister(
		m.Generations,
		m.Shapes,
		m.LLMRequests,
		m.LLMTokens,
		m.LLMDurationSeconds,
		m.HTTPRequests,
		m.HTTPDurationSeconds,
		m.HTTPErrors,
		m.Errors,
	)
	return m
}

// Handler serves the Prometheus exposition format for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NewServer builds a dedicated metrics server; the caller owns its lifecycle.
func NewServer(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Relay
func (m *Metrics) IncGeneration(mode, outcome string) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) IncShape(kind string) {
	if m == nil {
		return
	}
	m.Shapes.WithLabelValues(kind).Inc()
}

// LLM
func (m *Metrics) IncLLMRequest(model string) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(model).Inc()
}

func (m *Metrics) AddLLMTokens(model string, prompt, completion int64) {
	if m == nil {
		return
	}
	m.LLMTokens.WithLabelValues(model, "prompt").Add(float64(prompt))
	m.LLMTokens.WithLabelValues(model, "completion").Add(float64(completion))
}

func (m *Metrics) ObserveLLMDuration(model string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMDurationSeconds.WithLabelValues(model).Observe(d.Seconds())
}

// HTTP
func (m *Metrics) ObserveHTTPRequest(method, path, status string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path).Inc()
	m.HTTPDurationSeconds.WithLabelValues(method, path, status).Observe(d.Seconds())
	if failed {
		m.HTTPErrors.WithLabelValues(method, path, status).Inc()
	}
}

// Errors
func (m *Metrics) IncError(component, typ string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(component, typ).Inc()
}
