package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "creatorhub"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	MeteredRequestsTotal *prometheus.CounterVec
	CreditsDebitedTotal  *prometheus.CounterVec

	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	WebhookEventsTotal *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec

	InteractionsDropped prometheus.Counter
}

// New registers every collector on a fresh registry along with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "route"},
		),
		MeteredRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metered_requests_total",
				Help:      "Credit-metered requests by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		CreditsDebitedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credits_debited_total",
				Help:      "Credits debited by action",
			},
			[]string{"action"},
		),
		ProviderRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Upstream provider calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		ProviderRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Upstream provider call duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
			},
			[]string{"provider"},
		),
		WebhookEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Stripe webhook events by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "usage_events_published_total",
				Help:      "Usage events handed to the event backend by outcome",
			},
			[]string{"outcome"},
		),
		InteractionsDropped: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interactions_dropped_total",
				Help:      "Interaction log entries dropped because the write queue was full",
			},
		),
	}
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveProvider records one upstream provider call.
func (m *Metrics) ObserveProvider(name string, took time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ProviderRequestsTotal.WithLabelValues(name, outcome).Inc()
	m.ProviderRequestDuration.WithLabelValues(name).Observe(took.Seconds())
}

// ObserveCharge records the outcome of one metered request and the credits it debited.
func (m *Metrics) ObserveCharge(action, outcome string, debited int) {
	m.MeteredRequestsTotal.WithLabelValues(action, outcome).Inc()
	if debited > 0 {
		m.CreditsDebitedTotal.WithLabelValues(action).Add(float64(debited))
	}
}

func (m *Metrics) ObserveWebhook(eventType, outcome string) {
	m.WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) ObservePublish(err error) {
	if err != nil {
		m.EventsPublished.WithLabelValues("error").Inc()
		return
	}
	m.EventsPublished.WithLabelValues("ok").Inc()
}

func (m *Metrics) ObserveInteractionDropped() {
	m.InteractionsDropped.Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, took time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
