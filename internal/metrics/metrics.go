// Package metrics exposes Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abjin/reward-closet/internal/domain"
)

// Collector records request, estimation and donation metrics.
type Collector struct {
	requests           *prometheus.CounterVec
	latency            *prometheus.HistogramVec
	estimations        *prometheus.CounterVec
	classifierFailures prometheus.Counter
	donationsCreated   prometheus.Counter
	transitions        *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reward_closet_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reward_closet_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		estimations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reward_closet_estimations_total",
			Help: "Completed estimations by condition grade.",
		}, []string{"condition"}),
		classifierFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reward_closet_classifier_failures_total",
			Help: "Classifier calls that failed.",
		}),
		donationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reward_closet_donations_created_total",
			Help: "Donations created.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reward_closet_donation_transitions_total",
			Help: "Donation status transitions by target status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.estimations,
		c.classifierFailures,
		c.donationsCreated,
		c.transitions,
	)

	return c
}

// RecordRequest records one served HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(route).Observe(d.Seconds())
}

// RecordEstimation records a successful estimation.
func (c *Collector) RecordEstimation(condition domain.Condition) {
	c.estimations.WithLabelValues(string(condition)).Inc()
}

// RecordClassifierFailure records a failed classifier call.
func (c *Collector) RecordClassifierFailure() {
	c.classifierFailures.Inc()
}

// RecordDonationCreated records a new donation.
func (c *Collector) RecordDonationCreated() {
	c.donationsCreated.Inc()
}

// RecordTransition records a donation entering status.
func (c *Collector) RecordTransition(status domain.DonationStatus) {
	c.transitions.WithLabelValues(string(status)).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
