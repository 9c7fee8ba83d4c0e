// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradesbook"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "path"})

	fraudAssessments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fraud_assessments_total",
		Help:      "Booking risk assessments by resulting risk level.",
	}, []string{"risk"})

	leadPurchases = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_purchases_total",
		Help:      "Leads purchased by installers.",
	})

	leadFeeCents = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lead_fee_cents",
		Help:      "Amount charged per purchased lead, in cents.",
		Buckets:   []float64{500, 1000, 1500, 2000, 2500, 3000, 4000},
	})

	leadRefunds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_refunds_total",
		Help:      "Refund request outcomes.",
	}, []string{"outcome"})

	bookingsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_created_total",
		Help:      "Bookings created by service tier.",
	}, []string{"tier"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		fraudAssessments,
		leadPurchases,
		leadFeeCents,
		leadRefunds,
		bookingsCreated,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency, labelled by route template
// so path parameters do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordFraudAssessment counts one assessment at the given risk level.
func RecordFraudAssessment(risk string) {
	fraudAssessments.WithLabelValues(risk).Inc()
}

// RecordLeadPurchase counts a purchase and observes the charged amount.
func RecordLeadPurchase(chargedCents int64) {
	leadPurchases.Inc()
	leadFeeCents.Observe(float64(chargedCents))
}

// RecordLeadRefund counts a refund decision (approved, review, rejected).
func RecordLeadRefund(outcome string) {
	leadRefunds.WithLabelValues(outcome).Inc()
}

// RecordBookingCreated counts a booking for a service tier.
func RecordBookingCreated(tier string) {
	bookingsCreated.WithLabelValues(tier).Inc()
}
