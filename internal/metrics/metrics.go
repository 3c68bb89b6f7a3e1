package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry. A nil *Collector is valid and records
// nothing, so services can run without metrics in tests.
type Collector struct {
	reg *prometheus.Registry

	BookingsCreated   prometheus.Counter
	BookingsCancelled prometheus.Counter
	TripTransitions   *prometheus.CounterVec // transition label: start|complete|cancel
	CascadedBookings  *prometheus.CounterVec // to label: booking status after cascade
	LocationSamples   prometheus.Counter
	LocationPubErrs   prometheus.Counter
	NATSConnected     prometheus.Gauge
	RequestDuration   *prometheus.HistogramVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		BookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_bookings_created_total",
			Help: "Total bookings created.",
		}),
		BookingsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_bookings_cancelled_total",
			Help: "Total bookings cancelled.",
		}),
		TripTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_trip_transitions_total",
			Help: "Applied trip state transitions.",
		}, []string{"transition"}),
		CascadedBookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_cascaded_bookings_total",
			Help: "Bookings moved by trip transition cascades.",
		}, []string{"to"}),
		LocationSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_location_samples_total",
			Help: "Vehicle location samples recorded.",
		}),
		LocationPubErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_location_publish_errors_total",
			Help: "Location samples that failed to publish to NATS.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shuttle_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		c.BookingsCreated, c.BookingsCancelled,
		c.TripTransitions, c.CascadedBookings,
		c.LocationSamples, c.LocationPubErrs, c.NATSConnected,
		c.RequestDuration,
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) BookingCreated() {
	if c != nil {
		c.BookingsCreated.Inc()
	}
}

func (c *Collector) BookingCancelled() {
	if c != nil {
		c.BookingsCancelled.Inc()
	}
}

func (c *Collector) TripTransition(name string, cascaded int64, to string) {
	if c == nil {
		return
	}
	c.TripTransitions.WithLabelValues(name).Inc()
	if cascaded > 0 && to != "" {
		c.CascadedBookings.WithLabelValues(to).Add(float64(cascaded))
	}
}

func (c *Collector) LocationRecorded() {
	if c != nil {
		c.LocationSamples.Inc()
	}
}

// The methods below satisfy publisher.PublisherMetrics.

func (c *Collector) NATSPublishErrInc() {
	if c != nil {
		c.LocationPubErrs.Inc()
	}
}

func (c *Collector) NATSSetConnected(connected bool) {
	if c == nil {
		return
	}
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) ObserveRequest(method string, status int, d time.Duration) {
	if c != nil {
		c.RequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
	}
}
