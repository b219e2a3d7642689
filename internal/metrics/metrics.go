package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mentorconnect",
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		},
	)

	transitionsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mentorconnect",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by target status.",
		},
		[]string{"status"},
	)

	reconciledBookings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mentorconnect",
			Name:      "bookings_reconciled_total",
			Help:      "Bookings rewritten by the auto-complete sweep.",
		},
	)

	paymentsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mentorconnect",
			Name:      "payments_confirmed_total",
			Help:      "Payment intents confirmed as completed.",
		},
	)

	emailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mentorconnect",
			Name:      "notification_failures_total",
			Help:      "Booking notification emails that failed to send.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingsCreated,
			transitionsApplied,
			reconciledBookings,
			paymentsConfirmed,
			emailFailures,
		)
	})
}

func IncBookingCreated()          { bookingsCreated.Inc() }
func IncTransition(status string) { transitionsApplied.WithLabelValues(status).Inc() }
func IncReconciled()              { reconciledBookings.Inc() }
func IncPaymentConfirmed()        { paymentsConfirmed.Inc() }
func IncNotificationFailure()     { emailFailures.Inc() }
