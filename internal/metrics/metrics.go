package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments of the booking subsystem.
type Metrics struct {
	ReservationsCreated   prometheus.Counter
	ReservationsRejected  prometheus.Counter
	ReservationsCancelled prometheus.Counter

	PaymentsApplied   prometheus.Counter
	PaymentsDuplicate prometheus.Counter
	PaymentsRejected  prometheus.Counter
	AmountCollected   prometheus.Counter

	CapacityCommitted *prometheus.CounterVec
	CapacityReleased  *prometheus.CounterVec
}

// New registers the instruments on the given registerer; tests pass a
// fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReservationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_reservations_created_total",
			Help: "Total number of reservations created",
		}),

		ReservationsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_reservations_rejected_total",
			Help: "Total number of reservation requests rejected for insufficient capacity",
		}),

		ReservationsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_reservations_cancelled_total",
			Help: "Total number of reservations cancelled",
		}),

		PaymentsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_payments_applied_total",
			Help: "Total number of payment events applied",
		}),

		PaymentsDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_payments_duplicate_total",
			Help: "Total number of replayed payment events acknowledged without effect",
		}),

		PaymentsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_payments_rejected_total",
			Help: "Total number of payment events rejected (bad signature)",
		}),

		AmountCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_amount_collected_total",
			Help: "Total amount collected across all reservations",
		}),

		CapacityCommitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_capacity_committed_total",
			Help: "Capacity units committed, by item",
		}, []string{"item"}),

		CapacityReleased: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_capacity_released_total",
			Help: "Capacity units released, by item",
		}, []string{"item"}),
	}
}
