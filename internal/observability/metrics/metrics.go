package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the reservation and notification flows.
// All observe methods are nil-safe so wiring metrics stays optional.
type BookingMetrics struct {
	checksTotal        *prometheus.CounterVec
	reservationsTotal  *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		checksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carevoice",
			Subsystem: "booking",
			Name:      "availability_checks_total",
			Help:      "Total slot availability checks",
		}, []string{"result"}),
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carevoice",
			Subsystem: "booking",
			Name:      "reservations_total",
			Help:      "Total reservation attempts",
		}, []string{"outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carevoice",
			Subsystem: "notify",
			Name:      "dispatches_total",
			Help:      "Total notification dispatches",
		}, []string{"kind", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.checksTotal, m.reservationsTotal, m.notificationsTotal)
	return m
}

// ObserveCheck records an availability check result ("available", "taken", "error").
func (m *BookingMetrics) ObserveCheck(result string) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(result).Inc()
}

// ObserveReservation records a reservation outcome ("success", "conflict", "invalid", "error").
func (m *BookingMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDispatch records a notification dispatch by kind and status
// ("sent", "skipped", "failed").
func (m *BookingMetrics) ObserveDispatch(kind, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind, status).Inc()
}
