package metrics

import "github.com/prometheus/client_golang/prometheus"

// ClinicMetrics exposes counters for the booking lifecycle and call ingestion.
type ClinicMetrics struct {
	bookingsCreated     *prometheus.CounterVec
	bookingsCancelled   prometheus.Counter
	bookingsRescheduled prometheus.Counter
	slotsToggled        *prometheus.CounterVec
	callsIngested       *prometheus.CounterVec
}

func NewClinicMetrics(reg prometheus.Registerer) *ClinicMetrics {
	m := &ClinicMetrics{
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promed",
			Subsystem: "clinic",
			Name:      "bookings_created_total",
			Help:      "Total bookings created",
		}, []string{"strict"}),
		bookingsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "promed",
			Subsystem: "clinic",
			Name:      "bookings_cancelled_total",
			Help:      "Total bookings cancelled",
		}),
		bookingsRescheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "promed",
			Subsystem: "clinic",
			Name:      "bookings_rescheduled_total",
			Help:      "Total bookings rescheduled",
		}),
		slotsToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promed",
			Subsystem: "clinic",
			Name:      "slots_toggled_total",
			Help:      "Total slot availability toggles",
		}, []string{"now_available"}),
		callsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promed",
			Subsystem: "clinic",
			Name:      "calls_ingested_total",
			Help:      "Total call records ingested from the voice pipeline",
		}, []string{"intent", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsCreated, m.bookingsCancelled, m.bookingsRescheduled, m.slotsToggled, m.callsIngested)
	return m
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (m *ClinicMetrics) ObserveBookingCreated(strict bool) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(boolLabel(strict)).Inc()
}

func (m *ClinicMetrics) ObserveBookingCancelled() {
	if m == nil {
		return
	}
	m.bookingsCancelled.Inc()
}

func (m *ClinicMetrics) ObserveBookingRescheduled() {
	if m == nil {
		return
	}
	m.bookingsRescheduled.Inc()
}

func (m *ClinicMetrics) ObserveSlotToggled(nowAvailable bool) {
	if m == nil {
		return
	}
	m.slotsToggled.WithLabelValues(boolLabel(nowAvailable)).Inc()
}

func (m *ClinicMetrics) ObserveCallIngested(intent, outcome string) {
	if m == nil {
		return
	}
	m.callsIngested.WithLabelValues(intent, outcome).Inc()
}
