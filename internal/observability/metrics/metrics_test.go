package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	m := NewClinicMetrics(prometheus.NewRegistry())

	m.ObserveBookingCreated(false)
	m.ObserveBookingCreated(true)
	m.ObserveBookingCancelled()
	m.ObserveSlotToggled(true)
	m.ObserveCallIngested("book", "success")
	m.ObserveCallIngested("book", "success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsCreated.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsCreated.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsCancelled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.slotsToggled.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.callsIngested.WithLabelValues("book", "success")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *ClinicMetrics

	assert.NotPanics(t, func() {
		m.ObserveBookingCreated(true)
		m.ObserveBookingCancelled()
		m.ObserveBookingRescheduled()
		m.ObserveSlotToggled(false)
		m.ObserveCallIngested("info", "handoff")
	})
}
