package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "consult_scheduler"

// SchedulerMetrics exposes counters/histograms for booking and the
// background jobs. A nil *SchedulerMetrics is valid and records nothing.
type SchedulerMetrics struct {
	bookings     *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	reminders    *prometheus.CounterVec
	sweeperRows  *prometheus.CounterVec
	tickDuration *prometheus.HistogramVec
	tickErrors   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_total",
			Help:      "Booking attempts by outcome code",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transition_total",
			Help:      "Appointment status transitions",
		}, []string{"from", "to", "actor"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_total",
			Help:      "Reminder deliveries by result",
		}, []string{"result"}),
		sweeperRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_rows_total",
			Help:      "Rows touched by the lifecycle sweeper per pass",
		}, []string{"pass"}),
		tickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of background job ticks",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		tickErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_errors_total",
			Help:      "Background job ticks that ended with an error",
		}, []string{"job"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.transitions, m.reminders, m.sweeperRows, m.tickDuration, m.tickErrors)
	return m
}

func (m *SchedulerMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *SchedulerMetrics) ObserveTransition(from, to, actor string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to, actor).Inc()
}

func (m *SchedulerMetrics) ObserveReminder(result string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(result).Inc()
}

func (m *SchedulerMetrics) ObserveSweep(pass string, rows int64) {
	if m == nil || rows <= 0 {
		return
	}
	m.sweeperRows.WithLabelValues(pass).Add(float64(rows))
}

func (m *SchedulerMetrics) ObserveTick(job string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.tickDuration.WithLabelValues(job).Observe(d.Seconds())
	if err != nil {
		m.tickErrors.WithLabelValues(job).Inc()
	}
}
