package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's collectors. A nil *Metrics records nothing,
// which keeps tests free of registry wiring.
type Metrics struct {
	ScheduleConflicts prometheus.Counter
	ReservationsMoved prometheus.Counter
	LedgerEvents      *prometheus.CounterVec
	OrderTransitions  *prometheus.CounterVec
	TxDuration        *prometheus.HistogramVec
	TxFailures        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScheduleConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printshop_schedule_conflicts_total",
			Help: "Reservation requests rejected because the machine was already booked.",
		}),
		ReservationsMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printshop_reservations_shifted_total",
			Help: "Reservations moved by delay cascades.",
		}),
		LedgerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printshop_ledger_events_total",
			Help: "Committed ledger events by kind.",
		}, []string{"kind"}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printshop_order_transitions_total",
			Help: "Applied order status transitions by target status.",
		}, []string{"status"}),
		TxDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "printshop_tx_duration_seconds",
			Help:    "Duration of coordinated transactions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		TxFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printshop_tx_failures_total",
			Help: "Coordinated transactions that rolled back, by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(
		m.ScheduleConflicts,
		m.ReservationsMoved,
		m.LedgerEvents,
		m.OrderTransitions,
		m.TxDuration,
		m.TxFailures,
	)
	return m
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.ScheduleConflicts.Inc()
}

func (m *Metrics) Shifted(n int) {
	if m == nil {
		return
	}
	m.ReservationsMoved.Add(float64(n))
}

func (m *Metrics) Ledger(kind string) {
	if m == nil {
		return
	}
	m.LedgerEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.OrderTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveTx(op string, seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.TxDuration.WithLabelValues(op).Observe(seconds)
	if failed {
		m.TxFailures.WithLabelValues(op).Inc()
	}
}
