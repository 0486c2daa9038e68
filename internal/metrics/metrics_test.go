package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Conflict()
	m.Shifted(3)
	m.Ledger("sale")
	m.Transition("completed")
	m.ObserveTx("create_reservation", 0.1, true)
}

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Conflict()
	m.Shifted(3)
	m.Ledger("sale")
	m.Ledger("sale")
	m.ObserveTx("edit_sale", 0.01, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScheduleConflicts))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ReservationsMoved))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerEvents.WithLabelValues("sale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxFailures.WithLabelValues("edit_sale")))
}
