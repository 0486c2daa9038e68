package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hhmm string) time.Time {
	t, _ := time.Parse("2006-01-02 15:04", "2026-03-02 "+hhmm)
	return t
}

func TestReservationOverlaps(t *testing.T) {
	r := &Reservation{StartAt: at("10:00"), EndAt: at("11:00")}

	assert.True(t, r.Overlaps(at("10:30"), at("11:30")))
	assert.True(t, r.Overlaps(at("09:00"), at("12:00")))
	assert.True(t, r.Overlaps(at("10:15"), at("10:45")))
	assert.False(t, r.Overlaps(at("11:00"), at("12:00")), "touching end must not overlap")
	assert.False(t, r.Overlaps(at("09:00"), at("10:00")), "touching start must not overlap")
}

func TestReservationShift(t *testing.T) {
	r := &Reservation{StartAt: at("10:00"), EndAt: at("11:00")}
	r.Shift(30 * time.Minute)

	assert.Equal(t, at("10:30"), r.StartAt)
	assert.Equal(t, at("11:30"), r.EndAt)
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransition(OrderInProgress))
	assert.True(t, OrderPending.CanTransition(OrderCompleted))
	assert.True(t, OrderInProgress.CanTransition(OrderCancelled))
	assert.False(t, OrderCompleted.CanTransition(OrderCompleted))
	assert.False(t, OrderCompleted.CanTransition(OrderPending))
	assert.False(t, OrderCancelled.CanTransition(OrderInProgress))
	assert.False(t, OrderInProgress.CanTransition(OrderPending))
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderStatus("done").Valid())
}

func TestReservationStatusTransitions(t *testing.T) {
	assert.True(t, ReservationScheduled.CanTransition(ReservationInProgress))
	assert.True(t, ReservationInProgress.CanTransition(ReservationCompleted))
	assert.False(t, ReservationScheduled.CanTransition(ReservationCompleted))
	assert.False(t, ReservationCompleted.CanTransition(ReservationScheduled))
	assert.False(t, ReservationCancelled.Active())
}

func TestNewLedgerEventSignsDelta(t *testing.T) {
	qty := decimal.NewFromInt(3)
	saleID := uuid.New()

	sale := NewLedgerEvent(LedgerSale, ItemProduct, "P-1", qty, RefSale, saleID)
	assert.True(t, sale.Delta.Equal(decimal.NewFromInt(-3)))
	assert.True(t, sale.Quantity.Equal(qty))

	reversal := NewLedgerEvent(LedgerSaleReversal, ItemProduct, "P-1", qty, RefSale, saleID)
	assert.True(t, reversal.Delta.Equal(qty))

	consumption := NewLedgerEvent(LedgerOrderConsumption, ItemMaterial, "PLA-1", qty, RefOrder, uuid.New())
	assert.True(t, consumption.Delta.IsNegative())
}

func TestParseEntityKind(t *testing.T) {
	k, err := ParseEntityKind("Sale")
	require.NoError(t, err)
	assert.Equal(t, KindSale, k)

	k, err = ParseEntityKind("filament")
	require.NoError(t, err)
	assert.Equal(t, KindMaterial, k)

	k, err = ParseEntityKind("schedule")
	require.NoError(t, err)
	assert.Equal(t, KindReservation, k)

	_, err = ParseEntityKind("invoice")
	assert.ErrorIs(t, err, ErrUnknownEntityKind)
}
