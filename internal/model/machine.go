package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MachineStatus string

const (
	MachineAvailable MachineStatus = "available"
	MachineBusy      MachineStatus = "busy"
)

// Machine is a physical printer. Status is informational only; booking
// conflicts are decided from the reservation set.
type Machine struct {
	BaseModel
	Name   string        `gorm:"type:varchar(100);not null" json:"name" validate:"required"`
	Brand  string        `gorm:"type:varchar(100)" json:"brand"`
	Model  string        `gorm:"type:varchar(100)" json:"model"`
	Status MachineStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
}

type ReservationStatus string

const (
	ReservationScheduled  ReservationStatus = "scheduled"
	ReservationInProgress ReservationStatus = "in_progress"
	ReservationCompleted  ReservationStatus = "completed"
	ReservationCancelled  ReservationStatus = "cancelled"
)

// ActiveReservationStatuses are the statuses that occupy machine time.
var ActiveReservationStatuses = []ReservationStatus{ReservationScheduled, ReservationInProgress}

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationScheduled:  {ReservationInProgress, ReservationCancelled},
	ReservationInProgress: {ReservationCompleted, ReservationCancelled},
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationScheduled, ReservationInProgress, ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

func (s ReservationStatus) Active() bool {
	return s == ReservationScheduled || s == ReservationInProgress
}

func (s ReservationStatus) CanTransition(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reservation books the half-open interval [StartAt, EndAt) on one machine.
type Reservation struct {
	BaseModel
	MachineID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_reservation_machine_start" json:"machine_id"`
	Machine         *Machine          `gorm:"foreignKey:MachineID" json:"machine,omitempty"`
	OrderID         *uuid.UUID        `gorm:"type:uuid;index" json:"order_id,omitempty"`
	Title           string            `gorm:"type:varchar(200)" json:"title"`
	Color           string            `gorm:"type:varchar(20)" json:"color"`
	Notes           string            `gorm:"type:text" json:"notes"`
	MaterialBarcode string            `gorm:"type:varchar(100)" json:"material_barcode,omitempty"`
	WeightUsed      decimal.Decimal   `gorm:"type:decimal(12,3);default:0" json:"weight_used"`
	StartAt         time.Time         `gorm:"not null;index:idx_reservation_machine_start" json:"start_at"`
	EndAt           time.Time         `gorm:"not null" json:"end_at"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
}

// Overlaps applies the half-open test: touching endpoints do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return start.Before(r.EndAt) && end.After(r.StartAt)
}

// Shift translates the reservation by d, keeping its duration.
func (r *Reservation) Shift(d time.Duration) {
	r.StartAt = r.StartAt.Add(d)
	r.EndAt = r.EndAt.Add(d)
}
