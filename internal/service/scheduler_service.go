package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-printshop-ws/internal/metrics"
	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/repository"
	"go-printshop-ws/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SchedulerService interface {
	CreateReservation(ctx context.Context, req CreateReservationRequest, actor string) (*model.Reservation, error)
	RescheduleReservation(ctx context.Context, id uuid.UUID, start, end time.Time, actor string) (*model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id uuid.UUID, status model.ReservationStatus, actor string) (*model.Reservation, error)
	ReportDelay(ctx context.Context, id uuid.UUID, minutes int, actor string) ([]uuid.UUID, error)
	CheckConflict(ctx context.Context, machineID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	ListReservations(ctx context.Context, machineID *uuid.UUID, from, to time.Time) ([]model.Reservation, error)
}

type CreateReservationRequest struct {
	MachineID       uuid.UUID       `json:"machine_id" validate:"uuid_required"`
	OrderID         *uuid.UUID      `json:"order_id"`
	Title           string          `json:"title" validate:"max=200"`
	Color           string          `json:"color" validate:"max=20"`
	Notes           string          `json:"notes"`
	MaterialBarcode string          `json:"material_barcode"`
	WeightUsed      decimal.Decimal `json:"weight_used" validate:"decimal_gte0"`
	StartAt         time.Time       `json:"start_at" validate:"required"`
	EndAt           time.Time       `json:"end_at" validate:"required"`
}

type schedulerService struct {
	coord           *Coordinator
	machineRepo     repository.MachineRepository
	reservationRepo repository.ReservationRepository
	orderRepo       repository.OrderRepository
	notifier        Notifier
	metrics         *metrics.Metrics
	log             *zap.Logger
}

func NewSchedulerService(coord *Coordinator, machineRepo repository.MachineRepository, reservationRepo repository.ReservationRepository,
	orderRepo repository.OrderRepository, notifier Notifier, m *metrics.Metrics, log *zap.Logger) SchedulerService {
	return &schedulerService{
		coord:           coord,
		machineRepo:     machineRepo,
		reservationRepo: reservationRepo,
		orderRepo:       orderRepo,
		notifier:        notifierOrNop(notifier),
		metrics:         m,
		log:             log,
	}
}

// maxDelayMinutes bounds a reported delay to one year.
const maxDelayMinutes = 366 * 24 * 60

func machineLockKey(id uuid.UUID) string {
	return "machine:" + id.String()
}

// normalizeTime stores instants in UTC at second precision so every
// dialect compares them the same way.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func checkInterval(start, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s, end %s", ErrInvalidInterval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func (s *schedulerService) CheckConflict(ctx context.Context, machineID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	start, end = normalizeTime(start), normalizeTime(end)
	if err := checkInterval(start, end); err != nil {
		return false, err
	}
	conflicts, err := s.reservationRepo.FindConflicting(s.coord.DB().WithContext(ctx), machineID, start, end, excludeID)
	if err != nil {
		return false, s.coord.classify("check_conflict", err)
	}
	return len(conflicts) > 0, nil
}

// firstConflict returns a *ScheduleConflictError for the earliest colliding
// reservation, or nil when the interval is free.
func (s *schedulerService) firstConflict(tx *gorm.DB, machineID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) error {
	conflicts, err := s.reservationRepo.FindConflicting(tx, machineID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	c := conflicts[0]
	return &ScheduleConflictError{ReservationID: c.ID, StartAt: c.StartAt, EndAt: c.EndAt}
}

func (s *schedulerService) lockMachine(tx *gorm.DB, machineID uuid.UUID) error {
	if _, err := s.machineRepo.LockByID(tx, machineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("machine", machineID)
		}
		return err
	}
	return nil
}

func (s *schedulerService) CreateReservation(ctx context.Context, req CreateReservationRequest, actor string) (*model.Reservation, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	start, end := normalizeTime(req.StartAt), normalizeTime(req.EndAt)
	if err := checkInterval(start, end); err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		MachineID:       req.MachineID,
		OrderID:         req.OrderID,
		Title:           req.Title,
		Color:           req.Color,
		Notes:           req.Notes,
		MaterialBarcode: req.MaterialBarcode,
		WeightUsed:      req.WeightUsed,
		StartAt:         start,
		EndAt:           end,
		Status:          model.ReservationScheduled,
	}
	reservation.CreatedBy = actor
	reservation.UpdatedBy = actor

	err := s.coord.RunLocked(ctx, "create_reservation", machineLockKey(req.MachineID), func(tx *gorm.DB) error {
		if err := s.lockMachine(tx, req.MachineID); err != nil {
			return err
		}
		if req.OrderID != nil {
			ok, err := s.orderRepo.Exists(tx, *req.OrderID)
			if err != nil {
				return err
			}
			if !ok {
				return notFound("order", *req.OrderID)
			}
		}
		if err := s.firstConflict(tx, req.MachineID, start, end, nil); err != nil {
			return err
		}
		return s.reservationRepo.Create(tx, reservation)
	})
	if err != nil {
		if errors.Is(err, ErrScheduleConflict) {
			s.metrics.Conflict()
		}
		return nil, err
	}

	s.log.Info("reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("machine_id", reservation.MachineID.String()),
		zap.Time("start_at", start), zap.Time("end_at", end))
	s.notifier.Publish(ws.Message{
		Type:    "schedule_update",
		Action:  "reservation_created",
		Message: fmt.Sprintf("%s booked a machine", actor),
		Data:    reservation,
	})
	return reservation, nil
}

func (s *schedulerService) RescheduleReservation(ctx context.Context, id uuid.UUID, start, end time.Time, actor string) (*model.Reservation, error) {
	start, end = normalizeTime(start), normalizeTime(end)
	if err := checkInterval(start, end); err != nil {
		return nil, err
	}

	current, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("reservation", id)
		}
		return nil, s.coord.classify("reschedule_reservation", err)
	}

	var updated *model.Reservation
	err = s.coord.RunLocked(ctx, "reschedule_reservation", machineLockKey(current.MachineID), func(tx *gorm.DB) error {
		if err := s.lockMachine(tx, current.MachineID); err != nil {
			return err
		}
		r, err := s.reservationRepo.LockByID(tx, id)
		if err != nil {
			return err
		}
		if !r.Status.Active() {
			return fmt.Errorf("%w: %s is %s", ErrReservationClosed, id, r.Status)
		}
		if err := s.firstConflict(tx, r.MachineID, start, end, &id); err != nil {
			return err
		}
		if err := s.reservationRepo.UpdateInterval(tx, id, start, end, actor); err != nil {
			return err
		}
		r.StartAt, r.EndAt, r.UpdatedBy = start, end, actor
		updated = r
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrScheduleConflict) {
			s.metrics.Conflict()
		}
		return nil, err
	}

	s.notifier.Publish(ws.Message{Type: "schedule_update", Action: "reservation_rescheduled", Data: updated})
	return updated, nil
}

func (s *schedulerService) UpdateReservationStatus(ctx context.Context, id uuid.UUID, status model.ReservationStatus, actor string) (*model.Reservation, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown reservation status %q", ErrValidation, status)
	}

	var updated *model.Reservation
	changed := false
	err := s.coord.Run(ctx, "update_reservation_status", func(tx *gorm.DB) error {
		r, err := s.reservationRepo.LockByID(tx, id)
		if err != nil {
			return err
		}
		updated = r
		if r.Status == status {
			return nil
		}
		if !r.Status.CanTransition(status) {
			return fmt.Errorf("%w: reservation %s -> %s", ErrInvalidTransition, r.Status, status)
		}
		if err := s.reservationRepo.UpdateStatus(tx, id, status, actor); err != nil {
			return err
		}
		r.Status, r.UpdatedBy = status, actor
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.notifier.Publish(ws.Message{Type: "schedule_update", Action: "reservation_status_changed", Data: updated})
	}
	return updated, nil
}

// ReportDelay pushes the delayed reservation and every active reservation
// starting at or after it on the same machine by the same amount.
// Earlier and closed reservations are not moved.
func (s *schedulerService) ReportDelay(ctx context.Context, id uuid.UUID, minutes int, actor string) ([]uuid.UUID, error) {
	if minutes <= 0 || minutes > maxDelayMinutes {
		return nil, fmt.Errorf("%w: got %d, allowed 1..%d", ErrInvalidDelay, minutes, maxDelayMinutes)
	}
	delay := time.Duration(minutes) * time.Minute

	target, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("reservation", id)
		}
		return nil, s.coord.classify("report_delay", err)
	}

	var moved []model.Reservation
	err = s.coord.RunLocked(ctx, "report_delay", machineLockKey(target.MachineID), func(tx *gorm.DB) error {
		if err := s.lockMachine(tx, target.MachineID); err != nil {
			return err
		}
		r, err := s.reservationRepo.LockByID(tx, id)
		if err != nil {
			return err
		}
		if !r.Status.Active() {
			return fmt.Errorf("%w: %s is %s", ErrReservationClosed, id, r.Status)
		}

		// latest first, so a shifted row never passes through a later one
		affected, err := s.reservationRepo.FindActiveFrom(tx, r.MachineID, r.StartAt)
		if err != nil {
			return err
		}
		for i := range affected {
			affected[i].Shift(delay)
			if err := s.reservationRepo.UpdateInterval(tx, affected[i].ID, affected[i].StartAt, affected[i].EndAt, actor); err != nil {
				return err
			}
		}
		moved = affected
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(moved, func(i, j int) bool { return moved[i].StartAt.Before(moved[j].StartAt) })
	ids := make([]uuid.UUID, len(moved))
	for i, r := range moved {
		ids[i] = r.ID
	}

	s.metrics.Shifted(len(ids))
	s.log.Info("reservations shifted",
		zap.String("reservation_id", id.String()),
		zap.String("machine_id", target.MachineID.String()),
		zap.Int("delay_minutes", minutes),
		zap.Int("moved", len(ids)))
	s.notifier.Publish(ws.Message{
		Type:    "schedule_update",
		Action:  "reservations_shifted",
		Message: fmt.Sprintf("%d reservation(s) moved by %d minutes", len(ids), minutes),
		Data: map[string]interface{}{
			"machine_id":      target.MachineID,
			"delay_minutes":   minutes,
			"reservation_ids": ids,
		},
	})
	return ids, nil
}

func (s *schedulerService) ListReservations(ctx context.Context, machineID *uuid.UUID, from, to time.Time) ([]model.Reservation, error) {
	from, to = normalizeTime(from), normalizeTime(to)
	if err := checkInterval(from, to); err != nil {
		return nil, err
	}
	reservations, err := s.reservationRepo.FindInRange(ctx, machineID, from, to)
	if err != nil {
		return nil, s.coord.classify("list_reservations", err)
	}
	return reservations, nil
}
