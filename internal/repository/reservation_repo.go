package repository

import (
	"context"
	"time"

	"go-printshop-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository interface {
	Create(tx *gorm.DB, reservation *model.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Reservation, error)
	UpdateInterval(tx *gorm.DB, id uuid.UUID, start, end time.Time, updatedBy string) error
	UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.ReservationStatus, updatedBy string) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error

	// FindConflicting returns active reservations on the machine whose
	// half-open interval intersects [start, end). excludeID is ignored when set.
	FindConflicting(tx *gorm.DB, machineID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Reservation, error)

	// FindActiveFrom returns active reservations on the machine starting at or
	// after from, latest first, locked for update.
	FindActiveFrom(tx *gorm.DB, machineID uuid.UUID, from time.Time) ([]model.Reservation, error)

	// FindInRange is the calendar query. A nil machineID spans every machine.
	FindInRange(ctx context.Context, machineID *uuid.UUID, from, to time.Time) ([]model.Reservation, error)

	CountByMachine(tx *gorm.DB, machineID uuid.UUID) (int64, error)
	CountByOrder(tx *gorm.DB, orderID uuid.UUID) (int64, error)
	CountByMaterial(tx *gorm.DB, barcode string) (int64, error)
}

type reservationRepo struct {
	db *gorm.DB
}

func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db}
}

func (r *reservationRepo) Create(tx *gorm.DB, reservation *model.Reservation) error {
	return tx.Create(reservation).Error
}

func (r *reservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var reservation model.Reservation
	if err := r.db.WithContext(ctx).Preload("Machine").First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Reservation, error) {
	var reservation model.Reservation
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepo) UpdateInterval(tx *gorm.DB, id uuid.UUID, start, end time.Time, updatedBy string) error {
	return tx.Model(&model.Reservation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"start_at":   start,
		"end_at":     end,
		"updated_by": updatedBy,
	}).Error
}

func (r *reservationRepo) UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.ReservationStatus, updatedBy string) error {
	return tx.Model(&model.Reservation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_by": updatedBy,
	}).Error
}

func (r *reservationRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	return softDelete(tx, &model.Reservation{}, id, deletedBy)
}

func (r *reservationRepo) FindConflicting(tx *gorm.DB, machineID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Reservation, error) {
	var reservations []model.Reservation

	query := tx.Where("machine_id = ?", machineID).
		Where("status IN ?", model.ActiveReservationStatuses).
		Where("start_at < ? AND end_at > ?", end, start)

	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	if err := query.Order("start_at ASC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepo) FindActiveFrom(tx *gorm.DB, machineID uuid.UUID, from time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("machine_id = ?", machineID).
		Where("status IN ?", model.ActiveReservationStatuses).
		Where("start_at >= ?", from).
		Order("start_at DESC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepo) FindInRange(ctx context.Context, machineID *uuid.UUID, from, to time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	query := r.db.WithContext(ctx).Preload("Machine").
		Where("start_at < ? AND end_at > ?", to, from)
	if machineID != nil {
		query = query.Where("machine_id = ?", *machineID)
	}
	if err := query.Order("start_at ASC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepo) CountByMachine(tx *gorm.DB, machineID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&model.Reservation{}).Where("machine_id = ?", machineID).Count(&count).Error
	return count, err
}

func (r *reservationRepo) CountByOrder(tx *gorm.DB, orderID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&model.Reservation{}).Where("order_id = ?", orderID).Count(&count).Error
	return count, err
}

func (r *reservationRepo) CountByMaterial(tx *gorm.DB, barcode string) (int64, error) {
	var count int64
	err := tx.Model(&model.Reservation{}).Where("material_barcode = ?", barcode).Count(&count).Error
	return count, err
}
