package repository

import (
	"context"

	"go-printshop-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MachineRepository interface {
	Create(ctx context.Context, machine *model.Machine) error
	FindAll(ctx context.Context) ([]model.Machine, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Machine, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.MachineStatus, updatedBy string) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error

	// LockByID takes the machine row lock that serialises its schedule writes.
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Machine, error)
}

type machineRepo struct {
	db *gorm.DB
}

func NewMachineRepo(db *gorm.DB) MachineRepository {
	return &machineRepo{db}
}

func (r *machineRepo) Create(ctx context.Context, machine *model.Machine) error {
	return r.db.WithContext(ctx).Create(machine).Error
}

func (r *machineRepo) FindAll(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	err := r.db.WithContext(ctx).Order("name ASC").Find(&machines).Error
	return machines, err
}

func (r *machineRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Machine, error) {
	var machine model.Machine
	if err := r.db.WithContext(ctx).First(&machine, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &machine, nil
}

func (r *machineRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.MachineStatus, updatedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.Machine{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_by": updatedBy,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *machineRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	return softDelete(tx, &model.Machine{}, id, deletedBy)
}

func (r *machineRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Machine, error) {
	var machine model.Machine
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&machine, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &machine, nil
}
