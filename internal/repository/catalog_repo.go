package repository

import (
	"context"

	"go-printshop-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	FindAll(ctx context.Context) ([]model.Supplier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	Update(ctx context.Context, supplier *model.Supplier) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *supplierRepo) FindAll(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.WithContext(ctx).Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) Update(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Model(supplier).
		Select("name", "email", "phone", "address", "updated_by").
		Updates(supplier).Error
}

func (r *supplierRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	return softDelete(tx, &model.Supplier{}, id, deletedBy)
}

type PrintLogRepository interface {
	Create(tx *gorm.DB, log *model.PrintLog) error
	FindAll(ctx context.Context) ([]model.PrintLog, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]model.PrintLog, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.PrintLog, error)
	// Update rewrites name, composition and notes. The order link is fixed.
	Update(ctx context.Context, log *model.PrintLog) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error
}

type printLogRepo struct {
	db *gorm.DB
}

func NewPrintLogRepo(db *gorm.DB) PrintLogRepository {
	return &printLogRepo{db}
}

func (r *printLogRepo) Create(tx *gorm.DB, log *model.PrintLog) error {
	return tx.Create(log).Error
}

func (r *printLogRepo) FindAll(ctx context.Context) ([]model.PrintLog, error) {
	var logs []model.PrintLog
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&logs).Error
	return logs, err
}

func (r *printLogRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]model.PrintLog, error) {
	var logs []model.PrintLog
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&logs).Error
	return logs, err
}

func (r *printLogRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PrintLog, error) {
	var log model.PrintLog
	if err := r.db.WithContext(ctx).First(&log, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *printLogRepo) Update(ctx context.Context, log *model.PrintLog) error {
	return r.db.WithContext(ctx).Model(log).
		Select("name", "composition", "notes", "updated_by").
		Updates(log).Error
}

func (r *printLogRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	return softDelete(tx, &model.PrintLog{}, id, deletedBy)
}
