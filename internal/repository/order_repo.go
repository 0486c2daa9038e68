package repository

import (
	"context"

	"go-printshop-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindAll(ctx context.Context, status *model.OrderStatus) ([]model.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	Exists(tx *gorm.DB, id uuid.UUID) (bool, error)
	UpdateStatus(tx *gorm.DB, order *model.Order) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error

	CountByProduct(tx *gorm.DB, barcode string) (int64, error)
	// ReferencesMaterial reports whether any live custom order lists the
	// material in its composition.
	ReferencesMaterial(tx *gorm.DB, barcode string) (bool, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) FindAll(ctx context.Context, status *model.OrderStatus) ([]model.Order, error) {
	var orders []model.Order
	query := r.db.WithContext(ctx)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) Exists(tx *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	if err := tx.Model(&model.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *orderRepo) UpdateStatus(tx *gorm.DB, order *model.Order) error {
	return tx.Model(order).Select("status", "completed_at", "updated_by").Updates(order).Error
}

func (r *orderRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	return softDelete(tx, &model.Order{}, id, deletedBy)
}

func (r *orderRepo) CountByProduct(tx *gorm.DB, barcode string) (int64, error) {
	var count int64
	err := tx.Model(&model.Order{}).Where("product_barcode = ?", barcode).Count(&count).Error
	return count, err
}

func (r *orderRepo) ReferencesMaterial(tx *gorm.DB, barcode string) (bool, error) {
	var orders []model.Order
	if err := tx.Select("id", "composition").
		Where("order_type = ?", model.OrderCustom).
		Find(&orders).Error; err != nil {
		return false, err
	}
	for _, o := range orders {
		for _, line := range o.Composition {
			if line.MaterialBarcode == barcode {
				return true, nil
			}
		}
	}
	return false, nil
}
