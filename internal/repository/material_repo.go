package repository

import (
	"context"

	"go-printshop-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaterialRepository interface {
	Create(tx *gorm.DB, material *model.Material) error
	FindAll(ctx context.Context) ([]model.Material, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Material, error)
	Update(ctx context.Context, material *model.Material) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error

	// LockByBarcode serialises deductions against one material.
	LockByBarcode(tx *gorm.DB, barcode string) (*model.Material, error)
	// LockByID reads the row FOR UPDATE by primary key.
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Material, error)
}

type materialRepo struct {
	db *gorm.DB
}

func NewMaterialRepo(db *gorm.DB) MaterialRepository {
	return &materialRepo{db}
}

func (r *materialRepo) Create(tx *gorm.DB, material *model.Material) error {
	return tx.Create(material).Error
}

func (r *materialRepo) FindAll(ctx context.Context) ([]model.Material, error) {
	var materials []model.Material
	err := r.db.WithContext(ctx).Order("name ASC").Find(&materials).Error
	return materials, err
}

func (r *materialRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	var material model.Material
	if err := r.db.WithContext(ctx).First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Material, error) {
	var material model.Material
	if err := r.db.WithContext(ctx).First(&material, "barcode = ?", barcode).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepo) Update(ctx context.Context, material *model.Material) error {
	return r.db.WithContext(ctx).Model(material).
		Select("name", "material_type", "color", "weight_per_unit", "price_per_unit", "min_stock", "supplier", "updated_by").
		Updates(material).Error
}

func (r *materialRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	return softDelete(tx, &model.Material{}, id, deletedBy)
}

func (r *materialRepo) LockByBarcode(tx *gorm.DB, barcode string) (*model.Material, error) {
	var material model.Material
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&material, "barcode = ?", barcode).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Material, error) {
	var material model.Material
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}
