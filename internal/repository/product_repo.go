package repository

import (
	"context"

	"go-printshop-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(tx *gorm.DB, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error
	FindBelowMinimum(ctx context.Context) ([]model.Product, error)

	// LockByBarcode reads the product row FOR UPDATE inside tx.
	LockByBarcode(tx *gorm.DB, barcode string) (*model.Product, error)
	// LockByID reads the row FOR UPDATE by primary key.
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	// AddStock applies delta as an atomic increment; it never writes an absolute value.
	AddStock(tx *gorm.DB, barcode string, delta int64, updatedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	return tx.Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "barcode = ?", barcode).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Update saves descriptive fields. Stock and barcode are never touched here.
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Model(product).
		Select("name", "category", "min_stock", "cost", "sale_price", "print_time_minutes", "composition", "updated_by").
		Updates(product).Error
}

func (r *productRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	return softDelete(tx, &model.Product{}, id, deletedBy)
}

func (r *productRepo) FindBelowMinimum(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("stock < min_stock").Order("barcode ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) LockByBarcode(tx *gorm.DB, barcode string) (*model.Product, error) {
	var product model.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "barcode = ?", barcode).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) AddStock(tx *gorm.DB, barcode string, delta int64, updatedBy string) error {
	res := tx.Model(&model.Product{}).
		Where("barcode = ?", barcode).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", delta),
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

func (r *productRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
