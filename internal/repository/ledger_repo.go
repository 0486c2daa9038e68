package repository

import (
	"context"

	"go-printshop-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRepository is append-only: events are never updated or deleted.
type LedgerRepository interface {
	Append(tx *gorm.DB, event *model.LedgerEvent) error
	SumDelta(tx *gorm.DB, item model.ItemKind, barcode string) (decimal.Decimal, error)
	SumDeltasByItem(ctx context.Context, item model.ItemKind) (map[string]decimal.Decimal, error)
	ListByItem(ctx context.Context, barcode string) ([]model.LedgerEvent, error)
	ListByRef(ctx context.Context, ref model.RefType, refID uuid.UUID) ([]model.LedgerEvent, error)
	CountByItem(tx *gorm.DB, item model.ItemKind, barcode string) (int64, error)
	CountByRef(tx *gorm.DB, ref model.RefType, refID uuid.UUID) (int64, error)
}

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db}
}

func (r *ledgerRepo) Append(tx *gorm.DB, event *model.LedgerEvent) error {
	return tx.Create(event).Error
}

// SumDelta adds the deltas in Go so the result is exact on every dialect.
func (r *ledgerRepo) SumDelta(tx *gorm.DB, item model.ItemKind, barcode string) (decimal.Decimal, error) {
	var rows []struct{ Delta decimal.Decimal }
	if err := tx.Model(&model.LedgerEvent{}).
		Select("delta").
		Where("item_kind = ? AND item_barcode = ?", item, barcode).
		Scan(&rows).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(row.Delta)
	}
	return sum, nil
}

func (r *ledgerRepo) SumDeltasByItem(ctx context.Context, item model.ItemKind) (map[string]decimal.Decimal, error) {
	var rows []struct {
		ItemBarcode string
		Delta       decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&model.LedgerEvent{}).
		Select("item_barcode, delta").
		Where("item_kind = ?", item).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal)
	for _, row := range rows {
		sums[row.ItemBarcode] = sums[row.ItemBarcode].Add(row.Delta)
	}
	return sums, nil
}

func (r *ledgerRepo) ListByItem(ctx context.Context, barcode string) ([]model.LedgerEvent, error) {
	var events []model.LedgerEvent
	err := r.db.WithContext(ctx).
		Where("item_barcode = ?", barcode).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

func (r *ledgerRepo) ListByRef(ctx context.Context, ref model.RefType, refID uuid.UUID) ([]model.LedgerEvent, error) {
	var events []model.LedgerEvent
	err := r.db.WithContext(ctx).
		Where("ref_type = ? AND ref_id = ?", ref, refID).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

func (r *ledgerRepo) CountByItem(tx *gorm.DB, item model.ItemKind, barcode string) (int64, error) {
	var count int64
	err := tx.Model(&model.LedgerEvent{}).
		Where("item_kind = ? AND item_barcode = ?", item, barcode).
		Count(&count).Error
	return count, err
}

func (r *ledgerRepo) CountByRef(tx *gorm.DB, ref model.RefType, refID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&model.LedgerEvent{}).
		Where("ref_type = ? AND ref_id = ?", ref, refID).
		Count(&count).Error
	return count, err
}
