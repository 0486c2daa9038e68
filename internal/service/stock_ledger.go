package service

import (
	"errors"
	"fmt"

	"go-printshop-ws/internal/metrics"
	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// stockLedger applies ledger events together with their stock effect.
// Every method must run inside the caller's transaction.
type stockLedger struct {
	productRepo  repository.ProductRepository
	materialRepo repository.MaterialRepository
	ledgerRepo   repository.LedgerRepository
}

func newStockLedger(productRepo repository.ProductRepository, materialRepo repository.MaterialRepository, ledgerRepo repository.LedgerRepository) *stockLedger {
	return &stockLedger{productRepo: productRepo, materialRepo: materialRepo, ledgerRepo: ledgerRepo}
}

// applyProduct locks the product, rejects a result below zero, bumps the
// stock counter by the signed quantity and appends the event.
func (l *stockLedger) applyProduct(tx *gorm.DB, kind model.LedgerKind, barcode string, qty int64,
	ref model.RefType, refID uuid.UUID, actor string) (*model.LedgerEvent, error) {
	product, err := l.productRepo.LockByBarcode(tx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product", barcode)
		}
		return nil, err
	}

	delta := int64(kind.Sign()) * qty
	if product.Stock+delta < 0 {
		return nil, fmt.Errorf("%w: product %s has %d, needs %d", ErrInsufficientStock, barcode, product.Stock, qty)
	}
	if err := l.productRepo.AddStock(tx, barcode, delta, actor); err != nil {
		return nil, err
	}

	event := model.NewLedgerEvent(kind, model.ItemProduct, barcode, decimal.NewFromInt(qty), ref, refID)
	event.CreatedBy = actor
	if err := l.ledgerRepo.Append(tx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// applyMaterial locks the material and appends the event. Material on-hand
// is the sum of its deltas, so there is no counter to update.
func (l *stockLedger) applyMaterial(tx *gorm.DB, kind model.LedgerKind, barcode string, qty decimal.Decimal,
	ref model.RefType, refID uuid.UUID, actor string) (*model.LedgerEvent, error) {
	if _, err := l.materialRepo.LockByBarcode(tx, barcode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("material", barcode)
		}
		return nil, err
	}

	if kind.Sign() < 0 {
		onHand, err := l.ledgerRepo.SumDelta(tx, model.ItemMaterial, barcode)
		if err != nil {
			return nil, err
		}
		if onHand.LessThan(qty) {
			return nil, fmt.Errorf("%w: material %s has %s, needs %s", ErrInsufficientStock, barcode, onHand, qty)
		}
	}

	event := model.NewLedgerEvent(kind, model.ItemMaterial, barcode, qty, ref, refID)
	event.CreatedBy = actor
	if err := l.ledgerRepo.Append(tx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func countEvents(m *metrics.Metrics, events []*model.LedgerEvent) {
	for _, e := range events {
		m.Ledger(string(e.Kind))
	}
}

func eventBarcodes(events []*model.LedgerEvent) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range events {
		if !seen[e.ItemBarcode] {
			seen[e.ItemBarcode] = true
			out = append(out, e.ItemBarcode)
		}
	}
	return out
}
