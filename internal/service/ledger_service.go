package service

import (
	"context"
	"fmt"
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

type LedgerService interface {
	RecordPurchase(ctx context.Context, req RecordPurchaseRequest, actor string) (*model.Purchase, error)
	RecordSale(ctx context.Context, req RecordSaleRequest, actor string) (*model.Sale, error)
	EditSale(ctx context.Context, saleID uuid.UUID, req EditSaleRequest, actor string) (*model.Sale, error)
	EditPurchase(ctx context.Context, purchaseID uuid.UUID, req EditPurchaseRequest, actor string) (*model.Purchase, error)
	ListPurchases(ctx context.Context) ([]model.Purchase, error)
	ListSales(ctx context.Context) ([]model.Sale, error)
	ListLedger(ctx context.Context, barcode string) ([]model.LedgerEvent, error)
}

type RecordPurchaseRequest struct {
	ItemBarcode  string                 `json:"item_barcode" validate:"required"`
	Category     model.PurchaseCategory `json:"category" validate:"required,oneof=product material"`
	Quantity     decimal.Decimal        `json:"quantity" validate:"decimal_gt0"`
	UnitCost     decimal.Decimal        `json:"unit_cost" validate:"decimal_gte0"`
	PurchaseDate *time.Time             `json:"purchase_date"`
	Supplier     string                 `json:"supplier"`
	Notes        string                 `json:"notes"`
}

// EditPurchaseRequest replaces every editable field of a purchase.
type EditPurchaseRequest RecordPurchaseRequest

type RecordSaleRequest struct {
	ProductBarcode string          `json:"product_barcode" validate:"required"`
	Quantity       int64           `json:"quantity" validate:"gt=0"`
	TotalPrice     decimal.Decimal `json:"total_price" validate:"decimal_gte0"`
	SaleDate       *time.Time      `json:"sale_date"`
	Notes          string          `json:"notes"`
}

// EditSaleRequest replaces every editable field of a sale.
type EditSaleRequest RecordSaleRequest

type ledgerService struct {
	coord        *Coordinator
	stock        *stockLedger
	purchaseRepo repository.PurchaseRepository
	saleRepo     repository.SaleRepository
	ledgerRepo   repository.LedgerRepository
	notifier     Notifier
	metrics      *metrics.Metrics
	log          *zap.Logger
}

func NewLedgerService(coord *Coordinator, productRepo repository.ProductRepository, materialRepo repository.MaterialRepository,
	ledgerRepo repository.LedgerRepository, purchaseRepo repository.PurchaseRepository, saleRepo repository.SaleRepository,
	notifier Notifier, m *metrics.Metrics, log *zap.Logger) LedgerService {
	return &ledgerService{
		coord:        coord,
		stock:        newStockLedger(productRepo, materialRepo, ledgerRepo),
		purchaseRepo: purchaseRepo,
		saleRepo:     saleRepo,
		ledgerRepo:   ledgerRepo,
		notifier:     notifierOrNop(notifier),
		metrics:      m,
		log:          log,
	}
}

func dateOrNow(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func checkPurchaseQuantity(category model.PurchaseCategory, qty decimal.Decimal) error {
	if category == model.PurchaseProduct && !qty.IsInteger() {
		return fmt.Errorf("%w: product purchases need a whole quantity, got %s", ErrValidation, qty)
	}
	return nil
}

// applyPurchase books kind against the item the purchase category points at.
func (s *ledgerService) applyPurchase(tx *gorm.DB, kind model.LedgerKind, category model.PurchaseCategory, barcode string,
	qty decimal.Decimal, purchaseID uuid.UUID, actor string) (*model.LedgerEvent, error) {
	if category == model.PurchaseProduct {
		return s.stock.applyProduct(tx, kind, barcode, qty.IntPart(), model.RefPurchase, purchaseID, actor)
	}
	return s.stock.applyMaterial(tx, kind, barcode, qty, model.RefPurchase, purchaseID, actor)
}

func (s *ledgerService) RecordPurchase(ctx context.Context, req RecordPurchaseRequest, actor string) (*model.Purchase, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	if err := checkPurchaseQuantity(req.Category, req.Quantity); err != nil {
		return nil, err
	}

	purchase := &model.Purchase{
		ItemBarcode:  req.ItemBarcode,
		Category:     req.Category,
		Quantity:     req.Quantity,
		UnitCost:     req.UnitCost,
		PurchaseDate: dateOrNow(req.PurchaseDate),
		Supplier:     req.Supplier,
		Notes:        req.Notes,
	}
	purchase.CreatedBy = actor
	purchase.UpdatedBy = actor

	var event *model.LedgerEvent
	err := s.coord.Run(ctx, "record_purchase", func(tx *gorm.DB) error {
		purchase.ID = uuid.New()
		var err error
		event, err = s.applyPurchase(tx, model.LedgerPurchase, req.Category, req.ItemBarcode, req.Quantity, purchase.ID, actor)
		if err != nil {
			return err
		}
		return s.purchaseRepo.Create(tx, purchase)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Ledger(string(event.Kind))
	s.log.Info("purchase recorded",
		zap.String("barcode", purchase.ItemBarcode),
		zap.String("category", string(purchase.Category)),
		zap.String("quantity", purchase.Quantity.String()))
	s.notifier.Publish(ws.Message{
		Type:    "stock_update",
		Action:  "purchase_recorded",
		Message: fmt.Sprintf("%s received %s x %s", actor, purchase.Quantity, purchase.ItemBarcode),
		Data:    purchase,
	})
	return purchase, nil
}

// EditPurchase books the edited purchase and reverses the recorded one in a
// single transaction. The new side is applied first so an edit on the same
// item is checked against its net effect; a reversal that would take on-hand
// below zero (the stock was already used) fails with ErrInsufficientStock.
func (s *ledgerService) EditPurchase(ctx context.Context, purchaseID uuid.UUID, req EditPurchaseRequest, actor string) (*model.Purchase, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	if err := checkPurchaseQuantity(req.Category, req.Quantity); err != nil {
		return nil, err
	}

	var (
		purchase *model.Purchase
		events   []*model.LedgerEvent
	)
	err := s.coord.Run(ctx, "edit_purchase", func(tx *gorm.DB) error {
		current, err := s.purchaseRepo.LockByID(tx, purchaseID)
		if err != nil {
			return err
		}

		applied, err := s.applyPurchase(tx, model.LedgerPurchase, req.Category, req.ItemBarcode, req.Quantity, purchaseID, actor)
		if err != nil {
			return err
		}
		reversal, err := s.applyPurchase(tx, model.LedgerPurchaseReversal, current.Category, current.ItemBarcode, current.Quantity, purchaseID, actor)
		if err != nil {
			return err
		}

		current.ItemBarcode = req.ItemBarcode
		current.Category = req.Category
		current.Quantity = req.Quantity
		current.UnitCost = req.UnitCost
		if req.PurchaseDate != nil {
			current.PurchaseDate = req.PurchaseDate.UTC()
		}
		current.Supplier = req.Supplier
		current.Notes = req.Notes
		current.UpdatedBy = actor
		if err := s.purchaseRepo.Update(tx, current); err != nil {
			return err
		}

		purchase = current
		events = []*model.LedgerEvent{applied, reversal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	countEvents(s.metrics, events)
	s.log.Info("purchase edited",
		zap.String("purchase_id", purchaseID.String()),
		zap.Strings("barcodes", eventBarcodes(events)))
	s.notifier.Publish(ws.Message{
		Type:    "stock_update",
		Action:  "purchase_edited",
		Message: fmt.Sprintf("%s edited a purchase", actor),
		Data:    purchase,
	})
	return purchase, nil
}

func (s *ledgerService) RecordSale(ctx context.Context, req RecordSaleRequest, actor string) (*model.Sale, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	sale := &model.Sale{
		ProductBarcode: req.ProductBarcode,
		Quantity:       req.Quantity,
		TotalPrice:     req.TotalPrice,
		SaleDate:       dateOrNow(req.SaleDate),
		Notes:          req.Notes,
	}
	sale.CreatedBy = actor
	sale.UpdatedBy = actor

	var event *model.LedgerEvent
	err := s.coord.Run(ctx, "record_sale", func(tx *gorm.DB) error {
		sale.ID = uuid.New()
		var err error
		event, err = s.stock.applyProduct(tx, model.LedgerSale, req.ProductBarcode, req.Quantity, model.RefSale, sale.ID, actor)
		if err != nil {
			return err
		}
		return s.saleRepo.Create(tx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Ledger(string(event.Kind))
	s.log.Info("sale recorded", zap.String("barcode", sale.ProductBarcode), zap.Int64("quantity", sale.Quantity))
	s.notifier.Publish(ws.Message{
		Type:    "stock_update",
		Action:  "sale_recorded",
		Message: fmt.Sprintf("%s sold %d x %s", actor, sale.Quantity, sale.ProductBarcode),
		Data:    sale,
	})
	return sale, nil
}

// EditSale reverses the recorded sale and applies the edited one in a single
// transaction. The product may change; each side gets its own ledger event.
func (s *ledgerService) EditSale(ctx context.Context, saleID uuid.UUID, req EditSaleRequest, actor string) (*model.Sale, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	var (
		sale   *model.Sale
		events []*model.LedgerEvent
	)
	err := s.coord.Run(ctx, "edit_sale", func(tx *gorm.DB) error {
		current, err := s.saleRepo.LockByID(tx, saleID)
		if err != nil {
			return err
		}

		reversal, err := s.stock.applyProduct(tx, model.LedgerSaleReversal, current.ProductBarcode, current.Quantity, model.RefSale, saleID, actor)
		if err != nil {
			return err
		}
		applied, err := s.stock.applyProduct(tx, model.LedgerSale, req.ProductBarcode, req.Quantity, model.RefSale, saleID, actor)
		if err != nil {
			return err
		}

		current.ProductBarcode = req.ProductBarcode
		current.Quantity = req.Quantity
		current.TotalPrice = req.TotalPrice
		if req.SaleDate != nil {
			current.SaleDate = req.SaleDate.UTC()
		}
		current.Notes = req.Notes
		current.UpdatedBy = actor
		if err := s.saleRepo.Update(tx, current); err != nil {
			return err
		}

		sale = current
		events = []*model.LedgerEvent{reversal, applied}
		return nil
	})
	if err != nil {
		return nil, err
	}

	countEvents(s.metrics, events)
	s.log.Info("sale edited",
		zap.String("sale_id", saleID.String()),
		zap.Strings("barcodes", eventBarcodes(events)))
	s.notifier.Publish(ws.Message{
		Type:    "stock_update",
		Action:  "sale_edited",
		Message: fmt.Sprintf("%s edited a sale", actor),
		Data:    sale,
	})
	return sale, nil
}

func (s *ledgerService) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	purchases, err := s.purchaseRepo.FindAll(ctx)
	if err != nil {
		return nil, s.coord.classify("list_purchases", err)
	}
	return purchases, nil
}

func (s *ledgerService) ListSales(ctx context.Context) ([]model.Sale, error) {
	sales, err := s.saleRepo.FindAll(ctx)
	if err != nil {
		return nil, s.coord.classify("list_sales", err)
	}
	return sales, nil
}

func (s *ledgerService) ListLedger(ctx context.Context, barcode string) ([]model.LedgerEvent, error) {
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", ErrValidation)
	}
	events, err := s.ledgerRepo.ListByItem(ctx, barcode)
	if err != nil {
		return nil, s.coord.classify("list_ledger", err)
	}
	return events, nil
}
