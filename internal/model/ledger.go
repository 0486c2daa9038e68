package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerKind string

const (
	LedgerPurchase         LedgerKind = "purchase"
	LedgerSale             LedgerKind = "sale"
	LedgerSaleReversal     LedgerKind = "sale_reversal"
	LedgerPurchaseReversal LedgerKind = "purchase_reversal"
	LedgerOrderConsumption LedgerKind = "order_consumption"
	LedgerOpening          LedgerKind = "opening"
)

// Sign returns +1 for events that add stock and -1 for those that remove it.
func (k LedgerKind) Sign() int {
	switch k {
	case LedgerSale, LedgerOrderConsumption, LedgerPurchaseReversal:
		return -1
	default:
		return 1
	}
}

type ItemKind string

const (
	ItemProduct  ItemKind = "product"
	ItemMaterial ItemKind = "material"
)

type RefType string

const (
	RefPurchase RefType = "purchase"
	RefSale     RefType = "sale"
	RefOrder    RefType = "order"
	RefProduct  RefType = "product"
	RefMaterial RefType = "material"
)

// LedgerEvent is an immutable record of one stock-affecting business event.
// Quantity is the positive magnitude; Delta carries the sign applied to stock.
type LedgerEvent struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Kind        LedgerKind      `gorm:"type:varchar(30);not null;index" json:"kind"`
	ItemKind    ItemKind        `gorm:"type:varchar(20);not null;index:idx_ledger_item" json:"item_kind"`
	ItemBarcode string          `gorm:"type:varchar(100);not null;index:idx_ledger_item" json:"item_barcode"`
	Quantity    decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	Delta       decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"delta"`
	RefType     RefType         `gorm:"type:varchar(20);not null;index:idx_ledger_ref" json:"ref_type"`
	RefID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_ref" json:"ref_id"`
	OccurredAt  time.Time       `gorm:"not null;index" json:"occurred_at"`
	CreatedBy   string          `gorm:"type:varchar(255)" json:"created_by"`
}

func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return nil
}

// NewLedgerEvent builds an event with its delta signed according to kind.
func NewLedgerEvent(kind LedgerKind, item ItemKind, barcode string, qty decimal.Decimal, ref RefType, refID uuid.UUID) *LedgerEvent {
	delta := qty
	if kind.Sign() < 0 {
		delta = qty.Neg()
	}
	return &LedgerEvent{
		Kind:        kind,
		ItemKind:    item,
		ItemBarcode: barcode,
		Quantity:    qty,
		Delta:       delta,
		RefType:     ref,
		RefID:       refID,
	}
}

type PurchaseCategory string

const (
	PurchaseProduct  PurchaseCategory = "product"
	PurchaseMaterial PurchaseCategory = "material"
)

// ItemKind maps a purchase category onto the ledger's item kind.
func (c PurchaseCategory) ItemKind() ItemKind {
	if c == PurchaseProduct {
		return ItemProduct
	}
	return ItemMaterial
}

type Purchase struct {
	BaseModel
	ItemBarcode  string           `gorm:"type:varchar(100);not null;index" json:"item_barcode"`
	Category     PurchaseCategory `gorm:"type:varchar(20);not null" json:"category"`
	Quantity     decimal.Decimal  `gorm:"type:decimal(14,3);not null" json:"quantity"`
	UnitCost     decimal.Decimal  `gorm:"type:decimal(14,2);default:0" json:"unit_cost"`
	PurchaseDate time.Time        `json:"purchase_date"`
	Supplier     string           `gorm:"type:varchar(255)" json:"supplier"`
	Notes        string           `gorm:"type:text" json:"notes"`
}

type Sale struct {
	BaseModel
	ProductBarcode string          `gorm:"type:varchar(100);not null;index" json:"product_barcode"`
	Quantity       int64           `gorm:"not null" json:"quantity"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"total_price"`
	SaleDate       time.Time       `json:"sale_date"`
	Notes          string          `gorm:"type:text" json:"notes"`
}
