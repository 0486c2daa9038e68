package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product is a finished, discretely counted item.
// Stock is the running sum of its ledger deltas; it is written only by the ledger.
type Product struct {
	BaseModel
	Barcode          string                             `gorm:"type:varchar(100);uniqueIndex:idx_products_barcode_live,where:deleted_at IS NULL;not null" json:"barcode" validate:"required"`
	Name             string                             `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Category         string                             `gorm:"type:varchar(100)" json:"category"`
	Stock            int64                              `gorm:"default:0" json:"stock"`
	MinStock         int64                              `gorm:"default:0" json:"min_stock" validate:"gte=0"`
	Cost             decimal.Decimal                    `gorm:"type:decimal(14,2);default:0" json:"cost"`
	SalePrice        decimal.Decimal                    `gorm:"type:decimal(14,2);default:0" json:"sale_price"`
	PrintTimeMinutes int                                `gorm:"default:0" json:"print_time_minutes" validate:"gte=0"`
	Composition      datatypes.JSONSlice[CompositionLine] `json:"composition"`
}

// Material is a raw consumable (filament) measured by weight.
// On-hand quantity is not stored: it is derived from the material's ledger events.
type Material struct {
	BaseModel
	Barcode       string          `gorm:"type:varchar(100);uniqueIndex:idx_materials_barcode_live,where:deleted_at IS NULL;not null" json:"barcode" validate:"required"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	MaterialType  string          `gorm:"type:varchar(50)" json:"material_type"` // PLA, PETG, ABS...
	Color         string          `gorm:"type:varchar(50)" json:"color"`
	WeightPerUnit decimal.Decimal `gorm:"type:decimal(12,3);default:0" json:"weight_per_unit"`
	PricePerUnit  decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"price_per_unit"`
	MinStock      decimal.Decimal `gorm:"type:decimal(12,3);default:0" json:"min_stock"`
	Supplier      string          `gorm:"type:varchar(255)" json:"supplier"`

	OnHand decimal.Decimal `gorm:"-" json:"on_hand"`
}

// CompositionLine is one material requirement of a custom order or product.
type CompositionLine struct {
	MaterialBarcode string          `json:"material_barcode" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity" validate:"decimal_gt0"`
}

// Supplier is a plain address-book entry referenced by name from materials and purchases.
type Supplier struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Email   string `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	Address string `gorm:"type:text" json:"address"`
}

// PrintLog is a production record. It is distinct from machine reservations:
// it records what was printed, not when a printer is booked.
type PrintLog struct {
	BaseModel
	Name        string                             `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Composition datatypes.JSONSlice[CompositionLine] `json:"composition"`
	Notes       string                             `gorm:"type:text" json:"notes"`
	OrderID     *uuid.UUID                         `gorm:"type:uuid;index" json:"order_id,omitempty"`
}
