package model

import (
	"time"

	"gorm.io/datatypes"
)

type OrderType string

const (
	OrderStandard OrderType = "standard"
	OrderCustom   OrderType = "custom"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderInProgress, OrderCompleted, OrderCancelled},
	OrderInProgress: {OrderCompleted, OrderCancelled},
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransition reports whether an order may move from s to next.
// Staying in the same status is not a transition and returns false.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	BaseModel
	ClientName       string                               `gorm:"type:varchar(255);not null" json:"client_name"`
	ProductBarcode   *string                              `gorm:"type:varchar(100);index" json:"product_barcode,omitempty"`
	Quantity         int64                                `gorm:"not null;default:1" json:"quantity"`
	DueDate          *time.Time                           `json:"due_date,omitempty"`
	OrderType        OrderType                            `gorm:"type:varchar(20);not null;default:'standard'" json:"order_type"`
	Composition      datatypes.JSONSlice[CompositionLine] `json:"composition"`
	PrintTimeMinutes int                                  `gorm:"default:0" json:"print_time_minutes"`
	Status           OrderStatus                          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CompletedAt      *time.Time                           `json:"completed_at,omitempty"`
}
