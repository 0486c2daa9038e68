package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-printshop-ws/internal/metrics"
	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/repository"
	"go-printshop-ws/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest, actor string) (*model.Order, error)
	TransitionOrderStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus, actor string) (*model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, status *model.OrderStatus) ([]model.Order, error)
}

type CreateOrderRequest struct {
	ClientName       string                  `json:"client_name" validate:"required,max=255"`
	OrderType        model.OrderType         `json:"order_type" validate:"required,oneof=standard custom"`
	ProductBarcode   *string                 `json:"product_barcode"`
	Quantity         int64                   `json:"quantity" validate:"gt=0"`
	DueDate          *time.Time              `json:"due_date"`
	Composition      []model.CompositionLine `json:"composition" validate:"dive"`
	PrintTimeMinutes int                     `json:"print_time_minutes" validate:"gte=0"`
}

type orderService struct {
	coord        *Coordinator
	stock        *stockLedger
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	materialRepo repository.MaterialRepository
	printRepo    repository.PrintLogRepository
	notifier     Notifier
	metrics      *metrics.Metrics
	log          *zap.Logger
}

func NewOrderService(coord *Coordinator, orderRepo repository.OrderRepository, productRepo repository.ProductRepository,
	materialRepo repository.MaterialRepository, ledgerRepo repository.LedgerRepository, printRepo repository.PrintLogRepository,
	notifier Notifier, m *metrics.Metrics, log *zap.Logger) OrderService {
	return &orderService{
		coord:        coord,
		stock:        newStockLedger(productRepo, materialRepo, ledgerRepo),
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		materialRepo: materialRepo,
		printRepo:    printRepo,
		notifier:     notifierOrNop(notifier),
		metrics:      m,
		log:          log,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest, actor string) (*model.Order, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	switch req.OrderType {
	case model.OrderStandard:
		if req.ProductBarcode == nil || strings.TrimSpace(*req.ProductBarcode) == "" {
			return nil, fmt.Errorf("%w: standard orders need a product_barcode", ErrValidation)
		}
		if _, err := s.productRepo.FindByBarcode(ctx, *req.ProductBarcode); err != nil {
			return nil, s.coord.lookupError(err, "product", *req.ProductBarcode)
		}
	case model.OrderCustom:
		if len(req.Composition) == 0 {
			return nil, fmt.Errorf("%w: custom orders need a composition", ErrValidation)
		}
		for _, line := range req.Composition {
			if _, err := s.materialRepo.FindByBarcode(ctx, line.MaterialBarcode); err != nil {
				return nil, s.coord.lookupError(err, "material", line.MaterialBarcode)
			}
		}
	}

	order := &model.Order{
		ClientName:       req.ClientName,
		ProductBarcode:   req.ProductBarcode,
		Quantity:         req.Quantity,
		DueDate:          req.DueDate,
		OrderType:        req.OrderType,
		Composition:      datatypes.NewJSONSlice(req.Composition),
		PrintTimeMinutes: req.PrintTimeMinutes,
		Status:           model.OrderPending,
	}
	order.CreatedBy = actor
	order.UpdatedBy = actor

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, s.coord.classify("create_order", err)
	}

	s.notifier.Publish(ws.Message{
		Type:    "order_update",
		Action:  "order_created",
		Message: fmt.Sprintf("%s created an order for %s", actor, order.ClientName),
		Data:    order,
	})
	return order, nil
}

// TransitionOrderStatus moves an order through its lifecycle. The first move
// to completed consumes stock in the same transaction; re-issuing the current
// status changes nothing.
func (s *orderService) TransitionOrderStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus, actor string) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}

	var (
		order   *model.Order
		events  []*model.LedgerEvent
		printed *model.PrintLog
		changed bool
	)
	err := s.coord.Run(ctx, "transition_order", func(tx *gorm.DB) error {
		current, err := s.orderRepo.LockByID(tx, orderID)
		if err != nil {
			return err
		}
		order = current
		if current.Status == status {
			return nil
		}
		if !current.Status.CanTransition(status) {
			return fmt.Errorf("%w: order %s -> %s", ErrInvalidTransition, current.Status, status)
		}

		if status == model.OrderCompleted {
			events, printed, err = s.consume(tx, current, actor)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			current.CompletedAt = &now
		}

		current.Status = status
		current.UpdatedBy = actor
		if err := s.orderRepo.UpdateStatus(tx, current); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	countEvents(s.metrics, events)
	s.metrics.Transition(string(status))
	s.log.Info("order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(status)),
		zap.Int("ledger_events", len(events)))

	s.notifier.Publish(ws.Message{
		Type:    "order_update",
		Action:  "order_status_changed",
		Message: fmt.Sprintf("%s moved order for %s to %s", actor, order.ClientName, status),
		Data:    order,
	})
	if len(events) > 0 {
		s.notifier.Publish(ws.Message{
			Type:   "stock_update",
			Action: "order_consumed",
			Data:   map[string]interface{}{"order_id": orderID, "barcodes": eventBarcodes(events)},
		})
	}
	if printed != nil {
		s.notifier.Publish(ws.Message{Type: "print_update", Action: "print_logged", Data: printed})
	}
	return order, nil
}

// consume applies the completion side effects of an order.
func (s *orderService) consume(tx *gorm.DB, order *model.Order, actor string) ([]*model.LedgerEvent, *model.PrintLog, error) {
	switch order.OrderType {
	case model.OrderCustom:
		var events []*model.LedgerEvent
		for _, line := range order.Composition {
			e, err := s.stock.applyMaterial(tx, model.LedgerOrderConsumption, line.MaterialBarcode, line.Quantity, model.RefOrder, order.ID, actor)
			if err != nil {
				return nil, nil, err
			}
			events = append(events, e)
		}

		orderID := order.ID
		printLog := &model.PrintLog{
			Name:        "Order: " + order.ClientName,
			Composition: order.Composition,
			Notes:       fmt.Sprintf("Generated on completion of custom order %s", order.ID),
			OrderID:     &orderID,
		}
		printLog.CreatedBy = actor
		printLog.UpdatedBy = actor
		if err := s.printRepo.Create(tx, printLog); err != nil {
			return nil, nil, err
		}
		return events, printLog, nil

	default:
		if order.ProductBarcode == nil {
			return nil, nil, fmt.Errorf("%w: order %s has no product", ErrValidation, order.ID)
		}
		e, err := s.stock.applyProduct(tx, model.LedgerOrderConsumption, *order.ProductBarcode, order.Quantity, model.RefOrder, order.ID, actor)
		if err != nil {
			return nil, nil, err
		}
		return []*model.LedgerEvent{e}, nil, nil
	}
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.coord.lookupError(err, "order", id)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, status *model.OrderStatus) ([]model.Order, error) {
	orders, err := s.orderRepo.FindAll(ctx, status)
	if err != nil {
		return nil, s.coord.classify("list_orders", err)
	}
	return orders, nil
}
