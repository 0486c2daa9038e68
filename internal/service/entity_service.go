package service

import (
	"context"
	"errors"
	"fmt"

	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/repository"
	"go-printshop-ws/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EntityService deletes records addressed by kind and id. Kinds that other
// records depend on are refused while those references exist.
type EntityService interface {
	DeleteEntity(ctx context.Context, kind model.EntityKind, id uuid.UUID, actor string) error
}

type entityService struct {
	coord           *Coordinator
	productRepo     repository.ProductRepository
	materialRepo    repository.MaterialRepository
	supplierRepo    repository.SupplierRepository
	purchaseRepo    repository.PurchaseRepository
	saleRepo        repository.SaleRepository
	orderRepo       repository.OrderRepository
	machineRepo     repository.MachineRepository
	reservationRepo repository.ReservationRepository
	printRepo       repository.PrintLogRepository
	ledgerRepo      repository.LedgerRepository
	notifier        Notifier
	log             *zap.Logger
}

// EntityRepos groups the repositories the delete path needs.
type EntityRepos struct {
	Products     repository.ProductRepository
	Materials    repository.MaterialRepository
	Suppliers    repository.SupplierRepository
	Purchases    repository.PurchaseRepository
	Sales        repository.SaleRepository
	Orders       repository.OrderRepository
	Machines     repository.MachineRepository
	Reservations repository.ReservationRepository
	PrintLogs    repository.PrintLogRepository
	Ledger       repository.LedgerRepository
}

func NewEntityService(coord *Coordinator, repos EntityRepos, notifier Notifier, log *zap.Logger) EntityService {
	return &entityService{
		coord:           coord,
		productRepo:     repos.Products,
		materialRepo:    repos.Materials,
		supplierRepo:    repos.Suppliers,
		purchaseRepo:    repos.Purchases,
		saleRepo:        repos.Sales,
		orderRepo:       repos.Orders,
		machineRepo:     repos.Machines,
		reservationRepo: repos.Reservations,
		printRepo:       repos.PrintLogs,
		ledgerRepo:      repos.Ledger,
		notifier:        notifierOrNop(notifier),
		log:             log,
	}
}

func (s *entityService) DeleteEntity(ctx context.Context, kind model.EntityKind, id uuid.UUID, actor string) error {
	var del func(tx *gorm.DB) error
	switch kind {
	case model.KindProduct:
		del = func(tx *gorm.DB) error { return s.deleteProduct(tx, id, actor) }
	case model.KindMaterial:
		del = func(tx *gorm.DB) error { return s.deleteMaterial(tx, id, actor) }
	case model.KindOrder:
		del = func(tx *gorm.DB) error { return s.deleteOrder(tx, id, actor) }
	case model.KindMachine:
		del = func(tx *gorm.DB) error { return s.deleteMachine(tx, id, actor) }
	case model.KindSupplier:
		del = func(tx *gorm.DB) error { return s.supplierRepo.Delete(tx, id, actor) }
	case model.KindPurchase:
		del = func(tx *gorm.DB) error { return s.purchaseRepo.Delete(tx, id, actor) }
	case model.KindSale:
		del = func(tx *gorm.DB) error { return s.saleRepo.Delete(tx, id, actor) }
	case model.KindPrint:
		del = func(tx *gorm.DB) error { return s.printRepo.Delete(tx, id, actor) }
	case model.KindReservation:
		del = func(tx *gorm.DB) error { return s.reservationRepo.Delete(tx, id, actor) }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEntityKind, kind)
	}

	if err := s.coord.Run(ctx, "delete_"+string(kind), del); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
		}
		return err
	}

	s.log.Info("record deleted", zap.String("kind", string(kind)), zap.String("id", id.String()), zap.String("actor", actor))
	s.notifier.Publish(ws.Message{
		Type:    "record_update",
		Action:  "record_deleted",
		Message: fmt.Sprintf("%s deleted %s", actor, kind),
		Data:    map[string]interface{}{"kind": kind, "id": id},
	})
	return nil
}

func referenced(kind model.EntityKind, id interface{}, by string, n int64) error {
	return fmt.Errorf("%w: %s %v has %d %s", ErrEntityReferenced, kind, id, n, by)
}

func (s *entityService) deleteProduct(tx *gorm.DB, id uuid.UUID, actor string) error {
	product, err := s.productRepo.LockByID(tx, id)
	if err != nil {
		return err
	}
	if n, err := s.ledgerRepo.CountByItem(tx, model.ItemProduct, product.Barcode); err != nil {
		return err
	} else if n > 0 {
		return referenced(model.KindProduct, product.Barcode, "ledger event(s)", n)
	}
	if n, err := s.orderRepo.CountByProduct(tx, product.Barcode); err != nil {
		return err
	} else if n > 0 {
		return referenced(model.KindProduct, product.Barcode, "order(s)", n)
	}
	return s.productRepo.Delete(tx, id, actor)
}

func (s *entityService) deleteMaterial(tx *gorm.DB, id uuid.UUID, actor string) error {
	material, err := s.materialRepo.LockByID(tx, id)
	if err != nil {
		return err
	}
	if n, err := s.ledgerRepo.CountByItem(tx, model.ItemMaterial, material.Barcode); err != nil {
		return err
	} else if n > 0 {
		return referenced(model.KindMaterial, material.Barcode, "ledger event(s)", n)
	}
	if n, err := s.reservationRepo.CountByMaterial(tx, material.Barcode); err != nil {
		return err
	} else if n > 0 {
		return referenced(model.KindMaterial, material.Barcode, "reservation(s)", n)
	}
	if used, err := s.orderRepo.ReferencesMaterial(tx, material.Barcode); err != nil {
		return err
	} else if used {
		return fmt.Errorf("%w: material %s is part of an order composition", ErrEntityReferenced, material.Barcode)
	}
	return s.materialRepo.Delete(tx, id, actor)
}

func (s *entityService) deleteOrder(tx *gorm.DB, id uuid.UUID, actor string) error {
	if n, err := s.reservationRepo.CountByOrder(tx, id); err != nil {
		return err
	} else if n > 0 {
		return referenced(model.KindOrder, id, "reservation(s)", n)
	}
	if n, err := s.ledgerRepo.CountByRef(tx, model.RefOrder, id); err != nil {
		return err
	} else if n > 0 {
		return referenced(model.KindOrder, id, "ledger event(s)", n)
	}
	return s.orderRepo.Delete(tx, id, actor)
}

func (s *entityService) deleteMachine(tx *gorm.DB, id uuid.UUID, actor string) error {
	if n, err := s.reservationRepo.CountByMachine(tx, id); err != nil {
		return err
	} else if n > 0 {
		return referenced(model.KindMachine, id, "reservation(s)", n)
	}
	return s.machineRepo.Delete(tx, id, actor)
}
