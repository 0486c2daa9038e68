package service

import (
	"context"
	"errors"
	"fmt"

	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/repository"
	"go-printshop-ws/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CatalogService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest, actor string) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest, actor string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)

	CreateMaterial(ctx context.Context, req CreateMaterialRequest, actor string) (*model.Material, error)
	UpdateMaterial(ctx context.Context, id uuid.UUID, req UpdateMaterialRequest, actor string) (*model.Material, error)
	ListMaterials(ctx context.Context) ([]model.Material, error)

	CreateSupplier(ctx context.Context, supplier *model.Supplier, actor string) error
	UpdateSupplier(ctx context.Context, id uuid.UUID, req UpdateSupplierRequest, actor string) (*model.Supplier, error)
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)

	CreateMachine(ctx context.Context, machine *model.Machine, actor string) error
	UpdateMachineStatus(ctx context.Context, id uuid.UUID, status model.MachineStatus, actor string) error
	ListMachines(ctx context.Context) ([]model.Machine, error)

	CreatePrintLog(ctx context.Context, log *model.PrintLog, actor string) error
	UpdatePrintLog(ctx context.Context, id uuid.UUID, req UpdatePrintLogRequest, actor string) (*model.PrintLog, error)
	ListPrintLogs(ctx context.Context) ([]model.PrintLog, error)

	GetStockLevel(ctx context.Context, barcode string) (*StockLevel, error)
	LowStock(ctx context.Context) ([]StockLevel, error)
}

type CreateProductRequest struct {
	Barcode          string                  `json:"barcode" validate:"required,max=100"`
	Name             string                  `json:"name" validate:"required,max=255"`
	Category         string                  `json:"category" validate:"max=100"`
	InitialStock     int64                   `json:"initial_stock" validate:"gte=0"`
	MinStock         int64                   `json:"min_stock" validate:"gte=0"`
	Cost             decimal.Decimal         `json:"cost" validate:"decimal_gte0"`
	SalePrice        decimal.Decimal         `json:"sale_price" validate:"decimal_gte0"`
	PrintTimeMinutes int                     `json:"print_time_minutes" validate:"gte=0"`
	Composition      []model.CompositionLine `json:"composition" validate:"dive"`
}

// UpdateProductRequest carries descriptive fields only; stock moves through the ledger.
type UpdateProductRequest struct {
	Name             string                  `json:"name" validate:"required,max=255"`
	Category         string                  `json:"category" validate:"max=100"`
	MinStock         int64                   `json:"min_stock" validate:"gte=0"`
	Cost             decimal.Decimal         `json:"cost" validate:"decimal_gte0"`
	SalePrice        decimal.Decimal         `json:"sale_price" validate:"decimal_gte0"`
	PrintTimeMinutes int                     `json:"print_time_minutes" validate:"gte=0"`
	Composition      []model.CompositionLine `json:"composition" validate:"dive"`
}

type CreateMaterialRequest struct {
	Barcode       string          `json:"barcode" validate:"required,max=100"`
	Name          string          `json:"name" validate:"required,max=255"`
	MaterialType  string          `json:"material_type" validate:"max=50"`
	Color         string          `json:"color" validate:"max=50"`
	WeightPerUnit decimal.Decimal `json:"weight_per_unit" validate:"decimal_gte0"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit" validate:"decimal_gte0"`
	MinStock      decimal.Decimal `json:"min_stock" validate:"decimal_gte0"`
	Supplier      string          `json:"supplier"`
	InitialStock  decimal.Decimal `json:"initial_stock" validate:"decimal_gte0"`
}

type UpdateMaterialRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	MaterialType  string          `json:"material_type" validate:"max=50"`
	Color         string          `json:"color" validate:"max=50"`
	WeightPerUnit decimal.Decimal `json:"weight_per_unit" validate:"decimal_gte0"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit" validate:"decimal_gte0"`
	MinStock      decimal.Decimal `json:"min_stock" validate:"decimal_gte0"`
	Supplier      string          `json:"supplier"`
}

type UpdateSupplierRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address"`
}

// UpdatePrintLogRequest edits the record only. Print logs carry no stock
// effect, so a changed composition moves nothing in the ledger.
type UpdatePrintLogRequest struct {
	Name        string                  `json:"name" validate:"required,max=255"`
	Composition []model.CompositionLine `json:"composition" validate:"dive"`
	Notes       string                  `json:"notes"`
}

// StockLevel is the on-hand view of one product or material.
type StockLevel struct {
	Barcode  string          `json:"barcode"`
	ItemKind model.ItemKind  `json:"item_kind"`
	Name     string          `json:"name"`
	OnHand   decimal.Decimal `json:"on_hand"`
	MinStock decimal.Decimal `json:"min_stock"`
	Low      bool            `json:"low"`
}

type catalogService struct {
	coord        *Coordinator
	productRepo  repository.ProductRepository
	materialRepo repository.MaterialRepository
	ledgerRepo   repository.LedgerRepository
	supplierRepo repository.SupplierRepository
	machineRepo  repository.MachineRepository
	printRepo    repository.PrintLogRepository
	notifier     Notifier
	log          *zap.Logger
}

func NewCatalogService(coord *Coordinator, productRepo repository.ProductRepository, materialRepo repository.MaterialRepository,
	ledgerRepo repository.LedgerRepository, supplierRepo repository.SupplierRepository, machineRepo repository.MachineRepository,
	printRepo repository.PrintLogRepository, notifier Notifier, log *zap.Logger) CatalogService {
	return &catalogService{
		coord:        coord,
		productRepo:  productRepo,
		materialRepo: materialRepo,
		ledgerRepo:   ledgerRepo,
		supplierRepo: supplierRepo,
		machineRepo:  machineRepo,
		printRepo:    printRepo,
		notifier:     notifierOrNop(notifier),
		log:          log,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest, actor string) (*model.Product, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindByBarcode(ctx, req.Barcode); err == nil {
		return nil, fmt.Errorf("%w: product barcode %s", ErrAlreadyExists, req.Barcode)
	}

	product := &model.Product{
		Barcode:          req.Barcode,
		Name:             req.Name,
		Category:         req.Category,
		Stock:            req.InitialStock,
		MinStock:         req.MinStock,
		Cost:             req.Cost,
		SalePrice:        req.SalePrice,
		PrintTimeMinutes: req.PrintTimeMinutes,
		Composition:      datatypes.NewJSONSlice(req.Composition),
	}
	product.CreatedBy = actor
	product.UpdatedBy = actor

	err := s.coord.Run(ctx, "create_product", func(tx *gorm.DB) error {
		if err := s.productRepo.Create(tx, product); err != nil {
			return err
		}
		if req.InitialStock == 0 {
			return nil
		}
		opening := model.NewLedgerEvent(model.LedgerOpening, model.ItemProduct, product.Barcode,
			decimal.NewFromInt(req.InitialStock), model.RefProduct, product.ID)
		opening.CreatedBy = actor
		return s.ledgerRepo.Append(tx, opening)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ws.Message{
		Type:    "stock_update",
		Action:  "product_created",
		Message: fmt.Sprintf("%s created product '%s'", actor, product.Name),
		Data:    product,
	})
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest, actor string) (*model.Product, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.coord.lookupError(err, "product", id)
	}

	product.Name = req.Name
	product.Category = req.Category
	product.MinStock = req.MinStock
	product.Cost = req.Cost
	product.SalePrice = req.SalePrice
	product.PrintTimeMinutes = req.PrintTimeMinutes
	product.Composition = datatypes.NewJSONSlice(req.Composition)
	product.UpdatedBy = actor
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, s.coord.classify("update_product", err)
	}

	s.notifier.Publish(ws.Message{Type: "stock_update", Action: "product_updated", Data: product})
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, s.coord.classify("list_products", err)
	}
	return products, nil
}

func (s *catalogService) CreateMaterial(ctx context.Context, req CreateMaterialRequest, actor string) (*model.Material, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	if _, err := s.materialRepo.FindByBarcode(ctx, req.Barcode); err == nil {
		return nil, fmt.Errorf("%w: material barcode %s", ErrAlreadyExists, req.Barcode)
	}

	material := &model.Material{
		Barcode:       req.Barcode,
		Name:          req.Name,
		MaterialType:  req.MaterialType,
		Color:         req.Color,
		WeightPerUnit: req.WeightPerUnit,
		PricePerUnit:  req.PricePerUnit,
		MinStock:      req.MinStock,
		Supplier:      req.Supplier,
		OnHand:        req.InitialStock,
	}
	material.CreatedBy = actor
	material.UpdatedBy = actor

	err := s.coord.Run(ctx, "create_material", func(tx *gorm.DB) error {
		if err := s.materialRepo.Create(tx, material); err != nil {
			return err
		}
		if req.InitialStock.IsZero() {
			return nil
		}
		opening := model.NewLedgerEvent(model.LedgerOpening, model.ItemMaterial, material.Barcode,
			req.InitialStock, model.RefMaterial, material.ID)
		opening.CreatedBy = actor
		return s.ledgerRepo.Append(tx, opening)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ws.Message{
		Type:    "stock_update",
		Action:  "material_created",
		Message: fmt.Sprintf("%s created material '%s'", actor, material.Name),
		Data:    material,
	})
	return material, nil
}

func (s *catalogService) UpdateMaterial(ctx context.Context, id uuid.UUID, req UpdateMaterialRequest, actor string) (*model.Material, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	material, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.coord.lookupError(err, "material", id)
	}

	material.Name = req.Name
	material.MaterialType = req.MaterialType
	material.Color = req.Color
	material.WeightPerUnit = req.WeightPerUnit
	material.PricePerUnit = req.PricePerUnit
	material.MinStock = req.MinStock
	material.Supplier = req.Supplier
	material.UpdatedBy = actor
	if err := s.materialRepo.Update(ctx, material); err != nil {
		return nil, s.coord.classify("update_material", err)
	}

	onHand, err := s.ledgerRepo.SumDelta(s.coord.DB().WithContext(ctx), model.ItemMaterial, material.Barcode)
	if err != nil {
		return nil, s.coord.classify("update_material", err)
	}
	material.OnHand = onHand

	s.notifier.Publish(ws.Message{Type: "stock_update", Action: "material_updated", Data: material})
	return material, nil
}

// ListMaterials fills each material's derived on-hand quantity.
func (s *catalogService) ListMaterials(ctx context.Context) ([]model.Material, error) {
	materials, err := s.materialRepo.FindAll(ctx)
	if err != nil {
		return nil, s.coord.classify("list_materials", err)
	}
	sums, err := s.ledgerRepo.SumDeltasByItem(ctx, model.ItemMaterial)
	if err != nil {
		return nil, s.coord.classify("list_materials", err)
	}
	for i := range materials {
		materials[i].OnHand = sums[materials[i].Barcode]
	}
	return materials, nil
}

func (s *catalogService) CreateSupplier(ctx context.Context, supplier *model.Supplier, actor string) error {
	if err := validate(supplier); err != nil {
		return err
	}
	supplier.CreatedBy = actor
	supplier.UpdatedBy = actor
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return s.coord.classify("create_supplier", err)
	}
	return nil
}

func (s *catalogService) UpdateSupplier(ctx context.Context, id uuid.UUID, req UpdateSupplierRequest, actor string) (*model.Supplier, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.coord.lookupError(err, "supplier", id)
	}

	supplier.Name = req.Name
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.Address = req.Address
	supplier.UpdatedBy = actor
	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, s.coord.classify("update_supplier", err)
	}
	return supplier, nil
}

func (s *catalogService) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	suppliers, err := s.supplierRepo.FindAll(ctx)
	if err != nil {
		return nil, s.coord.classify("list_suppliers", err)
	}
	return suppliers, nil
}

func (s *catalogService) CreateMachine(ctx context.Context, machine *model.Machine, actor string) error {
	if err := validate(machine); err != nil {
		return err
	}
	if machine.Status == "" {
		machine.Status = model.MachineAvailable
	}
	machine.CreatedBy = actor
	machine.UpdatedBy = actor
	if err := s.machineRepo.Create(ctx, machine); err != nil {
		return s.coord.classify("create_machine", err)
	}
	s.notifier.Publish(ws.Message{Type: "schedule_update", Action: "machine_created", Data: machine})
	return nil
}

func (s *catalogService) UpdateMachineStatus(ctx context.Context, id uuid.UUID, status model.MachineStatus, actor string) error {
	if status != model.MachineAvailable && status != model.MachineBusy {
		return fmt.Errorf("%w: unknown machine status %q", ErrValidation, status)
	}
	if err := s.machineRepo.UpdateStatus(ctx, id, status, actor); err != nil {
		return s.coord.lookupError(err, "machine", id)
	}
	s.notifier.Publish(ws.Message{
		Type:   "schedule_update",
		Action: "machine_status_changed",
		Data:   map[string]interface{}{"machine_id": id, "status": status},
	})
	return nil
}

func (s *catalogService) ListMachines(ctx context.Context) ([]model.Machine, error) {
	machines, err := s.machineRepo.FindAll(ctx)
	if err != nil {
		return nil, s.coord.classify("list_machines", err)
	}
	return machines, nil
}

// CreatePrintLog records a manual production entry. It has no stock effect.
func (s *catalogService) CreatePrintLog(ctx context.Context, log *model.PrintLog, actor string) error {
	if err := validate(log); err != nil {
		return err
	}
	log.CreatedBy = actor
	log.UpdatedBy = actor
	if err := s.printRepo.Create(s.coord.DB().WithContext(ctx), log); err != nil {
		return s.coord.classify("create_print_log", err)
	}
	s.notifier.Publish(ws.Message{Type: "print_update", Action: "print_logged", Data: log})
	return nil
}

func (s *catalogService) UpdatePrintLog(ctx context.Context, id uuid.UUID, req UpdatePrintLogRequest, actor string) (*model.PrintLog, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	log, err := s.printRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.coord.lookupError(err, "print log", id)
	}

	log.Name = req.Name
	log.Composition = datatypes.NewJSONSlice(req.Composition)
	log.Notes = req.Notes
	log.UpdatedBy = actor
	if err := s.printRepo.Update(ctx, log); err != nil {
		return nil, s.coord.classify("update_print_log", err)
	}

	s.notifier.Publish(ws.Message{Type: "print_update", Action: "print_updated", Data: log})
	return log, nil
}

func (s *catalogService) ListPrintLogs(ctx context.Context) ([]model.PrintLog, error) {
	logs, err := s.printRepo.FindAll(ctx)
	if err != nil {
		return nil, s.coord.classify("list_print_logs", err)
	}
	return logs, nil
}

// GetStockLevel looks the barcode up as a product first, then as a material.
func (s *catalogService) GetStockLevel(ctx context.Context, barcode string) (*StockLevel, error) {
	product, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err == nil {
		level := productLevel(product)
		return &level, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.coord.classify("get_stock_level", err)
	}

	material, err := s.materialRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, s.coord.lookupError(err, "stock item", barcode)
	}
	onHand, err := s.ledgerRepo.SumDelta(s.coord.DB().WithContext(ctx), model.ItemMaterial, barcode)
	if err != nil {
		return nil, s.coord.classify("get_stock_level", err)
	}
	material.OnHand = onHand
	level := materialLevel(material)
	return &level, nil
}

// LowStock lists every product and material whose on-hand is below its minimum.
func (s *catalogService) LowStock(ctx context.Context) ([]StockLevel, error) {
	var levels []StockLevel

	products, err := s.productRepo.FindBelowMinimum(ctx)
	if err != nil {
		return nil, s.coord.classify("low_stock", err)
	}
	for i := range products {
		levels = append(levels, productLevel(&products[i]))
	}

	materials, err := s.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	for i := range materials {
		if level := materialLevel(&materials[i]); level.Low {
			levels = append(levels, level)
		}
	}
	return levels, nil
}

func productLevel(p *model.Product) StockLevel {
	return StockLevel{
		Barcode:  p.Barcode,
		ItemKind: model.ItemProduct,
		Name:     p.Name,
		OnHand:   decimal.NewFromInt(p.Stock),
		MinStock: decimal.NewFromInt(p.MinStock),
		Low:      p.Stock < p.MinStock,
	}
}

func materialLevel(m *model.Material) StockLevel {
	return StockLevel{
		Barcode:  m.Barcode,
		ItemKind: model.ItemMaterial,
		Name:     m.Name,
		OnHand:   m.OnHand,
		MinStock: m.MinStock,
		Low:      m.OnHand.LessThan(m.MinStock),
	}
}
