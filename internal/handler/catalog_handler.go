package handler

import (
	"go-printshop-ws/internal/middleware"
	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	catalog service.CatalogService
}

func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ==================== PRODUCTS ====================

// POST /api/v1/products
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.catalog.CreateProduct(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Product created successfully",
		"data":    product,
	})
}

// PUT /api/v1/products/:id
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	var req service.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.catalog.UpdateProduct(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"data":    product,
	})
}

// GET /api/v1/products
func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListProducts(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": products})
}

// ==================== MATERIALS ====================

// POST /api/v1/materials
func (h *CatalogHandler) CreateMaterial(c *fiber.Ctx) error {
	var req service.CreateMaterialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	material, err := h.catalog.CreateMaterial(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Material created successfully",
		"data":    material,
	})
}

// PUT /api/v1/materials/:id
func (h *CatalogHandler) UpdateMaterial(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid material ID"})
	}
	var req service.UpdateMaterialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	material, err := h.catalog.UpdateMaterial(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Material updated successfully",
		"data":    material,
	})
}

// GET /api/v1/materials
func (h *CatalogHandler) GetMaterials(c *fiber.Ctx) error {
	materials, err := h.catalog.ListMaterials(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": materials})
}

// ==================== STOCK ====================

// GET /api/v1/stock/low
func (h *CatalogHandler) GetLowStock(c *fiber.Ctx) error {
	levels, err := h.catalog.LowStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": levels})
}

// GET /api/v1/stock/:barcode
func (h *CatalogHandler) GetStockLevel(c *fiber.Ctx) error {
	level, err := h.catalog.GetStockLevel(c.UserContext(), c.Params("barcode"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": level})
}

// ==================== SUPPLIERS ====================

// POST /api/v1/suppliers
func (h *CatalogHandler) CreateSupplier(c *fiber.Ctx) error {
	var supplier model.Supplier
	if err := c.BodyParser(&supplier); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.catalog.CreateSupplier(c.UserContext(), &supplier, middleware.Actor(c)); err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Supplier created successfully",
		"data":    supplier,
	})
}

// PUT /api/v1/suppliers/:id
func (h *CatalogHandler) UpdateSupplier(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier ID"})
	}
	var req service.UpdateSupplierRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	supplier, err := h.catalog.UpdateSupplier(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Supplier updated successfully",
		"data":    supplier,
	})
}

// GET /api/v1/suppliers
func (h *CatalogHandler) GetSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.catalog.ListSuppliers(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": suppliers})
}

// ==================== MACHINES ====================

// POST /api/v1/machines
func (h *CatalogHandler) CreateMachine(c *fiber.Ctx) error {
	var machine model.Machine
	if err := c.BodyParser(&machine); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.catalog.CreateMachine(c.UserContext(), &machine, middleware.Actor(c)); err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Machine created successfully",
		"data":    machine,
	})
}

// PUT /api/v1/machines/:id/status
func (h *CatalogHandler) UpdateMachineStatus(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid machine ID"})
	}
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.catalog.UpdateMachineStatus(c.UserContext(), id, model.MachineStatus(req.Status), middleware.Actor(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Machine status updated"})
}

// GET /api/v1/machines
func (h *CatalogHandler) GetMachines(c *fiber.Ctx) error {
	machines, err := h.catalog.ListMachines(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": machines})
}

// ==================== PRINT LOGS ====================

// POST /api/v1/prints
func (h *CatalogHandler) CreatePrintLog(c *fiber.Ctx) error {
	var log model.PrintLog
	if err := c.BodyParser(&log); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.catalog.CreatePrintLog(c.UserContext(), &log, middleware.Actor(c)); err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Print logged successfully",
		"data":    log,
	})
}

// PUT /api/v1/prints/:id
func (h *CatalogHandler) UpdatePrintLog(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid print log ID"})
	}
	var req service.UpdatePrintLogRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	log, err := h.catalog.UpdatePrintLog(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Print log updated successfully",
		"data":    log,
	})
}

// GET /api/v1/prints
func (h *CatalogHandler) GetPrintLogs(c *fiber.Ctx) error {
	logs, err := h.catalog.ListPrintLogs(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": logs})
}
