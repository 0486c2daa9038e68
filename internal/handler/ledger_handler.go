package handler

import (
	"go-printshop-ws/internal/middleware"
	"go-printshop-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LedgerHandler struct {
	ledger service.LedgerService
}

func NewLedgerHandler(ledger service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// RecordPurchase adds stock for a product or material
// POST /api/v1/purchases
func (h *LedgerHandler) RecordPurchase(c *fiber.Ctx) error {
	var req service.RecordPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	purchase, err := h.ledger.RecordPurchase(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Purchase recorded successfully",
		"data":    purchase,
	})
}

// EditPurchase books the corrected purchase and reverses the old one atomically
// PUT /api/v1/purchases/:id
func (h *LedgerHandler) EditPurchase(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid purchase ID"})
	}
	var req service.EditPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	purchase, err := h.ledger.EditPurchase(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Purchase updated successfully",
		"data":    purchase,
	})
}

// GET /api/v1/purchases
func (h *LedgerHandler) GetPurchases(c *fiber.Ctx) error {
	purchases, err := h.ledger.ListPurchases(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": purchases})
}

// RecordSale deducts product stock
// POST /api/v1/sales
func (h *LedgerHandler) RecordSale(c *fiber.Ctx) error {
	var req service.RecordSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	sale, err := h.ledger.RecordSale(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Sale recorded successfully",
		"data":    sale,
	})
}

// EditSale reverses the old sale and applies the new one atomically
// PUT /api/v1/sales/:id
func (h *LedgerHandler) EditSale(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}
	var req service.EditSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	sale, err := h.ledger.EditSale(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Sale updated successfully",
		"data":    sale,
	})
}

// GET /api/v1/sales
func (h *LedgerHandler) GetSales(c *fiber.Ctx) error {
	sales, err := h.ledger.ListSales(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": sales})
}

// GET /api/v1/ledger?barcode=
func (h *LedgerHandler) GetLedger(c *fiber.Ctx) error {
	events, err := h.ledger.ListLedger(c.UserContext(), c.Query("barcode"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": events})
}
