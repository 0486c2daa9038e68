package handler

import (
	"go-printshop-ws/internal/middleware"
	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	orders service.OrderService
}

func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.orders.CreateOrder(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Order created successfully",
		"data":    order,
	})
}

// PUT /api/v1/orders/:id/status
// Moving an order to completed consumes its stock.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.orders.TransitionOrderStatus(c.UserContext(), id, model.OrderStatus(req.Status), middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order status updated",
		"data":    order,
	})
}

// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	order, err := h.orders.GetOrder(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": order})
}

// GET /api/v1/orders?status=
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	var status *model.OrderStatus
	if v := c.Query("status"); v != "" {
		s := model.OrderStatus(v)
		if !s.Valid() {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid status"})
		}
		status = &s
	}

	orders, err := h.orders.ListOrders(c.UserContext(), status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": orders})
}
