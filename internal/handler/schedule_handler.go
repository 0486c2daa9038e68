package handler

import (
	"time"

	"go-printshop-ws/internal/middleware"
	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ScheduleHandler struct {
	scheduler service.SchedulerService
}

func NewScheduleHandler(scheduler service.SchedulerService) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler}
}

type RescheduleRequest struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type DelayRequest struct {
	Minutes int `json:"minutes"`
}

// CreateReservation books a machine slot
// POST /api/v1/reservations
func (h *ScheduleHandler) CreateReservation(c *fiber.Ctx) error {
	var req service.CreateReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	reservation, err := h.scheduler.CreateReservation(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Reservation created successfully",
		"data":    reservation,
	})
}

// RescheduleReservation moves a reservation to a new interval
// PUT /api/v1/reservations/:id
func (h *ScheduleHandler) RescheduleReservation(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid reservation ID"})
	}
	var req RescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	reservation, err := h.scheduler.RescheduleReservation(c.UserContext(), id, req.StartAt, req.EndAt, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Reservation updated successfully",
		"data":    reservation,
	})
}

// UpdateReservationStatus
// PUT /api/v1/reservations/:id/status
func (h *ScheduleHandler) UpdateReservationStatus(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid reservation ID"})
	}
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	reservation, err := h.scheduler.UpdateReservationStatus(c.UserContext(), id, model.ReservationStatus(req.Status), middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"data": reservation})
}

// ReportDelay shifts the reservation and everything after it on the machine
// POST /api/v1/reservations/:id/delay
func (h *ScheduleHandler) ReportDelay(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid reservation ID"})
	}
	var req DelayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	moved, err := h.scheduler.ReportDelay(c.UserContext(), id, req.Minutes, middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Schedule shifted",
		"moved":   moved,
	})
}

// GetReservations lists reservations intersecting [from, to)
// GET /api/v1/reservations?machine_id=&from=&to=
// from/to are RFC3339; the default window is the next 7 days.
func (h *ScheduleHandler) GetReservations(c *fiber.Ctx) error {
	from := time.Now().UTC().Truncate(24 * time.Hour)
	to := from.Add(7 * 24 * time.Hour)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid from, use RFC3339"})
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid to, use RFC3339"})
		}
		to = t
	}

	var machineID *uuid.UUID
	if v := c.Query("machine_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid machine ID"})
		}
		machineID = &id
	}

	reservations, err := h.scheduler.ListReservations(c.UserContext(), machineID, from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": reservations})
}

// CheckConflict reports whether a candidate interval would collide
// GET /api/v1/reservations/conflict?machine_id=&start_at=&end_at=&exclude_id=
func (h *ScheduleHandler) CheckConflict(c *fiber.Ctx) error {
	machineID, err := uuid.Parse(c.Query("machine_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid machine ID"})
	}
	start, err := time.Parse(time.RFC3339, c.Query("start_at"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid start_at, use RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, c.Query("end_at"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid end_at, use RFC3339"})
	}

	var exclude *uuid.UUID
	if v := c.Query("exclude_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid exclude ID"})
		}
		exclude = &id
	}

	conflict, err := h.scheduler.CheckConflict(c.UserContext(), machineID, start, end, exclude)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"conflict": conflict})
}
