package handler

import (
	"errors"

	"go-printshop-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidInterval),
		errors.Is(err, service.ErrInvalidDelay),
		errors.Is(err, service.ErrUnknownEntityKind):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrScheduleConflict),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrEntityReferenced),
		errors.Is(err, service.ErrReservationClosed),
		errors.Is(err, service.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInsufficientStock):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := fiber.Map{"error": err.Error()}

	var conflict *service.ScheduleConflictError
	if errors.As(err, &conflict) {
		body["conflict"] = fiber.Map{
			"reservation_id": conflict.ReservationID,
			"start_at":       conflict.StartAt,
			"end_at":         conflict.EndAt,
		}
	}
	if status == fiber.StatusInternalServerError {
		body["error"] = "Internal server error"
	}
	return c.Status(status).JSON(body)
}

func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}
